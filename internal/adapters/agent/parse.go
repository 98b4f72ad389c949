package agent

import (
	"regexp"
	"strings"

	"github.com/example/exchange/internal/ports/secondary"
)

var (
	summaryHeader  = regexp.MustCompile(`(?i)===\s*EXECUTIVE\s*SUMMARY\s*===`)
	outlineHeader  = regexp.MustCompile(`(?i)===\s*SLIDE\s*OUTLINE\s*===`)
	researchHeader = regexp.MustCompile(`(?i)===\s*RAW\s*RESEARCH\s*===`)
)

// ParseResearchOutput splits a collaborator response into its sections.
// Handles both well-formatted and messy responses: when no section markers
// are present the whole text becomes the raw research and the first
// paragraphs stand in for the summary.
func ParseResearchOutput(raw string) *secondary.ResearchOutput {
	out := &secondary.ResearchOutput{RawText: raw}
	if raw == "" {
		return out
	}

	out.Summary = section(raw, summaryHeader)
	out.SlideOutline = section(raw, outlineHeader)
	out.RawResearch = section(raw, researchHeader)

	if out.Summary == "" && out.SlideOutline == "" {
		out.RawResearch = raw
		paragraphs := splitParagraphs(raw)
		if len(paragraphs) >= 2 {
			out.Summary = strings.Join(paragraphs[:2], "\n\n")
		} else if len(raw) > 500 {
			out.Summary = raw[:500] + "..."
		} else {
			out.Summary = raw
		}
	}

	return out
}

// section extracts the text between a header and the next "===" line.
func section(raw string, header *regexp.Regexp) string {
	loc := header.FindStringIndex(raw)
	if loc == nil {
		return ""
	}

	body := raw[loc[1]:]
	if end := strings.Index(body, "\n==="); end != -1 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

func splitParagraphs(raw string) []string {
	var paragraphs []string
	for _, p := range strings.Split(raw, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
