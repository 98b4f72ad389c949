package agent

import "fmt"

const defaultSlideCount = 8

func buildResearchPrompt(topic, context string, numSlides int) string {
	if numSlides <= 0 {
		numSlides = defaultSlideCount
	}

	prompt := fmt.Sprintf(`You are a research assistant for a capability exchange.

TASK: Research the following topic thoroughly using web_search: %q
`, topic)

	if context != "" {
		prompt += fmt.Sprintf(`
CONTEXT from the collaboration so far:
%s
`, context)
	}

	prompt += fmt.Sprintf(`
After completing your research, return your findings in this EXACT format (use the section headers exactly as shown):

=== EXECUTIVE SUMMARY ===
Write a 2-3 paragraph executive summary of your findings. Include the most important facts, trends, and implications.

=== SLIDE OUTLINE ===
Create a %d-slide presentation outline. For each slide, provide:
Slide 1: [Title]
- [Key point 1]
- [Key point 2]
- [Key point 3]

(Continue for all %d slides)

=== RAW RESEARCH ===
Include your complete research findings with all data points, statistics, sources, and detailed information gathered from your web search.

IMPORTANT: Execute the web_search NOW, then organize and return your findings in the format above.`, numSlides, numSlides)

	return prompt
}

func buildRefinementPrompt(feedback string) string {
	return fmt.Sprintf(`The human reviewer has provided feedback on your previous research.
Please refine and improve your research based on their instructions.

REVIEWER FEEDBACK:
%s

INSTRUCTIONS:
1. Do NOT start over. Build upon your previous research.
2. Address the specific feedback points above.
3. If the reviewer asks for more depth on a topic, use web_search to gather additional information.
4. Return your UPDATED findings in the same format:

=== EXECUTIVE SUMMARY ===
[Updated summary incorporating the feedback]

=== SLIDE OUTLINE ===
[Updated slide outline incorporating the feedback]

=== RAW RESEARCH ===
[Updated research with any new findings added to the previous research]

Make sure to incorporate the reviewer's feedback while preserving the valuable parts of your original research.`, feedback)
}

func buildGenerationPrompt(topic, researchText string) string {
	excerpt := researchText
	if len(excerpt) > 500 {
		excerpt = excerpt[:500]
	}

	return fmt.Sprintf(`You are tasked with creating a professional PowerPoint presentation.

Based on research: %s

Create a professional presentation about: %s
Length: %d slides. Tone: professional.

Generate the presentation and report the artifact file name when done.`, excerpt, topic, defaultSlideCount)
}
