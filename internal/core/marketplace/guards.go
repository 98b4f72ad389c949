// Package marketplace contains the pure business logic for the marketplace
// handshake: posting requests, volunteering, inviting, and acceptance.
// This is part of the Functional Core - no I/O, only pure functions.
package marketplace

import (
	"strings"

	"github.com/example/exchange/internal/core/fault"
)

// RequestStatus represents the possible states of a marketplace request.
type RequestStatus string

const (
	RequestOpen    RequestStatus = "open"
	RequestMatched RequestStatus = "matched"
	RequestClosed  RequestStatus = "closed"
)

// VolunteerStatus represents the possible states of a volunteer entry.
type VolunteerStatus string

const (
	VolunteerPending  VolunteerStatus = "pending"
	VolunteerAccepted VolunteerStatus = "accepted"
)

// Origin distinguishes an organic volunteer offer from a direct invite.
type Origin string

const (
	OriginVolunteered Origin = "volunteered"
	OriginInvited     Origin = "invited"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    fault.Kind
	Reason  string
}

// Error returns the guard result as a fault if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fault.New(r.Kind, "%s", r.Reason)
}

// ValidatePostRequest checks the caller input for a new marketplace request.
// Title, description, and at least one capability tag are required.
func ValidatePostRequest(title, description string, capabilities []string) GuardResult {
	if strings.TrimSpace(title) == "" {
		return GuardResult{Kind: fault.Validation, Reason: "title is required"}
	}
	if strings.TrimSpace(description) == "" {
		return GuardResult{Kind: fault.Validation, Reason: "description is required"}
	}
	if len(NormalizeCapabilities(capabilities)) == 0 {
		return GuardResult{Kind: fault.Validation, Reason: "at least one capability tag is required"}
	}
	return GuardResult{Allowed: true}
}

// NormalizeCapabilities lowercases, trims, and de-duplicates capability tags.
func NormalizeCapabilities(capabilities []string) []string {
	seen := make(map[string]bool, len(capabilities))
	var out []string
	for _, c := range capabilities {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// VolunteerContext provides the state needed to evaluate a volunteer offer.
type VolunteerContext struct {
	RequestStatus   RequestStatus
	UserID          string
	ExistingOrigins map[string]Origin // user id -> origin, for existing entries
}

// CanVolunteer evaluates whether a user may volunteer for a request.
// Rules: the request must still be open, and a user may hold at most one
// non-invite volunteer entry per request. A pending invite does not block an
// organic offer check made by the requester, but a prior organic offer does.
func CanVolunteer(ctx VolunteerContext) GuardResult {
	if ctx.RequestStatus != RequestOpen {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "request is no longer open for volunteers (current: " + string(ctx.RequestStatus) + ")",
		}
	}
	if origin, ok := ctx.ExistingOrigins[ctx.UserID]; ok && origin == OriginVolunteered {
		return GuardResult{
			Kind:   fault.DuplicateVolunteer,
			Reason: "user has already volunteered for this request",
		}
	}
	return GuardResult{Allowed: true}
}

// InviteContext provides the state needed to evaluate a direct invite.
type InviteContext struct {
	RequestStatus RequestStatus
	ActorID       string
	RequesterID   string
	InvitedUserID string
}

// CanInvite evaluates whether the actor may issue a direct invite.
// Rule: requester only, and only while the request is open.
func CanInvite(ctx InviteContext) GuardResult {
	if ctx.ActorID != ctx.RequesterID {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "only the requester can invite a collaborator",
		}
	}
	if ctx.RequestStatus != RequestOpen {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "request is no longer open for invites (current: " + string(ctx.RequestStatus) + ")",
		}
	}
	if ctx.InvitedUserID == ctx.RequesterID {
		return GuardResult{Kind: fault.Validation, Reason: "requester cannot invite themselves"}
	}
	return GuardResult{Allowed: true}
}

// AcceptContext provides the state needed to evaluate an acceptance.
type AcceptContext struct {
	RequestStatus      RequestStatus
	VolunteerStatus    VolunteerStatus
	VolunteerRequestID string
	RequestID          string
	ActorID            string
	RequesterID        string
}

// CanAccept evaluates whether the actor may accept a volunteer.
// Rules: requester only; request must be open; the volunteer must belong to
// the request and still be pending. Accepting on an already matched request
// is an invalid transition, which makes acceptance a once-per-request event.
func CanAccept(ctx AcceptContext) GuardResult {
	if ctx.VolunteerRequestID != ctx.RequestID {
		return GuardResult{Kind: fault.Validation, Reason: "volunteer does not belong to this request"}
	}
	if ctx.ActorID != ctx.RequesterID {
		return GuardResult{Kind: fault.InvalidTransition, Reason: "only the requester can accept a volunteer"}
	}
	if ctx.RequestStatus != RequestOpen {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "request is already " + string(ctx.RequestStatus),
		}
	}
	if ctx.VolunteerStatus != VolunteerPending {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "volunteer is already " + string(ctx.VolunteerStatus),
		}
	}
	return GuardResult{Allowed: true}
}
