package marketplace

import (
	"reflect"
	"testing"

	"github.com/example/exchange/internal/core/fault"
)

func TestValidatePostRequest(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		description  string
		capabilities []string
		wantAllowed  bool
	}{
		{
			name:         "valid request",
			title:        "Market deck",
			description:  "Research the EV market",
			capabilities: []string{"research"},
			wantAllowed:  true,
		},
		{
			name:         "missing title",
			title:        "  ",
			description:  "Research the EV market",
			capabilities: []string{"research"},
			wantAllowed:  false,
		},
		{
			name:         "missing description",
			title:        "Market deck",
			description:  "",
			capabilities: []string{"research"},
			wantAllowed:  false,
		},
		{
			name:         "no usable capability tags",
			title:        "Market deck",
			description:  "Research the EV market",
			capabilities: []string{"  ", ""},
			wantAllowed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePostRequest(tt.title, tt.description, tt.capabilities)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("ValidatePostRequest() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Kind != fault.Validation {
				t.Errorf("ValidatePostRequest() Kind = %v, want Validation", result.Kind)
			}
		})
	}
}

func TestNormalizeCapabilities(t *testing.T) {
	got := NormalizeCapabilities([]string{" Research ", "PPT", "research", "", "ppt"})
	want := []string{"research", "ppt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeCapabilities() = %v, want %v", got, want)
	}
}

func TestCanVolunteer(t *testing.T) {
	tests := []struct {
		name        string
		ctx         VolunteerContext
		wantAllowed bool
		wantKind    fault.Kind
	}{
		{
			name: "fresh offer on an open request",
			ctx: VolunteerContext{
				RequestStatus:   RequestOpen,
				UserID:          "USR-002",
				ExistingOrigins: map[string]Origin{},
			},
			wantAllowed: true,
		},
		{
			name: "second organic offer is a duplicate",
			ctx: VolunteerContext{
				RequestStatus:   RequestOpen,
				UserID:          "USR-002",
				ExistingOrigins: map[string]Origin{"USR-002": OriginVolunteered},
			},
			wantAllowed: false,
			wantKind:    fault.DuplicateVolunteer,
		},
		{
			name: "a pending invite does not block an organic offer",
			ctx: VolunteerContext{
				RequestStatus:   RequestOpen,
				UserID:          "USR-002",
				ExistingOrigins: map[string]Origin{"USR-002": OriginInvited},
			},
			wantAllowed: true,
		},
		{
			name: "matched request no longer accepts offers",
			ctx: VolunteerContext{
				RequestStatus: RequestMatched,
				UserID:        "USR-002",
			},
			wantAllowed: false,
			wantKind:    fault.InvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanVolunteer(tt.ctx)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanVolunteer() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Kind != tt.wantKind {
				t.Errorf("CanVolunteer() Kind = %v, want %v", result.Kind, tt.wantKind)
			}
		})
	}
}

func TestCanInvite(t *testing.T) {
	tests := []struct {
		name        string
		ctx         InviteContext
		wantAllowed bool
	}{
		{
			name: "requester invites a peer",
			ctx: InviteContext{
				RequestStatus: RequestOpen,
				ActorID:       "USR-001",
				RequesterID:   "USR-001",
				InvitedUserID: "USR-002",
			},
			wantAllowed: true,
		},
		{
			name: "non-requester cannot invite",
			ctx: InviteContext{
				RequestStatus: RequestOpen,
				ActorID:       "USR-002",
				RequesterID:   "USR-001",
				InvitedUserID: "USR-003",
			},
			wantAllowed: false,
		},
		{
			name: "closed request",
			ctx: InviteContext{
				RequestStatus: RequestClosed,
				ActorID:       "USR-001",
				RequesterID:   "USR-001",
				InvitedUserID: "USR-002",
			},
			wantAllowed: false,
		},
		{
			name: "requester cannot invite themselves",
			ctx: InviteContext{
				RequestStatus: RequestOpen,
				ActorID:       "USR-001",
				RequesterID:   "USR-001",
				InvitedUserID: "USR-001",
			},
			wantAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanInvite(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanInvite() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
		})
	}
}

func TestCanAccept(t *testing.T) {
	base := AcceptContext{
		RequestStatus:      RequestOpen,
		VolunteerStatus:    VolunteerPending,
		VolunteerRequestID: "REQ-001",
		RequestID:          "REQ-001",
		ActorID:            "USR-001",
		RequesterID:        "USR-001",
	}

	tests := []struct {
		name        string
		mutate      func(ctx AcceptContext) AcceptContext
		wantAllowed bool
		wantKind    fault.Kind
	}{
		{
			name:        "requester accepts a pending volunteer",
			mutate:      func(ctx AcceptContext) AcceptContext { return ctx },
			wantAllowed: true,
		},
		{
			name: "volunteer from another request",
			mutate: func(ctx AcceptContext) AcceptContext {
				ctx.VolunteerRequestID = "REQ-002"
				return ctx
			},
			wantAllowed: false,
			wantKind:    fault.Validation,
		},
		{
			name: "non-requester cannot accept",
			mutate: func(ctx AcceptContext) AcceptContext {
				ctx.ActorID = "USR-002"
				return ctx
			},
			wantAllowed: false,
			wantKind:    fault.InvalidTransition,
		},
		{
			name: "matched request refuses a second handshake",
			mutate: func(ctx AcceptContext) AcceptContext {
				ctx.RequestStatus = RequestMatched
				return ctx
			},
			wantAllowed: false,
			wantKind:    fault.InvalidTransition,
		},
		{
			name: "already accepted volunteer",
			mutate: func(ctx AcceptContext) AcceptContext {
				ctx.VolunteerStatus = VolunteerAccepted
				return ctx
			},
			wantAllowed: false,
			wantKind:    fault.InvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanAccept(tt.mutate(base))

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanAccept() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Kind != tt.wantKind {
				t.Errorf("CanAccept() Kind = %v, want %v", result.Kind, tt.wantKind)
			}
		})
	}
}
