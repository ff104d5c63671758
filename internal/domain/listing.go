package domain

import (
	"time"
)

// State represents the lifecycle state of a catalog listing.
type State string

const (
	StateDraft     State = "draft"
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateSuspended State = "suspended"
	StateArchived  State = "archived"
)

// States lists every lifecycle state. The set is closed: no other value is
// ever stored or accepted.
var States = []State{
	StateDraft,
	StatePending,
	StateApproved,
	StateRejected,
	StateSuspended,
	StateArchived,
}

// Valid reports whether s is one of the enumerated lifecycle states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Action represents a named operation that moves a listing between states.
// Each destination state is reachable through exactly one action, so the
// target-state API and the action-keyed transition table are a bijection.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionSuspend       Action = "suspend"
	ActionArchive       Action = "archive"
	ActionReturnToDraft Action = "return_to_draft"
)

// Transition defines a valid state change: an action moves a listing from Src to Dst.
type Transition struct {
	Action Action
	Src    State
	Dst    State
}

// Transitions defines all valid state changes in the listing lifecycle.
// This is domain knowledge consumed by the FSM adapter. Archived is terminal.
var Transitions = []Transition{
	{Action: ActionSubmit, Src: StateDraft, Dst: StatePending},
	{Action: ActionApprove, Src: StateDraft, Dst: StateApproved},
	{Action: ActionApprove, Src: StatePending, Dst: StateApproved},
	{Action: ActionReject, Src: StatePending, Dst: StateRejected},
	{Action: ActionSuspend, Src: StateApproved, Dst: StateSuspended},
	{Action: ActionArchive, Src: StateApproved, Dst: StateArchived},
	{Action: ActionReturnToDraft, Src: StateRejected, Dst: StateDraft},
	{Action: ActionSubmit, Src: StateRejected, Dst: StatePending},
	{Action: ActionApprove, Src: StateSuspended, Dst: StateApproved},
	{Action: ActionArchive, Src: StateSuspended, Dst: StateArchived},
}

// ActionFor returns the action that reaches the given target state.
func ActionFor(target State) (Action, bool) {
	for _, t := range Transitions {
		if t.Dst == target {
			return t.Action, true
		}
	}
	return "", false
}

// OutwardStates returns the states reachable from the given state, in
// transition-table order. Empty for terminal states.
func OutwardStates(from State) []State {
	var out []State
	for _, t := range Transitions {
		if t.Src != from {
			continue
		}
		seen := false
		for _, s := range out {
			if s == t.Dst {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, t.Dst)
		}
	}
	return out
}

// Capability is an opaque permission token an actor may hold.
type Capability string

const (
	CapabilitySubmit  Capability = "listing:submit"
	CapabilityApprove Capability = "listing:approve"
	CapabilitySuspend Capability = "listing:suspend"
	CapabilityArchive Capability = "listing:archive"
)

// RequiredCapabilities maps each target state to the capability set that
// authorizes moving a listing into it. Holding any one member suffices.
var RequiredCapabilities = map[State][]Capability{
	StateDraft:     {CapabilitySubmit, CapabilityApprove},
	StatePending:   {CapabilitySubmit, CapabilityApprove},
	StateApproved:  {CapabilityApprove},
	StateRejected:  {CapabilityApprove},
	StateSuspended: {CapabilitySuspend},
	StateArchived:  {CapabilityArchive},
}

// Listing is the approval-relevant projection of a product record. The
// completeness counters (images, priced variants, pricing assignment) are
// maintained by catalog management; this core only reads them.
type Listing struct {
	ID       string
	Name     string
	Slug     string
	SKU      string
	Currency string

	State       State
	IsActive    bool
	IsPublished bool

	RejectionReason string
	ApprovedBy      string
	ApprovedAt      *time.Time

	ImageCount         int
	PricedVariantCount int
	PricingAssigned    bool

	LastActivityAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewListing creates a listing in the initial "draft" state. Listings enter
// the approval core through catalog management; identifiers are supplied by
// the caller.
func NewListing(id, name, slug, sku, currency string) Listing {
	now := time.Now().UTC()
	return Listing{
		ID:             id,
		Name:           name,
		Slug:           slug,
		SKU:            sku,
		Currency:       currency,
		State:          StateDraft,
		IsActive:       true,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionMeta carries per-call details supplied by the actor.
type TransitionMeta struct {
	Reason string
	Notes  string
}

// applyFunc mutates a listing's derived fields for one destination state.
type applyFunc func(l *Listing, actor string, meta TransitionMeta, now time.Time)

// sideEffects maps each destination state to the field changes that commit
// alongside it. Adding a state means adding one entry here, not scattering
// conditionals through the service.
var sideEffects = map[State]applyFunc{
	StatePending: func(_ *Listing, _ string, _ TransitionMeta, _ time.Time) {},
	StateDraft:   func(_ *Listing, _ string, _ TransitionMeta, _ time.Time) {},
	StateApproved: func(l *Listing, actor string, _ TransitionMeta, now time.Time) {
		l.ApprovedBy = actor
		t := now
		l.ApprovedAt = &t
		l.RejectionReason = ""
		l.IsPublished = true
	},
	StateRejected: func(l *Listing, _ string, meta TransitionMeta, _ time.Time) {
		l.RejectionReason = meta.Reason
		l.ApprovedBy = ""
		l.ApprovedAt = nil
		l.IsPublished = false
	},
	StateSuspended: func(l *Listing, _ string, meta TransitionMeta, _ time.Time) {
		// The reason field doubles as a generic status reason when suspending.
		l.RejectionReason = meta.Reason
		l.IsActive = false
		l.IsPublished = false
	},
	StateArchived: func(l *Listing, _ string, _ TransitionMeta, _ time.Time) {
		l.IsActive = false
		l.IsPublished = false
	},
}

// ApplyTransition sets the listing's state to target and applies the
// state-specific side effects. Every branch touches LastActivityAt. The
// caller is responsible for having validated legality beforehand.
func (l *Listing) ApplyTransition(target State, actor string, meta TransitionMeta, now time.Time) {
	l.State = target
	if apply, ok := sideEffects[target]; ok {
		apply(l, actor, meta, now)
	}
	l.LastActivityAt = now
	l.UpdatedAt = now
}
