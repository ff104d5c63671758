package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrListingNotFound = errors.New("listing not found")

	// ErrStaleListing is returned when a transition's compare-and-swap update
	// finds the listing no longer in the state that was validated: another
	// caller won the race.
	ErrStaleListing = errors.New("listing was modified concurrently")
)

// TransitionError is returned when a state pair is not in the transition
// table. The message enumerates the legal alternatives from the current state.
type TransitionError struct {
	Current State
	Target  State
}

func (e *TransitionError) Error() string {
	allowed := OutwardStates(e.Current)
	if len(allowed) == 0 {
		return fmt.Sprintf("cannot move listing from %q to %q: %q is a terminal state", e.Current, e.Target, e.Current)
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot move listing from %q to %q: allowed targets are %s", e.Current, e.Target, strings.Join(names, ", "))
}

// ForbiddenError is returned when the actor holds none of the capabilities
// required for the target state.
type ForbiddenError struct {
	ActorID string
	Target  State
}

func (e *ForbiddenError) Error() string {
	required := RequiredCapabilities[e.Target]
	names := make([]string, len(required))
	for i, c := range required {
		names[i] = string(c)
	}
	return fmt.Sprintf("actor %q lacks permission to move listings to %q (requires one of: %s)", e.ActorID, e.Target, strings.Join(names, ", "))
}

// ValidationError is returned for invalid transition arguments: a missing or
// out-of-bounds reason, suspending an already inactive listing.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ComplianceError is returned when one or more market-readiness rules are
// violated. It always carries the full violation list, not just the first.
type ComplianceError struct {
	Violations []string
}

func (e *ComplianceError) Error() string {
	return "listing is not ready for approval: " + strings.Join(e.Violations, "; ")
}
