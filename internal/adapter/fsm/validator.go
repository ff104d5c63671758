package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Transitions into looplab/fsm EventDesc format.
// Events are keyed by destination state (each destination is reached by a
// single action), so checking "can current go to target" is firing the
// target-named event.
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	grouped := make(map[domain.State][]string)
	order := make([]domain.State, 0)

	for _, t := range domain.Transitions {
		if _, exists := grouped[t.Dst]; !exists {
			order = append(order, t.Dst)
		}
		grouped[t.Dst] = append(grouped[t.Dst], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, dst := range order {
		out = append(out, loopfsm.EventDesc{
			Name: string(dst),
			Src:  grouped[dst],
			Dst:  string(dst),
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the listing's current state. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks whether target is reachable from current per the transition
// table. Returns a domain.TransitionError (whose message enumerates the
// legal alternatives) when it is not.
func (v *Validator) Apply(ctx context.Context, current, target domain.State) error {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(target)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		var unknownEvent loopfsm.UnknownEventError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) || errors.As(err, &unknownEvent) {
			return &domain.TransitionError{
				Current: current,
				Target:  target,
			}
		}
		return err
	}

	return nil
}
