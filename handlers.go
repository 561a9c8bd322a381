package eventode

import "github.com/ode-core/eventode/state"

// Action is the directive an EventHandler returns to the step-acceptance
// loop (§4.4, §6).
type Action int

const (
	// ActionContinue resumes integration past the event; the event
	// state re-evaluates itself over the remainder of the current
	// step in case its g crosses again.
	ActionContinue Action = iota
	// ActionStop halts integration at (or just past) the event.
	ActionStop
	// ActionResetState replaces the trajectory with a new state,
	// handing control back to the outer stepper.
	ActionResetState
	// ActionResetDerivatives is identical to ActionResetState except it
	// signals that only the derivative, not the state vector itself,
	// changed meaning (e.g. a discontinuous right-hand side) — the
	// acceptance loop treats both the same way operationally.
	ActionResetDerivatives
	// ActionResetEvents discards the pending-event queue and restarts
	// detection for the remainder of the current step.
	ActionResetEvents
)

// String renders an Action for logging/diagnostics.
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "CONTINUE"
	case ActionStop:
		return "STOP"
	case ActionResetState:
		return "RESET_STATE"
	case ActionResetDerivatives:
		return "RESET_DERIVATIVES"
	case ActionResetEvents:
		return "RESET_EVENTS"
	default:
		return "UNKNOWN"
	}
}

// EventHandler reacts to a detector's root. It may replace the state
// (ActionResetState/ActionResetDerivatives, via newState) or nominate a
// stop time distinct from the root itself (ActionStop, via stopTime;
// nil means stop exactly at the root).
type EventHandler[S state.Scalar[S]] func(
	s state.StateAndDerivative[S],
	detector *EventDetector[S],
	increasing bool,
) (action Action, newState *state.StateAndDerivative[S], stopTime *S, err error)

// StepHandler observes every accepted (sub-)step, sampling the
// interpolator at whatever interior times it needs (§6).
type StepHandler[S state.Scalar[S]] interface {
	Init(s state.StateAndDerivative[S], tEnd S) error
	HandleStep(interp Interpolator[S]) error
	Finish(s state.StateAndDerivative[S]) error
}
