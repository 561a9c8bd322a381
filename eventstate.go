package eventode

import (
	"math"

	"github.com/ode-core/eventode/state"
)

// reinitNudgeFraction sizes the forward nudge ReinitializeBegin applies
// when g is exactly zero at the very start of an integration, so the
// detector does not immediately re-trigger the root it was seeded at.
const reinitNudgeFraction = 1e-6

// EventState is the per-detector state machine of §4.3: it tracks the
// detector's sign across a step, brackets roots with the detector's
// solver, and survives another event's handler mutating its g
// mid-step.
type EventState[S state.Scalar[S]] struct {
	detector *EventDetector[S]
	forward  bool

	tPrev S
	gPrev S
	tLast S
	gLast S

	pendingTE         S
	pendingIncreasing bool
	hasPending        bool
}

// NewEventState wraps a detector. forward is set by Init from the
// integration's direction.
func NewEventState[S state.Scalar[S]](d *EventDetector[S]) *EventState[S] {
	return &EventState[S]{detector: d}
}

// Detector returns the wrapped detector.
func (ev *EventState[S]) Detector() *EventDetector[S] { return ev.detector }

// Init samples g(s0) and records the initial sign and the integration
// direction, ahead of the first ReinitializeBegin call.
func (ev *EventState[S]) Init(s0 state.StateAndDerivative[S], tTarget S) error {
	ev.forward = tTarget.Real() >= s0.Time().Real()
	g0, err := ev.detector.G(s0)
	if err != nil {
		return callbackError("g", err)
	}
	ev.tPrev, ev.gPrev = s0.Time(), g0
	ev.tLast, ev.gLast = ev.tPrev, ev.gPrev
	ev.hasPending = false
	return nil
}

// ReinitializeBegin is called once at the start of the first accepted
// step per integration (§4.3). It samples g at the step's start time
// to seed (tPrev, gPrev); if g is exactly zero there, it nudges forward
// by a resolution-dependent amount to avoid an immediate spurious
// detection of the t0 root.
func (ev *EventState[S]) ReinitializeBegin(interp Interpolator[S]) error {
	tA, _ := interp.Bounds()
	s, err := interp.Evaluate(tA)
	if err != nil {
		return err
	}
	g, err := ev.detector.G(s)
	if err != nil {
		return callbackError("g", err)
	}
	if g.Real() == 0 {
		nudge := ev.detector.MaxCheckInterval.Real() * reinitNudgeFraction
		if nudge == 0 {
			nudge = reinitNudgeFraction
		}
		tNudged := tA.FromReal(tA.Real() + ev.sign()*nudge)
		sNudged, err := interp.Evaluate(tNudged)
		if err != nil {
			return err
		}
		gNudged, err := ev.detector.G(sNudged)
		if err != nil {
			return callbackError("g", err)
		}
		ev.tPrev, ev.gPrev = tNudged, gNudged
	} else {
		ev.tPrev, ev.gPrev = tA, g
	}
	ev.tLast, ev.gLast = ev.tPrev, ev.gPrev
	ev.hasPending = false
	return nil
}

// EvaluateStep subdivides [tA, tB] (the bounds of interp; the cached
// (tPrev, gPrev) sample is reused as the start when tPrev equals tA) into
// sub-intervals of length at most the detector's MaxCheckInterval,
// looking for a sign change in g. When one is found it brackets the
// root with the detector's solver to the solver's own accuracy, records
// it as pending, and returns true.
func (ev *EventState[S]) EvaluateStep(interp Interpolator[S]) (bool, error) {
	tA, tB := interp.Bounds()
	lo, glo := ev.tPrev, ev.gPrev
	if lo.Real() != tA.Real() {
		s, err := interp.Evaluate(tA)
		if err != nil {
			return false, err
		}
		g, err := ev.detector.G(s)
		if err != nil {
			return false, callbackError("g", err)
		}
		lo, glo = tA, g
	}

	n := numSubintervals(lo, tB, ev.detector.MaxCheckInterval, ev.forward)
	span := tB.Real() - lo.Real()
	cur, gcur := lo, glo
	for i := 1; i <= n; i++ {
		var next S
		if i == n {
			next = tB
		} else {
			next = lo.FromReal(lo.Real() + span*float64(i)/float64(n))
		}
		sNext, err := interp.Evaluate(next)
		if err != nil {
			return false, err
		}
		gNext, err := ev.detector.G(sNext)
		if err != nil {
			return false, callbackError("g", err)
		}
		if !nearZero(gcur) && signChange(gcur, gNext) {
			loBracket, hiBracket := cur, next
			root, err := ev.detector.Solver.Solve(ev.gAt(interp), loBracket, hiBracket, ev.detector.MaxIterations)
			if err != nil {
				return false, err
			}
			ev.pendingTE = root
			ev.pendingIncreasing = gNext.Real() > gcur.Real()
			ev.hasPending = true
			ev.tPrev, ev.gPrev = tB, gNext
			return true, nil
		}
		cur, gcur = next, gNext
	}
	ev.tPrev, ev.gPrev = tB, gcur
	return false, nil
}

// MarkAdvanced updates (tLast, gLast) to s without running crossing
// detection. The acceptance loop calls this on the detector that was
// just popped and handled, so its own baseline stays in sync with the
// point it was resolved at — otherwise a later TryAdvance call against
// it (triggered by some other detector's pop) would see the whole gap
// back to tLast's old value and mistake the already-handled crossing
// for a new one.
func (ev *EventState[S]) MarkAdvanced(s state.StateAndDerivative[S]) error {
	g, err := ev.detector.G(s)
	if err != nil {
		return callbackError("g", err)
	}
	ev.tLast, ev.gLast = s.Time(), g
	return nil
}

// TryAdvance attempts to update (tLast, gLast) to s. It returns true if
// doing so reveals a new event strictly between the previous tLast and
// s.Time() — i.e. an event triggered by another detector's reset having
// changed this detector's g in-flight (§4.3, §9).
func (ev *EventState[S]) TryAdvance(s state.StateAndDerivative[S], interp Interpolator[S]) (bool, error) {
	g, err := ev.detector.G(s)
	if err != nil {
		return false, callbackError("g", err)
	}
	prevT, prevG := ev.tLast, ev.gLast
	ev.tLast, ev.gLast = s.Time(), g
	if nearZero(prevG) || !signChange(prevG, g) || prevT.Real() == s.Time().Real() {
		return false, nil
	}
	root, err := ev.detector.Solver.Solve(ev.gAt(interp), prevT, s.Time(), ev.detector.MaxIterations)
	if err != nil {
		return false, err
	}
	ev.pendingTE = root
	ev.pendingIncreasing = g.Real() > prevG.Real()
	ev.hasPending = true
	return true, nil
}

// EventOccurrence is what DoEvent returns: the handler's directive and,
// depending on the action, a replacement state or an explicit stop
// time (§4.3, §6).
type EventOccurrence[S state.Scalar[S]] struct {
	Action   Action
	NewState *state.StateAndDerivative[S]
	StopTime *S
}

// DoEvent invokes the user handler at the pending root and clears it.
func (ev *EventState[S]) DoEvent(s state.StateAndDerivative[S]) (EventOccurrence[S], error) {
	action, newState, stopTime, err := ev.detector.Handle(s, ev.detector, ev.pendingIncreasing)
	ev.hasPending = false
	if err != nil {
		return EventOccurrence[S]{}, callbackError("handler", err)
	}
	return EventOccurrence[S]{Action: action, NewState: newState, StopTime: stopTime}, nil
}

// PendingTime returns the bracketed root time and whether one is
// currently pending.
func (ev *EventState[S]) PendingTime() (S, bool) {
	return ev.pendingTE, ev.hasPending
}

func (ev *EventState[S]) sign() float64 {
	if ev.forward {
		return 1
	}
	return -1
}

// gAt closes over interp so the detector's solver can re-sample g at
// arbitrary candidate times within the bracket.
func (ev *EventState[S]) gAt(interp Interpolator[S]) func(S) (S, error) {
	return func(t S) (S, error) {
		var zero S
		s, err := interp.Evaluate(t)
		if err != nil {
			return zero, err
		}
		g, err := ev.detector.G(s)
		if err != nil {
			return zero, callbackError("g", err)
		}
		return g, nil
	}
}

func signOf(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func signChange[S state.Scalar[S]](a, b S) bool {
	return signOf(a.Real()) != signOf(b.Real())
}

// zeroGuardTolerance bounds how close to zero a freshly sampled g may be
// before it is treated as "sitting on a root already resolved" rather
// than one endpoint of a new crossing. Without it, restarting a scan
// exactly at a detector's own just-handled root (the RESET_EVENTS path)
// can re-detect that same root as spurious noise in its solved value.
const zeroGuardTolerance = 1e-9

func nearZero[S state.Scalar[S]](g S) bool {
	return math.Abs(g.Real()) < zeroGuardTolerance
}

func numSubintervals[S state.Scalar[S]](lo, hi, delta S, forward bool) int {
	span := hi.Real() - lo.Real()
	if !forward {
		span = -span
	}
	d := delta.Real()
	if d <= 0 {
		return 1
	}
	n := int(math.Ceil(span / d))
	if n < 1 {
		n = 1
	}
	return n
}
