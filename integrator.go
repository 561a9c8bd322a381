package eventode

import (
	"container/heap"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/ode-core/eventode/state"
)

// Integrator drives a concrete Stepper through the step-acceptance loop
// (§4.4, §4.5). It owns the trajectory's mutable bookkeeping; detectors
// and step handlers are shared-by-reference collaborators it never
// mutates except through their declared callbacks (§3 Ownership).
type Integrator[S state.Scalar[S]] struct {
	stepper      Stepper[S]
	events       []*EventState[S]
	stepHandlers []StepHandler[S]
	counter      *Incrementor
	config       Config
	logger       *Logger
	runID        uuid.UUID

	stepStart        state.StateAndDerivative[S]
	stateInitialized bool
	resetOccurred    bool
	isLastStep       bool
	signedStepsize   float64
}

// NewIntegrator creates an Integrator around a concrete stepper. logOutput
// receives buffered diagnostics for the duration of one Integrate call
// when cfg.Log.Enabled is set; it is otherwise ignored.
func NewIntegrator[S state.Scalar[S]](stepper Stepper[S], cfg Config, logOutput io.Writer) (*Integrator[S], error) {
	if err := verifyConfig(cfg); err != nil {
		return nil, err
	}
	runID := uuid.New()
	if !cfg.Log.Enabled {
		logOutput = nil
	}
	return &Integrator[S]{
		stepper: stepper,
		counter: NewIncrementor(cfg.Evaluations.Max),
		config:  cfg,
		logger:  NewLogger(logOutput, runID),
		runID:   runID,
	}, nil
}

// AddEventDetector registers a detector. Detectors may be added at any
// time before Integrate is called; they are reinitialized at the start
// of every Integrate call.
func (in *Integrator[S]) AddEventDetector(d *EventDetector[S]) {
	in.events = append(in.events, NewEventState[S](d))
}

// ClearEventDetectors removes every registered detector.
func (in *Integrator[S]) ClearEventDetectors() { in.events = nil }

// GetEventDetectors returns a snapshot of the registered detectors. The
// returned slice is a copy; mutating it has no effect on the
// integrator.
func (in *Integrator[S]) GetEventDetectors() []*EventDetector[S] {
	out := make([]*EventDetector[S], len(in.events))
	for i, ev := range in.events {
		out[i] = ev.Detector()
	}
	return out
}

// AddStepHandler registers a step handler, invoked on every accepted
// (sub-)step in the order handlers were added.
func (in *Integrator[S]) AddStepHandler(h StepHandler[S]) {
	in.stepHandlers = append(in.stepHandlers, h)
}

// ClearStepHandlers removes every registered step handler.
func (in *Integrator[S]) ClearStepHandlers() { in.stepHandlers = nil }

// SetMaxEvaluations bounds the number of ComputeDerivatives calls an
// Integrate call may make. Negative means unbounded.
func (in *Integrator[S]) SetMaxEvaluations(n int) { in.counter.SetMax(n) }

// Evaluations returns the number of derivative evaluations made by the
// most recent (or in-flight) Integrate call.
func (in *Integrator[S]) Evaluations() int { return in.counter.Count() }

// MaxEvaluations returns the current evaluation bound.
func (in *Integrator[S]) MaxEvaluations() int { return in.counter.Max() }

// GetStepStart returns the state-and-derivative at the start of the
// in-flight (or most recently completed) accepted step.
func (in *Integrator[S]) GetStepStart() state.StateAndDerivative[S] { return in.stepStart }

// GetCurrentSignedStepsize returns the signed size of the most recently
// proposed step: negative for a backward integration.
func (in *Integrator[S]) GetCurrentSignedStepsize() float64 { return in.signedStepsize }

func ulp(x float64) float64 {
	return math.Nextafter(x, math.Inf(1)) - x
}

// Integrate advances s0 along ode's flow toward tTarget, implementing
// the scaffolding of §4.5 around the step-acceptance loop of §4.4.
func (in *Integrator[S]) Integrate(ode *ExpandableODE[S], s0 state.State[S], tTarget S) (state.StateAndDerivative[S], error) {
	var zero state.StateAndDerivative[S]

	t0 := s0.Time().Real()
	tf := tTarget.Real()
	maxAbs := math.Max(math.Abs(t0), math.Abs(tf))
	if math.Abs(tf-t0) < 1000*ulp(maxAbs) {
		return zero, ErrIntervalTooSmall
	}
	m := ode.Mapper()
	if s0.NumSecondary() != m.NumEquations()-1 || len(s0.Primary()) != m.dims[0] {
		return zero, ErrDimensionMismatch
	}
	for k := 1; k <= s0.NumSecondary(); k++ {
		if len(s0.Secondary(k)) != m.dims[k] {
			return zero, ErrDimensionMismatch
		}
	}

	in.counter.Reset()
	ode.attachCounter(in.counter)

	if err := ode.Init(s0.Time(), s0, tTarget); err != nil {
		return zero, err
	}

	y := Flatten(ode.Mapper(), s0)
	dy, err := ode.ComputeDerivatives(s0.Time(), y)
	if err != nil {
		return zero, err
	}
	current, err := ode.Mapper().MapStateAndDerivative(s0.Time(), y, dy)
	if err != nil {
		return zero, err
	}

	for _, ev := range in.events {
		if err := ev.Init(current, tTarget); err != nil {
			return zero, err
		}
	}
	for _, h := range in.stepHandlers {
		if err := h.Init(current, tTarget); err != nil {
			return zero, callbackError("stepHandler.Init", err)
		}
	}

	in.stepStart = current
	in.stateInitialized = false
	in.resetOccurred = false
	in.isLastStep = false
	in.logger.Logf("integrate start t0=%v tTarget=%v", t0, tf)

	for {
		to, interp, err := in.stepper.Propose(ode, in.stepStart, tTarget)
		if err != nil {
			return zero, err
		}
		in.signedStepsize = to.Time().Real() - in.stepStart.Time().Real()

		if !in.stateInitialized {
			for _, ev := range in.events {
				if err := ev.ReinitializeBegin(interp); err != nil {
					return zero, err
				}
			}
			in.stateInitialized = true
		}

		result, action, err := in.acceptStep(ode, interp, in.stepStart, to, tTarget)
		if err != nil {
			return zero, err
		}

		switch action {
		case acceptStop:
			in.stepStart = result
			in.logger.Flush()
			return in.stepStart, nil
		case acceptReset:
			in.stepStart = result
			in.resetOccurred = true
			in.stateInitialized = false
		case acceptContinue:
			in.stepStart = result
			if in.isLastStep {
				in.logger.Flush()
				return in.stepStart, nil
			}
		}
	}
}

type loopAction int

const (
	acceptContinue loopAction = iota
	acceptStop
	acceptReset
)

// acceptStep implements the step-acceptance loop of §4.4 for one
// stepper-proposed interval [from, to]. It returns the state the
// integrator should continue from and which of CONTINUE/STOP/RESET
// that state represents.
func (in *Integrator[S]) acceptStep(ode *ExpandableODE[S], interp Interpolator[S], from, to state.StateAndDerivative[S], tTarget S) (state.StateAndDerivative[S], loopAction, error) {
	var zero state.StateAndDerivative[S]
	forward := interp.Forward()
	prev := from
	curr := to
	restricted := interp

Outer:
	for {
		queue := newEventQueue[S](forward)
		for _, ev := range in.events {
			hasRoot, err := ev.EvaluateStep(restricted)
			if err != nil {
				return zero, 0, err
			}
			if hasRoot {
				heap.Push(queue, ev)
			}
		}

		for {
			for queue.Len() > 0 {
				ev := heap.Pop(queue).(*EventState[S])
				tE, _ := ev.PendingTime()
				eventState, err := restricted.Evaluate(tE)
				if err != nil {
					return zero, 0, err
				}
				restricted = restricted.Restrict(prev.Time(), eventState.Time())

				concurrent := false
				for _, other := range in.events {
					if other == ev {
						continue
					}
					idx := queue.indexOf(other)
					revealed, err := other.TryAdvance(eventState, restricted)
					if err != nil {
						return zero, 0, err
					}
					if revealed {
						if idx >= 0 {
							heap.Remove(queue, idx)
						}
						heap.Push(queue, other)
						concurrent = true
					}
				}
				if concurrent {
					in.logger.Warnf("event %s root revised by a concurrent detector at t=%v", ev.Detector().Label, eventState.Time())
					heap.Push(queue, ev)
					continue
				}
				if err := ev.MarkAdvanced(eventState); err != nil {
					return zero, 0, err
				}

				for _, h := range in.stepHandlers {
					if err := h.HandleStep(restricted); err != nil {
						return zero, 0, callbackError("stepHandler.HandleStep", err)
					}
				}

				occ, err := ev.DoEvent(eventState)
				if err != nil {
					return zero, 0, err
				}
				in.logger.Logf("event %s action=%s t=%v", ev.Detector().Label, occ.Action, eventState.Time())

				switch occ.Action {
				case ActionStop:
					stopTime := tE
					if occ.StopTime != nil {
						stopTime = *occ.StopTime
					}
					stopState, err := restricted.Evaluate(stopTime)
					if err != nil {
						return zero, 0, err
					}
					restricted = restricted.Restrict(prev.Time(), stopState.Time())
					for _, h := range in.stepHandlers {
						if err := h.HandleStep(restricted); err != nil {
							return zero, 0, callbackError("stepHandler.HandleStep", err)
						}
						if err := h.Finish(stopState); err != nil {
							return zero, 0, callbackError("stepHandler.Finish", err)
						}
					}
					return stopState, acceptStop, nil

				case ActionResetState, ActionResetDerivatives:
					if occ.NewState == nil {
						return zero, 0, fmt.Errorf("%w: reset action without replacement state", ErrUserCallbackFailure)
					}
					newY := Flatten(ode.Mapper(), occ.NewState.State)
					ndy, err := ode.ComputeDerivatives(occ.NewState.Time(), newY)
					if err != nil {
						return zero, 0, err
					}
					remapped, err := ode.Mapper().MapStateAndDerivative(occ.NewState.Time(), newY, ndy)
					if err != nil {
						return zero, 0, err
					}
					return remapped, acceptReset, nil

				case ActionResetEvents:
					prev = eventState
					restricted = restricted.Restrict(eventState.Time(), curr.Time())
					continue Outer

				case ActionContinue:
					prev = eventState
					restricted = restricted.Restrict(eventState.Time(), curr.Time())
					hasRoot, err := ev.EvaluateStep(restricted)
					if err != nil {
						return zero, 0, err
					}
					if hasRoot {
						heap.Push(queue, ev)
					}
				}
			}

			again := false
			for _, ev := range in.events {
				revealed, err := ev.TryAdvance(curr, restricted)
				if err != nil {
					return zero, 0, err
				}
				if revealed {
					heap.Push(queue, ev)
					again = true
				}
			}
			if !again {
				break Outer
			}
		}
	}

	tfReal := tTarget.Real()
	in.isLastStep = math.Abs(curr.Time().Real()-tfReal) < ulp(tfReal)
	for _, h := range in.stepHandlers {
		if err := h.HandleStep(restricted); err != nil {
			return zero, 0, callbackError("stepHandler.HandleStep", err)
		}
	}
	if in.isLastStep {
		for _, h := range in.stepHandlers {
			if err := h.Finish(curr); err != nil {
				return zero, 0, callbackError("stepHandler.Finish", err)
			}
		}
	}
	return curr, acceptContinue, nil
}
