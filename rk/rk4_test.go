package rk_test

import (
	"math"
	"testing"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/rk"
	"github.com/ode-core/eventode/state"
)

type exponentialDecay struct{}

func (exponentialDecay) Dim() int { return 1 }
func (exponentialDecay) Init(t0 state.Real, y0 []state.Real, tFinal state.Real) error { return nil }
func (exponentialDecay) RHS(t state.Real, y []state.Real) ([]state.Real, error) {
	return []state.Real{-y[0]}, nil
}

func TestFixedStepMatchesExponentialDecay(t *testing.T) {
	ode := eventode.NewExpandableODE[state.Real](exponentialDecay{})
	y0 := []state.Real{1}
	dy0, err := ode.ComputeDerivatives(0, y0)
	if err != nil {
		t.Fatalf("ComputeDerivatives: %v", err)
	}
	s0, err := ode.Mapper().MapStateAndDerivative(0, y0, dy0)
	if err != nil {
		t.Fatalf("MapStateAndDerivative: %v", err)
	}

	stepper := rk.FixedStep{Substeps: 100}
	to, interp, err := stepper.Propose(ode, s0, 2)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	want := math.Exp(-2)
	if got := float64(to.Primary()[0]); math.Abs(got-want) > 1e-6 {
		t.Fatalf("y(2) = %v, want %v", got, want)
	}

	tA, tB := interp.Bounds()
	if tA != 0 || tB != 2 {
		t.Fatalf("Bounds() = (%v, %v), want (0, 2)", tA, tB)
	}
}

func TestHermiteInterpolatorMatchesEndpoints(t *testing.T) {
	ode := eventode.NewExpandableODE[state.Real](exponentialDecay{})
	y0 := []state.Real{1}
	dy0, _ := ode.ComputeDerivatives(0, y0)
	s0, _ := ode.Mapper().MapStateAndDerivative(0, y0, dy0)

	stepper := rk.FixedStep{Substeps: 50}
	to, interp, err := stepper.Propose(ode, s0, 1)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	atStart, err := interp.Evaluate(0)
	if err != nil {
		t.Fatalf("Evaluate(0): %v", err)
	}
	if math.Abs(float64(atStart.Primary()[0])-1) > 1e-9 {
		t.Fatalf("Evaluate(0) = %v, want 1", atStart.Primary()[0])
	}

	atEnd, err := interp.Evaluate(1)
	if err != nil {
		t.Fatalf("Evaluate(1): %v", err)
	}
	if math.Abs(float64(atEnd.Primary()[0])-float64(to.Primary()[0])) > 1e-9 {
		t.Fatalf("Evaluate(tB) = %v, want %v", atEnd.Primary()[0], to.Primary()[0])
	}

	restricted := interp.Restrict(0.25, 0.75)
	restrictedAgain := restricted.Restrict(0.25, 0.75)
	a, _ := restricted.Evaluate(0.5)
	b, _ := restrictedAgain.Evaluate(0.5)
	if a.Primary()[0] != b.Primary()[0] {
		t.Fatalf("restricting to identical bounds is not idempotent: %v != %v", a.Primary()[0], b.Primary()[0])
	}
}
