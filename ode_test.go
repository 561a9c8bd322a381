package eventode

import (
	"testing"

	"github.com/ode-core/eventode/state"
)

type linearPrimary struct{ slope []state.Real }

func (p linearPrimary) Dim() int { return len(p.slope) }
func (linearPrimary) Init(t0 state.Real, y0 []state.Real, tFinal state.Real) error { return nil }
func (p linearPrimary) RHS(t state.Real, y []state.Real) ([]state.Real, error) {
	return append([]state.Real(nil), p.slope...), nil
}

type negatedPrimarySecondary struct{ dim int }

func (s negatedPrimarySecondary) Dim() int { return s.dim }
func (negatedPrimarySecondary) Init(t0 state.Real, yP0, yS0 []state.Real, tFinal state.Real) error {
	return nil
}
func (s negatedPrimarySecondary) RHS(t state.Real, yP, dyP, yS []state.Real) ([]state.Real, error) {
	out := make([]state.Real, s.dim)
	for i := range out {
		out[i] = -state.Real(i)
	}
	return out, nil
}

// TestDerivativeCompositionOrdering is scenario 2 of the literal
// end-to-end suite: primary dim 3 with slope (0,1,2), two secondaries
// with fixed negated derivatives, composed into an 11-wide vector with
// the primary derivative inserted last.
func TestDerivativeCompositionOrdering(t *testing.T) {
	primary := linearPrimary{slope: []state.Real{0, 1, 2}}
	ode := NewExpandableODE[state.Real](primary)
	ode.AddSecondary(negatedPrimarySecondary{dim: 3})
	ode.AddSecondary(negatedPrimarySecondary{dim: 5})

	if got := ode.Mapper().Dimension(); got != 11 {
		t.Fatalf("expected total dimension 11, got %d", got)
	}
	if got := ode.Mapper().NumEquations(); got != 3 {
		t.Fatalf("expected 3 equations, got %d", got)
	}

	y := make([]state.Real, 11)
	for i := range y {
		y[i] = state.Real(i)
	}

	dy, err := ode.ComputeDerivatives(10, y)
	if err != nil {
		t.Fatalf("ComputeDerivatives: %v", err)
	}

	want := []state.Real{0, 1, 2, 0, -1, -2, 0, -1, -2, -3, -4}
	if len(dy) != len(want) {
		t.Fatalf("expected %d derivatives, got %d", len(want), len(dy))
	}
	for i := range want {
		if dy[i] != want[i] {
			t.Errorf("dy[%d] = %v, want %v", i, dy[i], want[i])
		}
	}
}

func TestExpandableODEEvaluationBound(t *testing.T) {
	primary := linearPrimary{slope: []state.Real{1}}
	ode := NewExpandableODE[state.Real](primary)
	ode.attachCounter(NewIncrementor(2))

	y := []state.Real{0}
	if _, err := ode.ComputeDerivatives(0, y); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if _, err := ode.ComputeDerivatives(0, y); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if _, err := ode.ComputeDerivatives(0, y); err == nil {
		t.Fatal("expected ErrEvaluationLimitExceeded on third call")
	}
}
