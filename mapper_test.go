package eventode

import (
	"errors"
	"testing"

	"github.com/ode-core/eventode/state"
)

func TestMapperRoundTrip(t *testing.T) {
	m := NewMapper[state.Real](3)
	m.AddSecondary(2)
	m.AddSecondary(4)

	complete := make([]state.Real, m.Dimension())
	for i := range complete {
		complete[i] = state.Real(i + 1)
	}

	for idx := 0; idx <= m.NumEquations()-1; idx++ {
		block, err := m.Extract(idx, complete)
		if err != nil {
			t.Fatalf("extract(%d): %v", idx, err)
		}
		clone := make([]state.Real, len(complete))
		copy(clone, complete)
		if err := m.Insert(idx, block, clone); err != nil {
			t.Fatalf("insert(%d): %v", idx, err)
		}
		for i := range complete {
			if clone[i] != complete[i] {
				t.Fatalf("round trip mismatch at block %d, element %d: got %v want %v", idx, i, clone[i], complete[i])
			}
		}
	}
}

func TestMapperDimensionMismatch(t *testing.T) {
	m := NewMapper[state.Real](3)
	m.AddSecondary(2)

	_, err := m.Extract(0, make([]state.Real, 4))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMapperOutOfRange(t *testing.T) {
	m := NewMapper[state.Real](3)
	m.AddSecondary(2)

	_, err := m.Extract(2, make([]state.Real, m.Dimension()))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMapperSecondaryIndicesAreOneBased(t *testing.T) {
	m := NewMapper[state.Real](3)
	idx1 := m.AddSecondary(2)
	idx2 := m.AddSecondary(4)
	if idx1 != 1 || idx2 != 2 {
		t.Fatalf("expected secondary indices 1, 2; got %d, %d", idx1, idx2)
	}
	if m.Dimension() != 9 {
		t.Fatalf("expected total dimension 9, got %d", m.Dimension())
	}
	if m.NumEquations() != 3 {
		t.Fatalf("expected 3 registered equations, got %d", m.NumEquations())
	}
}
