package eventode

import (
	"fmt"

	"github.com/ode-core/eventode/state"
)

// Mapper is the bookkeeping for block offsets and widths inside the
// concatenated state vector of an ExpandableODE (§4.1). Index 0 denotes
// the primary block; indices ≥ 1 denote secondary blocks in
// registration order. A Mapper is append-only for the lifetime of the
// ExpandableODE that owns it and is never shared between two
// ExpandableODEs.
type Mapper[S state.Scalar[S]] struct {
	dims   []int // dims[0] = primary dimension, dims[1:] = secondaries
	offset []int // offset[i] = starting index of block i in the flat vector
	total  int
}

// NewMapper creates a Mapper for a primary block of dimension dp.
// Secondaries are registered afterward with AddSecondary.
func NewMapper[S state.Scalar[S]](dp int) *Mapper[S] {
	return &Mapper[S]{
		dims:   []int{dp},
		offset: []int{0},
		total:  dp,
	}
}

// AddSecondary registers a secondary block of dimension d and returns
// its 1-based index (the count of secondaries after insertion).
func (m *Mapper[S]) AddSecondary(d int) int {
	m.offset = append(m.offset, m.total)
	m.dims = append(m.dims, d)
	m.total += d
	return len(m.dims) - 1
}

// Dimension returns D, the total width of the concatenated vector.
func (m *Mapper[S]) Dimension() int { return m.total }

// NumEquations returns the number of registered equations: 1 primary
// plus however many secondaries have been added.
func (m *Mapper[S]) NumEquations() int { return len(m.dims) }

// Extract returns a copy of the block at index (0 = primary, ≥1 =
// secondary) from complete. It fails with ErrDimensionMismatch if
// len(complete) != D, and with ErrOutOfRange if index is outside
// [0, n].
func (m *Mapper[S]) Extract(index int, complete []S) ([]S, error) {
	if len(complete) != m.total {
		return nil, fmt.Errorf("%w: extract: complete vector has length %d, want %d", ErrDimensionMismatch, len(complete), m.total)
	}
	if index < 0 || index >= len(m.dims) {
		return nil, fmt.Errorf("%w: extract: index %d outside [0, %d]", ErrOutOfRange, index, len(m.dims)-1)
	}
	off, d := m.offset[index], m.dims[index]
	block := make([]S, d)
	copy(block, complete[off:off+d])
	return block, nil
}

// Insert writes block into complete at index's offset. It fails with
// ErrDimensionMismatch if len(block) doesn't match the block's
// registered width or len(complete) != D, and with ErrOutOfRange if
// index is outside [0, n].
func (m *Mapper[S]) Insert(index int, block []S, complete []S) error {
	if len(complete) != m.total {
		return fmt.Errorf("%w: insert: complete vector has length %d, want %d", ErrDimensionMismatch, len(complete), m.total)
	}
	if index < 0 || index >= len(m.dims) {
		return fmt.Errorf("%w: insert: index %d outside [0, %d]", ErrOutOfRange, index, len(m.dims)-1)
	}
	if len(block) != m.dims[index] {
		return fmt.Errorf("%w: insert: block has length %d, want %d", ErrDimensionMismatch, len(block), m.dims[index])
	}
	off := m.offset[index]
	copy(complete[off:off+len(block)], block)
	return nil
}

// MapStateAndDerivative constructs a StateAndDerivative from a flat
// time/state/derivative triple, failing if y or dy is not of length D.
func (m *Mapper[S]) MapStateAndDerivative(t S, y, dy []S) (state.StateAndDerivative[S], error) {
	if len(y) != m.total || len(dy) != m.total {
		return state.StateAndDerivative[S]{}, fmt.Errorf("%w: mapStateAndDerivative: y/dy length mismatch", ErrDimensionMismatch)
	}
	primary, secondary, err := m.split(y)
	if err != nil {
		return state.StateAndDerivative[S]{}, err
	}
	dPrimary, dSecondary, err := m.split(dy)
	if err != nil {
		return state.StateAndDerivative[S]{}, err
	}
	st := state.New(t, primary, secondary)
	return state.NewStateAndDerivative(st, dPrimary, dSecondary), nil
}

func (m *Mapper[S]) split(complete []S) (primary []S, secondary [][]S, err error) {
	primary, err = m.Extract(0, complete)
	if err != nil {
		return nil, nil, err
	}
	secondary = make([][]S, len(m.dims)-1)
	for i := 1; i < len(m.dims); i++ {
		block, err := m.Extract(i, complete)
		if err != nil {
			return nil, nil, err
		}
		secondary[i-1] = block
	}
	return primary, secondary, nil
}

// Flatten concatenates a State's primary and secondary blocks into a
// single D-length vector, the inverse of MapStateAndDerivative's split.
func Flatten[S state.Scalar[S]](m *Mapper[S], s state.State[S]) []S {
	out := make([]S, m.total)
	copy(out[m.offset[0]:m.offset[0]+m.dims[0]], s.Primary())
	for i := 1; i < len(m.dims); i++ {
		copy(out[m.offset[i]:m.offset[i]+m.dims[i]], s.Secondary(i))
	}
	return out
}

// FlattenDerivative concatenates a StateAndDerivative's ẏ blocks into a
// single D-length vector.
func FlattenDerivative[S state.Scalar[S]](m *Mapper[S], s state.StateAndDerivative[S]) []S {
	out := make([]S, m.total)
	copy(out[m.offset[0]:m.offset[0]+m.dims[0]], s.PrimaryDerivative())
	for i := 1; i < len(m.dims); i++ {
		copy(out[m.offset[i]:m.offset[i]+m.dims[i]], s.SecondaryDerivative(i))
	}
	return out
}
