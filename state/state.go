package state

// State is an immutable snapshot of the integration variable t and the
// dependent variable y, partitioned into one primary block and zero or
// more secondary blocks (§3 of the design). It is produced by user code
// or by a Mapper and never mutated after construction.
type State[S Scalar[S]] struct {
	t  S
	yP []S
	yS [][]S
}

// New builds a State from a time, a primary block and an ordered list
// of secondary blocks. The slices are copied so the caller may reuse
// its buffers.
func New[S Scalar[S]](t S, primary []S, secondary [][]S) State[S] {
	return State[S]{
		t:  t,
		yP: cloneVec(primary),
		yS: cloneBlocks(secondary),
	}
}

// Time returns the integration variable.
func (s State[S]) Time() S { return s.t }

// Primary returns a copy of the primary block.
func (s State[S]) Primary() []S { return cloneVec(s.yP) }

// NumSecondary returns how many secondary blocks this state carries.
func (s State[S]) NumSecondary() int { return len(s.yS) }

// Secondary returns a copy of the k-th secondary block. k is 1-based,
// matching the mapper's registration-order numbering.
func (s State[S]) Secondary(k int) []S {
	return cloneVec(s.yS[k-1])
}

// WithTime returns a copy of s with the time component replaced, leaving
// s itself untouched.
func (s State[S]) WithTime(t S) State[S] {
	s2 := s
	s2.t = t
	return s2
}

// Clone returns a deep, independent copy of s.
func (s State[S]) Clone() State[S] {
	return New(s.t, s.yP, s.yS)
}

// StateAndDerivative pairs a State with the derivative ẏ at that state,
// partitioned the same way as y (§3). Produced exclusively by a Mapper
// from an ExpandableODE's computed derivatives.
type StateAndDerivative[S Scalar[S]] struct {
	State[S]
	dyP []S
	dyS [][]S
}

// NewStateAndDerivative pairs st with its derivative blocks.
func NewStateAndDerivative[S Scalar[S]](st State[S], dPrimary []S, dSecondary [][]S) StateAndDerivative[S] {
	return StateAndDerivative[S]{
		State: st,
		dyP:   cloneVec(dPrimary),
		dyS:   cloneBlocks(dSecondary),
	}
}

// PrimaryDerivative returns a copy of ẏP.
func (s StateAndDerivative[S]) PrimaryDerivative() []S { return cloneVec(s.dyP) }

// SecondaryDerivative returns a copy of the k-th secondary derivative
// block, 1-based.
func (s StateAndDerivative[S]) SecondaryDerivative(k int) []S { return cloneVec(s.dyS[k-1]) }

func cloneVec[S any](v []S) []S {
	if v == nil {
		return nil
	}
	cp := make([]S, len(v))
	copy(cp, v)
	return cp
}

func cloneBlocks[S any](blocks [][]S) [][]S {
	if blocks == nil {
		return nil
	}
	cp := make([][]S, len(blocks))
	for i, b := range blocks {
		cp[i] = cloneVec(b)
	}
	return cp
}
