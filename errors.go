package eventode

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the integrator. Callers should branch on
// these with errors.Is; they are never reformatted at the definition
// site (per §7 of the design) — context is attached with %w at the
// call site instead.
var (
	// ErrIntervalTooSmall is returned by Integrate when |tTarget - t0| is
	// within 1000 ulp of zero.
	ErrIntervalTooSmall = errors.New("eventode: integration interval too small")

	// ErrDimensionMismatch is returned by mapper operations and by
	// Integrate when a state vector's length does not match the
	// ExpandableODE's total dimension.
	ErrDimensionMismatch = errors.New("eventode: dimension mismatch")

	// ErrOutOfRange is returned by Mapper.Extract/Insert when the block
	// index is outside [0, n].
	ErrOutOfRange = errors.New("eventode: mapper index out of range")

	// ErrEvaluationLimitExceeded is returned once the derivative
	// evaluation counter exceeds Integrator.MaxEvaluations.
	ErrEvaluationLimitExceeded = errors.New("eventode: evaluation limit exceeded")

	// ErrRootNotBracketed is returned by an event solver that exhausts
	// its iteration budget without bracketing a root.
	ErrRootNotBracketed = errors.New("eventode: root not bracketed")

	// ErrUserCallbackFailure wraps an error raised from inside a user
	// callback (rhs, g, handler, handleStep, init, finish). The
	// integrator does not recover from it; it propagates unchanged to
	// the caller of Integrate.
	ErrUserCallbackFailure = errors.New("eventode: user callback failed")
)

// callbackError wraps err so that errors.Is(result, ErrUserCallbackFailure)
// succeeds while the original error stays reachable through errors.Is and
// errors.As (errors.Unwrap returns nil, since two errors are wrapped), and
// names which callback failed for diagnostics.
func callbackError(site string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUserCallbackFailure, site, err)
}

// invariant panics on a condition the spec never declares recoverable —
// e.g. a nil Stepper wired in by the host application. Mirrors the
// teacher's throwf: a programmer error, not a data error.
func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
