// Package state defines the pure data types that flow through the
// integrator: the scalar algebra capability set, the State and
// StateAndDerivative value types, and a handful of generic arithmetic
// combinators over []S (the reference steppers in eventode/rk use gonum's
// float64 helpers instead).
//
// The package mirrors the teacher's own "state" package layout: it owns
// no control flow and never imports the root eventode package.
package state

import "math"

// Scalar is the algebraic capability set the integrator is polymorphic
// over. Real doubles (Real) are one instantiation; a dual-number or
// Taylor-series scalar enabling sensitivity analysis is another — the
// engine never assumes which.
//
// Implementations must be immutable value types: every operation
// returns a new S rather than mutating the receiver.
type Scalar[S any] interface {
	Add(S) S
	Sub(S) S
	Mul(S) S
	Div(S) S
	Neg() S

	// Real projects the scalar onto a float64 for comparisons, step-size
	// heuristics and ulp checks. For a real scalar this is the identity;
	// for a dual number it is the value component.
	Real() float64

	Sqrt() S
	Sin() S
	Cos() S

	// FromReal builds a new scalar of the same concrete kind as the
	// receiver with real part x. For dual/Taylor scalars the receiver's
	// dimensionality (number of derivative directions) carries over;
	// the new value's derivative components are zero.
	FromReal(x float64) S
}

// Real is the float64 instantiation of Scalar. It is the default used
// by the reference steppers in eventode/rk and by every example.
type Real float64

var _ Scalar[Real] = Real(0)

func (r Real) Add(s Real) Real { return r + s }
func (r Real) Sub(s Real) Real { return r - s }
func (r Real) Mul(s Real) Real { return r * s }
func (r Real) Div(s Real) Real { return r / s }
func (r Real) Neg() Real       { return -r }

func (r Real) Real() float64 { return float64(r) }

func (r Real) Sqrt() Real { return Real(math.Sqrt(float64(r))) }
func (r Real) Sin() Real  { return Real(math.Sin(float64(r))) }
func (r Real) Cos() Real  { return Real(math.Cos(float64(r))) }

func (r Real) FromReal(x float64) Real { return Real(x) }
