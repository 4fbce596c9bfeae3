// Package interp rescales template systematics measured at n sigma back to
// the one sigma variation the fit expects.
package interp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quadratic fits y = a·x² + b·x + c through three points and returns the
// fitted value at x relative to y2, the value at the middle point.
// Degenerate abscissae give NaN.
func Quadratic(x, x1, x2, x3, y1, y2, y3 float64) float64 {
	a := mat.NewDense(3, 3, []float64{
		x1 * x1, x1, 1,
		x2 * x2, x2, 1,
		x3 * x3, x3, 1,
	})
	b := mat.NewVecDense(3, []float64{y1, y2, y3})

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return math.NaN()
	}
	v := coef.AtVec(0)*x*x + coef.AtVec(1)*x + coef.AtVec(2)
	return v / y2
}

// OneSigma returns the [down, up] yield ratios of a template systematic.
// With quadSigma zero the ratios are taken directly; otherwise the templates
// were made at ±quadSigma and are interpolated back to ±1. A zero nominal
// yield or a failed interpolation gives a ratio of one.
func OneSigma(nom, down, up float64, quadSigma int) [2]float64 {
	if nom == 0 {
		return [2]float64{1, 1}
	}
	if quadSigma == 0 {
		return [2]float64{down / nom, up / nom}
	}

	q := float64(quadSigma)
	d := Quadratic(-1, -q, 0, q, down, nom, up)
	u := Quadratic(1, -q, 0, q, down, nom, up)
	if math.IsNaN(d) {
		d = 1
	}
	if math.IsNaN(u) {
		u = 1
	}
	return [2]float64{d, u}
}
