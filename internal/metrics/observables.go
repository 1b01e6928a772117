// Package metrics computes scalar observables of quantum states: trace and
// purity of density matrices, expectation values, and state-vector norms.
package metrics

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/qdyn/internal/linalg"
)

// Trace returns Tr ρ. For a physical density matrix this is 1.
func Trace(rho *linalg.CDense) (complex128, error) {
	n, c := rho.Dims()
	if n != c {
		return 0, fmt.Errorf("metrics: trace of non-square %dx%d matrix", n, c)
	}
	var tr complex128
	for i := 0; i < n; i++ {
		tr += rho.At(i, i)
	}
	return tr, nil
}

// Purity returns Re Tr ρ², which is 1 for pure states and 1/n for the
// maximally mixed state.
func Purity(rho *linalg.CDense) (float64, error) {
	n, c := rho.Dims()
	if n != c {
		return 0, fmt.Errorf("metrics: purity of non-square %dx%d matrix", n, c)
	}
	var p complex128
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p += rho.At(i, j) * rho.At(j, i)
		}
	}
	return real(p), nil
}

// Expectation returns Tr(O·ρ) for an observable O and density matrix ρ.
func Expectation(obs, rho *linalg.CDense) (complex128, error) {
	or, oc := obs.Dims()
	rr, rc := rho.Dims()
	if or != oc || rr != rc || or != rr {
		return 0, fmt.Errorf("metrics: incompatible shapes %dx%d and %dx%d", or, oc, rr, rc)
	}
	var tr complex128
	for i := 0; i < or; i++ {
		for j := 0; j < or; j++ {
			tr += obs.At(i, j) * rho.At(j, i)
		}
	}
	return tr, nil
}

// Norm returns the Euclidean norm of a column-vector state.
func Norm(v *linalg.CDense) (float64, error) {
	rows, cols := v.Dims()
	if cols != 1 {
		return 0, fmt.Errorf("metrics: norm of non-vector %dx%d matrix", rows, cols)
	}
	var sum float64
	for i := 0; i < rows; i++ {
		a := cmplx.Abs(v.At(i, 0))
		sum += a * a
	}
	return math.Sqrt(sum), nil
}
