package operators

import (
	"fmt"

	"github.com/san-kum/qdyn/internal/linalg"
)

// Signals carries the time-dependent coefficients for one evaluation call.
// Plain collections read Ham only; Lindblad collections additionally read
// Diss, the non-negative dissipator rates γⱼ(t).
type Signals struct {
	Ham  []complex128
	Diss []float64
}

// State is the evolving quantity of an LMDE. Exactly one field is populated:
// Vector for state vectors and vectorized states (extra columns form a
// batch), or Density for density matrices (len > 1 forms a batch).
// Collections never mutate a State they are handed.
type State struct {
	Vector  *linalg.CDense
	Density []*linalg.CDense
}

// VectorState wraps a column-vector (or stacked-columns batch) state.
func VectorState(v *linalg.CDense) State { return State{Vector: v} }

// DensityState wraps a single density matrix.
func DensityState(rho *linalg.CDense) State {
	return State{Density: []*linalg.CDense{rho}}
}

// DensityBatch wraps a batch of density matrices.
func DensityBatch(rhos []*linalg.CDense) State { return State{Density: rhos} }

// IsZero reports whether no state is present.
func (s State) IsZero() bool { return s.Vector == nil && len(s.Density) == 0 }

// Generator is an instantaneous LMDE generator in whichever storage the
// producing collection uses.
type Generator interface {
	Dims() (rows, cols int)
	// Dense returns a dense view of the generator. For dense generators this
	// is the generator itself, not a copy.
	Dense() *linalg.CDense
	// MulMat applies the generator to a column vector or a stacked-columns
	// batch.
	MulMat(x *linalg.CDense) *linalg.CDense
}

// Collection stores a decomposition of a time-dependent generator
// Λ(t) = Σⱼ sⱼ(t)·Gⱼ + drift and evaluates either Λ(t) itself or its action
// on a state. Implementations are immutable after construction except for
// the drift term; concurrent evaluation calls are safe provided no caller
// mutates the drift concurrently.
type Collection interface {
	// EvaluateGenerator returns Λ(t) for the given signal values,
	// independent of any state. Collections whose dynamics cannot be
	// expressed as a single left-acting matrix return
	// ErrGeneratorUnsupported.
	EvaluateGenerator(sig Signals) (Generator, error)

	// EvaluateRHS returns dy/dt for the given signal values and state.
	// Supported by every collection.
	EvaluateRHS(sig Signals, y State) (State, error)

	// NumOperators returns the held Hamiltonian-term and dissipator-term
	// counts. Non-Lindblad collections report zero dissipators.
	NumOperators() (ham, diss int)

	// Drift returns the time-independent term, nil when absent.
	Drift() Generator

	// SetDrift replaces the time-independent term, coercing it to the
	// collection's storage representation. A nil generator clears it.
	SetDrift(d Generator) error

	// Copy returns a deep copy sharing no mutable storage with the
	// original.
	Copy() Collection
}

// Evaluate dispatches to EvaluateGenerator when y is nil and to EvaluateRHS
// otherwise, so a single entry point serves both "give me the operator" and
// "give me the derivative" callers. Exactly one of the returned generator
// and state is non-nil on success.
func Evaluate(c Collection, sig Signals, y *State) (Generator, *State, error) {
	if y == nil || y.IsZero() {
		g, err := c.EvaluateGenerator(sig)
		return g, nil, err
	}
	out, err := c.EvaluateRHS(sig, *y)
	if err != nil {
		return nil, nil, err
	}
	return nil, &out, nil
}

func checkSignalCount(got, want int, kind string) error {
	if got != want {
		return fmt.Errorf("%w: %d %s signal values for %d operators", ErrShapeMismatch, got, kind, want)
	}
	return nil
}

func checkSquareSet(ops []*linalg.CDense, dim int, kind string) (int, error) {
	for i, op := range ops {
		r, c := op.Dims()
		if r != c {
			return 0, fmt.Errorf("%w: %s operator %d is %dx%d, want square", ErrShapeMismatch, kind, i, r, c)
		}
		if dim == 0 {
			dim = r
		} else if r != dim {
			return 0, fmt.Errorf("%w: %s operator %d has dimension %d, want %d", ErrShapeMismatch, kind, i, r, dim)
		}
	}
	return dim, nil
}
