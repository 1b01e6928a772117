package operators

import (
	"fmt"

	"github.com/san-kum/qdyn/internal/linalg"
)

// VectorizedLindbladCollection flattens the Lindblad superoperator into a
// single n²×n² linear generator acting on column-stacked states, so that
// evaluation reduces to the plain dense-collection machinery. Hamiltonian
// terms become commutator superoperators −i(I⊗Hⱼ − Hⱼᵀ⊗I), dissipator terms
// become L̄ⱼ⊗Lⱼ − ½·I⊗(Lⱼ†Lⱼ) − ½·(Lⱼ†Lⱼ)ᵀ⊗I, and the drift is vectorized
// with the same commutator transform as the Hamiltonian terms.
type VectorizedLindbladCollection struct {
	// full holds the concatenated Hamiltonian and dissipator superoperators;
	// hamOnly holds just the Hamiltonian portion and serves evaluations
	// where every dissipator rate is zero.
	full     *DenseCollection
	hamOnly  *DenseCollection
	rawDrift *linalg.CDense
	numHam   int
	numDiss  int
	dim      int
}

// NewVectorizedLindbladCollection builds the vectorized superoperator terms
// from the same inputs as NewDenseLindbladCollection.
func NewVectorizedLindbladCollection(hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense) (*VectorizedLindbladCollection, error) {
	if len(hamOps) == 0 && drift == nil && len(dissOps) == 0 {
		return nil, fmt.Errorf("%w: collection needs at least one operator or a drift", ErrShapeMismatch)
	}
	dim, err := checkSquareSet(hamOps, 0, "hamiltonian")
	if err != nil {
		return nil, err
	}
	dim, err = checkSquareSet(dissOps, dim, "dissipator")
	if err != nil {
		return nil, err
	}
	if drift != nil {
		r, cols := drift.Dims()
		if r != cols {
			return nil, fmt.Errorf("%w: drift is %dx%d, want square", ErrShapeMismatch, r, cols)
		}
		if dim == 0 {
			dim = r
		} else if r != dim {
			return nil, fmt.Errorf("%w: drift has dimension %d, want %d", ErrShapeMismatch, r, dim)
		}
	}

	vecOps := make([]*linalg.CDense, 0, len(hamOps)+len(dissOps))
	for _, h := range hamOps {
		vecOps = append(vecOps, vecCommutator(h))
	}
	for _, l := range dissOps {
		vecOps = append(vecOps, vecDissipator(l))
	}
	var vecDrift *linalg.CDense
	if drift != nil {
		vecDrift = vecCommutator(drift)
	}

	full, err := NewDenseCollection(vecOps, vecDrift)
	if err != nil {
		return nil, err
	}
	hamDrift := vecDrift
	if len(hamOps) == 0 && hamDrift == nil {
		// Dissipator-only model: the Hamiltonian portion is identically zero
		// but must still evaluate to an n²×n² matrix.
		hamDrift = linalg.NewCDense(dim*dim, dim*dim)
	}
	hamOnly, err := NewDenseCollection(vecOps[:len(hamOps)], hamDrift)
	if err != nil {
		return nil, err
	}
	c := &VectorizedLindbladCollection{
		full:    full,
		hamOnly: hamOnly,
		numHam:  len(hamOps),
		numDiss: len(dissOps),
		dim:     dim,
	}
	if drift != nil {
		c.rawDrift = drift.Clone()
	}
	return c, nil
}

// vecCommutator returns −i(I⊗A − Aᵀ⊗I), the column-stacking superoperator
// of ρ ↦ −i[A,ρ].
func vecCommutator(a *linalg.CDense) *linalg.CDense {
	n, _ := a.Dims()
	id := linalg.Identity(n)
	return linalg.Kron(id, a).Sub(linalg.Kron(a.Transpose(), id)).Scale(-1i)
}

// vecDissipator returns the column-stacking superoperator of
// ρ ↦ LρL† − ½{L†L, ρ}.
func vecDissipator(l *linalg.CDense) *linalg.CDense {
	n, _ := l.Dims()
	id := linalg.Identity(n)
	prod := l.Dagger().Mul(l)
	out := linalg.Kron(l.Conj(), l)
	out.AccumScaled(-0.5, linalg.Kron(id, prod))
	out.AccumScaled(-0.5, linalg.Kron(prod.Transpose(), id))
	return out
}

func (c *VectorizedLindbladCollection) NumOperators() (ham, diss int) {
	return c.numHam, c.numDiss
}

func (c *VectorizedLindbladCollection) Dim() int { return c.dim }

// Drift returns the unvectorized Hamiltonian drift; the commutator transform
// applied internally is an implementation detail of the flattened storage.
func (c *VectorizedLindbladCollection) Drift() Generator {
	if c.rawDrift == nil {
		return nil
	}
	return c.rawDrift
}

// SetDrift takes the unvectorized n×n Hamiltonian drift and re-vectorizes it
// into both inner collections.
func (c *VectorizedLindbladCollection) SetDrift(d Generator) error {
	if d == nil {
		c.rawDrift = nil
		if err := c.full.SetDrift(nil); err != nil {
			return err
		}
		return c.hamOnly.SetDrift(nil)
	}
	r, cols := d.Dims()
	if r != cols || r != c.dim {
		return fmt.Errorf("%w: drift is %dx%d, want %dx%d", ErrShapeMismatch, r, cols, c.dim, c.dim)
	}
	raw := d.Dense().Clone()
	vec := vecCommutator(raw)
	if err := c.full.SetDrift(vec); err != nil {
		return err
	}
	if err := c.hamOnly.SetDrift(vec); err != nil {
		return err
	}
	c.rawDrift = raw
	return nil
}

// EvaluateGenerator returns the flattened n²×n² Lindblad generator. When
// every dissipator rate is zero only the Hamiltonian portion is summed.
func (c *VectorizedLindbladCollection) EvaluateGenerator(sig Signals) (Generator, error) {
	inner, combined, err := c.dispatch(sig)
	if err != nil {
		return nil, err
	}
	return inner.EvaluateGenerator(Signals{Ham: combined})
}

// EvaluateRHS applies the flattened generator to a column-stacked state of
// length n² (extra columns form a batch).
func (c *VectorizedLindbladCollection) EvaluateRHS(sig Signals, y State) (State, error) {
	if y.Vector == nil {
		return State{}, fmt.Errorf("%w: vectorized Lindblad collection expects a column-stacked vector state", ErrShapeMismatch)
	}
	inner, combined, err := c.dispatch(sig)
	if err != nil {
		return State{}, err
	}
	return inner.EvaluateRHS(Signals{Ham: combined}, y)
}

// dispatch validates the signal pair and selects the inner collection:
// concatenated Hamiltonian and dissipator coefficients on the full set, or
// the Hamiltonian-only set when no dissipation is active.
func (c *VectorizedLindbladCollection) dispatch(sig Signals) (*DenseCollection, []complex128, error) {
	if err := checkSignalCount(len(sig.Ham), c.numHam, "hamiltonian"); err != nil {
		return nil, nil, err
	}
	if err := checkSignalCount(len(sig.Diss), c.numDiss, "dissipator"); err != nil {
		return nil, nil, err
	}
	active := false
	for _, g := range sig.Diss {
		if g != 0 {
			active = true
			break
		}
	}
	if !active {
		return c.hamOnly, sig.Ham, nil
	}
	combined := make([]complex128, 0, c.numHam+c.numDiss)
	combined = append(combined, sig.Ham...)
	for _, g := range sig.Diss {
		combined = append(combined, complex(g, 0))
	}
	return c.full, combined, nil
}

func (c *VectorizedLindbladCollection) Copy() Collection {
	cp := &VectorizedLindbladCollection{
		full:    c.full.Copy().(*DenseCollection),
		hamOnly: c.hamOnly.Copy().(*DenseCollection),
		numHam:  c.numHam,
		numDiss: c.numDiss,
		dim:     c.dim,
	}
	if c.rawDrift != nil {
		cp.rawDrift = c.rawDrift.Clone()
	}
	return cp
}
