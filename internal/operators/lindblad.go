package operators

import (
	"fmt"

	"github.com/san-kum/qdyn/internal/linalg"
)

// DenseLindbladCollection evaluates the Lindblad master equation
//
//	ρ̇ = −i[H(t),ρ] + Σⱼ γⱼ(t)·(Lⱼ ρ Lⱼ† − ½{Lⱼ†Lⱼ, ρ})
//
// with H(t) = Σⱼ sⱼ(t)·Hⱼ + drift. The conjugate transposes Lⱼ† and
// products Lⱼ†Lⱼ are cached at construction. The right-hand side wraps the
// state on both sides, so no state-independent generator exists for this
// representation.
type DenseLindbladCollection struct {
	hamOps   []*linalg.CDense
	drift    *linalg.CDense
	dissOps  []*linalg.CDense
	dissAdj  []*linalg.CDense
	dissProd []*linalg.CDense
	dim      int
}

// NewDenseLindbladCollection stores deep copies of the Hamiltonian terms,
// optional drift and optional dissipator terms, all square with a common
// dimension.
func NewDenseLindbladCollection(hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense) (*DenseLindbladCollection, error) {
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
	c := &DenseLindbladCollection{
		hamOps: make([]*linalg.CDense, len(hamOps)),
		dim:    dim,
	}
	for i, op := range hamOps {
		c.hamOps[i] = op.Clone()
	}
	if len(dissOps) > 0 {
		c.dissOps = make([]*linalg.CDense, len(dissOps))
		c.dissAdj = make([]*linalg.CDense, len(dissOps))
		c.dissProd = make([]*linalg.CDense, len(dissOps))
		for i, op := range dissOps {
			c.dissOps[i] = op.Clone()
			c.dissAdj[i] = op.Dagger()
			c.dissProd[i] = c.dissAdj[i].Mul(op)
		}
	}
	if drift != nil {
		if err := c.SetDrift(drift); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *DenseLindbladCollection) NumOperators() (ham, diss int) {
	return len(c.hamOps), len(c.dissOps)
}

func (c *DenseLindbladCollection) Dim() int { return c.dim }

func (c *DenseLindbladCollection) Drift() Generator {
	if c.drift == nil {
		return nil
	}
	return c.drift
}

func (c *DenseLindbladCollection) SetDrift(d Generator) error {
	if d == nil {
		c.drift = nil
		return nil
	}
	r, cols := d.Dims()
	if r != cols {
		return fmt.Errorf("%w: drift is %dx%d, want square", ErrShapeMismatch, r, cols)
	}
	if c.dim == 0 {
		c.dim = r
	} else if r != c.dim {
		return fmt.Errorf("%w: drift has dimension %d, want %d", ErrShapeMismatch, r, c.dim)
	}
	c.drift = d.Dense().Clone()
	return nil
}

// EvaluateGenerator always fails: the jump term Lⱼ ρ Lⱼ† is bilinear in the
// dissipators around the state and cannot be reduced to one left-acting
// matrix.
func (c *DenseLindbladCollection) EvaluateGenerator(Signals) (Generator, error) {
	return nil, fmt.Errorf("%w: non-vectorized Lindblad collections cannot be evaluated without a state", ErrGeneratorUnsupported)
}

// EvaluateHamiltonian returns H(t) = Σⱼ sⱼ·Hⱼ + drift, the matrix entering
// the commutator −i[H,ρ].
func (c *DenseLindbladCollection) EvaluateHamiltonian(hamSig []complex128) (*linalg.CDense, error) {
	if err := checkSignalCount(len(hamSig), len(c.hamOps), "hamiltonian"); err != nil {
		return nil, err
	}
	var h *linalg.CDense
	if c.drift != nil {
		h = c.drift.Clone()
	} else {
		h = linalg.NewCDense(c.dim, c.dim)
	}
	for j, op := range c.hamOps {
		if hamSig[j] == 0 {
			continue
		}
		h.AccumScaled(hamSig[j], op)
	}
	return h, nil
}

// EvaluateRHS evaluates the Lindblad right-hand side for a density matrix or
// a batch of density matrices, decomposed as (A+B)ρ + ρ(A−B) + C with
// B = −iH(t), A = −½Σⱼγⱼ·Lⱼ†Lⱼ and C = Σⱼγⱼ·Lⱼ ρ Lⱼ†. Without dissipator
// terms it reduces to the pure commutator −i[H,ρ].
func (c *DenseLindbladCollection) EvaluateRHS(sig Signals, y State) (State, error) {
	if len(y.Density) == 0 {
		return State{}, fmt.Errorf("%w: Lindblad collection expects a density-matrix state", ErrShapeMismatch)
	}
	if err := checkSignalCount(len(sig.Diss), len(c.dissOps), "dissipator"); err != nil {
		return State{}, err
	}
	hm, err := c.EvaluateHamiltonian(sig.Ham)
	if err != nil {
		return State{}, err
	}
	b := hm.Scale(-1i)

	var a *linalg.CDense
	if len(c.dissOps) > 0 {
		a = linalg.NewCDense(c.dim, c.dim)
		for j, prod := range c.dissProd {
			if sig.Diss[j] == 0 {
				continue
			}
			a.AccumScaled(complex(-0.5*sig.Diss[j], 0), prod)
		}
	}

	out := make([]*linalg.CDense, len(y.Density))
	for i, rho := range y.Density {
		r, cols := rho.Dims()
		if r != c.dim || cols != c.dim {
			return State{}, fmt.Errorf("%w: density matrix %d is %dx%d, want %dx%d", ErrShapeMismatch, i, r, cols, c.dim, c.dim)
		}
		out[i] = c.rhsSingle(sig, a, b, rho)
	}
	return State{Density: out}, nil
}

func (c *DenseLindbladCollection) rhsSingle(sig Signals, a, b, rho *linalg.CDense) *linalg.CDense {
	if a == nil {
		// Pure unitary evolution: Bρ − ρB = −i[H,ρ].
		return b.Mul(rho).Sub(rho.Mul(b))
	}
	left := a.Add(b).Mul(rho)
	right := rho.Mul(a.Sub(b))
	total := left.Add(right)
	for j, l := range c.dissOps {
		if sig.Diss[j] == 0 {
			continue
		}
		total.AccumScaled(complex(sig.Diss[j], 0), l.Mul(rho).Mul(c.dissAdj[j]))
	}
	return total
}

func (c *DenseLindbladCollection) Copy() Collection {
	cp := &DenseLindbladCollection{
		hamOps: make([]*linalg.CDense, len(c.hamOps)),
		dim:    c.dim,
	}
	for i, op := range c.hamOps {
		cp.hamOps[i] = op.Clone()
	}
	if c.drift != nil {
		cp.drift = c.drift.Clone()
	}
	if len(c.dissOps) > 0 {
		cp.dissOps = make([]*linalg.CDense, len(c.dissOps))
		cp.dissAdj = make([]*linalg.CDense, len(c.dissOps))
		cp.dissProd = make([]*linalg.CDense, len(c.dissOps))
		for i := range c.dissOps {
			cp.dissOps[i] = c.dissOps[i].Clone()
			cp.dissAdj[i] = c.dissAdj[i].Clone()
			cp.dissProd[i] = c.dissProd[i].Clone()
		}
	}
	return cp
}
