package operators

import (
	"fmt"

	"github.com/san-kum/qdyn/internal/linalg"
)

// SparseLindbladCollection is the sparse specialization of
// DenseLindbladCollection: every Hamiltonian and dissipator operator is
// individually sparsified after rounding, with the conjugate transposes and
// Lⱼ†Lⱼ products precomputed in sparse form. Batched states are packed into
// one column-block matrix so each left-acting sparse product covers the
// whole batch in a single multiplication.
type SparseLindbladCollection struct {
	hamOps   []*linalg.CSR
	drift    *linalg.CSR
	dissOps  []*linalg.CSR
	dissAdj  []*linalg.CSR
	dissProd []*linalg.CSR
	decimals int
	dim      int
}

// NewSparseLindbladCollection sparsifies the given Hamiltonian terms,
// optional drift and optional dissipator terms with the given truncation
// precision.
func NewSparseLindbladCollection(hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense, decimals int) (*SparseLindbladCollection, error) {
	if len(hamOps) == 0 && drift == nil && len(dissOps) == 0 {
		return nil, fmt.Errorf("%w: collection needs at least one operator or a drift", ErrShapeMismatch)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("operators: negative rounding precision %d", decimals)
	}
	dim, err := checkSquareSet(hamOps, 0, "hamiltonian")
	if err != nil {
		return nil, err
	}
	dim, err = checkSquareSet(dissOps, dim, "dissipator")
	if err != nil {
		return nil, err
	}
	c := &SparseLindbladCollection{
		hamOps:   make([]*linalg.CSR, len(hamOps)),
		decimals: decimals,
		dim:      dim,
	}
	for i, op := range hamOps {
		c.hamOps[i] = linalg.NewCSRFromDense(op, decimals)
	}
	if len(dissOps) > 0 {
		c.dissOps = make([]*linalg.CSR, len(dissOps))
		c.dissAdj = make([]*linalg.CSR, len(dissOps))
		c.dissProd = make([]*linalg.CSR, len(dissOps))
		for i, op := range dissOps {
			c.dissOps[i] = linalg.NewCSRFromDense(op, decimals)
			c.dissAdj[i] = c.dissOps[i].Dagger()
			c.dissProd[i] = c.dissAdj[i].Mul(c.dissOps[i])
		}
	}
	if drift != nil {
		if err := c.SetDrift(drift); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *SparseLindbladCollection) NumOperators() (ham, diss int) {
	return len(c.hamOps), len(c.dissOps)
}

func (c *SparseLindbladCollection) Dim() int { return c.dim }

func (c *SparseLindbladCollection) Decimals() int { return c.decimals }

func (c *SparseLindbladCollection) Drift() Generator {
	if c.drift == nil {
		return nil
	}
	return c.drift
}

func (c *SparseLindbladCollection) SetDrift(d Generator) error {
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
	if s, ok := d.(*linalg.CSR); ok {
		c.drift = s.Clone()
		return nil
	}
	c.drift = linalg.NewCSRFromDense(d.Dense(), c.decimals)
	return nil
}

// EvaluateGenerator always fails, as for the dense Lindblad collection.
func (c *SparseLindbladCollection) EvaluateGenerator(Signals) (Generator, error) {
	return nil, fmt.Errorf("%w: non-vectorized Lindblad collections cannot be evaluated without a state", ErrGeneratorUnsupported)
}

// EvaluateHamiltonian returns H(t) as a sparse matrix.
func (c *SparseLindbladCollection) EvaluateHamiltonian(hamSig []complex128) (*linalg.CSR, error) {
	if err := checkSignalCount(len(hamSig), len(c.hamOps), "hamiltonian"); err != nil {
		return nil, err
	}
	if len(c.hamOps) == 0 && c.drift == nil {
		return linalg.NewCSRFromDense(linalg.NewCDense(c.dim, c.dim), c.decimals), nil
	}
	return linalg.WeightedSumCSR(hamSig, c.hamOps, c.drift), nil
}

// EvaluateRHS evaluates the Lindblad right-hand side with sparse operators.
// A single density matrix is processed directly; a batch is packed into one
// column-block matrix first so the left products (A+B)·ρ and Lⱼ·ρ each cover
// the whole batch in one sparse multiplication, and unpacked only at the
// end. Packing is cheap; unpacking is the expensive step and is invoked only
// for batched input.
func (c *SparseLindbladCollection) EvaluateRHS(sig Signals, y State) (State, error) {
	if len(y.Density) == 0 {
		return State{}, fmt.Errorf("%w: Lindblad collection expects a density-matrix state", ErrShapeMismatch)
	}
	if err := checkSignalCount(len(sig.Diss), len(c.dissOps), "dissipator"); err != nil {
		return State{}, err
	}
	for i, rho := range y.Density {
		r, cols := rho.Dims()
		if r != c.dim || cols != c.dim {
			return State{}, fmt.Errorf("%w: density matrix %d is %dx%d, want %dx%d", ErrShapeMismatch, i, r, cols, c.dim, c.dim)
		}
	}
	hm, err := c.EvaluateHamiltonian(sig.Ham)
	if err != nil {
		return State{}, err
	}
	b := hm.Scale(-1i)

	var a *linalg.CSR
	if len(c.dissOps) > 0 {
		coeffs := make([]complex128, len(c.dissProd))
		for j, g := range sig.Diss {
			coeffs[j] = complex(-0.5*g, 0)
		}
		a = linalg.WeightedSumCSR(coeffs, c.dissProd, nil)
	}

	if len(y.Density) == 1 {
		return DensityState(c.rhsPacked(sig, a, b, y.Density[0], 1)), nil
	}

	packed, err := PackDensityBatch(y.Density)
	if err != nil {
		return State{}, err
	}
	out := c.rhsPacked(sig, a, b, packed, len(y.Density))
	rhos, err := UnpackDensityBatch(out, len(y.Density))
	if err != nil {
		return State{}, err
	}
	return State{Density: rhos}, nil
}

// rhsPacked computes the right-hand side on a packed n×(k·n) state. Left
// sparse products act on the whole packing at once; right products act per
// column block since each block is right-multiplied independently.
func (c *SparseLindbladCollection) rhsPacked(sig Signals, a, b *linalg.CSR, packed *linalg.CDense, k int) *linalg.CDense {
	n := c.dim
	if a == nil {
		// Pure unitary evolution per block: Bρ − ρB.
		left := b.MulDense(packed)
		for i := 0; i < k; i++ {
			block := packed.ColBlock(i*n, (i+1)*n)
			accumBlock(left, linalg.DenseMulCSR(block, b).Scale(-1), i*n)
		}
		return left
	}

	leftOp := linalg.WeightedSumCSR([]complex128{1, 1}, []*linalg.CSR{a, b}, nil)
	rightOp := linalg.WeightedSumCSR([]complex128{1, -1}, []*linalg.CSR{a, b}, nil)

	total := leftOp.MulDense(packed)
	for i := 0; i < k; i++ {
		block := packed.ColBlock(i*n, (i+1)*n)
		contrib := linalg.DenseMulCSR(block, rightOp)
		for j, l := range c.dissOps {
			if sig.Diss[j] == 0 {
				continue
			}
			jump := linalg.DenseMulCSR(l.MulDense(block), c.dissAdj[j])
			contrib.AccumScaled(complex(sig.Diss[j], 0), jump)
		}
		accumBlock(total, contrib, i*n)
	}
	return total
}

func (c *SparseLindbladCollection) Copy() Collection {
	cp := &SparseLindbladCollection{
		hamOps:   make([]*linalg.CSR, len(c.hamOps)),
		decimals: c.decimals,
		dim:      c.dim,
	}
	for i, op := range c.hamOps {
		cp.hamOps[i] = op.Clone()
	}
	if c.drift != nil {
		cp.drift = c.drift.Clone()
	}
	if len(c.dissOps) > 0 {
		cp.dissOps = make([]*linalg.CSR, len(c.dissOps))
		cp.dissAdj = make([]*linalg.CSR, len(c.dissOps))
		cp.dissProd = make([]*linalg.CSR, len(c.dissOps))
		for i := range c.dissOps {
			cp.dissOps[i] = c.dissOps[i].Clone()
			cp.dissAdj[i] = c.dissAdj[i].Clone()
			cp.dissProd[i] = c.dissProd[i].Clone()
		}
	}
	return cp
}

// accumBlock adds the n×n matrix block into dst starting at column j0.
func accumBlock(dst, block *linalg.CDense, j0 int) {
	rows, cols := block.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(i, j0+j, dst.At(i, j0+j)+block.At(i, j))
		}
	}
}

// PackDensityBatch packs k density matrices of dimension n×n into a single
// n×(k·n) matrix of column blocks, the layout EvaluateRHS uses to vectorize
// left-acting sparse products over a batch.
func PackDensityBatch(rhos []*linalg.CDense) (*linalg.CDense, error) {
	if len(rhos) == 0 {
		return nil, fmt.Errorf("%w: empty density batch", ErrShapeMismatch)
	}
	n, _ := rhos[0].Dims()
	for i, rho := range rhos {
		r, c := rho.Dims()
		if r != n || c != n {
			return nil, fmt.Errorf("%w: density matrix %d is %dx%d, want %dx%d", ErrShapeMismatch, i, r, c, n, n)
		}
	}
	return linalg.HStack(rhos), nil
}

// UnpackDensityBatch splits an n×(k·n) packed matrix back into k density
// matrices, inverting PackDensityBatch.
func UnpackDensityBatch(packed *linalg.CDense, k int) ([]*linalg.CDense, error) {
	rows, cols := packed.Dims()
	if k <= 0 || cols != k*rows {
		return nil, fmt.Errorf("%w: cannot split %dx%d into %d square blocks", ErrShapeMismatch, rows, cols, k)
	}
	out := make([]*linalg.CDense, k)
	for i := 0; i < k; i++ {
		out[i] = packed.ColBlock(i*rows, (i+1)*rows)
	}
	return out, nil
}
