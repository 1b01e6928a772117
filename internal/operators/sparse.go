package operators

import (
	"fmt"

	"github.com/san-kum/qdyn/internal/linalg"
)

// SparseCollection is the sparse counterpart of DenseCollection: every
// operator and the drift are individually sparsified after rounding to the
// configured number of decimal places. Entries that round to zero are
// dropped and never recovered.
type SparseCollection struct {
	ops      []*linalg.CSR
	drift    *linalg.CSR
	decimals int
	dim      int
}

// NewSparseCollection sparsifies the given operator terms and optional
// drift. Pass linalg.DefaultDecimals unless a different truncation precision
// is required.
func NewSparseCollection(ops []*linalg.CDense, drift *linalg.CDense, decimals int) (*SparseCollection, error) {
	if len(ops) == 0 && drift == nil {
		return nil, fmt.Errorf("%w: collection needs at least one operator or a drift", ErrShapeMismatch)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("operators: negative rounding precision %d", decimals)
	}
	dim, err := checkSquareSet(ops, 0, "generator")
	if err != nil {
		return nil, err
	}
	c := &SparseCollection{ops: make([]*linalg.CSR, len(ops)), decimals: decimals, dim: dim}
	for i, op := range ops {
		c.ops[i] = linalg.NewCSRFromDense(op, decimals)
	}
	if drift != nil {
		if err := c.SetDrift(drift); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *SparseCollection) NumOperators() (ham, diss int) { return len(c.ops), 0 }

func (c *SparseCollection) Dim() int { return c.dim }

// Decimals returns the truncation precision used for sparse storage.
func (c *SparseCollection) Decimals() int { return c.decimals }

func (c *SparseCollection) Drift() Generator {
	if c.drift == nil {
		return nil
	}
	return c.drift
}

// SetDrift coerces the given term into rounded sparse storage.
func (c *SparseCollection) SetDrift(d Generator) error {
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

// EvaluateGenerator returns the weighted sum over the sparse operator terms
// as a sparse matrix.
func (c *SparseCollection) EvaluateGenerator(sig Signals) (Generator, error) {
	if err := checkSignalCount(len(sig.Ham), len(c.ops), "generator"); err != nil {
		return nil, err
	}
	return linalg.WeightedSumCSR(sig.Ham, c.ops, c.drift), nil
}

// EvaluateRHS has two paths. For a stacked-columns batch the generator is
// materialized once and applied to the whole batch. For a single column the
// weighted operator-vector products are summed directly, which is cheaper
// than building a summed sparse matrix for one right-hand side.
func (c *SparseCollection) EvaluateRHS(sig Signals, y State) (State, error) {
	if y.Vector == nil {
		return State{}, fmt.Errorf("%w: sparse collection expects a vector state", ErrShapeMismatch)
	}
	if err := checkSignalCount(len(sig.Ham), len(c.ops), "generator"); err != nil {
		return State{}, err
	}
	rows, cols := y.Vector.Dims()
	if rows != c.dim {
		return State{}, fmt.Errorf("%w: state has dimension %d, want %d", ErrShapeMismatch, rows, c.dim)
	}

	if cols > 1 {
		gen := linalg.WeightedSumCSR(sig.Ham, c.ops, c.drift)
		return VectorState(gen.MulDense(y.Vector)), nil
	}

	var acc *linalg.CDense
	if c.drift != nil {
		acc = c.drift.MulDense(y.Vector)
	} else {
		acc = linalg.NewCDense(rows, cols)
	}
	for j, op := range c.ops {
		if sig.Ham[j] == 0 {
			continue
		}
		acc.AccumScaled(sig.Ham[j], op.MulDense(y.Vector))
	}
	return VectorState(acc), nil
}

func (c *SparseCollection) Copy() Collection {
	cp := &SparseCollection{ops: make([]*linalg.CSR, len(c.ops)), decimals: c.decimals, dim: c.dim}
	for i, op := range c.ops {
		cp.ops[i] = op.Clone()
	}
	if c.drift != nil {
		cp.drift = c.drift.Clone()
	}
	return cp
}
