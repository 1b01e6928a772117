package operators

import (
	"fmt"

	"github.com/san-kum/qdyn/internal/linalg"
)

// DenseCollection evaluates generators of the form G(t) = Σⱼ sⱼ(t)·Gⱼ + G_d
// with every term stored densely. It is the reference semantics the other
// representations must reduce to.
type DenseCollection struct {
	ops   []*linalg.CDense
	drift *linalg.CDense
	dim   int
}

// NewDenseCollection stores deep copies of the given operator terms and
// optional drift. All matrices must be square with a common dimension.
func NewDenseCollection(ops []*linalg.CDense, drift *linalg.CDense) (*DenseCollection, error) {
	if len(ops) == 0 && drift == nil {
		return nil, fmt.Errorf("%w: collection needs at least one operator or a drift", ErrShapeMismatch)
	}
	dim, err := checkSquareSet(ops, 0, "generator")
	if err != nil {
		return nil, err
	}
	c := &DenseCollection{ops: make([]*linalg.CDense, len(ops)), dim: dim}
	for i, op := range ops {
		c.ops[i] = op.Clone()
	}
	if drift != nil {
		if err := c.SetDrift(drift); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *DenseCollection) NumOperators() (ham, diss int) { return len(c.ops), 0 }

// Dim returns the operator dimension n.
func (c *DenseCollection) Dim() int { return c.dim }

func (c *DenseCollection) Drift() Generator {
	if c.drift == nil {
		return nil
	}
	return c.drift
}

func (c *DenseCollection) SetDrift(d Generator) error {
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

// EvaluateGenerator returns Σⱼ sⱼ·Gⱼ + drift.
func (c *DenseCollection) EvaluateGenerator(sig Signals) (Generator, error) {
	g, err := c.sum(sig.Ham)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// EvaluateRHS returns G(t)·y for a vector state or a stacked-columns batch.
func (c *DenseCollection) EvaluateRHS(sig Signals, y State) (State, error) {
	if y.Vector == nil {
		return State{}, fmt.Errorf("%w: dense collection expects a vector state", ErrShapeMismatch)
	}
	rows, _ := y.Vector.Dims()
	if rows != c.dim {
		return State{}, fmt.Errorf("%w: state has dimension %d, want %d", ErrShapeMismatch, rows, c.dim)
	}
	g, err := c.sum(sig.Ham)
	if err != nil {
		return State{}, err
	}
	return VectorState(g.Mul(y.Vector)), nil
}

func (c *DenseCollection) sum(coeffs []complex128) (*linalg.CDense, error) {
	if err := checkSignalCount(len(coeffs), len(c.ops), "generator"); err != nil {
		return nil, err
	}
	var g *linalg.CDense
	if c.drift != nil {
		g = c.drift.Clone()
	} else {
		g = linalg.NewCDense(c.dim, c.dim)
	}
	for j, op := range c.ops {
		if coeffs[j] == 0 {
			continue
		}
		g.AccumScaled(coeffs[j], op)
	}
	return g, nil
}

func (c *DenseCollection) Copy() Collection {
	cp := &DenseCollection{ops: make([]*linalg.CDense, len(c.ops)), dim: c.dim}
	for i, op := range c.ops {
		cp.ops[i] = op.Clone()
	}
	if c.drift != nil {
		cp.drift = c.drift.Clone()
	}
	return cp
}
