package operators_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/qdyn/internal/linalg"
	"github.com/san-kum/qdyn/internal/operators"
)

const tol = 1e-12

func mustMatrix(t *testing.T, rows [][]complex128) *linalg.CDense {
	t.Helper()
	m, err := linalg.NewCDenseFromRows(rows)
	require.NoError(t, err)
	return m
}

func pauliX(t *testing.T) *linalg.CDense {
	return mustMatrix(t, [][]complex128{{0, 1}, {1, 0}})
}

func pauliY(t *testing.T) *linalg.CDense {
	return mustMatrix(t, [][]complex128{{0, -1i}, {1i, 0}})
}

func pauliZ(t *testing.T) *linalg.CDense {
	return mustMatrix(t, [][]complex128{{1, 0}, {0, -1}})
}

func columnVector(t *testing.T, entries ...complex128) *linalg.CDense {
	t.Helper()
	v := linalg.NewCDense(len(entries), 1)
	for i, e := range entries {
		v.Set(i, 0, e)
	}
	return v
}

func TestDenseGeneratorTwoLevel(t *testing.T) {
	// H0 = diag(1,-1) drift-free two-level system with one control term.
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliZ(t), pauliX(t)}, nil)
	require.NoError(t, err)

	gen, err := c.EvaluateGenerator(operators.Signals{Ham: []complex128{1, 0.5}})
	require.NoError(t, err)
	want := mustMatrix(t, [][]complex128{{1, 0.5}, {0.5, -1}})
	require.True(t, gen.Dense().EqualApprox(want, tol))

	out, err := c.EvaluateRHS(operators.Signals{Ham: []complex128{1, 0.5}},
		operators.VectorState(columnVector(t, 1, 0)))
	require.NoError(t, err)
	require.True(t, out.Vector.EqualApprox(columnVector(t, 1, 0.5), tol))
}

func TestDenseGeneratorWithDrift(t *testing.T) {
	drift := pauliZ(t)
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t)}, drift)
	require.NoError(t, err)

	gen, err := c.EvaluateGenerator(operators.Signals{Ham: []complex128{2i}})
	require.NoError(t, err)
	want := drift.Clone()
	want.AccumScaled(2i, pauliX(t))
	require.True(t, gen.Dense().EqualApprox(want, tol))
}

func TestDenseRHSMatchesGeneratorProduct(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t), pauliY(t), pauliZ(t)}, nil)
	require.NoError(t, err)
	sig := operators.Signals{Ham: []complex128{0.3, -1i, 2}}
	y := columnVector(t, 1, 2i)

	gen, err := c.EvaluateGenerator(sig)
	require.NoError(t, err)
	out, err := c.EvaluateRHS(sig, operators.VectorState(y))
	require.NoError(t, err)
	require.True(t, out.Vector.EqualApprox(gen.Dense().Mul(y), tol))
}

func TestDenseBatchState(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t)}, nil)
	require.NoError(t, err)
	sig := operators.Signals{Ham: []complex128{1}}

	// Two states as stacked columns.
	batch := mustMatrix(t, [][]complex128{{1, 0}, {0, 1}})
	out, err := c.EvaluateRHS(sig, operators.VectorState(batch))
	require.NoError(t, err)
	require.True(t, out.Vector.EqualApprox(pauliX(t), tol))
}

func TestDenseShapeMismatch(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t)}, nil)
	require.NoError(t, err)

	_, err = c.EvaluateGenerator(operators.Signals{Ham: []complex128{1, 2}})
	require.ErrorIs(t, err, operators.ErrShapeMismatch)

	_, err = c.EvaluateRHS(operators.Signals{Ham: []complex128{1}},
		operators.VectorState(columnVector(t, 1, 0, 0)))
	require.ErrorIs(t, err, operators.ErrShapeMismatch)

	_, err = c.EvaluateRHS(operators.Signals{Ham: []complex128{1}},
		operators.DensityState(pauliZ(t)))
	require.ErrorIs(t, err, operators.ErrShapeMismatch)
}

func TestDenseConstructorValidation(t *testing.T) {
	_, err := operators.NewDenseCollection(nil, nil)
	require.Error(t, err)

	rect, err := linalg.NewCDenseFromRows([][]complex128{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	_, err = operators.NewDenseCollection([]*linalg.CDense{rect}, nil)
	require.ErrorIs(t, err, operators.ErrShapeMismatch)

	three := linalg.Identity(3)
	_, err = operators.NewDenseCollection([]*linalg.CDense{pauliX(t), three}, nil)
	require.ErrorIs(t, err, operators.ErrShapeMismatch)
}

func TestDenseCopyIndependence(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t)}, pauliZ(t))
	require.NoError(t, err)
	cp := c.Copy()

	require.NoError(t, cp.SetDrift(pauliY(t)))
	require.True(t, c.Drift().Dense().EqualApprox(pauliZ(t), tol))
	require.True(t, cp.Drift().Dense().EqualApprox(pauliY(t), tol))
}

func TestDenseSetDriftClears(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t)}, pauliZ(t))
	require.NoError(t, err)
	require.NoError(t, c.SetDrift(nil))
	require.Nil(t, c.Drift())

	gen, err := c.EvaluateGenerator(operators.Signals{Ham: []complex128{1}})
	require.NoError(t, err)
	require.True(t, gen.Dense().EqualApprox(pauliX(t), tol))
}

func TestDenseConstructionCopiesInputs(t *testing.T) {
	op := pauliX(t)
	c, err := operators.NewDenseCollection([]*linalg.CDense{op}, nil)
	require.NoError(t, err)
	op.Set(0, 1, 42)

	gen, err := c.EvaluateGenerator(operators.Signals{Ham: []complex128{1}})
	require.NoError(t, err)
	require.True(t, gen.Dense().EqualApprox(pauliX(t), tol))
}

func TestEvaluateDispatch(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t)}, nil)
	require.NoError(t, err)
	sig := operators.Signals{Ham: []complex128{1}}

	gen, state, err := operators.Evaluate(c, sig, nil)
	require.NoError(t, err)
	require.NotNil(t, gen)
	require.Nil(t, state)

	y := operators.VectorState(columnVector(t, 0, 1))
	gen, state, err = operators.Evaluate(c, sig, &y)
	require.NoError(t, err)
	require.Nil(t, gen)
	require.NotNil(t, state)
	require.True(t, state.Vector.EqualApprox(columnVector(t, 1, 0), tol))
}

func TestNumOperators(t *testing.T) {
	c, err := operators.NewDenseCollection([]*linalg.CDense{pauliX(t), pauliZ(t)}, nil)
	require.NoError(t, err)
	ham, diss := c.NumOperators()
	require.Equal(t, 2, ham)
	require.Equal(t, 0, diss)
}

func TestErrorsAreDistinguishable(t *testing.T) {
	require.False(t, errors.Is(operators.ErrShapeMismatch, operators.ErrGeneratorUnsupported))
}
