package linalg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/qdyn/internal/linalg"
)

func mustFromRows(t *testing.T, rows [][]complex128) *linalg.CDense {
	t.Helper()
	m, err := linalg.NewCDenseFromRows(rows)
	require.NoError(t, err)
	return m
}

func TestNewCDenseFromRowsRagged(t *testing.T) {
	_, err := linalg.NewCDenseFromRows([][]complex128{{1, 2}, {3}})
	require.ErrorIs(t, err, linalg.ErrDimensionMismatch)
}

func TestCloneIndependence(t *testing.T) {
	m := mustFromRows(t, [][]complex128{{1, 2}, {3, 4}})
	c := m.Clone()
	c.Set(0, 0, 99)
	require.Equal(t, complex128(1), m.At(0, 0))
	require.Equal(t, complex128(99), c.At(0, 0))
}

func TestMul(t *testing.T) {
	a := mustFromRows(t, [][]complex128{{1, 2}, {3, 4}})
	b := mustFromRows(t, [][]complex128{{0, 1}, {1, 0}})
	got := a.Mul(b)
	want := mustFromRows(t, [][]complex128{{2, 1}, {4, 3}})
	require.True(t, got.Equal(want))
}

func TestAccumScaled(t *testing.T) {
	a := mustFromRows(t, [][]complex128{{1, 0}, {0, 1}})
	b := mustFromRows(t, [][]complex128{{0, 1}, {1, 0}})
	a.AccumScaled(2i, b)
	want := mustFromRows(t, [][]complex128{{1, 2i}, {2i, 1}})
	require.True(t, a.Equal(want))
}

func TestDagger(t *testing.T) {
	m := mustFromRows(t, [][]complex128{{1 + 1i, 2}, {3i, 4}})
	got := m.Dagger()
	want := mustFromRows(t, [][]complex128{{1 - 1i, -3i}, {2, 4}})
	require.True(t, got.Equal(want))
}

func TestKron(t *testing.T) {
	a := mustFromRows(t, [][]complex128{{1, 2}, {3, 4}})
	b := mustFromRows(t, [][]complex128{{0, 1}, {1, 0}})
	got := linalg.Kron(a, b)
	want := mustFromRows(t, [][]complex128{
		{0, 1, 0, 2},
		{1, 0, 2, 0},
		{0, 3, 0, 4},
		{3, 0, 4, 0},
	})
	require.True(t, got.Equal(want))
}

func TestVecColConvention(t *testing.T) {
	// [[a,b],[c,d]] must flatten to [a,c,b,d].
	m := mustFromRows(t, [][]complex128{{1, 2}, {3, 4}})
	v := m.VecCol()
	rows, cols := v.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 1, cols)
	require.Equal(t, complex128(1), v.At(0, 0))
	require.Equal(t, complex128(3), v.At(1, 0))
	require.Equal(t, complex128(2), v.At(2, 0))
	require.Equal(t, complex128(4), v.At(3, 0))

	back, err := linalg.UnvecCol(v)
	require.NoError(t, err)
	require.True(t, back.Equal(m))
}

func TestUnvecColBadLength(t *testing.T) {
	v := linalg.NewCDense(3, 1)
	_, err := linalg.UnvecCol(v)
	require.ErrorIs(t, err, linalg.ErrDimensionMismatch)
}

func TestHStackColBlock(t *testing.T) {
	a := mustFromRows(t, [][]complex128{{1, 2}, {3, 4}})
	b := mustFromRows(t, [][]complex128{{5, 6}, {7, 8}})
	s := linalg.HStack([]*linalg.CDense{a, b})
	rows, cols := s.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 4, cols)
	require.True(t, s.ColBlock(0, 2).Equal(a))
	require.True(t, s.ColBlock(2, 4).Equal(b))
}

func TestRound(t *testing.T) {
	m := mustFromRows(t, [][]complex128{{1.00000000004, complex(0, 2.5e-13)}})
	r := m.Round(10)
	require.Equal(t, complex128(1), r.At(0, 0))
	require.Equal(t, complex128(0), r.At(0, 1))
}
