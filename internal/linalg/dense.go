package linalg

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// DefaultDecimals is the rounding precision applied before sparsifying
// operators when no explicit precision is configured.
const DefaultDecimals = 10

var ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

// CDense is a dense complex matrix stored in row-major order.
//
// Arithmetic methods that combine two matrices panic on incompatible
// dimensions; callers that accept external input are expected to validate
// shapes before reaching these kernels.
type CDense struct {
	rows, cols int
	data       []complex128
}

// NewCDense returns a zero-initialized rows×cols matrix.
func NewCDense(rows, cols int) *CDense {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("linalg: non-positive dimensions %dx%d", rows, cols))
	}
	return &CDense{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

// NewCDenseFromRows builds a matrix from a rectangular slice of rows.
func NewCDenseFromRows(rows [][]complex128) (*CDense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	}
	m := NewCDense(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != m.cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d",
				ErrDimensionMismatch, i, len(row), m.cols)
		}
		copy(m.data[i*m.cols:(i+1)*m.cols], row)
	}
	return m, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) *CDense {
	m := NewCDense(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *CDense) Dims() (rows, cols int) { return m.rows, m.cols }

func (m *CDense) IsSquare() bool { return m.rows == m.cols }

func (m *CDense) At(i, j int) complex128 {
	m.checkIndex(i, j)
	return m.data[i*m.cols+j]
}

func (m *CDense) Set(i, j int, v complex128) {
	m.checkIndex(i, j)
	m.data[i*m.cols+j] = v
}

func (m *CDense) checkIndex(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("linalg: index (%d,%d) out of bounds for %dx%d matrix", i, j, m.rows, m.cols))
	}
}

// Clone returns a deep copy sharing no storage with m.
func (m *CDense) Clone() *CDense {
	c := NewCDense(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// Add returns m + b as a new matrix.
func (m *CDense) Add(b *CDense) *CDense {
	m.checkSameShape(b)
	out := m.Clone()
	for i, v := range b.data {
		out.data[i] += v
	}
	return out
}

// Sub returns m - b as a new matrix.
func (m *CDense) Sub(b *CDense) *CDense {
	m.checkSameShape(b)
	out := m.Clone()
	for i, v := range b.data {
		out.data[i] -= v
	}
	return out
}

// AccumScaled adds alpha*b into m in place. This is the accumulation
// primitive behind every weighted operator sum.
func (m *CDense) AccumScaled(alpha complex128, b *CDense) {
	m.checkSameShape(b)
	for i, v := range b.data {
		m.data[i] += alpha * v
	}
}

// Scale returns alpha*m as a new matrix.
func (m *CDense) Scale(alpha complex128) *CDense {
	out := m.Clone()
	for i := range out.data {
		out.data[i] *= alpha
	}
	return out
}

// Mul returns the matrix product m*b.
func (m *CDense) Mul(b *CDense) *CDense {
	if m.cols != b.rows {
		panic(fmt.Sprintf("linalg: cannot multiply %dx%d by %dx%d", m.rows, m.cols, b.rows, b.cols))
	}
	out := NewCDense(m.rows, b.cols)
	for i := 0; i < m.rows; i++ {
		for k := 0; k < m.cols; k++ {
			a := m.data[i*m.cols+k]
			if a == 0 {
				continue
			}
			for j := 0; j < b.cols; j++ {
				out.data[i*b.cols+j] += a * b.data[k*b.cols+j]
			}
		}
	}
	return out
}

// Transpose returns mᵀ.
func (m *CDense) Transpose() *CDense {
	out := NewCDense(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// Conj returns the elementwise complex conjugate of m.
func (m *CDense) Conj() *CDense {
	out := m.Clone()
	for i, v := range out.data {
		out.data[i] = cmplx.Conj(v)
	}
	return out
}

// Dagger returns the conjugate transpose m†.
func (m *CDense) Dagger() *CDense {
	out := NewCDense(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = cmplx.Conj(m.data[i*m.cols+j])
		}
	}
	return out
}

// Kron returns the Kronecker product a⊗b.
func Kron(a, b *CDense) *CDense {
	out := NewCDense(a.rows*b.rows, a.cols*b.cols)
	for ia := 0; ia < a.rows; ia++ {
		for ja := 0; ja < a.cols; ja++ {
			v := a.data[ia*a.cols+ja]
			if v == 0 {
				continue
			}
			for ib := 0; ib < b.rows; ib++ {
				for jb := 0; jb < b.cols; jb++ {
					out.data[(ia*b.rows+ib)*out.cols+(ja*b.cols+jb)] = v * b.data[ib*b.cols+jb]
				}
			}
		}
	}
	return out
}

// VecCol flattens an n×n matrix into an n²×1 column vector using the
// column-stacking convention: [[a,b],[c,d]] becomes [a,c,b,d].
func (m *CDense) VecCol() *CDense {
	out := NewCDense(m.rows*m.cols, 1)
	for j := 0; j < m.cols; j++ {
		for i := 0; i < m.rows; i++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// UnvecCol inverts VecCol, reshaping an n²×1 column vector into an n×n
// matrix under the column-stacking convention.
func UnvecCol(v *CDense) (*CDense, error) {
	if v.cols != 1 {
		return nil, fmt.Errorf("%w: expected a column vector, got %dx%d", ErrDimensionMismatch, v.rows, v.cols)
	}
	n := int(math.Round(math.Sqrt(float64(v.rows))))
	if n*n != v.rows {
		return nil, fmt.Errorf("%w: length %d is not a perfect square", ErrDimensionMismatch, v.rows)
	}
	out := NewCDense(n, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			out.data[i*n+j] = v.data[j*n+i]
		}
	}
	return out, nil
}

// HStack concatenates equal-height matrices left to right.
func HStack(ms []*CDense) *CDense {
	if len(ms) == 0 {
		panic("linalg: HStack of no matrices")
	}
	rows := ms[0].rows
	cols := 0
	for _, m := range ms {
		if m.rows != rows {
			panic(fmt.Sprintf("linalg: HStack row mismatch %d vs %d", m.rows, rows))
		}
		cols += m.cols
	}
	out := NewCDense(rows, cols)
	offset := 0
	for _, m := range ms {
		for i := 0; i < rows; i++ {
			copy(out.data[i*cols+offset:i*cols+offset+m.cols], m.data[i*m.cols:(i+1)*m.cols])
		}
		offset += m.cols
	}
	return out
}

// ColBlock returns a copy of columns [j0,j1).
func (m *CDense) ColBlock(j0, j1 int) *CDense {
	if j0 < 0 || j1 > m.cols || j0 >= j1 {
		panic(fmt.Sprintf("linalg: column block [%d,%d) out of range for %d columns", j0, j1, m.cols))
	}
	out := NewCDense(m.rows, j1-j0)
	for i := 0; i < m.rows; i++ {
		copy(out.data[i*out.cols:(i+1)*out.cols], m.data[i*m.cols+j0:i*m.cols+j1])
	}
	return out
}

// Round returns m with real and imaginary parts rounded to the given number
// of decimal places.
func (m *CDense) Round(decimals int) *CDense {
	out := m.Clone()
	for i, v := range out.data {
		out.data[i] = roundComplex(v, decimals)
	}
	return out
}

// Equal reports exact elementwise equality.
func (m *CDense) Equal(b *CDense) bool {
	if m.rows != b.rows || m.cols != b.cols {
		return false
	}
	for i, v := range m.data {
		if v != b.data[i] {
			return false
		}
	}
	return true
}

// EqualApprox reports elementwise equality within tol in absolute value.
func (m *CDense) EqualApprox(b *CDense, tol float64) bool {
	if m.rows != b.rows || m.cols != b.cols {
		return false
	}
	for i, v := range m.data {
		if cmplx.Abs(v-b.data[i]) > tol {
			return false
		}
	}
	return true
}

// Dense returns the receiver; it exists so *CDense and *CSR share a common
// generator contract.
func (m *CDense) Dense() *CDense { return m }

// MulMat is Mul under the name shared with the sparse representation.
func (m *CDense) MulMat(x *CDense) *CDense { return m.Mul(x) }

func (m *CDense) checkSameShape(b *CDense) {
	if m.rows != b.rows || m.cols != b.cols {
		panic(fmt.Sprintf("linalg: shape mismatch %dx%d vs %dx%d", m.rows, m.cols, b.rows, b.cols))
	}
}

func roundComplex(v complex128, decimals int) complex128 {
	p := math.Pow(10, float64(decimals))
	return complex(math.Round(real(v)*p)/p, math.Round(imag(v)*p)/p)
}
