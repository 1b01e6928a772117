package linalg

import (
	"fmt"
	"sort"
)

// CSR is a complex matrix in compressed sparse row format.
//
// Construction rounds every entry to a fixed number of decimal places and
// drops entries that round to zero. This truncation is deliberate lossy
// compression: values below the configured precision are never stored.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []complex128
}

// NewCSRFromDense sparsifies m after rounding real and imaginary parts to
// decimals places.
func NewCSRFromDense(m *CDense, decimals int) *CSR {
	s := &CSR{rows: m.rows, cols: m.cols, indptr: make([]int, m.rows+1)}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			v := roundComplex(m.data[i*m.cols+j], decimals)
			if v == 0 {
				continue
			}
			s.indices = append(s.indices, j)
			s.data = append(s.data, v)
		}
		s.indptr[i+1] = len(s.data)
	}
	return s
}

func (s *CSR) Dims() (rows, cols int) { return s.rows, s.cols }

// NNZ returns the number of stored entries.
func (s *CSR) NNZ() int { return len(s.data) }

// Clone returns a deep copy sharing no storage with s.
func (s *CSR) Clone() *CSR {
	c := &CSR{
		rows:    s.rows,
		cols:    s.cols,
		indptr:  make([]int, len(s.indptr)),
		indices: make([]int, len(s.indices)),
		data:    make([]complex128, len(s.data)),
	}
	copy(c.indptr, s.indptr)
	copy(c.indices, s.indices)
	copy(c.data, s.data)
	return c
}

// ToDense materializes s as a dense matrix.
func (s *CSR) ToDense() *CDense {
	m := NewCDense(s.rows, s.cols)
	for i := 0; i < s.rows; i++ {
		for p := s.indptr[i]; p < s.indptr[i+1]; p++ {
			m.data[i*s.cols+s.indices[p]] = s.data[p]
		}
	}
	return m
}

// Dense materializes s; it exists so *CDense and *CSR share a common
// generator contract.
func (s *CSR) Dense() *CDense { return s.ToDense() }

// MulMat is MulDense under the name shared with the dense representation.
func (s *CSR) MulMat(x *CDense) *CDense { return s.MulDense(x) }

// Scale returns alpha*s. A zero alpha drops every entry.
func (s *CSR) Scale(alpha complex128) *CSR {
	if alpha == 0 {
		return &CSR{rows: s.rows, cols: s.cols, indptr: make([]int, s.rows+1)}
	}
	out := s.Clone()
	for i := range out.data {
		out.data[i] *= alpha
	}
	return out
}

// Dagger returns the conjugate transpose s† in CSR form.
func (s *CSR) Dagger() *CSR {
	out := &CSR{
		rows:    s.cols,
		cols:    s.rows,
		indptr:  make([]int, s.cols+1),
		indices: make([]int, len(s.indices)),
		data:    make([]complex128, len(s.data)),
	}
	// Count entries per output row, then scatter.
	for _, j := range s.indices {
		out.indptr[j+1]++
	}
	for i := 0; i < s.cols; i++ {
		out.indptr[i+1] += out.indptr[i]
	}
	next := make([]int, s.cols)
	copy(next, out.indptr[:s.cols])
	for i := 0; i < s.rows; i++ {
		for p := s.indptr[i]; p < s.indptr[i+1]; p++ {
			j := s.indices[p]
			out.indices[next[j]] = i
			out.data[next[j]] = complex(real(s.data[p]), -imag(s.data[p]))
			next[j]++
		}
	}
	return out
}

// Mul returns the sparse product s*b in CSR form.
func (s *CSR) Mul(b *CSR) *CSR {
	if s.cols != b.rows {
		panic(fmt.Sprintf("linalg: cannot multiply %dx%d by %dx%d", s.rows, s.cols, b.rows, b.cols))
	}
	out := &CSR{rows: s.rows, cols: b.cols, indptr: make([]int, s.rows+1)}
	acc := make([]complex128, b.cols)
	touched := make([]int, 0, b.cols)
	seen := make([]bool, b.cols)
	for i := 0; i < s.rows; i++ {
		touched = touched[:0]
		for p := s.indptr[i]; p < s.indptr[i+1]; p++ {
			k := s.indices[p]
			v := s.data[p]
			for q := b.indptr[k]; q < b.indptr[k+1]; q++ {
				j := b.indices[q]
				if !seen[j] {
					seen[j] = true
					touched = append(touched, j)
				}
				acc[j] += v * b.data[q]
			}
		}
		sort.Ints(touched)
		for _, j := range touched {
			if acc[j] != 0 {
				out.indices = append(out.indices, j)
				out.data = append(out.data, acc[j])
			}
			acc[j] = 0
			seen[j] = false
		}
		out.indptr[i+1] = len(out.data)
	}
	return out
}

// MulDense returns the dense product s*b.
func (s *CSR) MulDense(b *CDense) *CDense {
	if s.cols != b.rows {
		panic(fmt.Sprintf("linalg: cannot multiply %dx%d by %dx%d", s.rows, s.cols, b.rows, b.cols))
	}
	out := NewCDense(s.rows, b.cols)
	for i := 0; i < s.rows; i++ {
		for p := s.indptr[i]; p < s.indptr[i+1]; p++ {
			k := s.indices[p]
			v := s.data[p]
			for j := 0; j < b.cols; j++ {
				out.data[i*b.cols+j] += v * b.data[k*b.cols+j]
			}
		}
	}
	return out
}

// DenseMulCSR returns the dense product a*s, iterating the sparse factor's
// entries so cost scales with nnz rather than the full dimension.
func DenseMulCSR(a *CDense, s *CSR) *CDense {
	if a.cols != s.rows {
		panic(fmt.Sprintf("linalg: cannot multiply %dx%d by %dx%d", a.rows, a.cols, s.rows, s.cols))
	}
	out := NewCDense(a.rows, s.cols)
	for k := 0; k < s.rows; k++ {
		for p := s.indptr[k]; p < s.indptr[k+1]; p++ {
			j := s.indices[p]
			v := s.data[p]
			for i := 0; i < a.rows; i++ {
				out.data[i*s.cols+j] += a.data[i*a.cols+k] * v
			}
		}
	}
	return out
}

// WeightedSumCSR returns Σⱼ coeffs[j]·mats[j] (+ drift when non-nil) as a
// CSR matrix, accumulating row by row so the result stays sparse. Zero
// coefficients skip their term entirely; accumulated cancellations to exact
// zero are dropped.
func WeightedSumCSR(coeffs []complex128, mats []*CSR, drift *CSR) *CSR {
	if len(coeffs) != len(mats) {
		panic(fmt.Sprintf("linalg: %d coefficients for %d matrices", len(coeffs), len(mats)))
	}
	var rows, cols int
	switch {
	case drift != nil:
		rows, cols = drift.rows, drift.cols
	case len(mats) > 0:
		rows, cols = mats[0].rows, mats[0].cols
	default:
		panic("linalg: weighted sum of nothing")
	}
	terms := make([]*CSR, 0, len(mats)+1)
	weights := make([]complex128, 0, len(mats)+1)
	for j, m := range mats {
		if coeffs[j] == 0 {
			continue
		}
		if m.rows != rows || m.cols != cols {
			panic(fmt.Sprintf("linalg: shape mismatch %dx%d vs %dx%d", m.rows, m.cols, rows, cols))
		}
		terms = append(terms, m)
		weights = append(weights, coeffs[j])
	}
	if drift != nil {
		terms = append(terms, drift)
		weights = append(weights, 1)
	}

	out := &CSR{rows: rows, cols: cols, indptr: make([]int, rows+1)}
	acc := make([]complex128, cols)
	touched := make([]int, 0, cols)
	seen := make([]bool, cols)
	for i := 0; i < rows; i++ {
		touched = touched[:0]
		for t, m := range terms {
			w := weights[t]
			for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
				j := m.indices[p]
				if !seen[j] {
					seen[j] = true
					touched = append(touched, j)
				}
				acc[j] += w * m.data[p]
			}
		}
		sort.Ints(touched)
		for _, j := range touched {
			if acc[j] != 0 {
				out.indices = append(out.indices, j)
				out.data = append(out.data, acc[j])
			}
			acc[j] = 0
			seen[j] = false
		}
		out.indptr[i+1] = len(out.data)
	}
	return out
}
