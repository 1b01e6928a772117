package metrics_test

import (
	"math"
	"testing"

	"github.com/san-kum/qdyn/internal/linalg"
	"github.com/san-kum/qdyn/internal/metrics"
)

func density(t *testing.T, rows [][]complex128) *linalg.CDense {
	t.Helper()
	m, err := linalg.NewCDenseFromRows(rows)
	if err != nil {
		t.Fatalf("bad matrix: %v", err)
	}
	return m
}

func TestTrace(t *testing.T) {
	rho := density(t, [][]complex128{{0.3, 0.1}, {0.1, 0.7}})
	tr, err := metrics.Trace(rho)
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	if tr != 1 {
		t.Errorf("expected trace 1, got %v", tr)
	}
}

func TestTraceNonSquare(t *testing.T) {
	m := linalg.NewCDense(2, 3)
	if _, err := metrics.Trace(m); err == nil {
		t.Error("expected error for non-square matrix")
	}
}

func TestPurity(t *testing.T) {
	pure := density(t, [][]complex128{{1, 0}, {0, 0}})
	p, err := metrics.Purity(pure)
	if err != nil {
		t.Fatalf("purity failed: %v", err)
	}
	if math.Abs(p-1) > 1e-12 {
		t.Errorf("pure state purity should be 1, got %v", p)
	}

	mixed := density(t, [][]complex128{{0.5, 0}, {0, 0.5}})
	p, err = metrics.Purity(mixed)
	if err != nil {
		t.Fatalf("purity failed: %v", err)
	}
	if math.Abs(p-0.5) > 1e-12 {
		t.Errorf("maximally mixed purity should be 0.5, got %v", p)
	}
}

func TestExpectation(t *testing.T) {
	sigmaZ := density(t, [][]complex128{{1, 0}, {0, -1}})
	excited := density(t, [][]complex128{{0, 0}, {0, 1}})
	ev, err := metrics.Expectation(sigmaZ, excited)
	if err != nil {
		t.Fatalf("expectation failed: %v", err)
	}
	if ev != -1 {
		t.Errorf("expected <sigma_z> = -1, got %v", ev)
	}
}

func TestNorm(t *testing.T) {
	v := linalg.NewCDense(2, 1)
	v.Set(0, 0, complex(0, 3))
	v.Set(1, 0, 4)
	n, err := metrics.Norm(v)
	if err != nil {
		t.Fatalf("norm failed: %v", err)
	}
	if math.Abs(n-5) > 1e-12 {
		t.Errorf("expected norm 5, got %v", n)
	}
}

func TestNormRejectsMatrix(t *testing.T) {
	if _, err := metrics.Norm(linalg.Identity(2)); err == nil {
		t.Error("expected error for non-vector input")
	}
}
