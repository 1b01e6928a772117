package operators_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/qdyn/internal/linalg"
	"github.com/san-kum/qdyn/internal/operators"
)

func lowering(t *testing.T) *linalg.CDense {
	return mustMatrix(t, [][]complex128{{0, 1}, {0, 0}})
}

func excitedState(t *testing.T) *linalg.CDense {
	return mustMatrix(t, [][]complex128{{0, 0}, {0, 1}})
}

// lindbladReference evaluates −i[H,ρ] + Σⱼ γⱼ(LⱼρLⱼ† − ½{Lⱼ†Lⱼ,ρ}) term by
// term, without the (A+B)ρ + ρ(A−B) + C regrouping the collection uses.
func lindbladReference(h *linalg.CDense, rho *linalg.CDense, gammas []float64, ls []*linalg.CDense) *linalg.CDense {
	out := h.Mul(rho).Sub(rho.Mul(h)).Scale(-1i)
	for j, l := range ls {
		ld := l.Dagger()
		prod := ld.Mul(l)
		jump := l.Mul(rho).Mul(ld)
		anti := prod.Mul(rho).Add(rho.Mul(prod)).Scale(0.5)
		out.AccumScaled(complex(gammas[j], 0), jump.Sub(anti))
	}
	return out
}

func TestLindbladDecayScenario(t *testing.T) {
	// L = |0><1|, γ = 1, H-signal = 0, ρ = |1><1|: the Hamiltonian term
	// vanishes and ρ̇ = LρL† − ½{L†L,ρ} moves all population downward.
	c, err := operators.NewDenseLindbladCollection(
		[]*linalg.CDense{pauliZ(t)}, nil, []*linalg.CDense{lowering(t)})
	require.NoError(t, err)

	out, err := c.EvaluateRHS(
		operators.Signals{Ham: []complex128{0}, Diss: []float64{1}},
		operators.DensityState(excitedState(t)))
	require.NoError(t, err)

	want := mustMatrix(t, [][]complex128{{1, 0}, {0, -1}})
	require.True(t, out.Density[0].EqualApprox(want, tol))
}

func TestLindbladGeneratorUnsupported(t *testing.T) {
	c, err := operators.NewDenseLindbladCollection(
		[]*linalg.CDense{pauliZ(t)}, nil, []*linalg.CDense{lowering(t)})
	require.NoError(t, err)

	_, err = c.EvaluateGenerator(operators.Signals{Ham: []complex128{1}, Diss: []float64{1}})
	require.ErrorIs(t, err, operators.ErrGeneratorUnsupported)

	_, _, err = operators.Evaluate(c, operators.Signals{Ham: []complex128{1}, Diss: []float64{1}}, nil)
	require.ErrorIs(t, err, operators.ErrGeneratorUnsupported)
}

func TestLindbladMatchesReference(t *testing.T) {
	hamOps := []*linalg.CDense{pauliZ(t), pauliX(t)}
	drift := pauliY(t)
	dissOps := []*linalg.CDense{lowering(t), pauliZ(t)}
	c, err := operators.NewDenseLindbladCollection(hamOps, drift, dissOps)
	require.NoError(t, err)

	sig := operators.Signals{Ham: []complex128{0.3, -0.7}, Diss: []float64{0.9, 0.2}}
	rho := mustMatrix(t, [][]complex128{{0.6, 0.1 + 0.2i}, {0.1 - 0.2i, 0.4}})

	out, err := c.EvaluateRHS(sig, operators.DensityState(rho))
	require.NoError(t, err)

	h := drift.Clone()
	h.AccumScaled(sig.Ham[0], hamOps[0])
	h.AccumScaled(sig.Ham[1], hamOps[1])
	want := lindbladReference(h, rho, sig.Diss, dissOps)
	require.True(t, out.Density[0].EqualApprox(want, tol))
}

func TestLindbladNoDissipatorsReducesToCommutator(t *testing.T) {
	c, err := operators.NewDenseLindbladCollection([]*linalg.CDense{pauliX(t)}, nil, nil)
	require.NoError(t, err)

	rho := excitedState(t)
	out, err := c.EvaluateRHS(operators.Signals{Ham: []complex128{1}}, operators.DensityState(rho))
	require.NoError(t, err)

	h := pauliX(t)
	want := h.Mul(rho).Sub(rho.Mul(h)).Scale(-1i)
	require.True(t, out.Density[0].EqualApprox(want, tol))
}

func TestLindbladBatch(t *testing.T) {
	c, err := operators.NewDenseLindbladCollection(
		[]*linalg.CDense{pauliZ(t)}, nil, []*linalg.CDense{lowering(t)})
	require.NoError(t, err)

	sig := operators.Signals{Ham: []complex128{0.5}, Diss: []float64{1.2}}
	rhos := []*linalg.CDense{
		excitedState(t),
		mustMatrix(t, [][]complex128{{0.5, 0.5}, {0.5, 0.5}}),
		mustMatrix(t, [][]complex128{{0.2, 0}, {0, 0.8}}),
	}

	batchOut, err := c.EvaluateRHS(sig, operators.DensityBatch(rhos))
	require.NoError(t, err)
	require.Len(t, batchOut.Density, len(rhos))

	for i, rho := range rhos {
		single, err := c.EvaluateRHS(sig, operators.DensityState(rho))
		require.NoError(t, err)
		require.True(t, batchOut.Density[i].EqualApprox(single.Density[0], tol))
	}
}

func TestLindbladEvaluateHamiltonian(t *testing.T) {
	drift := pauliZ(t)
	c, err := operators.NewDenseLindbladCollection([]*linalg.CDense{pauliX(t)}, drift, nil)
	require.NoError(t, err)

	h, err := c.EvaluateHamiltonian([]complex128{0.5})
	require.NoError(t, err)
	want := drift.Clone()
	want.AccumScaled(0.5, pauliX(t))
	require.True(t, h.EqualApprox(want, tol))
}

func TestLindbladShapeMismatch(t *testing.T) {
	c, err := operators.NewDenseLindbladCollection(
		[]*linalg.CDense{pauliZ(t)}, nil, []*linalg.CDense{lowering(t)})
	require.NoError(t, err)

	// Wrong dissipator signal count.
	_, err = c.EvaluateRHS(operators.Signals{Ham: []complex128{1}, Diss: []float64{1, 2}},
		operators.DensityState(excitedState(t)))
	require.ErrorIs(t, err, operators.ErrShapeMismatch)

	// Vector state instead of a density matrix.
	_, err = c.EvaluateRHS(operators.Signals{Ham: []complex128{1}, Diss: []float64{1}},
		operators.VectorState(columnVector(t, 1, 0)))
	require.ErrorIs(t, err, operators.ErrShapeMismatch)

	// Wrong density dimension.
	_, err = c.EvaluateRHS(operators.Signals{Ham: []complex128{1}, Diss: []float64{1}},
		operators.DensityState(linalg.Identity(3)))
	require.ErrorIs(t, err, operators.ErrShapeMismatch)
}

func TestLindbladNumOperators(t *testing.T) {
	c, err := operators.NewDenseLindbladCollection(
		[]*linalg.CDense{pauliZ(t), pauliX(t)}, nil, []*linalg.CDense{lowering(t)})
	require.NoError(t, err)
	ham, diss := c.NumOperators()
	require.Equal(t, 2, ham)
	require.Equal(t, 1, diss)
}

func TestLindbladCopyIndependence(t *testing.T) {
	c, err := operators.NewDenseLindbladCollection(
		[]*linalg.CDense{pauliZ(t)}, pauliX(t), []*linalg.CDense{lowering(t)})
	require.NoError(t, err)
	cp := c.Copy()
	require.NoError(t, cp.SetDrift(nil))
	require.NotNil(t, c.Drift())
	require.Nil(t, cp.Drift())
}
