// Package operators stores decompositions of time-dependent generators and
// evaluates them against signal values, the calculation core behind solving
// LMDEs ẏ = Λ(y,t).
//
// Each representation implements the [Collection] interface:
//
//   - [DenseCollection]: direct weighted matrix sum, the reference semantics
//   - [SparseCollection]: the same contract over truncated sparse storage
//   - [DenseLindbladCollection]: open-system dynamics on density matrices
//   - [VectorizedLindbladCollection]: the Lindblad superoperator flattened
//     to one linear map on column-stacked states
//   - [SparseLindbladCollection]: sparse Lindblad with batched column-block
//     packing
//
// A single entry point serves callers that need the instantaneous operator
// and callers that need the derivative:
//
//	gen, _, err := operators.Evaluate(c, sig, nil)   // Λ(t)
//	_, dy, err := operators.Evaluate(c, sig, &y)     // ẏ
//
// Collections that cannot express their dynamics as one state-independent
// matrix return [ErrGeneratorUnsupported] from the first form; integrators
// should treat that as the cue to drive evaluation through the state.
package operators
