package operators

import "errors"

var (
	// ErrGeneratorUnsupported is returned by EvaluateGenerator on
	// collections whose right-hand side is inherently state-dependent, such
	// as the non-vectorized Lindblad collections: the jump term L·ρ·L†
	// cannot be folded into a single left-multiplying matrix.
	ErrGeneratorUnsupported = errors.New("operators: generator evaluation not supported for this representation")

	// ErrShapeMismatch is returned when signal-value counts or state
	// dimensions do not match the held operators.
	ErrShapeMismatch = errors.New("operators: shape mismatch")
)
