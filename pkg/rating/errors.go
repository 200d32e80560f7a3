package rating

import "errors"

var (
	// ErrSingularUpdate is returned when the log-posterior Hessian for a
	// match cannot be solved against. It indicates a malformed outcome model
	// or degenerate parameters and is never recovered locally.
	ErrSingularUpdate = errors.New("rating: singular Hessian in match update")

	// ErrShapeMismatch is returned when input sequences, flat parameter
	// vectors, or shape descriptors are inconsistent with the expected
	// dimensions. It is raised before any numerical work begins.
	ErrShapeMismatch = errors.New("rating: shape mismatch")
)
