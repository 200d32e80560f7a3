package rating

import (
	"fmt"

	"github.com/stitts-dev/gelo/pkg/numerics"
)

// FlattenParameters serializes p into a single real vector suitable for
// numerical optimization: the row-major lower-triangular Cholesky elements of
// the covariance first (L(L+1)/2 entries), the sorted-key flattening of theta
// second. The returned descriptor records how to undo the theta part.
//
// The entry ordering is load-bearing: saved optimizer vectors are only
// portable across runs if it never changes.
func FlattenParameters(p Parameters) ([]float64, numerics.ShapeDescriptor, error) {
	covElts, err := numerics.CholeskyLowerElements(p.CovMat)
	if err != nil {
		return nil, nil, fmt.Errorf("flatten parameters: %w", err)
	}

	thetaFlat, desc := numerics.Flatten(p.Theta)

	flat := make([]float64, 0, len(covElts)+len(thetaFlat))
	flat = append(flat, covElts...)
	flat = append(flat, thetaFlat...)
	return flat, desc, nil
}

// ReconstructParameters rebuilds Parameters from a flat vector laid out by
// FlattenParameters (or proposed by the optimizer). The first L(L+1)/2
// entries become the covariance via L_chol*L_chol^T, positive semi-definite
// by construction for any real input; the remainder goes through the outcome
// model's own theta parser. Length inconsistencies surface as
// ErrShapeMismatch before any numerical work.
func ReconstructParameters(x []float64, dims int, model Model, desc numerics.ShapeDescriptor) (Parameters, error) {
	nTri := numerics.TriangularElements(dims)
	if len(x) != nTri+desc.TotalLength() {
		return Parameters{}, fmt.Errorf("%w: flat vector has %d entries, want %d covariance plus %d theta",
			ErrShapeMismatch, len(x), nTri, desc.TotalLength())
	}

	covMat, err := numerics.PosDefFromTriElements(x[:nTri], dims)
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	theta, err := model.ParseTheta(x[nTri:], desc)
	if err != nil {
		return Parameters{}, err
	}

	return Parameters{Theta: theta, CovMat: covMat}, nil
}
