package rating

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/pkg/numerics"
)

// CalculateUpdate performs the one-step Laplace update for a single match.
//
// mu is the concatenated prior mean of the two competitors (length 2L) and
// covMat their joint prior covariance (block-diagonal, 2L x 2L). The outcome
// model's Jacobian and Hessian are evaluated once at mu and the new mode is
// obtained from a single Newton step: solve H*delta = -J and return mu+delta.
// This is exact for locally quadratic log-posteriors and a first-order
// approximation otherwise, justified when per-match skill changes are small
// relative to the prior's scale.
//
// The returned log-likelihood is the predictive likelihood of the observed
// outcome under the prior belief; it plays no part in the update itself.
// CalculateUpdate is a pure function of its inputs.
func CalculateUpdate(mu []float64, covMat *mat.SymDense, a, y []float64, model Model, params Parameters) ([]float64, float64, error) {
	logLik, err := model.PredictiveLogLik(mu, mu, a, covMat, params.Theta, y)
	if err != nil {
		return nil, 0, err
	}

	// Jacobian and Hessian at the current mean, a single linearization point.
	jac, err := model.LogPosteriorJacobian(mu, mu, covMat, a, params.Theta, y)
	if err != nil {
		return nil, 0, err
	}
	hess, err := model.LogPosteriorHessian(mu, mu, covMat, a, params.Theta, y)
	if err != nil {
		return nil, 0, err
	}

	n := len(mu)
	negJac := mat.NewVecDense(n, nil)
	for i, v := range jac {
		negJac.SetVec(i, -v)
	}

	var delta mat.VecDense
	if err := delta.SolveVec(hess, negJac); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSingularUpdate, err)
	}

	newMu := make([]float64, n)
	for i := range newMu {
		newMu[i] = mu[i] + delta.AtVec(i)
	}
	return newMu, logLik, nil
}

// ConcatenateAndUpdate stacks the winner's and loser's means, builds the
// block-diagonal joint covariance from the shared per-competitor covariance,
// runs CalculateUpdate, and splits the result back into the two new means.
func ConcatenateAndUpdate(mu1, mu2, a, y []float64, model Model, params Parameters) ([]float64, []float64, float64, error) {
	dims := len(mu1)
	if len(mu2) != dims {
		return nil, nil, 0, fmt.Errorf("%w: competitor means have lengths %d and %d", ErrShapeMismatch, dims, len(mu2))
	}
	if len(a) != 2*dims {
		return nil, nil, 0, fmt.Errorf("%w: design vector has length %d, want %d", ErrShapeMismatch, len(a), 2*dims)
	}

	mu := make([]float64, 0, 2*dims)
	mu = append(mu, mu1...)
	mu = append(mu, mu2...)
	covFull := numerics.BlockDiagDouble(params.CovMat)

	newMu, logLik, err := CalculateUpdate(mu, covFull, a, y, model, params)
	if err != nil {
		return nil, nil, 0, err
	}
	return newMu[:dims], newMu[dims:], logLik, nil
}
