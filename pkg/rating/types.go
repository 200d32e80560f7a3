// Package rating implements a generalized Bayesian rating engine for paired
// competitions. Every competitor carries a Gaussian belief over a latent skill
// vector; each observed match triggers a one-step Laplace (Newton) update of
// the two competitors involved, and the shared prior covariance together with
// the outcome model's parameters can be fit by maximizing the total predictive
// log-likelihood of a match history.
//
// The outcome model itself is pluggable: anything satisfying [Model] can drive
// the engine. Concrete variants live in the models subpackage.
package rating

import (
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/pkg/numerics"
)

// Theta holds outcome-model parameters as named blocks. The engine never
// interprets the blocks; it only threads them through updates and flattens
// them (in sorted-name order) for optimization.
type Theta map[string][]float64

// Parameters bundles the shared skill-prior covariance with the outcome
// model's parameters. A single Parameters value is threaded through every
// update of a run and is never mutated in place; the optimizer replaces it
// wholesale between iterations.
type Parameters struct {
	Theta  Theta
	CovMat *mat.SymDense
}

// Dims returns the skill dimensionality L implied by the covariance.
func (p Parameters) Dims() int {
	return p.CovMat.SymmetricDim()
}

// Model is the outcome-model capability set. All derivatives are with respect
// to the concatenated skill vector of the two competitors (length 2L, winner
// first), and all are evaluated at a single linearization point.
type Model interface {
	// LogPosteriorJacobian evaluates the gradient of the log posterior
	// (Gaussian prior plus outcome log-likelihood) at mean.
	LogPosteriorJacobian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta Theta, outcome []float64) ([]float64, error)

	// LogPosteriorHessian evaluates the Hessian of the log posterior at mean.
	// It must be negative definite for the Newton step to be well posed.
	LogPosteriorHessian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta Theta, outcome []float64) (*mat.SymDense, error)

	// PredictiveLogLik returns the log-likelihood of the observed outcome
	// under the belief N(mean, covMat), marginalizing over the latent skills.
	PredictiveLogLik(mean, priorMean, a []float64, covMat *mat.SymDense, theta Theta, outcome []float64) (float64, error)

	// ParseTheta rebuilds the model's Theta from the tail of a flat
	// optimization vector, using the shape descriptor recorded at flatten
	// time.
	ParseTheta(flat []float64, desc numerics.ShapeDescriptor) (Theta, error)

	// WinProbability returns the probability that the competitor with mean
	// mu1 beats the competitor with mean mu2, both sharing covMat.
	WinProbability(mu1, mu2, a []float64, covMat *mat.SymDense) float64
}

// MatchRecord captures the state of one match immediately before its update
// was applied: the competitor names, their pre-update means, and the winner's
// prior win probability.
type MatchRecord struct {
	Winner        string
	Loser         string
	PriorMuWinner []float64
	PriorMuLoser  []float64
	PriorWinProb  float64
}
