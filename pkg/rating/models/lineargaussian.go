package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/stitts-dev/gelo/pkg/numerics"
	"github.com/stitts-dev/gelo/pkg/rating"
)

// LinearGaussian observes the latent skill difference directly with known
// Gaussian noise: outcome[0] = a^T x + eps, eps ~ N(0, noiseSD^2). The
// log-posterior is exactly quadratic, so the engine's one-step Newton update
// equals the conjugate linear-Gaussian posterior mean. The noise scale is
// fixed at construction and carries no theta.
type LinearGaussian struct {
	noiseVar float64
}

// NewLinearGaussian returns a linear-Gaussian model with the given
// observation noise standard deviation.
func NewLinearGaussian(noiseSD float64) LinearGaussian {
	return LinearGaussian{noiseVar: noiseSD * noiseSD}
}

func checkLinearOutcome(outcome []float64) error {
	if len(outcome) != 1 {
		return fmt.Errorf("%w: linear-Gaussian model expects a 1-element outcome, got %d", rating.ErrShapeMismatch, len(outcome))
	}
	return nil
}

func (g LinearGaussian) LogPosteriorJacobian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta rating.Theta, outcome []float64) ([]float64, error) {
	if err := checkLinearOutcome(outcome); err != nil {
		return nil, err
	}

	grad, _, err := priorGradient(mean, priorMean, covMat)
	if err != nil {
		return nil, err
	}

	residual := (outcome[0] - latent(a, mean)) / g.noiseVar
	for i := range grad {
		grad[i] += residual * a[i]
	}
	return grad, nil
}

func (g LinearGaussian) LogPosteriorHessian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta rating.Theta, outcome []float64) (*mat.SymDense, error) {
	if err := checkLinearOutcome(outcome); err != nil {
		return nil, err
	}

	_, prec, err := priorGradient(mean, priorMean, covMat)
	if err != nil {
		return nil, err
	}
	return likelihoodHessian(prec, a, 1/g.noiseVar), nil
}

func (g LinearGaussian) PredictiveLogLik(mean, priorMean, a []float64, covMat *mat.SymDense, theta rating.Theta, outcome []float64) (float64, error) {
	if err := checkLinearOutcome(outcome); err != nil {
		return 0, err
	}

	m, v := numerics.WeightedSum(mean, covMat, a)
	dist := distuv.Normal{Mu: m, Sigma: math.Sqrt(v + g.noiseVar)}
	return dist.LogProb(outcome[0]), nil
}

func (g LinearGaussian) ParseTheta(flat []float64, desc numerics.ShapeDescriptor) (rating.Theta, error) {
	blocks, err := numerics.Reconstruct(flat, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rating.ErrShapeMismatch, err)
	}
	return rating.Theta(blocks), nil
}

// WinProbability uses the probit link: with a Gaussian observation the latent
// difference stays Gaussian, so P(win) = Phi(m / sqrt(v + noiseVar)).
func (g LinearGaussian) WinProbability(mu1, mu2, a []float64, covMat *mat.SymDense) float64 {
	fullMu := make([]float64, 0, len(mu1)+len(mu2))
	fullMu = append(fullMu, mu1...)
	fullMu = append(fullMu, mu2...)
	fullCov := numerics.BlockDiagDouble(covMat)

	m, v := numerics.WeightedSum(fullMu, fullCov, a)
	return distuv.UnitNormal.CDF(m / math.Sqrt(v+g.noiseVar))
}
