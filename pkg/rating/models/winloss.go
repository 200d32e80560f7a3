package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/pkg/numerics"
	"github.com/stitts-dev/gelo/pkg/rating"
)

// WinLoss is the plain win/loss outcome model. The only observation is the
// implicit ordering of the two competitors, and the winner's latent advantage
// d = a^T x enters a logistic likelihood. It carries no theta and ignores the
// outcome vector.
type WinLoss struct{}

// NewWinLoss returns the plain win/loss model.
func NewWinLoss() WinLoss {
	return WinLoss{}
}

func (WinLoss) LogPosteriorJacobian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta rating.Theta, outcome []float64) ([]float64, error) {
	grad, _, err := priorGradient(mean, priorMean, covMat)
	if err != nil {
		return nil, err
	}

	// d/dx log sigma(a^T x) = sigma(-a^T x) * a.
	w := numerics.Sigmoid(-latent(a, mean))
	for i := range grad {
		grad[i] += w * a[i]
	}
	return grad, nil
}

func (WinLoss) LogPosteriorHessian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta rating.Theta, outcome []float64) (*mat.SymDense, error) {
	_, prec, err := priorGradient(mean, priorMean, covMat)
	if err != nil {
		return nil, err
	}

	s := numerics.Sigmoid(latent(a, mean))
	return likelihoodHessian(prec, a, s*(1-s)), nil
}

func (WinLoss) PredictiveLogLik(mean, priorMean, a []float64, covMat *mat.SymDense, theta rating.Theta, outcome []float64) (float64, error) {
	m, v := numerics.WeightedSum(mean, covMat, a)
	return math.Log(numerics.LogisticNormalIntegral(m, v)), nil
}

func (WinLoss) ParseTheta(flat []float64, desc numerics.ShapeDescriptor) (rating.Theta, error) {
	blocks, err := numerics.Reconstruct(flat, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rating.ErrShapeMismatch, err)
	}
	return rating.Theta(blocks), nil
}

func (WinLoss) WinProbability(mu1, mu2, a []float64, covMat *mat.SymDense) float64 {
	return rating.CalculateWinProb(mu1, mu2, a, covMat, 1)
}
