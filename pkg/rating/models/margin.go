package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/stitts-dev/gelo/pkg/numerics"
	"github.com/stitts-dev/gelo/pkg/rating"
)

// Margin theta block names. The observation noise is carried on the log
// scale so the flat optimization vector stays unconstrained.
const (
	ThetaOffset   = "a1"
	ThetaSlope    = "a2"
	ThetaLogObsSD = "log_sigma_obs"
)

// Margin augments the win/loss likelihood with a regression of the victory
// margin on the latent skill difference d = a^T x:
//
//	outcome[0] ~ N(a1 + a2*d, sigma_obs^2)
//
// The win part is the same logistic term as WinLoss, so the model learns from
// both who won and by how much.
type Margin struct{}

// NewMargin returns the margin-augmented model.
func NewMargin() Margin {
	return Margin{}
}

// DefaultMarginTheta returns a neutral starting theta: zero offset, unit
// slope, unit observation noise.
func DefaultMarginTheta() rating.Theta {
	return rating.Theta{
		ThetaOffset:   {0},
		ThetaSlope:    {1},
		ThetaLogObsSD: {0},
	}
}

func marginParams(theta rating.Theta) (offset, slope, obsSD float64, err error) {
	for _, key := range []string{ThetaOffset, ThetaSlope, ThetaLogObsSD} {
		if len(theta[key]) != 1 {
			return 0, 0, 0, fmt.Errorf("%w: margin theta block %q has length %d, want 1",
				rating.ErrShapeMismatch, key, len(theta[key]))
		}
	}
	return theta[ThetaOffset][0], theta[ThetaSlope][0], math.Exp(theta[ThetaLogObsSD][0]), nil
}

func checkMarginOutcome(outcome []float64) error {
	if len(outcome) != 1 {
		return fmt.Errorf("%w: margin model expects a 1-element outcome, got %d", rating.ErrShapeMismatch, len(outcome))
	}
	return nil
}

func (Margin) LogPosteriorJacobian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta rating.Theta, outcome []float64) ([]float64, error) {
	if err := checkMarginOutcome(outcome); err != nil {
		return nil, err
	}
	offset, slope, obsSD, err := marginParams(theta)
	if err != nil {
		return nil, err
	}

	grad, _, err := priorGradient(mean, priorMean, covMat)
	if err != nil {
		return nil, err
	}

	d := latent(a, mean)
	winTerm := numerics.Sigmoid(-d)
	marginTerm := slope * (outcome[0] - offset - slope*d) / (obsSD * obsSD)
	for i := range grad {
		grad[i] += (winTerm + marginTerm) * a[i]
	}
	return grad, nil
}

func (Margin) LogPosteriorHessian(mean, priorMean []float64, covMat *mat.SymDense, a []float64, theta rating.Theta, outcome []float64) (*mat.SymDense, error) {
	if err := checkMarginOutcome(outcome); err != nil {
		return nil, err
	}
	_, slope, obsSD, err := marginParams(theta)
	if err != nil {
		return nil, err
	}

	_, prec, err := priorGradient(mean, priorMean, covMat)
	if err != nil {
		return nil, err
	}

	s := numerics.Sigmoid(latent(a, mean))
	weight := s*(1-s) + slope*slope/(obsSD*obsSD)
	return likelihoodHessian(prec, a, weight), nil
}

func (Margin) PredictiveLogLik(mean, priorMean, a []float64, covMat *mat.SymDense, theta rating.Theta, outcome []float64) (float64, error) {
	if err := checkMarginOutcome(outcome); err != nil {
		return 0, err
	}
	offset, slope, obsSD, err := marginParams(theta)
	if err != nil {
		return 0, err
	}

	m, v := numerics.WeightedSum(mean, covMat, a)

	// Win part: logistic-normal integral. Margin part: the margin's marginal
	// is Gaussian exactly, N(a1 + a2*m, a2^2*v + sigma_obs^2).
	winPart := math.Log(numerics.LogisticNormalIntegral(m, v))
	marginDist := distuv.Normal{
		Mu:    offset + slope*m,
		Sigma: math.Sqrt(slope*slope*v + obsSD*obsSD),
	}
	return winPart + marginDist.LogProb(outcome[0]), nil
}

func (Margin) ParseTheta(flat []float64, desc numerics.ShapeDescriptor) (rating.Theta, error) {
	blocks, err := numerics.Reconstruct(flat, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rating.ErrShapeMismatch, err)
	}
	theta := rating.Theta(blocks)
	if _, _, _, err := marginParams(theta); err != nil {
		return nil, err
	}
	return theta, nil
}

func (Margin) WinProbability(mu1, mu2, a []float64, covMat *mat.SymDense) float64 {
	return rating.CalculateWinProb(mu1, mu2, a, covMat, 1)
}
