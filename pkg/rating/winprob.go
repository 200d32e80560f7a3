package rating

import (
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/pkg/numerics"
)

// CalculateWinProb estimates the probability that the competitor with mean
// mu1 beats the competitor with mean mu2, with both competitors sharing the
// covariance covMat and assumed independent. The design vector a maps the
// concatenated skills to the latent scalar difference; its Gaussian mean and
// variance are pushed through the logistic link via the logistic-normal
// integral approximation.
//
// preFactor scales the latent difference before the link (its square scales
// the variance); pass 1 for the plain case.
func CalculateWinProb(mu1, mu2, a []float64, covMat *mat.SymDense, preFactor float64) float64 {
	fullMu := make([]float64, 0, len(mu1)+len(mu2))
	fullMu = append(fullMu, mu1...)
	fullMu = append(fullMu, mu2...)
	fullCov := numerics.BlockDiagDouble(covMat)

	latentMean, latentVar := numerics.WeightedSum(fullMu, fullCov, a)

	return numerics.LogisticNormalIntegral(preFactor*latentMean, preFactor*preFactor*latentVar)
}
