package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/pkg/numerics"
	"github.com/stitts-dev/gelo/pkg/rating"
)

var central = &fd.Settings{Formula: fd.Central}

// logPrior evaluates the Gaussian log-prior up to its constant.
func logPrior(x, mu0 []float64, cov *mat.SymDense) float64 {
	prec, err := priorPrecision(cov)
	if err != nil {
		panic(err)
	}
	n := len(x)
	diff := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		diff.SetVec(i, x[i]-mu0[i])
	}
	var pd mat.VecDense
	pd.MulVec(prec, diff)
	return -0.5 * mat.Dot(diff, &pd)
}

func testCov() *mat.SymDense {
	return mat.NewSymDense(2, []float64{1.5, 0.25, 0.25, 0.8})
}

// checkDerivatives verifies the model's Jacobian against a finite-difference
// gradient of logPost and its Hessian against a finite-difference Jacobian of
// the analytic Jacobian.
func checkDerivatives(t *testing.T, model rating.Model, theta rating.Theta, outcome []float64, logPost func(x []float64) float64) {
	t.Helper()

	priorMean := []float64{0.2, -0.4}
	cov := testCov()
	a := []float64{1, -1}
	x := []float64{0.5, -0.1} // away from the prior mean to hit every term

	jac, err := model.LogPosteriorJacobian(x, priorMean, cov, a, theta, outcome)
	require.NoError(t, err)

	numJac := fd.Gradient(nil, logPost, x, central)
	for i := range jac {
		assert.InDelta(t, numJac[i], jac[i], 1e-6, "jacobian entry %d", i)
	}

	hess, err := model.LogPosteriorHessian(x, priorMean, cov, a, theta, outcome)
	require.NoError(t, err)

	// Central difference of the analytic Jacobian, column by column.
	const h = 1e-6
	for i := 0; i < 2; i++ {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[i] += h
		xm[i] -= h
		jp, err := model.LogPosteriorJacobian(xp, priorMean, cov, a, theta, outcome)
		require.NoError(t, err)
		jm, err := model.LogPosteriorJacobian(xm, priorMean, cov, a, theta, outcome)
		require.NoError(t, err)
		for j := 0; j < 2; j++ {
			assert.InDelta(t, (jp[j]-jm[j])/(2*h), hess.At(i, j), 1e-5, "hessian entry (%d,%d)", i, j)
		}
	}
}

func TestWinLoss_Derivatives(t *testing.T) {
	model := NewWinLoss()
	priorMean := []float64{0.2, -0.4}
	cov := testCov()
	a := []float64{1, -1}

	checkDerivatives(t, model, rating.Theta{}, nil, func(x []float64) float64 {
		return logPrior(x, priorMean, cov) + math.Log(numerics.Sigmoid(latent(a, x)))
	})
}

func TestMargin_Derivatives(t *testing.T) {
	model := NewMargin()
	theta := rating.Theta{
		ThetaOffset:   {0.1},
		ThetaSlope:    {1.3},
		ThetaLogObsSD: {-0.2},
	}
	outcome := []float64{0.7}

	priorMean := []float64{0.2, -0.4}
	cov := testCov()
	a := []float64{1, -1}
	obsSD := math.Exp(-0.2)

	checkDerivatives(t, model, theta, outcome, func(x []float64) float64 {
		d := latent(a, x)
		residual := outcome[0] - 0.1 - 1.3*d
		return logPrior(x, priorMean, cov) +
			math.Log(numerics.Sigmoid(d)) -
			residual*residual/(2*obsSD*obsSD)
	})
}

func TestLinearGaussian_Derivatives(t *testing.T) {
	const noiseSD = 0.8
	model := NewLinearGaussian(noiseSD)
	outcome := []float64{1.1}

	priorMean := []float64{0.2, -0.4}
	cov := testCov()
	a := []float64{1, -1}

	checkDerivatives(t, model, rating.Theta{}, outcome, func(x []float64) float64 {
		residual := outcome[0] - latent(a, x)
		return logPrior(x, priorMean, cov) - residual*residual/(2*noiseSD*noiseSD)
	})
}

func TestWinLoss_PredictiveLogLik(t *testing.T) {
	model := NewWinLoss()
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	mu := []float64{0.5, -0.5}
	a := []float64{1, -1}

	got, err := model.PredictiveLogLik(mu, mu, a, cov, rating.Theta{}, nil)
	require.NoError(t, err)

	want := math.Log(numerics.LogisticNormalIntegral(1, 2))
	assert.InDelta(t, want, got, 1e-12)
}

func TestMargin_PredictiveLogLik_ZeroLatentVariance(t *testing.T) {
	model := NewMargin()
	theta := rating.Theta{
		ThetaOffset:   {0.5},
		ThetaSlope:    {2},
		ThetaLogObsSD: {0},
	}

	// A design vector of zeros removes all latent uncertainty, leaving the
	// plain win term at d=0 plus a unit-variance Gaussian margin density.
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	mu := []float64{0.3, 0.3}
	a := []float64{0, 0}
	margin := 1.2

	got, err := model.PredictiveLogLik(mu, mu, a, cov, theta, []float64{margin})
	require.NoError(t, err)

	residual := margin - 0.5
	want := math.Log(0.5) - 0.5*math.Log(2*math.Pi) - residual*residual/2
	assert.InDelta(t, want, got, 1e-12)
}

func TestMargin_ParseThetaValidation(t *testing.T) {
	model := NewMargin()

	theta := DefaultMarginTheta()
	flat, desc := numerics.Flatten(map[string][]float64(theta))

	parsed, err := model.ParseTheta(flat, desc)
	require.NoError(t, err)
	assert.Equal(t, theta, parsed)

	// A descriptor missing a required block is rejected.
	_, err = model.ParseTheta([]float64{1}, numerics.ShapeDescriptor{{Name: "a1", Length: 1}})
	assert.ErrorIs(t, err, rating.ErrShapeMismatch)
}

func TestWinProbability_EqualMeans(t *testing.T) {
	cov := mat.NewSymDense(1, []float64{1.3})
	mu := []float64{0.4}
	a := []float64{1, -1}

	assert.InDelta(t, 0.5, NewWinLoss().WinProbability(mu, mu, a, cov), 1e-12)
	assert.InDelta(t, 0.5, NewMargin().WinProbability(mu, mu, a, cov), 1e-12)
	assert.InDelta(t, 0.5, NewLinearGaussian(1).WinProbability(mu, mu, a, cov), 1e-12)
}

func TestOutcomeLengthChecks(t *testing.T) {
	cov := testCov()
	mu := []float64{0, 0}
	a := []float64{1, -1}

	_, err := NewMargin().PredictiveLogLik(mu, mu, a, cov, DefaultMarginTheta(), nil)
	assert.ErrorIs(t, err, rating.ErrShapeMismatch)

	_, err = NewLinearGaussian(1).PredictiveLogLik(mu, mu, a, cov, rating.Theta{}, []float64{1, 2})
	assert.ErrorIs(t, err, rating.ErrShapeMismatch)
}
