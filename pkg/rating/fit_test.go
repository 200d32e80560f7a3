package rating_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/pkg/numerics"
	"github.com/stitts-dev/gelo/pkg/rating"
	"github.com/stitts-dev/gelo/pkg/rating/models"
)

func scanNegLogLik(t *testing.T, params rating.Parameters, model rating.Model, winners, losers []int, designs, outcomes [][]float64, competitors int) float64 {
	t.Helper()
	ratings := mat.NewDense(competitors, params.Dims(), nil)
	total, err := rating.CalculateRatingsScan(winners, losers, designs, outcomes, model, params, ratings)
	require.NoError(t, err)
	return -total
}

func TestOptimizeRatings_ImprovesObjective(t *testing.T) {
	model, start := winLossParams(1)

	// An unbalanced round-robin: competitor 0 wins often, 2 mostly loses.
	winners := []int{0, 0, 1, 0, 1, 0, 2, 0, 1, 0}
	losers := []int{1, 2, 2, 1, 2, 2, 1, 1, 2, 2}
	designs := repeatDesign(len(winners), []float64{1, -1})
	outcomes := emptyOutcomes(len(winners))

	before := scanNegLogLik(t, start, model, winners, losers, designs, outcomes, 3)

	fit, err := rating.OptimizeRatings(start, model, winners, losers, designs, outcomes, 3, 1e-3)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(fit.NegLogLik))
	assert.LessOrEqual(t, fit.NegLogLik, before+1e-9)
	assert.Greater(t, fit.Params.CovMat.At(0, 0), 0.0)
	assert.Greater(t, fit.FuncEvaluations, 0)

	// The reported objective matches a fresh replay under the fitted
	// parameters.
	after := scanNegLogLik(t, fit.Params, model, winners, losers, designs, outcomes, 3)
	assert.InDelta(t, fit.NegLogLik, after, 1e-8)
}

func TestOptimizeRatings_PropagatesObjectiveFailure(t *testing.T) {
	_, start := winLossParams(1)

	winners := []int{0}
	losers := []int{1}
	designs := repeatDesign(1, []float64{1, -1})
	outcomes := emptyOutcomes(1)

	_, err := rating.OptimizeRatings(start, singularModel{}, winners, losers, designs, outcomes, 2, 1e-3)
	require.Error(t, err)
	assert.ErrorIs(t, err, rating.ErrSingularUpdate)
}

// Synthetic-data recovery: matches generated from known margin-model
// parameters should pull the fitted observation noise and slope toward the
// truth. The transient while ratings converge from zero keeps this loose.
func TestOptimizeRatings_RecoversMarginParameters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping hyperparameter recovery in short mode")
	}

	const (
		numPlayers = 8
		numMatches = 1500
		trueSD     = 0.9 // observation noise
		trueVar    = 0.6 // skill prior variance
	)

	rng := rand.New(rand.NewSource(42))
	skills := make([]float64, numPlayers)
	for i := range skills {
		skills[i] = rng.NormFloat64() * math.Sqrt(trueVar)
	}

	var winners, losers []int
	var designs, outcomes [][]float64
	a := []float64{1, -1}
	for m := 0; m < numMatches; m++ {
		i := rng.Intn(numPlayers)
		j := rng.Intn(numPlayers - 1)
		if j >= i {
			j++
		}
		d := skills[i] - skills[j]
		w, l := i, j
		if rng.Float64() >= numerics.Sigmoid(d) {
			w, l = j, i
			d = -d
		}
		margin := d + rng.NormFloat64()*trueSD

		winners = append(winners, w)
		losers = append(losers, l)
		designs = append(designs, a)
		outcomes = append(outcomes, []float64{margin})
	}

	start := rating.Parameters{
		Theta:  models.DefaultMarginTheta(),
		CovMat: mat.NewSymDense(1, []float64{1}),
	}

	fit, err := rating.OptimizeRatings(start, models.NewMargin(), winners, losers, designs, outcomes, numPlayers, 1e-3)
	require.NoError(t, err)

	recoveredSD := math.Exp(fit.Params.Theta[models.ThetaLogObsSD][0])
	assert.InDelta(t, trueSD, recoveredSD, 0.45)
	assert.InDelta(t, 1.0, fit.Params.Theta[models.ThetaSlope][0], 0.6)
	assert.Greater(t, fit.Params.CovMat.At(0, 0), 0.0)
}
