package rating

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CalculateRatingsScan folds the single-match update over an ordered match
// history. winners[i] and losers[i] index rows of ratings, designs[i] is the
// 2L design vector of match i, and outcomes[i] its extra observations (may be
// empty). ratings has one row per competitor and dims columns; it is updated
// in place, row by row, and holds the final state when the scan returns.
//
// The fold is strictly ordered: a later match sharing a competitor with an
// earlier one observes the post-update state, so matches must not be
// reordered. The returned value is the sum of all per-match predictive
// log-likelihoods.
func CalculateRatingsScan(winners, losers []int, designs, outcomes [][]float64, model Model, params Parameters, ratings *mat.Dense) (float64, error) {
	n := len(winners)
	if len(losers) != n || len(designs) != n || len(outcomes) != n {
		return 0, fmt.Errorf("%w: got %d winners, %d losers, %d design vectors, %d outcomes",
			ErrShapeMismatch, n, len(losers), len(designs), len(outcomes))
	}

	rows, _ := ratings.Dims()

	var total float64
	for i := 0; i < n; i++ {
		w, l := winners[i], losers[i]
		if w < 0 || w >= rows || l < 0 || l >= rows {
			return 0, fmt.Errorf("%w: match %d references competitors (%d, %d) outside [0, %d)",
				ErrShapeMismatch, i, w, l, rows)
		}

		mu1 := mat.Row(nil, w, ratings)
		mu2 := mat.Row(nil, l, ratings)

		newMu1, newMu2, logLik, err := ConcatenateAndUpdate(mu1, mu2, designs[i], outcomes[i], model, params)
		if err != nil {
			return 0, fmt.Errorf("match %d (winner %d, loser %d): %w", i, w, l, err)
		}

		ratings.SetRow(w, newMu1)
		ratings.SetRow(l, newMu2)
		total += logLik
	}
	return total, nil
}
