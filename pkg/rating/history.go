package rating

import (
	"fmt"
	"sort"
)

// Table is a name-keyed ratings table. Entries are created lazily: the first
// reference to a name inserts the all-zero skill vector for it.
type Table struct {
	dims   int
	skills map[string][]float64
}

// NewTable returns an empty table for skill vectors of the given length.
func NewTable(dims int) *Table {
	return &Table{
		dims:   dims,
		skills: make(map[string][]float64),
	}
}

// Rating returns the current skill vector for name, inserting the all-zero
// vector if the name has not been seen before. The returned slice is the live
// entry, not a copy.
func (t *Table) Rating(name string) []float64 {
	if mu, ok := t.skills[name]; ok {
		return mu
	}
	mu := make([]float64, t.dims)
	t.skills[name] = mu
	return mu
}

func (t *Table) set(name string, mu []float64) {
	t.skills[name] = mu
}

// Names returns the known competitor names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.skills))
	for name := range t.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of known competitors.
func (t *Table) Len() int {
	return len(t.skills)
}

// CalculateRatingsHistory runs the same ordered fold as CalculateRatingsScan
// over a name-keyed table, recording one MatchRecord per match: the
// competitors' pre-update means and the winner's prior win probability,
// evaluated before the update is applied. Competitors are initialized to zero
// skill on first appearance.
//
// It returns the chronological records together with the final table; the
// final means match CalculateRatingsScan under an equivalent index
// assignment.
func CalculateRatingsHistory(winners, losers []string, designs, outcomes [][]float64, model Model, params Parameters) ([]MatchRecord, *Table, error) {
	n := len(winners)
	if len(losers) != n || len(designs) != n || len(outcomes) != n {
		return nil, nil, fmt.Errorf("%w: got %d winners, %d losers, %d design vectors, %d outcomes",
			ErrShapeMismatch, n, len(losers), len(designs), len(outcomes))
	}

	table := NewTable(params.Dims())
	history := make([]MatchRecord, 0, n)

	for i := 0; i < n; i++ {
		mu1 := table.Rating(winners[i])
		mu2 := table.Rating(losers[i])

		priorWinProb := model.WinProbability(mu1, mu2, designs[i], params.CovMat)

		newMu1, newMu2, _, err := ConcatenateAndUpdate(mu1, mu2, designs[i], outcomes[i], model, params)
		if err != nil {
			return nil, nil, fmt.Errorf("match %d (%s vs %s): %w", i, winners[i], losers[i], err)
		}

		history = append(history, MatchRecord{
			Winner:        winners[i],
			Loser:         losers[i],
			PriorMuWinner: append([]float64(nil), mu1...),
			PriorMuLoser:  append([]float64(nil), mu2...),
			PriorWinProb:  priorWinProb,
		})

		table.set(winners[i], newMu1)
		table.set(losers[i], newMu2)
	}
	return history, table, nil
}
