// Command ratingfit replays a chronological match log through the rating
// engine and reports final ratings, optionally fitting the hyperparameters
// first. The input is a headerless CSV with one match per line:
//
//	winner,loser            (winloss model)
//	winner,loser,margin     (margin model)
//
// Configuration comes from ratingfit.yaml and GELO_* environment variables;
// see internal/config.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/gelo/internal/config"
	"github.com/stitts-dev/gelo/pkg/logger"
	"github.com/stitts-dev/gelo/pkg/rating"
	"github.com/stitts-dev/gelo/pkg/rating/models"
)

type matchData struct {
	winnerNames []string
	loserNames  []string
	winnerIdx   []int
	loserIdx    []int
	designs     [][]float64
	outcomes    [][]float64
	competitors int
}

func main() {
	matchesFlag := flag.String("matches", "", "Path to the match CSV (overrides config)")
	fitFlag := flag.Bool("fit", false, "Fit hyperparameters before replaying the history")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *matchesFlag != "" {
		cfg.MatchesPath = *matchesFlag
	}
	if *fitFlag {
		cfg.Fit = true
	}

	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithComponent("ratingfit")
	log.WithFields(logrus.Fields{
		"matches_path": cfg.MatchesPath,
		"model":        cfg.Model,
		"skill_dims":   cfg.SkillDims,
		"fit":          cfg.Fit,
	}).Info("Starting rating run")

	withMargin := cfg.Model == "margin"
	data, err := loadMatches(cfg.MatchesPath, cfg.SkillDims, withMargin)
	if err != nil {
		log.Fatalf("Failed to load matches: %v", err)
	}
	log.WithFields(logrus.Fields{
		"matches":     len(data.winnerIdx),
		"competitors": data.competitors,
	}).Info("Loaded match history")

	var model rating.Model
	theta := rating.Theta{}
	if withMargin {
		model = models.NewMargin()
		theta = models.DefaultMarginTheta()
	} else {
		model = models.NewWinLoss()
	}

	cov := mat.NewSymDense(cfg.SkillDims, nil)
	for i := 0; i < cfg.SkillDims; i++ {
		cov.SetSym(i, i, cfg.PriorVar)
	}
	params := rating.Parameters{Theta: theta, CovMat: cov}

	if cfg.Fit {
		fit, err := rating.OptimizeRatings(params, model, data.winnerIdx, data.loserIdx,
			data.designs, data.outcomes, data.competitors, cfg.Tolerance)
		if err != nil {
			log.Fatalf("Hyperparameter fit failed: %v", err)
		}
		if !fit.Converged {
			log.WithField("neg_log_lik", fit.NegLogLik).Warn("Fit did not converge, using best parameters found")
		}
		params = fit.Params
	}

	records, table, err := rating.CalculateRatingsHistory(data.winnerNames, data.loserNames,
		data.designs, data.outcomes, model, params)
	if err != nil {
		log.Fatalf("Rating run failed: %v", err)
	}

	report(table, records, cfg.TopN)
}

// loadMatches reads the CSV and builds the parallel arrays the engine wants.
// The design vector pits the first skill dimension of the winner against the
// loser's.
func loadMatches(path string, dims int, withMargin bool) (*matchData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	design := make([]float64, 2*dims)
	design[0] = 1
	design[dims] = -1

	indexOf := make(map[string]int)
	lookup := func(name string) int {
		if i, ok := indexOf[name]; ok {
			return i
		}
		i := len(indexOf)
		indexOf[name] = i
		return i
	}

	data := &matchData{}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		want := 2
		if withMargin {
			want = 3
		}
		if len(rec) < want {
			return nil, fmt.Errorf("line %d: want %d fields, got %d", line, want, len(rec))
		}

		winner, loser := rec[0], rec[1]
		outcome := []float64{}
		if withMargin {
			margin, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad margin %q: %w", line, rec[2], err)
			}
			outcome = []float64{margin}
		}

		data.winnerNames = append(data.winnerNames, winner)
		data.loserNames = append(data.loserNames, loser)
		data.winnerIdx = append(data.winnerIdx, lookup(winner))
		data.loserIdx = append(data.loserIdx, lookup(loser))
		data.designs = append(data.designs, design)
		data.outcomes = append(data.outcomes, outcome)
	}

	if len(data.winnerIdx) == 0 {
		return nil, fmt.Errorf("no matches in %s", path)
	}
	data.competitors = len(indexOf)
	return data, nil
}

// rankNames returns up to topN competitor names ordered by first-dimension
// rating, best first. The stable sort keeps Names' alphabetical order as the
// tie-break, so equal ratings list deterministically.
func rankNames(table *rating.Table, topN int) []string {
	names := table.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return table.Rating(names[i])[0] > table.Rating(names[j])[0]
	})
	if topN > 0 && topN < len(names) {
		names = names[:topN]
	}
	return names
}

func report(table *rating.Table, records []rating.MatchRecord, topN int) {
	fmt.Println("Final ratings:")
	for i, name := range rankNames(table, topN) {
		fmt.Printf("%4d  %-24s %8.4f\n", i+1, name, table.Rating(name)[0])
	}

	var sum float64
	for _, rec := range records {
		sum += rec.PriorWinProb
	}
	fmt.Printf("\nMatches: %d, mean prior win probability of the eventual winner: %.4f\n",
		len(records), sum/float64(len(records)))
}
