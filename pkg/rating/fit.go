package rating

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/stitts-dev/gelo/pkg/logger"
)

// gradSettings selects central differences for the objective gradient. The
// default forward formula is first order and its error is large relative to
// GradientThreshold, so the formula choice is part of the gradient contract.
var gradSettings = &fd.Settings{Formula: fd.Central}

// FitResult reports the outcome of a hyperparameter fit. Non-convergence is
// not an error: Converged is false and the caller decides whether the
// returned Parameters are usable.
type FitResult struct {
	Params          Parameters
	Converged       bool
	NegLogLik       float64
	MajorIterations int
	FuncEvaluations int
	GradEvaluations int
}

// OptimizeRatings fits the shared covariance and outcome-model parameters by
// maximizing the total predictive log-likelihood of the match history.
//
// The objective reconstructs Parameters from the flat vector, replays the
// whole history from an all-zero numCompetitors x L table, and negates the
// summed log-likelihood. Its gradient is obtained by central finite
// differences and fed to an L-BFGS minimizer, which runs until the gradient
// norm drops below tol or its own stopping rule triggers.
//
// A singular update inside any objective evaluation aborts the fit with that
// error.
func OptimizeRatings(start Parameters, model Model, winners, losers []int, designs, outcomes [][]float64, numCompetitors int, tol float64) (FitResult, error) {
	dims := start.Dims()

	x0, desc, err := FlattenParameters(start)
	if err != nil {
		return FitResult{}, err
	}

	log := logger.GetLogger().WithFields(logrus.Fields{
		"fit_id":      uuid.NewString(),
		"matches":     len(winners),
		"competitors": numCompetitors,
		"skill_dims":  dims,
		"free_params": len(x0),
	})
	log.Info("Starting hyperparameter fit")

	// Errors inside the objective cannot cross the optimize.Problem boundary;
	// the first one is captured here and the objective degenerates to +Inf so
	// the minimizer stops making progress.
	var evalErr error
	objective := func(x []float64) float64 {
		if evalErr != nil {
			return math.Inf(1)
		}
		params, err := ReconstructParameters(x, dims, model, desc)
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		ratings := mat.NewDense(numCompetitors, dims, nil)
		total, err := CalculateRatingsScan(winners, losers, designs, outcomes, model, params, ratings)
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		return -total
	}

	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, gradSettings)
		},
	}

	settings := optimize.Settings{
		GradientThreshold: tol,
	}

	result, optErr := optimize.Minimize(problem, x0, &settings, &optimize.LBFGS{})
	if evalErr != nil {
		return FitResult{}, fmt.Errorf("objective evaluation failed: %w", evalErr)
	}
	if optErr != nil && result == nil {
		return FitResult{}, fmt.Errorf("rating: optimizer failed: %w", optErr)
	}

	finalParams, err := ReconstructParameters(result.X, dims, model, desc)
	if err != nil {
		return FitResult{}, err
	}

	fit := FitResult{
		Params:          finalParams,
		Converged:       isConverged(result.Status, optErr),
		NegLogLik:       result.F,
		MajorIterations: result.Stats.MajorIterations,
		FuncEvaluations: result.Stats.FuncEvaluations,
		GradEvaluations: result.Stats.GradEvaluations,
	}

	log.WithFields(logrus.Fields{
		"converged":   fit.Converged,
		"neg_log_lik": fit.NegLogLik,
		"iterations":  fit.MajorIterations,
		"func_evals":  fit.FuncEvaluations,
	}).Info("Hyperparameter fit completed")

	return fit, nil
}

// isConverged reports whether the optimizer stopped for a genuine convergence
// reason. The enumeration is deliberate: iteration, evaluation, and runtime
// limits as well as failures all count as non-convergence, and any status a
// future optimizer version adds must be classified here before it reads as
// converged.
func isConverged(status optimize.Status, optErr error) bool {
	if optErr != nil {
		return false
	}
	switch status {
	case optimize.GradientThreshold, optimize.FunctionConvergence, optimize.StepConvergence:
		return true
	}
	return false
}
