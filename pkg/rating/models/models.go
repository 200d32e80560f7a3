// Package models provides concrete outcome models for the rating engine:
// plain win/loss, margin-augmented, and linear-Gaussian observations. Each
// implements rating.Model; the variant is chosen at construction time.
package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// priorPrecision inverts the joint prior covariance through its Cholesky
// factorization.
func priorPrecision(covMat *mat.SymDense) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(covMat); !ok {
		return nil, fmt.Errorf("models: prior covariance is not positive definite")
	}
	var prec mat.SymDense
	if err := chol.InverseTo(&prec); err != nil {
		return nil, fmt.Errorf("models: inverting prior covariance: %w", err)
	}
	return &prec, nil
}

// priorGradient returns -Precision*(mean - priorMean), the gradient of the
// Gaussian log-prior, along with the precision for reuse in the Hessian.
func priorGradient(mean, priorMean []float64, covMat *mat.SymDense) ([]float64, *mat.SymDense, error) {
	prec, err := priorPrecision(covMat)
	if err != nil {
		return nil, nil, err
	}

	n := len(mean)
	diff := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		diff.SetVec(i, mean[i]-priorMean[i])
	}

	var grad mat.VecDense
	grad.MulVec(prec, diff)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = -grad.AtVec(i)
	}
	return out, prec, nil
}

// likelihoodHessian assembles -prec - weight*a*a^T, the Hessian shared by all
// models whose log-likelihood depends on the skills only through d = a^T x.
func likelihoodHessian(prec *mat.SymDense, a []float64, weight float64) *mat.SymDense {
	n := len(a)
	hess := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			hess.SetSym(i, j, -prec.At(i, j)-weight*a[i]*a[j])
		}
	}
	return hess
}

// latent returns the scalar skill difference d = a^T x.
func latent(a, x []float64) float64 {
	return floats.Dot(a, x)
}
