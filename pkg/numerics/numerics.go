// Package numerics provides the linear-algebra and integral primitives used
// by the rating engine: Cholesky element extraction, positive-definite
// reconstruction from triangular elements, Gaussian linear transforms, and
// the logistic-normal integral approximation.
package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TriangularElements returns the number of elements in the lower triangle
// (diagonal included) of an n x n matrix.
func TriangularElements(n int) int {
	return n * (n + 1) / 2
}

// LowerTriangularFromElements fills an n x n lower-triangular matrix with
// elts, taken in row-major order over the lower triangle.
func LowerTriangularFromElements(elts []float64, n int) (*mat.TriDense, error) {
	want := TriangularElements(n)
	if len(elts) != want {
		return nil, fmt.Errorf("numerics: need %d triangular elements for dimension %d, got %d", want, n, len(elts))
	}

	tri := mat.NewTriDense(n, mat.Lower, nil)
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			tri.SetTri(i, j, elts[k])
			k++
		}
	}
	return tri, nil
}

// PosDefFromTriElements reconstructs the matrix L*L^T from the row-major
// lower-triangular elements of its Cholesky factor L. Any real input yields
// a valid (positive semi-definite) covariance, which keeps the covariance
// parameterization unconstrained for optimization.
func PosDefFromTriElements(elts []float64, n int) (*mat.SymDense, error) {
	tri, err := LowerTriangularFromElements(elts, n)
	if err != nil {
		return nil, err
	}

	var prod mat.Dense
	prod.Mul(tri, tri.T())

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, prod.At(i, j))
		}
	}
	return sym, nil
}

// CholeskyLowerElements extracts the row-major lower-triangular elements of
// the Cholesky factor of m. The element order is the inverse of
// PosDefFromTriElements.
func CholeskyLowerElements(m *mat.SymDense) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(m); !ok {
		return nil, fmt.Errorf("numerics: Cholesky decomposition failed: matrix is not positive definite")
	}

	n := m.SymmetricDim()
	var lower mat.TriDense
	chol.LTo(&lower)

	elts := make([]float64, 0, TriangularElements(n))
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			elts = append(elts, lower.At(i, j))
		}
	}
	return elts, nil
}

// WeightedSum returns the mean and variance of the scalar a^T x when
// x ~ N(mu, cov).
func WeightedSum(mu []float64, cov mat.Symmetric, a []float64) (mean, variance float64) {
	av := mat.NewVecDense(len(a), a)
	muv := mat.NewVecDense(len(mu), mu)

	mean = mat.Dot(av, muv)

	var cova mat.VecDense
	cova.MulVec(cov, av)
	variance = mat.Dot(av, &cova)

	return mean, variance
}

// BlockDiagDouble builds the 2n x 2n block-diagonal matrix diag(cov, cov):
// the joint covariance of two independent competitors sharing one marginal
// covariance.
func BlockDiagDouble(cov *mat.SymDense) *mat.SymDense {
	n := cov.SymmetricDim()
	out := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := cov.At(i, j)
			out.SetSym(i, j, v)
			out.SetSym(n+i, n+j, v)
		}
	}
	return out
}

// Sigmoid is the standard logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LogisticNormalIntegral approximates E[Sigmoid(z)] for z ~ N(mean, variance)
// with the moment-matching closed form sigma(mean / sqrt(1 + pi*variance/8)).
func LogisticNormalIntegral(mean, variance float64) float64 {
	return Sigmoid(mean / math.Sqrt(1+math.Pi*variance/8))
}
