package ukfusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AugmentedSigmaPoints returns the AugDim x NumSigma matrix of sigma points of
// the state x, with covariance P, augmented with the zero mean longitudinal
// and yaw acceleration noises of standard deviations stdA and stdYawdd.
// Column 0 is the augmented mean, columns 1..AugDim and AugDim+1..2*AugDim are
// the mean plus and minus sqrt(λ+AugDim) times the columns of the lower
// Cholesky factor of the augmented covariance.
func AugmentedSigmaPoints(x mat.Vector, P mat.Symmetric, stdA, stdYawdd float64) (*mat.Dense, error) {
	if x.Len() != StateDim {
		return nil, fmt.Errorf("%w: x(%d) expected %d", ErrDimensionMismatch, x.Len(), StateDim)
	}
	if err := checkMatDims(x, P, "x", "P", rows2cols); err != nil {
		return nil, err
	}

	xAug := mat.NewVecDense(AugDim, nil)
	for i := 0; i < StateDim; i++ {
		xAug.SetVec(i, x.AtVec(i))
	}

	PAug := mat.NewSymDense(AugDim, nil)
	for i := 0; i < StateDim; i++ {
		for j := i; j < StateDim; j++ {
			PAug.SetSym(i, j, P.At(i, j))
		}
	}
	PAug.SetSym(StateDim, StateDim, stdA*stdA)
	PAug.SetSym(StateDim+1, StateDim+1, stdYawdd*stdYawdd)

	var chol mat.Cholesky
	if ok := chol.Factorize(PAug); !ok {
		return nil, fmt.Errorf("sigma points: %w\nP=%v", ErrNotPositiveDefinite, mat.Formatted(PAug, mat.Prefix("  ")))
	}
	var L mat.TriDense
	chol.LTo(&L)

	spread := math.Sqrt(float64(Lambda + AugDim))
	Xsig := mat.NewDense(AugDim, NumSigma, nil)
	Xsig.SetCol(0, xAug.RawVector().Data)
	col := mat.NewVecDense(AugDim, nil)
	for i := 0; i < AugDim; i++ {
		Li := colOf(&L, i)
		col.AddScaledVec(xAug, spread, Li)
		Xsig.SetCol(i+1, col.RawVector().Data)
		col.AddScaledVec(xAug, -spread, Li)
		Xsig.SetCol(i+1+AugDim, col.RawVector().Data)
	}
	return Xsig, nil
}

// SigmaPointMean returns the weighted sum of the columns of Xsig.
func SigmaPointMean(Xsig mat.Matrix, w Weights) *mat.VecDense {
	rows, cols := Xsig.Dims()
	if cols != NumSigma {
		panic(fmt.Errorf("%w: sigma points (...x%d) expected %d columns", ErrDimensionMismatch, cols, NumSigma))
	}
	mean := mat.NewVecDense(rows, nil)
	for i := 0; i < NumSigma; i++ {
		mean.AddScaledVec(mean, w[i], colOf(Xsig, i))
	}
	return mean
}

// colOf returns column j of m as a vector.
func colOf(m mat.Matrix, j int) *mat.VecDense {
	r, _ := m.Dims()
	return mat.NewVecDense(r, mat.Col(nil, j, m))
}
