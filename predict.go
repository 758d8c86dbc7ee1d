package ukfusion

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Prediction is the a priori estimate of one filter cycle.
type Prediction struct {
	Mean        *mat.VecDense // \hat{x}_{k+1}^{-}
	Covariance  *mat.SymDense // P_{k+1}^{-}
	SigmaPoints *mat.Dense    // StateDim x NumSigma predicted sigma points, read by Update
	Δt          float64
}

// Predict runs the prediction step of the unscented transform from the
// estimate (x, P) over dt seconds. It does not modify its inputs.
func Predict(x mat.Vector, P mat.Symmetric, cfg Config, w Weights, dt float64) (*Prediction, error) {
	Xaug, err := AugmentedSigmaPoints(x, P, cfg.StdA, cfg.StdYawdd)
	if err != nil {
		return nil, err
	}
	Xpred, err := PredictSigmaPoints(Xaug, dt)
	if err != nil {
		return nil, err
	}
	mean, covar := SigmaPointStatistics(Xpred, w, yawIndex)
	return &Prediction{Mean: mean, Covariance: covar, SigmaPoints: Xpred, Δt: dt}, nil
}

// SigmaPointStatistics returns the weighted mean and covariance of the sigma
// points in the columns of Xsig. The component at angleIdx, if not negative,
// is wrapped into (-π, π] in every difference to the mean.
func SigmaPointStatistics(Xsig mat.Matrix, w Weights, angleIdx int) (*mat.VecDense, *mat.SymDense) {
	rows, _ := Xsig.Dims()
	mean := SigmaPointMean(Xsig, w)
	covar := mat.NewSymDense(rows, nil)
	for i := 0; i < NumSigma; i++ {
		diff := sigmaDiff(Xsig, i, mean, angleIdx)
		covar.SymRankOne(covar, w[i], diff)
	}
	return mean, covar
}

// sigmaDiff returns column i of Xsig minus mean, with the angle component normalized.
func sigmaDiff(Xsig mat.Matrix, i int, mean mat.Vector, angleIdx int) *mat.VecDense {
	diff := colOf(Xsig, i)
	diff.SubVec(diff, mean)
	if angleIdx >= 0 {
		diff.SetVec(angleIdx, NormalizeAngle(diff.AtVec(angleIdx)))
	}
	return diff
}

func (p Prediction) String() string {
	return fmt.Sprintf("{\nΔt=%f\nx-=%v\nP-=%v\n}", p.Δt, mat.Formatted(p.Mean.T(), mat.Prefix("   ")), mat.Formatted(p.Covariance, mat.Prefix("   ")))
}
