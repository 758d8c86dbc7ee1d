package ukfusion

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Correction is the a posteriori estimate of one filter cycle.
type Correction struct {
	Mean                 *mat.VecDense // \hat{x}_{k+1}^{+}
	Covariance           *mat.SymDense // P_{k+1}^{+}
	PredictedMeasurement *mat.VecDense // \hat{z}_{k+1}^{-}
	Residual             *mat.VecDense // z - \hat{z}_{k+1}^{-}
	InnovationCovariance *mat.SymDense // S
	Gain                 *mat.Dense    // K
	NIS                  float64
}

// Update corrects the prediction with the measurement z using the given
// measurement model. It reads the predicted sigma points of pred and does not
// modify its inputs.
func Update(pred *Prediction, z mat.Vector, model MeasurementModel, w Weights) (*Correction, error) {
	nz := model.Dim()
	R := model.NoiseCovariance()
	if err := checkMatDims(z, R, "measurement (z)", "R", rows2cols); err != nil {
		return nil, err
	}
	angleIdx := model.AngleIndex()

	// Predicted measurement and innovation covariance S.
	Zsig := projectSigmaPoints(model, pred.SigmaPoints)
	zPred, S := SigmaPointStatistics(Zsig, w, angleIdx)
	S.AddSym(S, R)

	// Cross correlation Tc between state and measurement space.
	Tc := mat.NewDense(StateDim, nz, nil)
	for i := 0; i < NumSigma; i++ {
		zDiff := sigmaDiff(Zsig, i, zPred, angleIdx)
		xDiff := sigmaDiff(pred.SigmaPoints, i, pred.Mean, yawIndex)
		Tc.RankOne(Tc, w[i], xDiff, zDiff)
	}

	var SInv mat.Dense
	if err := SInv.Inverse(S); err != nil {
		return nil, fmt.Errorf("could not invert `S`: %w (%s)\nS=%v", ErrSingularInnovation, err, mat.Formatted(S, mat.Prefix("  ")))
	}
	var K mat.Dense
	K.Mul(Tc, &SInv)

	residual := mat.NewVecDense(nz, nil)
	residual.SubVec(z, zPred)
	if angleIdx >= 0 {
		residual.SetVec(angleIdx, NormalizeAngle(residual.AtVec(angleIdx)))
	}
	nis := mat.Inner(residual, &SInv, residual)

	x := mat.NewVecDense(StateDim, nil)
	x.MulVec(&K, residual)
	x.AddVec(pred.Mean, x)

	var KS, KSKt, P mat.Dense
	KS.Mul(&K, S)
	KSKt.Mul(&KS, K.T())
	P.Sub(pred.Covariance, &KSKt)
	PSym, err := AsSymDense(&P)
	if err != nil {
		return nil, fmt.Errorf("updated covariance: %w", err)
	}

	return &Correction{
		Mean:                 x,
		Covariance:           PSym,
		PredictedMeasurement: zPred,
		Residual:             residual,
		InnovationCovariance: S,
		Gain:                 &K,
		NIS:                  nis,
	}, nil
}
