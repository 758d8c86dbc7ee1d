package ukfusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PropagateCTRV moves one augmented sigma point (px, py, v, yaw, yawd, νa, νψ̈)
// forward by dt seconds with the constant turn rate and velocity model.
// Below a yaw rate of 1e-3 rad/s the straight line form is used to avoid the
// division by the yaw rate.
func PropagateCTRV(aug [AugDim]float64, dt float64) [StateDim]float64 {
	px, py, v, yaw, yawd := aug[0], aug[1], aug[2], aug[3], aug[4]
	nuA, nuYawdd := aug[5], aug[6]

	var pxP, pyP float64
	if math.Abs(yawd) > yawRateThreshold {
		pxP = px + v/yawd*(math.Sin(yaw+yawd*dt)-math.Sin(yaw))
		pyP = py + v/yawd*(math.Cos(yaw)-math.Cos(yaw+yawd*dt))
	} else {
		pxP = px + v*dt*math.Cos(yaw)
		pyP = py + v*dt*math.Sin(yaw)
	}
	vP := v
	yawP := yaw + yawd*dt
	yawdP := yawd

	dt2 := dt * dt
	pxP += 0.5 * nuA * dt2 * math.Cos(yaw)
	pyP += 0.5 * nuA * dt2 * math.Sin(yaw)
	vP += nuA * dt
	yawP += 0.5 * nuYawdd * dt2
	yawdP += nuYawdd * dt

	return [StateDim]float64{pxP, pyP, vP, yawP, yawdP}
}

// PredictSigmaPoints propagates each column of the AugDim x NumSigma matrix
// Xaug through PropagateCTRV and returns the StateDim x NumSigma predictions.
func PredictSigmaPoints(Xaug mat.Matrix, dt float64) (*mat.Dense, error) {
	r, c := Xaug.Dims()
	if r != AugDim || c != NumSigma {
		return nil, fmt.Errorf("%w: augmented sigma points (%dx%d) expected (%dx%d)", ErrDimensionMismatch, r, c, AugDim, NumSigma)
	}
	Xpred := mat.NewDense(StateDim, NumSigma, nil)
	var aug [AugDim]float64
	for i := 0; i < NumSigma; i++ {
		for j := 0; j < AugDim; j++ {
			aug[j] = Xaug.At(j, i)
		}
		next := PropagateCTRV(aug, dt)
		Xpred.SetCol(i, next[:])
	}
	return Xpred, nil
}
