package ukfusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MeasurementModel maps predicted states into the measurement space of one sensor.
type MeasurementModel interface {
	Sensor() SensorType
	Dim() int                          // Size of the measurement vector
	Project(state []float64) []float64 // Maps one state into measurement space
	NoiseCovariance() *mat.SymDense    // R, added to the innovation covariance
	AngleIndex() int                   // Index of the bearing component, -1 if none
}

// ModelFor returns the measurement model of the sensor, configured from cfg.
func ModelFor(cfg Config, sensor SensorType) (MeasurementModel, error) {
	switch sensor {
	case Lidar:
		return LidarModel{StdPx: cfg.StdLaspx, StdPy: cfg.StdLaspy}, nil
	case Radar:
		return RadarModel{StdRho: cfg.StdRadr, StdPhi: cfg.StdRadphi, StdRhoDot: cfg.StdRadrd, MinRange: cfg.MinRange}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSensor, sensor)
}

// LidarModel is the linear position only model z = (px, py).
type LidarModel struct {
	StdPx, StdPy float64
}

// Sensor implements the MeasurementModel interface.
func (LidarModel) Sensor() SensorType { return Lidar }

// Dim implements the MeasurementModel interface.
func (LidarModel) Dim() int { return 2 }

// AngleIndex implements the MeasurementModel interface.
func (LidarModel) AngleIndex() int { return -1 }

// Project implements the MeasurementModel interface.
func (LidarModel) Project(state []float64) []float64 {
	return []float64{state[0], state[1]}
}

// NoiseCovariance implements the MeasurementModel interface.
func (m LidarModel) NoiseCovariance() *mat.SymDense {
	return Diagonal(m.StdPx*m.StdPx, m.StdPy*m.StdPy)
}

// RadarModel is the polar model z = (rho, phi, rhodot).
//
// The range rate is undefined at the origin. The range used as its divisor is
// floored at MinRange so a target at the sensor yields a finite, if
// meaningless, range rate instead of NaN.
type RadarModel struct {
	StdRho, StdPhi, StdRhoDot float64
	MinRange                  float64
}

// Sensor implements the MeasurementModel interface.
func (RadarModel) Sensor() SensorType { return Radar }

// Dim implements the MeasurementModel interface.
func (RadarModel) Dim() int { return 3 }

// AngleIndex implements the MeasurementModel interface.
func (RadarModel) AngleIndex() int { return 1 }

// Project implements the MeasurementModel interface.
func (m RadarModel) Project(state []float64) []float64 {
	px, py, v, yaw := state[0], state[1], state[2], state[3]
	vx := v * math.Cos(yaw)
	vy := v * math.Sin(yaw)

	rho := math.Hypot(px, py)
	divisor := rho
	if divisor < m.MinRange {
		diagf("radar model: range %g floored to %g", rho, m.MinRange)
		divisor = m.MinRange
	}
	return []float64{rho, math.Atan2(py, px), (px*vx + py*vy) / divisor}
}

// NoiseCovariance implements the MeasurementModel interface.
func (m RadarModel) NoiseCovariance() *mat.SymDense {
	return Diagonal(m.StdRho*m.StdRho, m.StdPhi*m.StdPhi, m.StdRhoDot*m.StdRhoDot)
}

// projectSigmaPoints maps every predicted sigma point through the model.
func projectSigmaPoints(model MeasurementModel, Xpred mat.Matrix) *mat.Dense {
	Zsig := mat.NewDense(model.Dim(), NumSigma, nil)
	state := make([]float64, StateDim)
	for i := 0; i < NumSigma; i++ {
		mat.Col(state, i, Xpred)
		Zsig.SetCol(i, model.Project(state))
	}
	return Zsig
}
