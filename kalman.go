package ukfusion

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Estimate is returned after each fused measurement.
type Estimate interface {
	IsWithinNσ(N float64) bool     // IsWithinNσ returns whether the estimation is within the N*σ bounds.
	State() *mat.VecDense          // Returns \hat{x}_{k+1}^{+}
	Measurement() *mat.VecDense    // Returns \hat{z}_{k+1}^{-}, the predicted measurement
	Innovation() *mat.VecDense     // Returns z_{k+1} - \hat{z}_{k+1}^{-}
	Covariance() mat.Symmetric     // Return P_{k+1}^{+}
	PredCovariance() mat.Symmetric // Return P_{k+1}^{-}
	NIS() float64                  // Normalized innovation squared of this update
	String() string                // Must implement the stringer interface.
}

// SensorType identifies which sensor produced a measurement.
type SensorType uint8

const (
	// Lidar measures the cartesian position (px, py).
	Lidar SensorType = iota + 1
	// Radar measures range, bearing and range rate (rho, phi, rhodot).
	Radar
)

func (s SensorType) String() string {
	switch s {
	case Lidar:
		return "lidar"
	case Radar:
		return "radar"
	default:
		return fmt.Sprintf("SensorType(%d)", uint8(s))
	}
}

// ParseSensorType parses the single letter tags of measurement logs ("L", "R")
// as well as the names returned by String.
func ParseSensorType(s string) (SensorType, error) {
	switch s {
	case "L", "l", "lidar", "laser":
		return Lidar, nil
	case "R", "r", "radar":
		return Radar, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSensor, s)
}

// Measurement is a single timestamped sensor reading.
// Raw holds (px, py) for Lidar and (rho, phi, rhodot) for Radar.
type Measurement struct {
	Sensor    SensorType
	Raw       []float64
	Timestamp int64 // microseconds
}

// Vector returns the raw measurement as a gonum vector.
func (m Measurement) Vector() *mat.VecDense {
	raw := make([]float64, len(m.Raw))
	copy(raw, m.Raw)
	return mat.NewVecDense(len(raw), raw)
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s@%d%v", m.Sensor, m.Timestamp, m.Raw)
}
