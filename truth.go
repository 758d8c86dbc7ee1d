package ukfusion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TruthState is the true CTRV state of the object at a timestamp.
type TruthState struct {
	Timestamp int64 // microseconds
	State     [StateDim]float64
}

// Cartesian returns (px, py, vx, vy).
func (s TruthState) Cartesian() [4]float64 {
	return cartesian(mat.NewVecDense(StateDim, s.State[:]))
}

// Sample is one simulated measurement along with the true state it was taken from.
type Sample struct {
	Measurement Measurement
	Truth       TruthState
}

// CTRVSimulator moves an object with the CTRV model, driven by random
// longitudinal and yaw accelerations, and samples lidar and radar
// measurements of it.
type CTRVSimulator struct {
	state        [StateDim]float64
	timeUs       int64
	process      Noise // (νa, νψ̈)
	lidar, radar Noise
	lidarModel   LidarModel
	radarModel   RadarModel
	nextRadar    bool
}

// NewCTRVSimulator returns a simulator starting from x0 at t0 µs. The noises
// must be of size 2 (process and lidar) and 3 (radar).
func NewCTRVSimulator(x0 [StateDim]float64, t0 int64, cfg Config, process, lidar, radar Noise) (*CTRVSimulator, error) {
	if err := checkMatDims(process.Matrix(), Identity(2), "process noise", "(νa, νψ̈)", rowsAndcols); err != nil {
		return nil, err
	}
	if err := checkMatDims(lidar.Matrix(), Identity(2), "lidar noise", "R", rowsAndcols); err != nil {
		return nil, err
	}
	if err := checkMatDims(radar.Matrix(), Identity(3), "radar noise", "R", rowsAndcols); err != nil {
		return nil, err
	}
	return &CTRVSimulator{
		state:      x0,
		timeUs:     t0,
		process:    process,
		lidar:      lidar,
		radar:      radar,
		lidarModel: LidarModel{StdPx: cfg.StdLaspx, StdPy: cfg.StdLaspy},
		radarModel: RadarModel{StdRho: cfg.StdRadr, StdPhi: cfg.StdRadphi, StdRhoDot: cfg.StdRadrd, MinRange: cfg.MinRange},
	}, nil
}

// NewNoisyCTRVSimulator returns a simulator whose process and sensor noises
// are the AWGN described by cfg, all drawn from the seeded source.
func NewNoisyCTRVSimulator(x0 [StateDim]float64, t0 int64, cfg Config, seed uint64) (*CTRVSimulator, error) {
	src := newPCG(seed)
	process, err := NewProcessNoise(cfg, src)
	if err != nil {
		return nil, err
	}
	lidar, err := NewSensorNoise(cfg, Lidar, src)
	if err != nil {
		return nil, err
	}
	radar, err := NewSensorNoise(cfg, Radar, src)
	if err != nil {
		return nil, err
	}
	return NewCTRVSimulator(x0, t0, cfg, process, lidar, radar)
}

// Truth returns the current true state.
func (s *CTRVSimulator) Truth() TruthState {
	return TruthState{Timestamp: s.timeUs, State: s.state}
}

// Advance moves the object forward by dtUs µs. The accelerations are sampled
// once and held constant over the interval.
func (s *CTRVSimulator) Advance(dtUs int64) {
	nu := s.process.Sample()
	aug := [AugDim]float64{s.state[0], s.state[1], s.state[2], s.state[3], s.state[4], nu[0], nu[1]}
	s.state = PropagateCTRV(aug, float64(dtUs)/1e6)
	s.state[yawIndex] = NormalizeAngle(s.state[yawIndex])
	s.timeUs += dtUs
}

// Measure samples the sensor at the current time.
func (s *CTRVSimulator) Measure(sensor SensorType) Measurement {
	var z []float64
	var noise []float64
	switch sensor {
	case Lidar:
		z = s.lidarModel.Project(s.state[:])
		noise = s.lidar.Sample()
	case Radar:
		z = s.radarModel.Project(s.state[:])
		noise = s.radar.Sample()
	default:
		panic(fmt.Errorf("%w: %s", ErrUnknownSensor, sensor))
	}
	for i := range z {
		z[i] += noise[i]
	}
	if sensor == Radar {
		z[1] = NormalizeAngle(z[1])
	}
	return Measurement{Sensor: sensor, Raw: z, Timestamp: s.timeUs}
}

// Generate advances the object steps times by periodUs and returns one
// measurement per step, alternating lidar and radar starting with lidar.
// The first sample is taken at the current time.
func (s *CTRVSimulator) Generate(steps int, periodUs int64) []Sample {
	samples := make([]Sample, steps)
	for k := 0; k < steps; k++ {
		if k > 0 {
			s.Advance(periodUs)
		}
		sensor := Lidar
		if s.nextRadar {
			sensor = Radar
		}
		s.nextRadar = !s.nextRadar
		samples[k] = Sample{Measurement: s.Measure(sensor), Truth: s.Truth()}
	}
	return samples
}

// GroundTruth computes the error of estimates from a known sequence of true states.
type GroundTruth struct {
	states []TruthState
}

// NewGroundTruth initializes a new ground truth.
func NewGroundTruth(states []TruthState) *GroundTruth {
	return &GroundTruth{states}
}

// Len returns the number of true states.
func (t *GroundTruth) Len() int {
	return len(t.states)
}

// Error returns an ErrorEstimate whose state is the estimated state minus the
// true state at step k, with the yaw error wrapped into (-π, π].
func (t *GroundTruth) Error(k int, est Estimate) ErrorEstimate {
	if k < 0 || k >= len(t.states) {
		panic(fmt.Errorf("no ground truth defined at step k=%d", k))
	}
	if est.State().Len() != StateDim {
		panic(fmt.Errorf("ground truth state size different from estimated state size (k=%d)", k))
	}
	truth := mat.NewVecDense(StateDim, t.states[k].State[:])
	errState := mat.NewVecDense(StateDim, nil)
	errState.SubVec(est.State(), truth)
	errState.SetVec(yawIndex, NormalizeAngle(errState.AtVec(yawIndex)))
	return ErrorEstimate{UKFEstimate{
		timestamp: t.states[k].Timestamp,
		state:     errState,
		meas:      est.Measurement(),
		innov:     est.Innovation(),
		covar:     est.Covariance(),
		predCovar: est.PredCovariance(),
		nis:       est.NIS(),
	}}
}

// ErrorEstimate implements the Estimate interface and is used to show the error of an estimate.
type ErrorEstimate struct {
	UKFEstimate // This is effectively the same as a UKFEstimate, so no change.
}

// RMSE returns the root mean squared error of (px, py, vx, vy) of the
// estimates against the truths of the same index.
func RMSE(estimates []*mat.VecDense, truths []TruthState) ([4]float64, error) {
	var rmse [4]float64
	if len(estimates) == 0 {
		return rmse, errors.New("rmse requires at least one estimate")
	}
	if len(estimates) != len(truths) {
		return rmse, fmt.Errorf("%w: %d estimates and %d truths", ErrDimensionMismatch, len(estimates), len(truths))
	}
	sq := make([][]float64, 4)
	for i := range sq {
		sq[i] = make([]float64, len(estimates))
	}
	for k, est := range estimates {
		if est.Len() != StateDim {
			return rmse, fmt.Errorf("%w: estimate #%d has %d components", ErrDimensionMismatch, k, est.Len())
		}
		e := cartesian(est)
		g := truths[k].Cartesian()
		for i := range e {
			d := e[i] - g[i]
			sq[i][k] = d * d
		}
	}
	for i := range rmse {
		rmse[i] = math.Sqrt(stat.Mean(sq[i], nil))
	}
	return rmse, nil
}

// cartesian converts a CTRV state into (px, py, vx, vy).
func cartesian(x mat.Vector) [4]float64 {
	v, yaw := x.AtVec(2), x.AtVec(yawIndex)
	return [4]float64{x.AtVec(0), x.AtVec(1), v * math.Cos(yaw), v * math.Sin(yaw)}
}
