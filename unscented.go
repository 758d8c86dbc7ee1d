package ukfusion

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// NewUKF returns an uninitialized unscented Kalman filter for one tracked object.
// The first measurement fed to ProcessMeasurement initializes the estimate.
func NewUKF(cfg Config) (*UKF, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kf := &UKF{id: uuid.New(), cfg: cfg, weights: NewWeights()}
	kf.Reset()
	return kf, nil
}

// UKF fuses lidar and radar measurements of a single object with the CTRV
// motion model. The state is (px, py, v, yaw, yawd) in SI units and radians.
//
// A UKF is owned by one goroutine: ProcessMeasurement is not reentrant and
// concurrent calls must be serialized by the caller.
type UKF struct {
	id      uuid.UUID
	cfg     Config
	weights Weights

	initialized bool
	timeUs      int64 // time of the last fused measurement, in µs
	x           *mat.VecDense
	P           *mat.SymDense
	Xsig        *mat.Dense // predicted sigma points of the last cycle
	nisLidar    float64
	nisRadar    float64
	lastEst     *UKFEstimate
	step        int
}

// Reset discards the estimate. The next measurement initializes the filter again.
func (kf *UKF) Reset() {
	kf.initialized = false
	kf.timeUs = 0
	kf.x = mat.NewVecDense(StateDim, nil)
	kf.P = mat.NewSymDense(StateDim, nil)
	kf.Xsig = mat.NewDense(StateDim, NumSigma, nil)
	kf.nisLidar = 0
	kf.nisRadar = 0
	kf.lastEst = nil
	kf.step = 0
}

func (kf *UKF) String() string {
	return fmt.Sprintf("UKF %s [k=%d]\n%s", kf.id, kf.step, kf.cfg)
}

// ProcessMeasurement fuses one measurement. The first accepted measurement
// initializes the estimate; every later one runs a prediction up to its
// timestamp followed by the update of its sensor.
//
// Measurements of a disabled sensor are dropped before any processing: the
// estimate and the time of the last update are left as they were.
// A measurement older than the last fused one is rejected with ErrOutOfOrder;
// one with the same timestamp is fused with a zero time step.
// On error the filter keeps its last good estimate.
func (kf *UKF) ProcessMeasurement(m Measurement) error {
	model, err := ModelFor(kf.cfg, m.Sensor)
	if err != nil {
		opsf("%s: %s", kf.id, err)
		return err
	}
	if !kf.SensorEnabled(m.Sensor) {
		diagf("%s: %s disabled, dropping measurement at %d", kf.id, m.Sensor, m.Timestamp)
		return nil
	}
	z := m.Vector()
	if err := checkMatDims(z, model.NoiseCovariance(), "measurement (z)", "R", rows2cols); err != nil {
		opsf("%s: %s", kf.id, err)
		return err
	}

	if !kf.initialized {
		kf.initialize(m)
		return nil
	}

	if m.Timestamp < kf.timeUs {
		err := fmt.Errorf("%w: %d < %d", ErrOutOfOrder, m.Timestamp, kf.timeUs)
		opsf("%s: %s measurement rejected: %s", kf.id, m.Sensor, err)
		return err
	}
	Δt := float64(m.Timestamp-kf.timeUs) / 1e6

	pred, err := Predict(kf.x, kf.P, kf.cfg, kf.weights, Δt)
	if err != nil {
		opsf("%s: prediction failed at k=%d: %s", kf.id, kf.step, err)
		return fmt.Errorf("prediction at k=%d: %w", kf.step, err)
	}
	corr, err := Update(pred, z, model, kf.weights)
	if err != nil {
		opsf("%s: %s update failed at k=%d: %s", kf.id, m.Sensor, kf.step, err)
		return fmt.Errorf("%s update at k=%d: %w", m.Sensor, kf.step, err)
	}

	kf.timeUs = m.Timestamp
	kf.x = corr.Mean
	kf.P = corr.Covariance
	kf.Xsig = pred.SigmaPoints
	switch m.Sensor {
	case Lidar:
		kf.nisLidar = corr.NIS
	case Radar:
		kf.nisRadar = corr.NIS
	}
	kf.lastEst = &UKFEstimate{
		sensor:     m.Sensor,
		timestamp:  m.Timestamp,
		state:      corr.Mean,
		meas:       corr.PredictedMeasurement,
		innov:      corr.Residual,
		covar:      corr.Covariance,
		predCovar:  pred.Covariance,
		innovCovar: corr.InnovationCovariance,
		gain:       corr.Gain,
		nis:        corr.NIS,
	}
	kf.step++
	tracef("%s: k=%d %s Δt=%.6f nis=%.4f", kf.id, kf.step, m.Sensor, Δt, corr.NIS)
	return nil
}

// SensorEnabled returns whether measurements of s are fused.
func (kf *UKF) SensorEnabled(s SensorType) bool {
	switch s {
	case Lidar:
		return kf.cfg.UseLidar
	case Radar:
		return kf.cfg.UseRadar
	}
	return false
}

// initialize seeds the estimate from the first measurement. Speed, yaw and yaw
// rate cannot be observed from a single measurement and use the configured defaults.
func (kf *UKF) initialize(m Measurement) {
	var px, py, varPx, varPy float64
	switch m.Sensor {
	case Radar:
		rho, phi := m.Raw[0], m.Raw[1]
		px = rho * math.Cos(phi)
		py = rho * math.Sin(phi)
		varPx = kf.cfg.StdRadr * kf.cfg.StdRadr
		varPy = varPx
	case Lidar:
		px, py = m.Raw[0], m.Raw[1]
		varPx = kf.cfg.StdLaspx * kf.cfg.StdLaspx
		varPy = kf.cfg.StdLaspy * kf.cfg.StdLaspy
	}
	kf.x = mat.NewVecDense(StateDim, []float64{px, py, kf.cfg.InitSpeed, kf.cfg.InitYaw, kf.cfg.InitYawRate})
	iv := kf.cfg.InitVariance
	kf.P = Diagonal(varPx, varPy, iv[0], iv[1], iv[2])
	kf.timeUs = m.Timestamp
	kf.initialized = true
	kf.lastEst = &UKFEstimate{
		sensor:    m.Sensor,
		timestamp: m.Timestamp,
		state:     kf.x,
		meas:      m.Vector(),
		innov:     mat.NewVecDense(len(m.Raw), nil),
		covar:     kf.P,
		predCovar: kf.P,
	}
	diagf("%s: initialized from %s at %d: x=%v", kf.id, m.Sensor, m.Timestamp, kf.x.RawVector().Data)
}

// ID returns the identifier of this filter instance.
func (kf *UKF) ID() uuid.UUID {
	return kf.id
}

// Config returns the configuration of the filter.
func (kf *UKF) Config() Config {
	return kf.cfg
}

// Initialized returns whether a measurement has initialized the estimate.
func (kf *UKF) Initialized() bool {
	return kf.initialized
}

// Timestamp returns the time of the last fused measurement in microseconds.
func (kf *UKF) Timestamp() int64 {
	return kf.timeUs
}

// State returns a copy of the state estimate.
func (kf *UKF) State() *mat.VecDense {
	return mat.VecDenseCopyOf(kf.x)
}

// Covariance returns a copy of the state covariance.
func (kf *UKF) Covariance() *mat.SymDense {
	P := mat.NewSymDense(StateDim, nil)
	P.CopySym(kf.P)
	return P
}

// PredictedSigmaPoints returns a copy of the predicted sigma points of the last cycle.
func (kf *UKF) PredictedSigmaPoints() *mat.Dense {
	return mat.DenseCopyOf(kf.Xsig)
}

// NISLidar returns the normalized innovation squared of the last lidar update.
func (kf *UKF) NISLidar() float64 {
	return kf.nisLidar
}

// NISRadar returns the normalized innovation squared of the last radar update.
func (kf *UKF) NISRadar() float64 {
	return kf.nisRadar
}

// LastEstimate returns the estimate of the last fused measurement, nil before initialization.
func (kf *UKF) LastEstimate() *UKFEstimate {
	return kf.lastEst
}

// UKFEstimate is the output of each update of the UKF.
// It implements the Estimate interface.
type UKFEstimate struct {
	sensor           SensorType
	timestamp        int64
	state, meas      *mat.VecDense
	innov            *mat.VecDense
	covar, predCovar mat.Symmetric
	innovCovar       mat.Symmetric
	gain             mat.Matrix
	nis              float64
}

// IsWithinNσ returns whether every innovation component is within the N*σ
// bounds of the innovation covariance.
func (e UKFEstimate) IsWithinNσ(N float64) bool {
	if e.innovCovar == nil {
		return true
	}
	for i := 0; i < e.innov.Len(); i++ {
		nσ := N * math.Sqrt(e.innovCovar.At(i, i))
		if math.Abs(e.innov.AtVec(i)) > nσ {
			return false
		}
	}
	return true
}

// Sensor returns the sensor of the fused measurement.
func (e UKFEstimate) Sensor() SensorType {
	return e.sensor
}

// Timestamp returns the time of the fused measurement in microseconds.
func (e UKFEstimate) Timestamp() int64 {
	return e.timestamp
}

// State implements the Estimate interface.
func (e UKFEstimate) State() *mat.VecDense {
	return e.state
}

// Measurement implements the Estimate interface.
func (e UKFEstimate) Measurement() *mat.VecDense {
	return e.meas
}

// Innovation implements the Estimate interface.
func (e UKFEstimate) Innovation() *mat.VecDense {
	return e.innov
}

// Covariance implements the Estimate interface.
func (e UKFEstimate) Covariance() mat.Symmetric {
	return e.covar
}

// PredCovariance implements the Estimate interface.
func (e UKFEstimate) PredCovariance() mat.Symmetric {
	return e.predCovar
}

// NIS implements the Estimate interface.
func (e UKFEstimate) NIS() float64 {
	return e.nis
}

// InnovationCovariance returns S, nil for the initial estimate.
func (e UKFEstimate) InnovationCovariance() mat.Symmetric {
	return e.innovCovar
}

// Gain returns the Kalman gain, nil for the initial estimate.
func (e UKFEstimate) Gain() mat.Matrix {
	return e.gain
}

// Velocity returns the cartesian velocity (vx, vy) of the estimate.
func (e UKFEstimate) Velocity() (vx, vy float64) {
	c := cartesian(e.state)
	return c[2], c[3]
}

func (e UKFEstimate) String() string {
	state := mat.Formatted(e.State().T(), mat.Prefix("  "))
	meas := mat.Formatted(e.Measurement().T(), mat.Prefix("  "))
	covar := mat.Formatted(e.Covariance(), mat.Prefix("  "))
	innov := mat.Formatted(e.Innovation().T(), mat.Prefix("  "))
	predp := mat.Formatted(e.PredCovariance(), mat.Prefix("   "))
	return fmt.Sprintf("{\n%s@%d\ns=%v\nz=%v\nP=%v\nP-=%v\ni=%v\nnis=%f\n}", e.sensor, e.timestamp, state, meas, covar, predp, innov, e.nis)
}
