package ukfusion

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
)

const (
	// StateDim is the size of the CTRV state (px, py, v, yaw, yawd).
	StateDim = 5
	// AugDim is the size of the state augmented with the two process noise terms.
	AugDim = 7
	// NumSigma is the number of sigma points, 2*AugDim+1.
	NumSigma = 2*AugDim + 1
	// Lambda is the sigma point spreading parameter.
	Lambda = 3 - AugDim

	// yawIndex is the position of the heading angle in the state vector.
	yawIndex = 3
	// yawRateThreshold selects the straight-line motion branch of the CTRV model.
	yawRateThreshold = 1e-3
	// maxConfigSize caps the size of a configuration file.
	maxConfigSize = 1 << 20
)

// Config holds the tuning of a UKF. It is immutable once passed to NewUKF.
type Config struct {
	// Process noise standard deviation of the longitudinal acceleration (m/s²).
	StdA float64 `json:"std_a"`
	// Process noise standard deviation of the yaw acceleration (rad/s²).
	StdYawdd float64 `json:"std_yawdd"`

	// Lidar noise as specified by the sensor manufacturer (m).
	StdLaspx float64 `json:"std_laspx"`
	StdLaspy float64 `json:"std_laspy"`

	// Radar noise as specified by the sensor manufacturer (m, rad, m/s).
	StdRadr   float64 `json:"std_radr"`
	StdRadphi float64 `json:"std_radphi"`
	StdRadrd  float64 `json:"std_radrd"`

	// Records from a disabled sensor are dropped without touching the filter.
	UseLidar bool `json:"use_lidar"`
	UseRadar bool `json:"use_radar"`

	// Components of the first estimate that a single measurement cannot observe.
	InitSpeed    float64    `json:"init_speed"`
	InitYaw      float64    `json:"init_yaw"`
	InitYawRate  float64    `json:"init_yaw_rate"`
	InitVariance [3]float64 `json:"init_variance"` // P0 diagonal for v, yaw, yawd

	// MinRange floors the range used as a divisor by the radar model (m).
	MinRange float64 `json:"min_range"`
}

// DefaultConfig returns the tuned configuration.
func DefaultConfig() Config {
	return Config{
		StdA:         1.2,
		StdYawdd:     0.5,
		StdLaspx:     0.15,
		StdLaspy:     0.15,
		StdRadr:      0.3,
		StdRadphi:    0.03,
		StdRadrd:     0.3,
		UseLidar:     true,
		UseRadar:     true,
		InitSpeed:    4,
		InitYaw:      0.5,
		InitYawRate:  0,
		InitVariance: [3]float64{1, 1, 1},
		MinRange:     1e-4,
	}
}

// LoadConfig loads a Config from a JSON file. Fields omitted from the file
// keep their default values, so partial configs are safe.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every standard deviation and variance is finite and strictly positive.
func (c Config) Validate() error {
	positive := []namedValue{
		{"std_a", c.StdA},
		{"std_yawdd", c.StdYawdd},
		{"std_laspx", c.StdLaspx},
		{"std_laspy", c.StdLaspy},
		{"std_radr", c.StdRadr},
		{"std_radphi", c.StdRadphi},
		{"std_radrd", c.StdRadrd},
		{"min_range", c.MinRange},
	}
	for i, v := range c.InitVariance {
		positive = append(positive, namedValue{fmt.Sprintf("init_variance[%d]", i), v})
	}
	for _, nv := range positive {
		if math.IsNaN(nv.value) || math.IsInf(nv.value, 0) || nv.value <= 0 {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidConfig, nv.name, nv.value)
		}
	}
	for _, nv := range []namedValue{{"init_speed", c.InitSpeed}, {"init_yaw", c.InitYaw}, {"init_yaw_rate", c.InitYawRate}} {
		if math.IsNaN(nv.value) || math.IsInf(nv.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidConfig, nv.name, nv.value)
		}
	}
	return nil
}

// namedValue is a config field checked by Validate, in declaration order.
type namedValue struct {
	name  string
	value float64
}

func (c Config) String() string {
	return fmt.Sprintf("Config{σa=%g σψ̈=%g lidar=(%g,%g) radar=(%g,%g,%g) use(lidar=%t radar=%t)}",
		c.StdA, c.StdYawdd, c.StdLaspx, c.StdLaspy, c.StdRadr, c.StdRadphi, c.StdRadrd, c.UseLidar, c.UseRadar)
}

// Weights are the sigma point weights, computed once per filter.
type Weights [NumSigma]float64

// NewWeights returns w0 = λ/(λ+n_aug) and wi = 0.5/(λ+n_aug).
func NewWeights() Weights {
	var w Weights
	w[0] = float64(Lambda) / float64(Lambda+AugDim)
	for i := 1; i < NumSigma; i++ {
		w[i] = 0.5 / float64(Lambda+AugDim)
	}
	return w
}

// Sum returns the sum of the weights, which is one.
func (w Weights) Sum() float64 {
	return floats.Sum(w[:])
}
