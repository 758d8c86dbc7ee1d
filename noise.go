package ukfusion

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Noise generates additive noise for simulated sensors and dynamics.
type Noise interface {
	Sample() []float64     // Returns the next noise sample
	Matrix() mat.Symmetric // Returns the noise covariance
	String() string        // Stringer interface implementation
}

// Noiseless is noiseless and implements the Noise interface.
type Noiseless struct {
	size int
}

// NewNoiseless returns a Noise of the provided size which only returns zeros.
func NewNoiseless(size int) *Noiseless {
	return &Noiseless{size}
}

// Sample returns a zero vector of the correct size.
func (n Noiseless) Sample() []float64 {
	return make([]float64, n.size)
}

// Matrix implements the Noise interface.
func (n Noiseless) Matrix() mat.Symmetric {
	return mat.NewSymDense(n.size, nil)
}

// String implements the Stringer interface.
func (n Noiseless) String() string {
	return fmt.Sprintf("Noiseless{%d}", n.size)
}

// BatchNoise replays a recorded sequence of noise samples.
type BatchNoise struct {
	samples [][]float64
	k       int
}

// NewBatchNoise returns a BatchNoise replaying the provided samples in order.
func NewBatchNoise(samples [][]float64) *BatchNoise {
	return &BatchNoise{samples: samples}
}

// Sample implements the Noise interface. It panics once all samples are consumed.
func (n *BatchNoise) Sample() []float64 {
	if n.k >= len(n.samples) {
		panic(fmt.Errorf("no noise sample defined at step k=%d", n.k))
	}
	s := n.samples[n.k]
	n.k++
	return s
}

// Matrix implements the Noise interface. A replayed batch has no covariance.
func (n *BatchNoise) Matrix() mat.Symmetric {
	if len(n.samples) == 0 {
		return &mat.SymDense{}
	}
	return mat.NewSymDense(len(n.samples[0]), nil)
}

// String implements the Stringer interface.
func (n *BatchNoise) String() string {
	return fmt.Sprintf("BatchNoise{%d/%d}", n.k, len(n.samples))
}

// AWGN implements the Noise interface and generates an additive white Gaussian noise.
type AWGN struct {
	Σ    mat.Symmetric
	dist *distmv.Normal
}

// NewAWGN creates a new zero mean AWGN of covariance Σ drawing from src.
func NewAWGN(Σ mat.Symmetric, src rand.Source) (*AWGN, error) {
	size := Σ.SymmetricDim()
	dist, ok := distmv.NewNormal(make([]float64, size), Σ, src)
	if !ok {
		return nil, errors.New("noise covariance is not positive definite")
	}
	return &AWGN{Σ, dist}, nil
}

// NewSensorNoise returns the AWGN of a sensor as described by cfg.
func NewSensorNoise(cfg Config, sensor SensorType, src rand.Source) (*AWGN, error) {
	model, err := ModelFor(cfg, sensor)
	if err != nil {
		return nil, err
	}
	return NewAWGN(model.NoiseCovariance(), src)
}

// NewProcessNoise returns the AWGN of the longitudinal and yaw accelerations as described by cfg.
func NewProcessNoise(cfg Config, src rand.Source) (*AWGN, error) {
	return NewAWGN(Diagonal(cfg.StdA*cfg.StdA, cfg.StdYawdd*cfg.StdYawdd), src)
}

// Sample implements the Noise interface.
func (n AWGN) Sample() []float64 {
	return n.dist.Rand(nil)
}

// Matrix implements the Noise interface.
func (n AWGN) Matrix() mat.Symmetric {
	return n.Σ
}

// String implements the Stringer interface.
func (n AWGN) String() string {
	return fmt.Sprintf("AWGN{\nΣ=%v}\n", mat.Formatted(n.Σ, mat.Prefix("  ")))
}

// newPCG returns a deterministic source for the seed.
func newPCG(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}
