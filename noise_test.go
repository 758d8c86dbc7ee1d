package ukfusion

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestImplementsNoise(t *testing.T) {
	implements := func(Noise) {}
	implements(new(Noiseless))
	implements(new(BatchNoise))
	implements(new(AWGN))
}

func TestBlankNoise(t *testing.T) {
	nl := NewNoiseless(3)
	if s := nl.Sample(); len(s) != 3 {
		t.Fatalf("expected 3 components, got %d", len(s))
	}
	R := nl.Matrix()
	if R.SymmetricDim() != 3 {
		t.Fatal("R is of wrong size")
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if R.At(i, j) != 0 {
				t.Fatalf("R(%d, %d) != 0", i, j)
			}
		}
	}
}

func TestBatchNoise(t *testing.T) {
	samples := make([][]float64, 4)
	for i := range samples {
		samples[i] = []float64{float64(i) + 1.0, float64(i) + 2.0}
	}
	batch := NewBatchNoise(samples)
	for k := 0; k < 4; k++ {
		if s := batch.Sample(); s[0] != float64(k)+1 {
			t.Fatalf("sample #%d is %v", k, s)
		}
	}
	if batch.Matrix().SymmetricDim() != 2 {
		t.Fatal("batch noise matrix is of wrong size")
	}
	assertPanic(t, func() {
		batch.Sample()
	})
}

func TestAWGN(t *testing.T) {
	src := rand.NewPCG(1, 2)
	if _, err := NewAWGN(mat.NewSymDense(2, []float64{1, 1, 1, 1}), src); err == nil {
		t.Fatal("singular covariance accepted")
	}

	R := mat.NewSymDense(2, []float64{4, 0.5, 0.5, 1})
	n, err := NewAWGN(R, src)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(R, n.Matrix()) {
		t.Fatal("R and n.Matrix are not equal.")
	}

	x, y := make([]float64, 5000), make([]float64, 5000)
	for k := range x {
		s := n.Sample()
		x[k], y[k] = s[0], s[1]
	}
	if x[0] == x[1] {
		t.Fatal("noise at two different time steps is identical")
	}
	if v := stat.Variance(x, nil); math.Abs(v-4) > 0.4 {
		t.Fatalf("sample variance %f, expected 4", v)
	}
	if c := stat.Covariance(x, y, nil); math.Abs(c-0.5) > 0.15 {
		t.Fatalf("sample covariance %f, expected 0.5", c)
	}
	if m := stat.Mean(y, nil); math.Abs(m) > 0.1 {
		t.Fatalf("sample mean %f, expected 0", m)
	}
}

func TestSensorNoise(t *testing.T) {
	cfg := DefaultConfig()
	src := rand.NewPCG(3, 4)
	radar, err := NewSensorNoise(cfg, Radar, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(radar.Sample()) != 3 {
		t.Fatal("radar noise is not of size 3")
	}
	if math.Abs(radar.Matrix().At(1, 1)-cfg.StdRadphi*cfg.StdRadphi) > 1e-15 {
		t.Fatal("radar bearing noise does not match the configuration")
	}
	if _, err := NewSensorNoise(cfg, SensorType(0), src); err == nil {
		t.Fatal("unknown sensor accepted")
	}
	process, err := NewProcessNoise(cfg, src)
	if err != nil {
		t.Fatal(err)
	}
	if process.Matrix().SymmetricDim() != 2 {
		t.Fatal("process noise is not of size 2")
	}
}
