package ukfusion

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLidarModel(t *testing.T) {
	model, err := ModelFor(DefaultConfig(), Lidar)
	require.NoError(t, err)
	assert.Equal(t, Lidar, model.Sensor())
	assert.Equal(t, 2, model.Dim())
	assert.Equal(t, -1, model.AngleIndex())
	assert.Equal(t, []float64{3, 4}, model.Project([]float64{3, 4, 5, 0.1, 0.2}))

	R := model.NoiseCovariance()
	assert.InDelta(t, 0.0225, R.At(0, 0), 1e-15)
	assert.InDelta(t, 0.0225, R.At(1, 1), 1e-15)
	assert.Zero(t, R.At(0, 1))
}

func TestRadarModel(t *testing.T) {
	model, err := ModelFor(DefaultConfig(), Radar)
	require.NoError(t, err)
	assert.Equal(t, Radar, model.Sensor())
	assert.Equal(t, 3, model.Dim())
	assert.Equal(t, 1, model.AngleIndex())

	t.Run("moving away", func(t *testing.T) {
		z := model.Project([]float64{3, 4, 2, math.Atan2(4, 3), 0})
		assert.InDelta(t, 5, z[0], 1e-12)
		assert.InDelta(t, math.Atan2(4, 3), z[1], 1e-12)
		assert.InDelta(t, 2, z[2], 1e-12)
	})

	t.Run("crossing", func(t *testing.T) {
		// Moving perpendicular to the line of sight has no range rate.
		z := model.Project([]float64{0, 10, 3, 0, 0})
		assert.InDelta(t, 10, z[0], 1e-12)
		assert.InDelta(t, math.Pi/2, z[1], 1e-12)
		assert.InDelta(t, 0, z[2], 1e-12)
	})

	t.Run("origin", func(t *testing.T) {
		var buf bytes.Buffer
		SetLogWriters(nil, &buf, nil)
		defer SetLogWriters(nil, nil, nil)

		z := model.Project([]float64{0, 0, 5, 1, 0})
		for i, v := range z {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "component %d is %f", i, v)
		}
		assert.Zero(t, z[0])
		assert.True(t, strings.Contains(buf.String(), "floored"), "floored range not logged: %q", buf.String())
	})

	R := model.NoiseCovariance()
	assert.InDelta(t, 0.09, R.At(0, 0), 1e-15)
	assert.InDelta(t, 0.0009, R.At(1, 1), 1e-15)
	assert.InDelta(t, 0.09, R.At(2, 2), 1e-15)
}

func TestModelForUnknownSensor(t *testing.T) {
	_, err := ModelFor(DefaultConfig(), SensorType(0))
	assert.True(t, errors.Is(err, ErrUnknownSensor))
}
