package ukfusion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotNIS(t *testing.T) {
	cfg := DefaultConfig()
	sim, err := NewNoisyCTRVSimulator([StateDim]float64{5, 1, 4, 0.5, 0.1}, 0, cfg, 11)
	require.NoError(t, err)
	kf, err := NewUKF(cfg)
	require.NoError(t, err)

	var estimates []*UKFEstimate
	for _, s := range sim.Generate(40, 50000) {
		require.NoError(t, kf.ProcessMeasurement(s.Measurement))
		estimates = append(estimates, kf.LastEstimate())
	}

	dir := t.TempDir()
	for _, sensor := range []SensorType{Lidar, Radar} {
		fn := filepath.Join(dir, "nis_"+sensor.String()+".png")
		require.NoError(t, PlotNIS(estimates, sensor, 0.95, fn))
		info, err := os.Stat(fn)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	// Only the initialization estimate: nothing to plot.
	assert.Error(t, PlotNIS(estimates[:1], Lidar, 0.95, filepath.Join(dir, "empty.png")))
	assert.Error(t, PlotNIS(estimates, SensorType(0), 0.95, filepath.Join(dir, "unknown.png")))
}
