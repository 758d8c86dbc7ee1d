package ukfusion

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.2, cfg.StdA)
	assert.Equal(t, 0.5, cfg.StdYawdd)
	assert.Equal(t, 0.15, cfg.StdLaspx)
	assert.Equal(t, 0.15, cfg.StdLaspy)
	assert.Equal(t, 0.3, cfg.StdRadr)
	assert.Equal(t, 0.03, cfg.StdRadphi)
	assert.Equal(t, 0.3, cfg.StdRadrd)
	assert.True(t, cfg.UseLidar)
	assert.True(t, cfg.UseRadar)
	assert.Equal(t, [3]float64{1, 1, 1}, cfg.InitVariance)
	assert.Contains(t, cfg.String(), "σa=1.2")
}

func TestWeights(t *testing.T) {
	w := NewWeights()
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.InDelta(t, -4.0/3.0, w[0], 1e-15)
	for i := 1; i < NumSigma; i++ {
		assert.InDelta(t, 1.0/6.0, w[i], 1e-15, "w[%d]", i)
	}
	assert.Equal(t, 15, NumSigma)
	assert.Equal(t, -4, Lambda)
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("partial overlay", func(t *testing.T) {
		path := filepath.Join(tmpDir, "partial.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"std_a": 0.9, "use_radar": false, "init_variance": [2, 0.5, 0.25]}`), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 0.9, cfg.StdA)
		assert.False(t, cfg.UseRadar)
		assert.True(t, cfg.UseLidar)
		assert.Equal(t, [3]float64{2, 0.5, 0.25}, cfg.InitVariance)
		// Untouched fields keep their defaults.
		assert.Equal(t, DefaultConfig().StdYawdd, cfg.StdYawdd)
		assert.Equal(t, DefaultConfig().MinRange, cfg.MinRange)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(tmpDir, "config.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(tmpDir, "missing.json"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(tmpDir, "large.json")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat(" ", maxConfigSize+1)), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"std_a": `), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(tmpDir, "invalid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"std_radphi": 0}`), 0644))
		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "std_radphi")
	})
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"negative std_a":     func(c *Config) { c.StdA = -1 },
		"zero std_laspx":     func(c *Config) { c.StdLaspx = 0 },
		"NaN std_radrd":      func(c *Config) { c.StdRadrd = math.NaN() },
		"infinite std_yawdd": func(c *Config) { c.StdYawdd = math.Inf(1) },
		"zero min_range":     func(c *Config) { c.MinRange = 0 },
		"zero init variance": func(c *Config) { c.InitVariance[1] = 0 },
		"NaN init speed":     func(c *Config) { c.InitSpeed = math.NaN() },
		"infinite init yaw":  func(c *Config) { c.InitYaw = math.Inf(-1) },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
			_, err := NewUKF(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigValidateReportsFirstInvalidField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StdRadrd = 0
	cfg.StdA = -1
	cfg.InitVariance[2] = math.NaN()
	cfg.InitYaw = math.Inf(1)
	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "std_a must be positive")
	}

	cfg = DefaultConfig()
	cfg.InitVariance[2] = 0
	cfg.InitYaw = math.NaN()
	assert.Contains(t, cfg.Validate().Error(), "init_variance[2]")
}
