package ukfusion

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MonteCarloRuns stores MC runs.
type MonteCarloRuns struct {
	runs, steps int
	Runs        []MonteCarloRun
}

// MonteCarloRun stores the results of an MC run: one estimate and one true
// state per simulated measurement.
type MonteCarloRun struct {
	Seed      uint64
	Estimates []*UKFEstimate
	Truths    []TruthState
}

// States returns the estimated state of each step.
func (r MonteCarloRun) States() []*mat.VecDense {
	states := make([]*mat.VecDense, len(r.Estimates))
	for k, est := range r.Estimates {
		states[k] = est.State()
	}
	return states
}

// RMSE returns the RMSE of (px, py, vx, vy) over the run.
func (r MonteCarloRun) RMSE() ([4]float64, error) {
	return RMSE(r.States(), r.Truths)
}

// NewMonteCarloRuns simulates samples independent tracks of steps
// measurements each, every periodUs µs from the true state x0, and runs a
// fresh UKF configured by cfg on each of them. Run r is seeded with seed+r.
// Measurements of a sensor disabled by cfg are not fused and leave no step,
// so every run then holds fewer than steps estimates.
func NewMonteCarloRuns(samples, steps int, periodUs int64, x0 [StateDim]float64, cfg Config, seed uint64) (MonteCarloRuns, error) {
	if samples < 1 || steps < 1 {
		return MonteCarloRuns{}, fmt.Errorf("monte carlo requires at least one sample and one step, got %d and %d", samples, steps)
	}
	runs := make([]MonteCarloRun, samples)
	for sample := 0; sample < samples; sample++ {
		runSeed := seed + uint64(sample)
		sim, err := NewNoisyCTRVSimulator(x0, 0, cfg, runSeed)
		if err != nil {
			return MonteCarloRuns{}, err
		}
		kf, err := NewUKF(cfg)
		if err != nil {
			return MonteCarloRuns{}, err
		}
		MCRun := MonteCarloRun{Seed: runSeed, Estimates: make([]*UKFEstimate, 0, steps), Truths: make([]TruthState, 0, steps)}
		for _, s := range sim.Generate(steps, periodUs) {
			if !kf.SensorEnabled(s.Measurement.Sensor) {
				continue
			}
			if err := kf.ProcessMeasurement(s.Measurement); err != nil {
				return MonteCarloRuns{}, fmt.Errorf("run #%d: %w", sample, err)
			}
			MCRun.Estimates = append(MCRun.Estimates, kf.LastEstimate())
			MCRun.Truths = append(MCRun.Truths, s.Truth)
		}
		runs[sample] = MCRun
	}
	fused := len(runs[0].Estimates)
	if fused == 0 {
		return MonteCarloRuns{}, fmt.Errorf("no measurement of an enabled sensor in %d steps", steps)
	}
	return MonteCarloRuns{samples, fused, runs}, nil
}

// component gathers state component i of every run at the given step.
func (mc MonteCarloRuns) component(step, i int) []float64 {
	vals := make([]float64, len(mc.Runs))
	for r, run := range mc.Runs {
		vals[r] = run.Estimates[step].State().AtVec(i)
	}
	return vals
}

// Mean returns the mean of all the samples for the given time step.
func (mc MonteCarloRuns) Mean(step int) []float64 {
	means := make([]float64, StateDim)
	for i := range means {
		means[i] = stat.Mean(mc.component(step, i), nil)
	}
	return means
}

// StdDev returns the standard deviation of all the samples for the given time step.
func (mc MonteCarloRuns) StdDev(step int) []float64 {
	devs := make([]float64, StateDim)
	for i := range devs {
		devs[i] = stat.StdDev(mc.component(step, i), nil)
	}
	return devs
}

// NISMeans returns, for each step, the mean NIS across runs of the updates of
// sensor at that step. Steps where no run updated sensor are zero.
func (mc MonteCarloRuns) NISMeans(sensor SensorType) []float64 {
	means := make([]float64, mc.steps)
	for k := 0; k < mc.steps; k++ {
		var nis []float64
		for _, run := range mc.Runs {
			if est := run.Estimates[k]; est.innovCovar != nil && est.sensor == sensor {
				nis = append(nis, est.nis)
			}
		}
		if len(nis) > 0 {
			means[k] = stat.Mean(nis, nil)
		}
	}
	return means
}

// Consistency pools the NIS of every run, skipping the first skip steps of
// each while the filter converges.
func (mc MonteCarloRuns) Consistency(skip int, p float64) (map[SensorType]ConsistencyReport, error) {
	var pooled []*UKFEstimate
	for _, run := range mc.Runs {
		if skip < len(run.Estimates) {
			pooled = append(pooled, run.Estimates[skip:]...)
		}
	}
	return ConsistencyReports(pooled, p)
}

// AsCSV is used as a CSV serializer, one document per state component.
func (mc MonteCarloRuns) AsCSV(headers []string) []string {
	rtn := make([]string, StateDim)

	for i := 0; i < StateDim; i++ {
		header := headers[i]
		lines := make([]string, mc.steps+1) // One line per step, plus header.
		for rNo := 0; rNo < mc.runs; rNo++ {
			lines[0] += fmt.Sprintf("%s-%d,", header, rNo)
		}
		lines[0] += header + "-mean," + header + "-stddev"

		for k := 0; k < mc.steps; k++ {
			for _, run := range mc.Runs {
				lines[k+1] += fmt.Sprintf("%f,", run.Estimates[k].State().AtVec(i))
			}
			// Last run reached, let's add the mean and stddev for this step.
			lines[k+1] += fmt.Sprintf("%f,%f", stat.Mean(mc.component(k, i), nil), stat.StdDev(mc.component(k, i), nil))
		}
		rtn[i] = strings.Join(lines, "\n")
	}
	return rtn
}
