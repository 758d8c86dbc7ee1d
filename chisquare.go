package ukfusion

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NISThreshold returns the p quantile of the χ² distribution with dof degrees
// of freedom, e.g. 5.991 for lidar and 7.815 for radar at p=0.95.
func NISThreshold(dof int, p float64) float64 {
	return distuv.ChiSquared{K: float64(dof)}.Quantile(p)
}

// ConsistencyReport summarizes the NIS samples of one sensor. A consistent
// filter has a mean NIS close to the measurement dimension and about 1-p of
// its samples above the threshold.
type ConsistencyReport struct {
	Sensor         SensorType
	Dof            int
	Samples        []float64
	Mean           float64
	Threshold      float64 // p quantile of χ²(Dof)
	AboveThreshold float64 // fraction of samples above Threshold
}

// NewConsistencyReport computes the report of the NIS samples of sensor at the p quantile.
func NewConsistencyReport(sensor SensorType, samples []float64, p float64) (ConsistencyReport, error) {
	if len(samples) == 0 {
		return ConsistencyReport{}, errors.New("consistency report requires at least one NIS sample")
	}
	if p <= 0 || p >= 1 {
		return ConsistencyReport{}, fmt.Errorf("quantile must be in (0, 1), got %f", p)
	}
	model, err := ModelFor(DefaultConfig(), sensor)
	if err != nil {
		return ConsistencyReport{}, err
	}
	r := ConsistencyReport{
		Sensor:    sensor,
		Dof:       model.Dim(),
		Samples:   samples,
		Mean:      stat.Mean(samples, nil),
		Threshold: NISThreshold(model.Dim(), p),
	}
	above := 0
	for _, nis := range samples {
		if nis > r.Threshold {
			above++
		}
	}
	r.AboveThreshold = float64(above) / float64(len(samples))
	return r, nil
}

// ConsistencyReports splits the NIS of the estimates per sensor and reports on
// each sensor which has samples. Initialization estimates carry no NIS and are skipped.
func ConsistencyReports(estimates []*UKFEstimate, p float64) (map[SensorType]ConsistencyReport, error) {
	samples := make(map[SensorType][]float64)
	for _, est := range estimates {
		if est == nil || est.innovCovar == nil {
			continue
		}
		samples[est.sensor] = append(samples[est.sensor], est.nis)
	}
	reports := make(map[SensorType]ConsistencyReport, len(samples))
	for sensor, nis := range samples {
		r, err := NewConsistencyReport(sensor, nis, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sensor, err)
		}
		reports[sensor] = r
	}
	return reports, nil
}

func (r ConsistencyReport) String() string {
	return fmt.Sprintf("%s NIS: n=%d mean=%.3f (dof %d) above %.3f: %.1f%%", r.Sensor, len(r.Samples), r.Mean, r.Dof, r.Threshold, 100*r.AboveThreshold)
}
