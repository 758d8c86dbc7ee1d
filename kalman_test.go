package ukfusion

import (
	"errors"
	"testing"
)

func TestImplementsEst(t *testing.T) {
	implements := func(Estimate) {}
	implements(UKFEstimate{})
	implements(&UKFEstimate{})
	implements(ErrorEstimate{})
}

func TestImplementsMeasurementModel(t *testing.T) {
	implements := func(MeasurementModel) {}
	implements(LidarModel{})
	implements(RadarModel{})
}

func TestParseSensorType(t *testing.T) {
	for in, exp := range map[string]SensorType{"L": Lidar, "l": Lidar, "lidar": Lidar, "laser": Lidar, "R": Radar, "r": Radar, "radar": Radar} {
		got, err := ParseSensorType(in)
		if err != nil {
			t.Fatalf("%q: %s", in, err)
		}
		if got != exp {
			t.Fatalf("%q parsed as %s instead of %s", in, got, exp)
		}
		if s, _ := ParseSensorType(got.String()); s != got {
			t.Fatalf("%s does not round trip through String", got)
		}
	}
	if _, err := ParseSensorType("U"); !errors.Is(err, ErrUnknownSensor) {
		t.Fatalf("unknown sensor error expected, got %v", err)
	}
	if s := SensorType(7).String(); s != "SensorType(7)" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestMeasurementVector(t *testing.T) {
	m := Measurement{Sensor: Lidar, Raw: []float64{1, 2}, Timestamp: 10}
	v := m.Vector()
	v.SetVec(0, 42)
	if m.Raw[0] != 1 {
		t.Fatal("Vector shares the raw measurement storage")
	}
	if v.Len() != 2 || v.AtVec(1) != 2 {
		t.Fatalf("unexpected vector %v", v.RawVector().Data)
	}
}
