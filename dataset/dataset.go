// Package dataset reads and writes the whitespace separated measurement logs
// fed to the filter. Each line is one measurement:
//
//	L px py timestamp [gt_px gt_py gt_vx gt_vy [gt_yaw gt_yawrate]]
//	R rho phi rhodot timestamp [gt_px gt_py gt_vx gt_vy [gt_yaw gt_yawrate]]
//
// Timestamps are in microseconds. Blank lines and lines starting with # are ignored.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ChristopherRabotin/ukfusion"
)

// ErrMalformed is returned for a line which cannot be parsed.
var ErrMalformed = errors.New("malformed measurement line")

// Record is one line of a measurement log.
type Record struct {
	Measurement ukfusion.Measurement
	// GroundTruth holds (px, py, vx, vy), optionally followed by (yaw, yawd). Nil when absent.
	GroundTruth []float64
}

// HasGroundTruth returns whether the record carries a ground truth.
func (r Record) HasGroundTruth() bool {
	return len(r.GroundTruth) >= 4
}

// Truth returns the ground truth as a CTRV state. Without a recorded yaw the
// heading of the velocity is used, and without a yaw rate it is zero.
func (r Record) Truth() (ukfusion.TruthState, bool) {
	if !r.HasGroundTruth() {
		return ukfusion.TruthState{}, false
	}
	gt := r.GroundTruth
	ts := ukfusion.TruthState{Timestamp: r.Measurement.Timestamp}
	ts.State[0], ts.State[1] = gt[0], gt[1]
	ts.State[2] = math.Hypot(gt[2], gt[3])
	ts.State[3] = math.Atan2(gt[3], gt[2])
	if len(gt) >= 6 {
		ts.State[3], ts.State[4] = gt[4], gt[5]
	}
	return ts, true
}

// FromSample converts a simulated sample into a record with a full ground truth.
func FromSample(s ukfusion.Sample) Record {
	c := s.Truth.Cartesian()
	return Record{
		Measurement: s.Measurement,
		GroundTruth: []float64{c[0], c[1], c[2], c[3], s.Truth.State[3], s.Truth.State[4]},
	}
}

// measurementSize returns the number of raw values of the sensor.
func measurementSize(s ukfusion.SensorType) int {
	if s == ukfusion.Radar {
		return 3
	}
	return 2
}

// Reader reads records from a measurement log.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Read returns the next record, or io.EOF once the log is exhausted.
func (r *Reader) Read() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var recs []Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

// Load reads every record of the log at path.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

func parseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	sensor, err := ukfusion.ParseSensorType(fields[0])
	if err != nil {
		return Record{}, err
	}
	n := measurementSize(sensor)
	if len(fields) < n+2 {
		return Record{}, fmt.Errorf("%w: %s needs %d values and a timestamp, got %d fields", ErrMalformed, sensor, n, len(fields)-1)
	}
	raw, err := parseFloats(fields[1 : n+1])
	if err != nil {
		return Record{}, err
	}
	ts, err := strconv.ParseInt(fields[n+1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp: %s", ErrMalformed, err)
	}
	rec := Record{Measurement: ukfusion.Measurement{Sensor: sensor, Raw: raw, Timestamp: ts}}
	switch gt := fields[n+2:]; len(gt) {
	case 0:
	case 4, 6:
		if rec.GroundTruth, err = parseFloats(gt); err != nil {
			return Record{}, err
		}
	default:
		return Record{}, fmt.Errorf("%w: ground truth needs 4 or 6 values, got %d", ErrMalformed, len(gt))
	}
	return rec, nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// Writer writes records in the measurement log format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer writing to w. Call Flush once done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bufio.NewWriter(w)}
}

// Write writes one record as a line.
func (w *Writer) Write(rec Record) error {
	m := rec.Measurement
	var tag string
	switch m.Sensor {
	case ukfusion.Lidar:
		tag = "L"
	case ukfusion.Radar:
		tag = "R"
	default:
		return fmt.Errorf("%w: %s", ukfusion.ErrUnknownSensor, m.Sensor)
	}
	if len(m.Raw) != measurementSize(m.Sensor) {
		return fmt.Errorf("%w: %s record with %d values", ukfusion.ErrDimensionMismatch, m.Sensor, len(m.Raw))
	}
	if n := len(rec.GroundTruth); n != 0 && n != 4 && n != 6 {
		return fmt.Errorf("%w: ground truth needs 4 or 6 values, got %d", ErrMalformed, n)
	}
	fields := []string{tag}
	for _, v := range m.Raw {
		fields = append(fields, strconv.FormatFloat(v, 'e', -1, 64))
	}
	fields = append(fields, strconv.FormatInt(m.Timestamp, 10))
	for _, v := range rec.GroundTruth {
		fields = append(fields, strconv.FormatFloat(v, 'e', -1, 64))
	}
	_, err := w.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
