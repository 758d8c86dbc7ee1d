package ukfusion

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Exporter defines an export interface.
type Exporter interface {
	Write(Estimate) error
	Close() error
}

// timedEstimate is implemented by estimates which know when and by which sensor they were produced.
type timedEstimate interface {
	Sensor() SensorType
	Timestamp() int64
}

// CSVExporter writes one line per estimate: timestamp, sensor, each state
// component followed by its +2σ and -2σ bounds, and the NIS.
type CSVExporter struct {
	delimiter string
	hdlr      *os.File
}

// Close closes the file.
func (e CSVExporter) Close() (err error) {
	err = e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC()))
	if err != nil {
		return
	}
	return e.hdlr.Close()
}

// Name returns the path of the CSV file.
func (e CSVExporter) Name() string {
	return e.hdlr.Name()
}

// Write writes the estimate to the CSV file.
func (e CSVExporter) Write(est Estimate) error {
	r := est.State().Len()
	vals := make([]string, 0, r*3+3)
	if te, ok := est.(timedEstimate); ok {
		vals = append(vals, fmt.Sprintf("%d", te.Timestamp()), te.Sensor().String())
	} else {
		vals = append(vals, "", "")
	}
	for i := 0; i < r; i++ {
		covar := 2 * math.Sqrt(est.Covariance().At(i, i))
		vals = append(vals, fmt.Sprintf("%f", est.State().AtVec(i)), fmt.Sprintf("%f", covar), fmt.Sprintf("%f", -1*covar))
	}
	vals = append(vals, fmt.Sprintf("%f", est.NIS()))
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// NewCSVExporter initializes a new CSV export in dir/filename. The comment
// line at the top names the filter whose estimates are exported.
func NewCSVExporter(headers []string, dir, filename string, kf *UKF) (e *CSVExporter, err error) {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return
	}
	delimiter := ","
	// Header
	hdr := []string{"timestamp", "sensor"}
	for _, h := range headers {
		hdr = append(hdr, h, h+"+2s", h+"-2s")
	}
	hdr = append(hdr, "nis")
	var id string
	if kf != nil {
		id = kf.ID().String()
	}
	if _, err = f.WriteString(fmt.Sprintf("# Creation date (UTC): %s\n# Filter: %s\n%s\n", time.Now().UTC(), id, strings.Join(hdr, delimiter))); err != nil {
		f.Close()
		return nil, err
	}
	e = &CSVExporter{delimiter, f}
	return
}
