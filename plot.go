package ukfusion

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotNIS saves to file a plot of the NIS of every update of sensor over time,
// along with the p quantile of the χ² distribution it should follow.
// The image format is chosen from the file extension (png, svg, pdf...).
func PlotNIS(estimates []*UKFEstimate, sensor SensorType, p float64, file string) error {
	pts := make(plotter.XYs, 0, len(estimates))
	var t0 int64
	started := false
	for _, est := range estimates {
		if est == nil {
			continue
		}
		if !started {
			t0, started = est.timestamp, true
		}
		if est.sensor != sensor || est.innovCovar == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(est.timestamp-t0) / 1e6, Y: est.nis})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no %s update to plot", sensor)
	}
	model, err := ModelFor(DefaultConfig(), sensor)
	if err != nil {
		return err
	}
	threshold := NISThreshold(model.Dim(), p)

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s NIS", sensor)
	pl.X.Label.Text = "Time (s)"
	pl.Y.Label.Text = "NIS"

	nisLine, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	nisLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	nisLine.Width = vg.Points(1)
	pl.Add(nisLine)
	pl.Legend.Add("NIS", nisLine)

	thrLine, err := plotter.NewLine(plotter.XYs{{X: pts[0].X, Y: threshold}, {X: pts[len(pts)-1].X, Y: threshold}})
	if err != nil {
		return err
	}
	thrLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	thrLine.Width = vg.Points(1)
	thrLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	pl.Add(thrLine)
	pl.Legend.Add(fmt.Sprintf("χ²(%d) %.0f%%", model.Dim(), 100*p), thrLine)

	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10

	return pl.Save(14*vg.Inch, 6*vg.Inch, file)
}
