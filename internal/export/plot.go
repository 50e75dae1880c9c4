package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// palette cycles per-trajectory line colors across both plots.
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
}

// SavePlots renders a top-down XY view and an altitude profile for the given
// trajectories and writes them as <basePath>_topdown.png and
// <basePath>_altitude.png.
func SavePlots(basePath string, trajectories []traj.Trajectory, start, end traj.Waypoint) error {
	pXY := plot.New()
	pXY.Title.Text = "Trajectories (top-down)"
	pXY.X.Label.Text = "X (m)"
	pXY.Y.Label.Text = "Y (m)"

	pAlt := plot.New()
	pAlt.Title.Text = "Altitude profile"
	pAlt.X.Label.Text = "Waypoint"
	pAlt.Y.Label.Text = "Z (m)"

	for i, trajectory := range trajectories {
		xyPts := make(plotter.XYs, len(trajectory))
		altPts := make(plotter.XYs, len(trajectory))
		for j, wp := range trajectory {
			xyPts[j].X = wp.X
			xyPts[j].Y = wp.Y
			altPts[j].X = float64(j)
			altPts[j].Y = wp.Z
		}

		label := fmt.Sprintf("candidate %d", i)
		c := palette[i%len(palette)]

		xyLine, err := plotter.NewLine(xyPts)
		if err != nil {
			return fmt.Errorf("top-down line for candidate %d: %w", i, err)
		}
		xyLine.Color = c
		xyLine.Width = vg.Points(1)
		pXY.Add(xyLine)
		pXY.Legend.Add(label, xyLine)

		altLine, err := plotter.NewLine(altPts)
		if err != nil {
			return fmt.Errorf("altitude line for candidate %d: %w", i, err)
		}
		altLine.Color = c
		altLine.Width = vg.Points(1)
		pAlt.Add(altLine)
		pAlt.Legend.Add(label, altLine)
	}

	// Mark the requested endpoints on the top-down view.
	endpoints := plotter.XYs{{X: start.X, Y: start.Y}, {X: end.X, Y: end.Y}}
	marks, err := plotter.NewScatter(endpoints)
	if err != nil {
		return fmt.Errorf("endpoint markers: %w", err)
	}
	marks.GlyphStyle.Radius = vg.Points(4)
	marks.GlyphStyle.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	pXY.Add(marks)
	pXY.Legend.Add("start/end", marks)

	pXY.Legend.Top = true
	pXY.Legend.Left = false
	pAlt.Legend.Top = true
	pAlt.Legend.Left = false

	xyFile := basePath + "_topdown.png"
	if err := pXY.Save(10*vg.Inch, 8*vg.Inch, xyFile); err != nil {
		return fmt.Errorf("save %s: %w", xyFile, err)
	}
	altFile := basePath + "_altitude.png"
	if err := pAlt.Save(10*vg.Inch, 5*vg.Inch, altFile); err != nil {
		return fmt.Errorf("save %s: %w", altFile, err)
	}
	return nil
}
