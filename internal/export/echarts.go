package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// RenderHTML3D writes an interactive 3D line chart of the trajectories as a
// standalone HTML page.
func RenderHTML3D(w io.Writer, trajectories []traj.Trajectory, title string) error {
	line3d := charts.NewLine3D()
	line3d.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "dark",
			Width:     "1000px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X (m)", Show: opts.Bool(true)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y (m)", Show: opts.Bool(true)}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z (m)", Show: opts.Bool(true)}),
		charts.WithGrid3DOpts(opts.Grid3D{Show: opts.Bool(true), BoxWidth: 120, BoxDepth: 120}),
	)

	for i, trajectory := range trajectories {
		data := make([]opts.Chart3DData, 0, len(trajectory))
		for _, wp := range trajectory {
			data = append(data, opts.Chart3DData{Value: []interface{}{wp.X, wp.Y, wp.Z}})
		}
		line3d.AddSeries(fmt.Sprintf("candidate %d", i), data)
	}

	return line3d.Render(w)
}
