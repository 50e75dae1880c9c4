// Package export writes generated trajectories out as CSV files, static
// PNG plots, and interactive HTML charts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// WriteCSV writes one trajectory in waypoint-per-row form. The first column
// is the zero-based waypoint index.
func WriteCSV(w io.Writer, trajectory traj.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Waypoint", "X", "Y", "Z"}); err != nil {
		return err
	}
	for i, wp := range trajectory {
		record := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(wp.X, 'f', 6, 64),
			strconv.FormatFloat(wp.Y, 'f', 6, 64),
			strconv.FormatFloat(wp.Z, 'f', 6, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes each trajectory to basePath_N.csv, N being the zero-based
// position in the slice. Returns the paths written.
func SaveCSV(basePath string, trajectories []traj.Trajectory) ([]string, error) {
	var paths []string
	for i, trajectory := range trajectories {
		path := fmt.Sprintf("%s_%d.csv", basePath, i)
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("create %s: %w", path, err)
		}
		err = WriteCSV(f, trajectory)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
