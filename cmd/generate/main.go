// Command generate runs the trajectory model once from the command line:
// load the model and normalization parameters, sample a batch of candidate
// trajectories between two waypoints, rank them, and optionally export the
// winners as CSV, PNG plots, or an interactive HTML chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kestrel-uas/trajgen/internal/config"
	"github.com/kestrel-uas/trajgen/internal/export"
	"github.com/kestrel-uas/trajgen/internal/monitoring"
	"github.com/kestrel-uas/trajgen/internal/traj"
	"github.com/kestrel-uas/trajgen/internal/traj/gen"
	"github.com/kestrel-uas/trajgen/internal/traj/onnx"
)

var (
	modelPath  = flag.String("model", "trajectory_generator.onnx", "path to the ONNX model artifact")
	normPath   = flag.String("norm", "", "path to normalization parameters JSON (identity transform if empty)")
	configPath = flag.String("config", "", "path to tuning config JSON")
	startFlag  = flag.String("start", "0,0,100", "start waypoint as x,y,z in metres")
	endFlag    = flag.String("end", "500,200,150", "end waypoint as x,y,z in metres")
	candidates = flag.Int("candidates", 0, "number of candidate trajectories to sample (0 = config default)")
	topFlag    = flag.Int("top", 0, "number of ranked trajectories to keep (0 = config default)")
	seedFlag   = flag.Int64("seed", 0, "latent sampler seed (0 = config value or time-based)")
	csvBase    = flag.String("csv", "", "base path for CSV export, writes <base>_N.csv per kept trajectory")
	plotBase   = flag.String("plot", "", "base path for PNG plots, writes <base>_topdown.png and <base>_altitude.png")
	htmlPath   = flag.String("html", "", "path for interactive 3D HTML chart")
)

// parseWaypoint parses "x,y,z" into a waypoint.
func parseWaypoint(s string) (traj.Waypoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return traj.Waypoint{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return traj.Waypoint{}, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	return traj.Waypoint{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func main() {
	flag.Parse()

	start, err := parseWaypoint(*startFlag)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := parseWaypoint(*endFlag)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	tuning := config.Empty()
	if *configPath != "" {
		tuning, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading tuning config: %v", err)
		}
	}

	norm := gen.IdentityNormParams()
	if *normPath != "" {
		norm, err = gen.LoadNormParams(*normPath)
		if err != nil {
			log.Fatalf("loading normalization parameters: %v", err)
		}
	} else {
		log.Printf("no -norm given, using identity normalization; model inputs are raw coordinates")
	}

	model, err := onnx.Load(*modelPath)
	if err != nil {
		log.Fatalf("loading model: %v", err)
	}
	defer model.Close()

	opts := []gen.Option{gen.WithWorkers(tuning.GetWorkers())}
	switch {
	case *seedFlag != 0:
		opts = append(opts, gen.WithSeed(*seedFlag))
	default:
		if seed, ok := tuning.GetSeed(); ok {
			opts = append(opts, gen.WithSeed(seed))
		}
	}
	generator, err := gen.New(model, norm, opts...)
	if err != nil {
		log.Fatalf("initialising generator: %v", err)
	}

	n := *candidates
	if n <= 0 {
		n = tuning.GetCandidates()
	}
	top := *topFlag
	if top <= 0 {
		top = tuning.GetTopK()
	}

	ctx, cancel := context.WithTimeout(context.Background(), tuning.GetBatchDeadline())
	defer cancel()

	defer monitoring.Elapsed("generate run")()
	began := time.Now()
	generated, err := generator.GenerateBatch(ctx, start, end, n)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}
	elapsed := time.Since(began)

	trajectories := make([]traj.Trajectory, len(generated))
	for i, c := range generated {
		trajectories[i] = c.Trajectory
	}
	weights := tuning.GetScoreWeights()
	limits := tuning.GetValidityLimits()
	ranked := traj.TopK(traj.RankTrajectories(trajectories, end, weights.Score), top)

	selected := make([]traj.Trajectory, len(ranked))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tVALID\tLENGTH\tEFFICIENCY\tSMOOTHNESS\tENDPOINT ERR")
	for rank, rc := range ranked {
		t := trajectories[rc.Index]
		selected[rank] = t
		m := traj.EvaluateTrajectory(t, end)
		fmt.Fprintf(tw, "%d\t%.4f\t%v\t%.1f\t%.4f\t%.4f\t%.2f\n",
			rank+1, rc.Score, traj.IsTrajectoryValid(t, limits),
			m.PathLength, m.PathEfficiency, m.SmoothnessScore, m.EndpointError)
	}
	tw.Flush()

	fmt.Printf("\ngenerated %d candidates in %v, kept %d, diversity %.2f m\n",
		len(generated), elapsed.Round(time.Millisecond), len(ranked),
		traj.ComputeDiversity(selected))

	if *csvBase != "" {
		paths, err := export.SaveCSV(*csvBase, selected)
		if err != nil {
			log.Fatalf("writing CSV: %v", err)
		}
		log.Printf("wrote %d CSV files under %s_*.csv", len(paths), *csvBase)
	}
	if *plotBase != "" {
		if err := export.SavePlots(*plotBase, selected, start, end); err != nil {
			log.Fatalf("writing plots: %v", err)
		}
		log.Printf("wrote plots %s_topdown.png and %s_altitude.png", *plotBase, *plotBase)
	}
	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("creating %s: %v", *htmlPath, err)
		}
		err = export.RenderHTML3D(f, selected, "Generated trajectories")
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("writing %s: %v", *htmlPath, err)
		}
		log.Printf("wrote chart %s", *htmlPath)
	}
}
