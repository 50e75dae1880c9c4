package traj

import (
	"math"
	"testing"
)

func TestDefaultScoreWeights(t *testing.T) {
	w := DefaultScoreWeights()
	if w.Efficiency != 0.3 {
		t.Errorf("expected Efficiency=0.3, got %v", w.Efficiency)
	}
	if w.Smoothness != 0.5 {
		t.Errorf("expected Smoothness=0.5, got %v", w.Smoothness)
	}
	if w.EndpointError != 0.2 {
		t.Errorf("expected EndpointError=0.2, got %v", w.EndpointError)
	}
}

func TestScoreFormula(t *testing.T) {
	m := TrajectoryMetrics{
		PathEfficiency:  0.9,
		SmoothnessScore: 0.8,
		EndpointError:   50.0,
	}
	// Expected: 0.3*0.9 + 0.5*0.8 - 0.2*(50/100) = 0.27 + 0.40 - 0.10 = 0.57
	got := DefaultScoreWeights().Score(m)
	if math.Abs(got-0.57) > 1e-9 {
		t.Errorf("Score = %v, want 0.57", got)
	}
}

func TestLengthAwareScore(t *testing.T) {
	short := TrajectoryMetrics{PathLength: 80, PathEfficiency: 1.0, SmoothnessScore: 1.0}
	long := TrajectoryMetrics{PathLength: 5000, PathEfficiency: 1.0, SmoothnessScore: 1.0}
	// Short path gets full length credit: 0.5 + 0.3 + 0.2 = 1.0.
	if got := LengthAwareScore(short); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("LengthAwareScore(short) = %v, want 1.0", got)
	}
	// Long path: length term = 1000/5000 = 0.2, so 0.5 + 0.3 + 0.04.
	if got := LengthAwareScore(long); math.Abs(got-0.84) > 1e-9 {
		t.Errorf("LengthAwareScore(long) = %v, want 0.84", got)
	}
}

func TestRankTrajectoriesIsPermutation(t *testing.T) {
	end := Waypoint{X: 100, Y: 0, Z: 100}
	trajectories := []Trajectory{
		// Straight to the target.
		{{X: 0, Y: 0, Z: 100}, {X: 50, Y: 0, Z: 100}, {X: 100, Y: 0, Z: 100}},
		// Detour, ends short of target.
		{{X: 0, Y: 0, Z: 100}, {X: 50, Y: 80, Z: 100}, {X: 90, Y: 0, Z: 100}},
		// Wild zigzag.
		{{X: 0, Y: 0, Z: 100}, {X: 10, Y: 50, Z: 100}, {X: 20, Y: -50, Z: 100}, {X: 100, Y: 0, Z: 100}},
	}

	ranked := RankTrajectories(trajectories, end, nil)
	if len(ranked) != len(trajectories) {
		t.Fatalf("ranked %d candidates, want %d", len(ranked), len(trajectories))
	}
	seen := make(map[int]bool)
	for _, rc := range ranked {
		if rc.Index < 0 || rc.Index >= len(trajectories) {
			t.Errorf("index %d out of range", rc.Index)
		}
		if seen[rc.Index] {
			t.Errorf("index %d ranked twice", rc.Index)
		}
		seen[rc.Index] = true
	}

	// Descending scores, best first.
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[0].Score {
			t.Errorf("rank %d score %v exceeds best %v", i, ranked[i].Score, ranked[0].Score)
		}
	}
	if ranked[0].Index != 0 {
		t.Errorf("straight trajectory should rank first, got index %d", ranked[0].Index)
	}
}

func TestRankTrajectoriesTieBreak(t *testing.T) {
	straight := Trajectory{{X: 0, Y: 0, Z: 100}, {X: 100, Y: 0, Z: 100}}
	end := Waypoint{X: 100, Y: 0, Z: 100}

	// Identical candidates score identically; ties resolve by input order.
	ranked := RankTrajectories([]Trajectory{straight, straight, straight}, end, nil)
	for i, rc := range ranked {
		if rc.Index != i {
			t.Errorf("tie at rank %d resolved to index %d, want %d", i, rc.Index, i)
		}
	}
}

func TestRankTrajectoriesCustomScoreFn(t *testing.T) {
	end := Waypoint{X: 10, Y: 0, Z: 0}
	trajectories := []Trajectory{
		{{X: 0, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 0}},
		{{X: 0, Y: 0, Z: 0}, {X: 5, Y: 5, Z: 0}, {X: 10, Y: 0, Z: 0}},
	}
	// Invert the objective: longest path wins.
	longest := func(m TrajectoryMetrics) float64 { return m.PathLength }
	ranked := RankTrajectories(trajectories, end, longest)
	if ranked[0].Index != 1 {
		t.Errorf("longest-path objective ranked index %d first, want 1", ranked[0].Index)
	}
}

func TestTopK(t *testing.T) {
	ranked := []RankedCandidate{{Index: 2, Score: 3}, {Index: 0, Score: 2}, {Index: 1, Score: 1}}
	if got := TopK(ranked, 2); len(got) != 2 || got[0].Index != 2 {
		t.Errorf("TopK(2) = %v", got)
	}
	if got := TopK(ranked, 10); len(got) != 3 {
		t.Errorf("TopK over length = %d entries, want 3", len(got))
	}
	if got := TopK(ranked, -1); len(got) != 0 {
		t.Errorf("TopK(-1) = %d entries, want 0", len(got))
	}
}
