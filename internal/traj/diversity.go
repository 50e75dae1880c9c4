package traj

import "gonum.org/v1/gonum/stat"

// ComputeDiversity returns the average pairwise dissimilarity of a set of
// candidate trajectories: over all unordered pairs, the mean per-index
// waypoint distance. Returns 0 for fewer than 2 trajectories.
//
// When two trajectories differ in length the comparison truncates to the
// shorter one. That biases the metric toward long-prefix similarity rather
// than full-path similarity; all candidates from one generation batch share
// a sequence length, so the truncation only matters when mixing batches.
func ComputeDiversity(trajectories []Trajectory) float64 {
	if len(trajectories) < 2 {
		return 0
	}

	pairMeans := make([]float64, 0, len(trajectories)*(len(trajectories)-1)/2)
	for i := 0; i < len(trajectories); i++ {
		for j := i + 1; j < len(trajectories); j++ {
			a, b := trajectories[i], trajectories[j]
			minLen := len(a)
			if len(b) < minLen {
				minLen = len(b)
			}
			if minLen == 0 {
				continue
			}
			dist := 0.0
			for k := 0; k < minLen; k++ {
				dist += a[k].DistanceTo(b[k])
			}
			pairMeans = append(pairMeans, dist/float64(minLen))
		}
	}
	if len(pairMeans) == 0 {
		return 0
	}
	return stat.Mean(pairMeans, nil)
}
