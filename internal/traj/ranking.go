package traj

import (
	"math"
	"sort"
)

// endpointErrorScale normalizes the endpoint-error penalty into roughly the
// same range as the other score terms. 100 m of endpoint miss costs one
// full unit of weighted penalty.
const endpointErrorScale = 100.0

// ScoreFn maps a metrics bundle to a scalar quality score. Higher is
// better. Ranking accepts any ScoreFn so callers can substitute their own
// objective.
type ScoreFn func(TrajectoryMetrics) float64

// ScoreWeights defines the weights of the canonical quality score:
//
//	score = Efficiency*path_efficiency + Smoothness*smoothness_score
//	      - EndpointError*(endpoint_error / 100m)
//
// Weights need not sum to 1.
type ScoreWeights struct {
	Efficiency    float64 `json:"efficiency"`
	Smoothness    float64 `json:"smoothness"`
	EndpointError float64 `json:"endpoint_error"`
}

// DefaultScoreWeights returns the canonical ranking weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Efficiency:    0.3,
		Smoothness:    0.5,
		EndpointError: 0.2,
	}
}

// Score computes the canonical weighted quality score for one candidate.
func (w ScoreWeights) Score(m TrajectoryMetrics) float64 {
	return w.Efficiency*m.PathEfficiency +
		w.Smoothness*m.SmoothnessScore -
		w.EndpointError*(m.EndpointError/endpointErrorScale)
}

// ScoreFn returns the weighted score as a pluggable strategy.
func (w ScoreWeights) ScoreFn() ScoreFn {
	return w.Score
}

// LengthAwareScore is an alternative objective that ignores endpoint
// accuracy and instead rewards shorter paths: 0.5*smoothness +
// 0.3*efficiency + 0.2*normalized_length, where paths at or under 100 m
// get full length credit and credit decays as 1000/length above that.
// It is kept for callers tuned against the older interactive planner; the
// canonical default is ScoreWeights.Score.
func LengthAwareScore(m TrajectoryMetrics) float64 {
	normalizedLength := math.Min(1.0, 1000.0/math.Max(100.0, m.PathLength))
	return 0.5*m.SmoothnessScore + 0.3*m.PathEfficiency + 0.2*normalizedLength
}

// RankedCandidate pairs a candidate's position in the input slice with its
// quality score.
type RankedCandidate struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RankTrajectories scores every candidate against the expected end point
// and returns all candidate indices ordered by descending score. Ties are
// broken deterministically by ascending original index. A nil score
// function falls back to the default weighted score.
func RankTrajectories(trajectories []Trajectory, expectedEnd Waypoint, score ScoreFn) []RankedCandidate {
	if score == nil {
		score = DefaultScoreWeights().Score
	}
	ranked := make([]RankedCandidate, len(trajectories))
	for i, t := range trajectories {
		ranked[i] = RankedCandidate{
			Index: i,
			Score: score(EvaluateTrajectory(t, expectedEnd)),
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})
	return ranked
}

// TopK returns the first k ranked candidates, or all of them when fewer
// than k exist.
func TopK(ranked []RankedCandidate, k int) []RankedCandidate {
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
