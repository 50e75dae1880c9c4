package traj

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Epsilon is the segment-length threshold below which division-prone
// computations (curvature, efficiency) treat a value as zero.
const Epsilon = 1e-6

// PathLength returns the total length along the trajectory, i.e. the sum of
// consecutive waypoint distances. Returns 0 for fewer than 2 points.
func PathLength(t Trajectory) float64 {
	if len(t) < 2 {
		return 0
	}
	length := 0.0
	for i := 0; i < len(t)-1; i++ {
		length += t[i].DistanceTo(t[i+1])
	}
	return length
}

// StraightLineDistance returns the distance between the first and last
// waypoints. Returns 0 for fewer than 2 points.
func StraightLineDistance(t Trajectory) float64 {
	if len(t) < 2 {
		return 0
	}
	return t[0].DistanceTo(t[len(t)-1])
}

// PathEfficiency returns the ratio of straight-line distance to path length.
// A perfectly straight path scores 1.0. A trajectory with fewer than 2
// points is trivially straight and scores 1.0; a degenerate path shorter
// than Epsilon scores 0.
func PathEfficiency(t Trajectory) float64 {
	if len(t) < 2 {
		return 1.0
	}
	pathLength := PathLength(t)
	if pathLength < Epsilon {
		return 0
	}
	return StraightLineDistance(t) / pathLength
}

// curvatures returns the per-point curvature at each interior waypoint:
// the angle between the incoming and outgoing segment vectors divided by
// the incoming segment length. Interior points adjacent to a segment
// shorter than Epsilon are skipped.
func curvatures(t Trajectory) []float64 {
	if len(t) < 3 {
		return nil
	}
	out := make([]float64, 0, len(t)-2)
	for i := 1; i < len(t)-1; i++ {
		v1x := t[i].X - t[i-1].X
		v1y := t[i].Y - t[i-1].Y
		v1z := t[i].Z - t[i-1].Z
		v2x := t[i+1].X - t[i].X
		v2y := t[i+1].Y - t[i].Y
		v2z := t[i+1].Z - t[i].Z

		norm1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
		norm2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)
		if norm1 <= Epsilon || norm2 <= Epsilon {
			continue
		}

		// Clamp the cosine into [-1, 1] so float error near collinear or
		// reversed segments cannot push Acos into NaN.
		cosAngle := (v1x*v2x + v1y*v2y + v1z*v2z) / (norm1 * norm2)
		cosAngle = math.Max(-1.0, math.Min(1.0, cosAngle))

		out = append(out, math.Acos(cosAngle)/norm1)
	}
	return out
}

// AvgCurvature returns the mean per-point curvature in rad/m, or 0 when no
// interior point has two valid adjacent segments.
func AvgCurvature(t Trajectory) float64 {
	c := curvatures(t)
	if len(c) == 0 {
		return 0
	}
	return stat.Mean(c, nil)
}

// MaxCurvature returns the largest per-point curvature in rad/m, or 0 when
// no interior point has two valid adjacent segments.
func MaxCurvature(t Trajectory) float64 {
	c := curvatures(t)
	if len(c) == 0 {
		return 0
	}
	maxC := c[0]
	for _, v := range c[1:] {
		if v > maxC {
			maxC = v
		}
	}
	return maxC
}

// SmoothnessScore maps average curvature into (0, 1]: a collinear path has
// curvature 0 and scores exactly 1.0, and the score decays as the path
// turns more sharply per meter.
func SmoothnessScore(t Trajectory) float64 {
	return 1.0 / (1.0 + AvgCurvature(t))
}

// SecondOrderSmoothness returns the mean squared discrete second
// difference ||p[i+1] - 2p[i] + p[i-1]||^2 over interior points. This is
// the same penalty term the generator was trained against. Returns 0 for
// fewer than 3 points.
func SecondOrderSmoothness(t Trajectory) float64 {
	if len(t) < 3 {
		return 0
	}
	loss := 0.0
	for i := 1; i < len(t)-1; i++ {
		ax := t[i+1].X - 2*t[i].X + t[i-1].X
		ay := t[i+1].Y - 2*t[i].Y + t[i-1].Y
		az := t[i+1].Z - 2*t[i].Z + t[i-1].Z
		loss += ax*ax + ay*ay + az*az
	}
	return loss / float64(len(t)-2)
}

// EndpointError returns the distance between the trajectory's final
// waypoint and the expected end point. Returns 0 for an empty trajectory.
func EndpointError(t Trajectory, expectedEnd Waypoint) float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].DistanceTo(expectedEnd)
}

// AvgVelocity returns the mean segment length, i.e. meters traveled per
// step. Returns 0 for fewer than 2 points.
func AvgVelocity(t Trajectory) float64 {
	if len(t) < 2 {
		return 0
	}
	return PathLength(t) / float64(len(t)-1)
}

// EvaluateTrajectory computes the full metrics bundle in one pass. An empty
// trajectory yields the zero value.
func EvaluateTrajectory(t Trajectory, expectedEnd Waypoint) TrajectoryMetrics {
	var m TrajectoryMetrics
	if len(t) == 0 {
		return m
	}

	m.PathLength = PathLength(t)
	m.StraightLineDistance = StraightLineDistance(t)
	m.PathEfficiency = PathEfficiency(t)

	// Compute curvatures once and derive both aggregates from the slice.
	c := curvatures(t)
	if len(c) > 0 {
		m.AvgCurvature = stat.Mean(c, nil)
		m.MaxCurvature = c[0]
		for _, v := range c[1:] {
			if v > m.MaxCurvature {
				m.MaxCurvature = v
			}
		}
	}
	m.SmoothnessScore = 1.0 / (1.0 + m.AvgCurvature)

	m.EndpointError = EndpointError(t, expectedEnd)
	m.AvgVelocity = AvgVelocity(t)

	m.MinAltitude = t[0].Z
	m.MaxAltitude = t[0].Z
	sumAltitude := 0.0
	for _, wp := range t {
		m.MinAltitude = math.Min(m.MinAltitude, wp.Z)
		m.MaxAltitude = math.Max(m.MaxAltitude, wp.Z)
		sumAltitude += wp.Z
	}
	m.AvgAltitude = sumAltitude / float64(len(t))

	return m
}
