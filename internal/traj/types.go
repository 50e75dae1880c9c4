// Package traj provides the core trajectory data model, the quality metrics
// engine, and the candidate ranking logic.
//
// A trajectory is an ordered sequence of 3D waypoints in world coordinates
// (meters). Metrics functions are total: degenerate input (empty or very
// short trajectories, zero-length segments) yields a documented default
// instead of an error, so downstream consumers never have to branch on
// failure when evaluating candidates.
package traj

import "math"

// Waypoint is a single 3D point in world coordinates. Units are meters.
type Waypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance to another waypoint.
func (w Waypoint) DistanceTo(o Waypoint) float64 {
	dx := o.X - w.X
	dy := o.Y - w.Y
	dz := o.Z - w.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Trajectory is an ordered sequence of waypoints forming a path. Order is
// the temporal sequence along the path. Trajectories are treated as
// immutable once produced by a generator.
type Trajectory []Waypoint

// TrajectoryMetrics bundles the per-trajectory quality statistics computed
// by EvaluateTrajectory. JSON tags match the API response schema.
type TrajectoryMetrics struct {
	PathLength           float64 `json:"path_length"`            // total length along the path (m)
	StraightLineDistance float64 `json:"straight_line_distance"` // first-to-last distance (m)
	PathEfficiency       float64 `json:"path_efficiency"`        // straight / path, 1.0 = straight line
	AvgCurvature         float64 `json:"avg_curvature"`          // rad/m
	MaxCurvature         float64 `json:"max_curvature"`          // rad/m
	SmoothnessScore      float64 `json:"smoothness_score"`       // 1/(1+avg_curvature), range (0,1]
	EndpointError        float64 `json:"endpoint_error"`         // distance from last waypoint to target (m)
	MinAltitude          float64 `json:"min_altitude"`           // m
	MaxAltitude          float64 `json:"max_altitude"`           // m
	AvgAltitude          float64 `json:"avg_altitude"`           // m
	AvgVelocity          float64 `json:"avg_velocity"`           // mean segment length (m per step)
}
