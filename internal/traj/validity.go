package traj

// ValidityLimits holds the hard constraints a trajectory must satisfy to be
// flyable. The zero value rejects everything; use DefaultValidityLimits for
// the standard envelope.
type ValidityLimits struct {
	MaxCurvature float64 `json:"max_curvature"` // rad/m
	MinAltitude  float64 `json:"min_altitude"`  // m
	MaxAltitude  float64 `json:"max_altitude"`  // m
}

// DefaultValidityLimits returns the standard flight envelope: at most
// 0.1 rad/m of local turning and altitude within [50, 1000] meters.
func DefaultValidityLimits() ValidityLimits {
	return ValidityLimits{
		MaxCurvature: 0.1,
		MinAltitude:  50,
		MaxAltitude:  1000,
	}
}

// IsTrajectoryValid reports whether the trajectory satisfies the limits.
// An empty trajectory is never valid.
func IsTrajectoryValid(t Trajectory, limits ValidityLimits) bool {
	if len(t) == 0 {
		return false
	}
	if MaxCurvature(t) > limits.MaxCurvature {
		return false
	}
	for _, wp := range t {
		if wp.Z < limits.MinAltitude || wp.Z > limits.MaxAltitude {
			return false
		}
	}
	return true
}
