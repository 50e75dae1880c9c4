package gen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// NormParams holds the per-axis affine transform between world coordinates
// and the model's normalized input space. Axis order is x, y, z.
type NormParams struct {
	Mean [3]float64 `json:"mean"`
	Std  [3]float64 `json:"std"`
}

// IdentityNormParams returns the no-op transform (mean 0, std 1 per axis).
// Falling back to identity is a caller decision, never an implicit default
// of a failed load.
func IdentityNormParams() NormParams {
	return NormParams{Std: [3]float64{1, 1, 1}}
}

// Validate rejects parameter sets that would divide by zero. A zero std
// component is a configuration error, not something to normalize through.
func (p NormParams) Validate() error {
	for i, s := range p.Std {
		if s == 0 {
			return fmt.Errorf("normalization std[%d] is zero", i)
		}
	}
	return nil
}

// Normalize maps a world-space waypoint into model space.
func (p NormParams) Normalize(w traj.Waypoint) [3]float64 {
	return [3]float64{
		(w.X - p.Mean[0]) / p.Std[0],
		(w.Y - p.Mean[1]) / p.Std[1],
		(w.Z - p.Mean[2]) / p.Std[2],
	}
}

// Denormalize maps a model-space vector back to world coordinates.
func (p NormParams) Denormalize(v [3]float64) traj.Waypoint {
	return traj.Waypoint{
		X: v[0]*p.Std[0] + p.Mean[0],
		Y: v[1]*p.Std[1] + p.Mean[1],
		Z: v[2]*p.Std[2] + p.Mean[2],
	}
}

// LoadNormParams reads normalization parameters from a JSON document with
// two keys, "mean" and "std", each an array of exactly 3 numbers. The
// parser is strict: a missing file, missing key, or wrong arity is a
// *ConfigError. The half-populated state the lenient legacy parser could
// produce (one key parsed, the other silently defaulted) is not
// representable here.
func LoadNormParams(path string) (NormParams, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return NormParams{}, &ConfigError{Path: path, Err: err}
	}

	var doc struct {
		Mean *[]float64 `json:"mean"`
		Std  *[]float64 `json:"std"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return NormParams{}, &ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	if doc.Mean == nil {
		return NormParams{}, &ConfigError{Path: path, Err: fmt.Errorf("missing \"mean\" array")}
	}
	if doc.Std == nil {
		return NormParams{}, &ConfigError{Path: path, Err: fmt.Errorf("missing \"std\" array")}
	}
	if len(*doc.Mean) != 3 {
		return NormParams{}, &ConfigError{Path: path, Err: fmt.Errorf("\"mean\" has %d entries, want 3", len(*doc.Mean))}
	}
	if len(*doc.Std) != 3 {
		return NormParams{}, &ConfigError{Path: path, Err: fmt.Errorf("\"std\" has %d entries, want 3", len(*doc.Std))}
	}

	var p NormParams
	copy(p.Mean[:], *doc.Mean)
	copy(p.Std[:], *doc.Std)
	if err := p.Validate(); err != nil {
		return NormParams{}, &ConfigError{Path: path, Err: err}
	}
	return p, nil
}
