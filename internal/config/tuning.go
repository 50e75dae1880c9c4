// Package config loads optional generation tuning parameters from JSON.
// Every field is a pointer: fields omitted from the file fall back to the
// compiled-in defaults via the Get* accessors, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// Generation defaults used when a field is absent from the tuning file.
const (
	DefaultCandidates    = 10
	DefaultTopK          = 5
	DefaultWorkers       = 4
	DefaultBatchDeadline = 30 * time.Second
)

// Tuning is the root tuning document. The schema matches the request
// parameters of POST /api/generate so the same JSON can seed startup
// defaults and per-request overrides.
type Tuning struct {
	// Batch shape
	Candidates *int `json:"candidates,omitempty"` // candidates generated per request
	TopK       *int `json:"top_k,omitempty"`      // candidates kept after ranking

	// Fan-out
	Workers       *int    `json:"workers,omitempty"`
	BatchDeadline *string `json:"batch_deadline,omitempty"` // duration string like "30s"

	// Latent sampling
	Seed *int64 `json:"seed,omitempty"` // omit for a fresh seed per process

	// Ranking weights
	EfficiencyWeight    *float64 `json:"efficiency_weight,omitempty"`
	SmoothnessWeight    *float64 `json:"smoothness_weight,omitempty"`
	EndpointErrorWeight *float64 `json:"endpoint_error_weight,omitempty"`

	// Validity envelope
	MaxCurvature *float64 `json:"max_curvature,omitempty"` // rad/m
	MinAltitude  *float64 `json:"min_altitude,omitempty"`  // m
	MaxAltitude  *float64 `json:"max_altitude,omitempty"`  // m
}

// Empty returns a Tuning with every field unset.
func Empty() *Tuning {
	return &Tuning{}
}

// Load reads a Tuning from a JSON file. The path must have a .json
// extension and the file must stay under 1MB.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning file: %w", err)
	}
	return cfg, nil
}

// Validate rejects values that would misbehave at generation time.
func (c *Tuning) Validate() error {
	if c.Candidates != nil && *c.Candidates < 1 {
		return fmt.Errorf("candidates must be at least 1, got %d", *c.Candidates)
	}
	if c.TopK != nil && *c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", *c.TopK)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.BatchDeadline != nil {
		if _, err := time.ParseDuration(*c.BatchDeadline); err != nil {
			return fmt.Errorf("batch_deadline: %w", err)
		}
	}
	if c.MinAltitude != nil && c.MaxAltitude != nil && *c.MinAltitude >= *c.MaxAltitude {
		return fmt.Errorf("min_altitude %v must be below max_altitude %v", *c.MinAltitude, *c.MaxAltitude)
	}
	return nil
}

// GetCandidates returns the number of candidates to generate per request.
func (c *Tuning) GetCandidates() int {
	if c != nil && c.Candidates != nil {
		return *c.Candidates
	}
	return DefaultCandidates
}

// GetTopK returns how many ranked candidates to keep.
func (c *Tuning) GetTopK() int {
	if c != nil && c.TopK != nil {
		return *c.TopK
	}
	return DefaultTopK
}

// GetWorkers returns the batch fan-out bound.
func (c *Tuning) GetWorkers() int {
	if c != nil && c.Workers != nil {
		return *c.Workers
	}
	return DefaultWorkers
}

// GetBatchDeadline returns the per-batch deadline. Validate has already
// checked the duration string, so a malformed value here falls back to the
// default rather than failing.
func (c *Tuning) GetBatchDeadline() time.Duration {
	if c != nil && c.BatchDeadline != nil {
		if d, err := time.ParseDuration(*c.BatchDeadline); err == nil {
			return d
		}
	}
	return DefaultBatchDeadline
}

// GetSeed returns the configured latent seed and whether one was set.
func (c *Tuning) GetSeed() (int64, bool) {
	if c != nil && c.Seed != nil {
		return *c.Seed, true
	}
	return 0, false
}

// GetScoreWeights returns the ranking weights, falling back per component.
func (c *Tuning) GetScoreWeights() traj.ScoreWeights {
	w := traj.DefaultScoreWeights()
	if c == nil {
		return w
	}
	if c.EfficiencyWeight != nil {
		w.Efficiency = *c.EfficiencyWeight
	}
	if c.SmoothnessWeight != nil {
		w.Smoothness = *c.SmoothnessWeight
	}
	if c.EndpointErrorWeight != nil {
		w.EndpointError = *c.EndpointErrorWeight
	}
	return w
}

// GetValidityLimits returns the flight envelope, falling back per component.
func (c *Tuning) GetValidityLimits() traj.ValidityLimits {
	l := traj.DefaultValidityLimits()
	if c == nil {
		return l
	}
	if c.MaxCurvature != nil {
		l.MaxCurvature = *c.MaxCurvature
	}
	if c.MinAltitude != nil {
		l.MinAltitude = *c.MinAltitude
	}
	if c.MaxAltitude != nil {
		l.MaxAltitude = *c.MaxAltitude
	}
	return l
}
