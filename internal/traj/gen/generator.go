// Package gen coordinates latent sampling, coordinate normalization, and
// model invocation to produce candidate trajectories between a start and
// end waypoint.
package gen

import (
	"context"
	"fmt"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// Generator owns the process-wide generation state: the loaded model, the
// normalization parameters, and the latent sampler. It is created once at
// startup and shared across calls; the sampler is the only mutable part and
// synchronizes internally, so a single Generator is safe for concurrent
// use.
type Generator struct {
	model   Model
	norm    NormParams
	sampler *LatentSampler
	workers int
}

// Option adjusts Generator construction.
type Option func(*Generator)

// WithSampler substitutes the latent sampler, typically to pin a seed for
// reproducible generation.
func WithSampler(s *LatentSampler) Option {
	return func(g *Generator) { g.sampler = s }
}

// WithSeed seeds the default sampler deterministically.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.sampler = NewLatentSampler(g.model.LatentDim(), seed) }
}

// WithWorkers bounds the fan-out of GenerateBatch. Zero or negative means
// one worker per candidate up to a small default cap.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// New builds a Generator around a loaded model. The normalization
// parameters must pass Validate; a caller that wants identity
// normalization after a failed load passes IdentityNormParams explicitly.
func New(model Model, norm NormParams, opts ...Option) (*Generator, error) {
	if model == nil {
		return nil, ErrNotInitialized
	}
	if err := norm.Validate(); err != nil {
		return nil, fmt.Errorf("normalization params: %w", err)
	}
	g := &Generator{
		model: model,
		norm:  norm,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sampler == nil {
		g.sampler = NewAutoSeededSampler(model.LatentDim())
	}
	if g.sampler.Dim() != model.LatentDim() {
		return nil, fmt.Errorf("sampler dimension %d does not match model latent dimension %d",
			g.sampler.Dim(), model.LatentDim())
	}
	return g, nil
}

// NormParams returns the normalization parameters in effect.
func (g *Generator) NormParams() NormParams { return g.norm }

// SeqLen returns the model's configured output sequence length.
func (g *Generator) SeqLen() int { return g.model.SeqLen() }

// Generate produces one candidate trajectory from start to end: it draws a
// fresh latent vector, normalizes both endpoints, invokes the model, and
// denormalizes the output sequence back into world coordinates. On success
// the trajectory has exactly SeqLen waypoints; there are no partial
// results. Errors name the stage that failed.
func (g *Generator) Generate(ctx context.Context, start, end traj.Waypoint) (traj.Trajectory, error) {
	if g == nil || g.model == nil {
		return nil, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	latent := g.sampler.Sample()
	startNorm := g.norm.Normalize(start)
	endNorm := g.norm.Normalize(end)

	out, err := g.model.Infer(ctx, latent, startNorm, endNorm)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	if len(out) != g.model.SeqLen() {
		return nil, fmt.Errorf("inference: output length %d, want %d", len(out), g.model.SeqLen())
	}

	trajectory := make(traj.Trajectory, len(out))
	for i, v := range out {
		trajectory[i] = g.norm.Denormalize(v)
	}
	return trajectory, nil
}
