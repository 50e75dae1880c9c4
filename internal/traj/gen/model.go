package gen

import "context"

// Model is the inference contract of the generative trajectory model. The
// production binding wraps an ONNX Runtime session (internal/traj/onnx);
// tests substitute deterministic stubs so the metrics and ranking layers
// stay testable without a model artifact.
//
// Infer takes a latent vector of LatentDim components plus the normalized
// start and end waypoints, and returns a normalized output sequence of
// exactly SeqLen points.
type Model interface {
	Infer(ctx context.Context, latent []float64, startNorm, endNorm [3]float64) ([][3]float64, error)

	// LatentDim is the latent dimensionality the artifact was exported with.
	LatentDim() int
	// SeqLen is the fixed output sequence length of the artifact.
	SeqLen() int

	Close() error
}
