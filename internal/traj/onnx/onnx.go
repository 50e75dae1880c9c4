// Package onnx binds the generative trajectory model to ONNX Runtime. It
// is the production implementation of gen.Model; everything above this
// package treats the model as an opaque numerical function.
package onnx

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kestrel-uas/trajgen/internal/traj/gen"
)

// Tensor names the exported artifact must declare. Load rejects artifacts
// whose input/output schema does not match.
const (
	inputLatent      = "latent"
	inputStart       = "start"
	inputEnd         = "end"
	outputTrajectory = "trajectory"
)

// sharedLibraryEnv optionally points at the onnxruntime shared library
// when it is not on the default loader path.
const sharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

func ensureRuntime() error {
	runtimeOnce.Do(func() {
		if p := os.Getenv(sharedLibraryEnv); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// Model wraps an ONNX Runtime session over the trajectory artifact. Input
// and output tensors are allocated once at load time and reused; Infer is
// safe for concurrent use, with calls serialized on the session.
type Model struct {
	path      string
	latentDim int
	seqLen    int

	mu      sync.Mutex
	session *ort.AdvancedSession
	latent  *ort.Tensor[float32]
	start   *ort.Tensor[float32]
	end     *ort.Tensor[float32]
	out     *ort.Tensor[float32]
	closed  bool
}

// Load reads the model artifact, validates its declared schema (inputs
// latent/start/end, output trajectory of shape [1, seq_len, 3]), and
// builds a reusable inference session. Any failure is a *gen.ModelError;
// there is no retry path.
func Load(path string) (*Model, error) {
	if err := ensureRuntime(); err != nil {
		return nil, &gen.ModelError{Path: path, Err: fmt.Errorf("initialize onnxruntime: %w", err)}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &gen.ModelError{Path: path, Err: err}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, &gen.ModelError{Path: path, Err: fmt.Errorf("read model schema: %w", err)}
	}

	latentDim, err := latentDimFromSchema(inputs)
	if err != nil {
		return nil, &gen.ModelError{Path: path, Err: err}
	}
	seqLen, err := seqLenFromSchema(outputs)
	if err != nil {
		return nil, &gen.ModelError{Path: path, Err: err}
	}

	m := &Model{path: path, latentDim: latentDim, seqLen: seqLen}

	m.latent, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(latentDim)))
	if err == nil {
		m.start, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3))
	}
	if err == nil {
		m.end, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3))
	}
	if err == nil {
		m.out, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), 3))
	}
	if err != nil {
		m.destroyTensors()
		return nil, &gen.ModelError{Path: path, Err: fmt.Errorf("allocate tensors: %w", err)}
	}

	m.session, err = ort.NewAdvancedSession(path,
		[]string{inputLatent, inputStart, inputEnd},
		[]string{outputTrajectory},
		[]ort.Value{m.latent, m.start, m.end},
		[]ort.Value{m.out},
		nil)
	if err != nil {
		m.destroyTensors()
		return nil, &gen.ModelError{Path: path, Err: fmt.Errorf("create session: %w", err)}
	}

	return m, nil
}

func latentDimFromSchema(inputs []ort.InputOutputInfo) (int, error) {
	byName := make(map[string]ort.InputOutputInfo, len(inputs))
	for _, in := range inputs {
		byName[in.Name] = in
	}
	for _, name := range []string{inputLatent, inputStart, inputEnd} {
		if _, ok := byName[name]; !ok {
			return 0, fmt.Errorf("model is missing input %q", name)
		}
	}
	for _, name := range []string{inputStart, inputEnd} {
		dims := byName[name].Dimensions
		if len(dims) == 0 || dims[len(dims)-1] != 3 {
			return 0, fmt.Errorf("input %q has shape %v, want trailing dimension 3", name, dims)
		}
	}
	dims := byName[inputLatent].Dimensions
	if len(dims) == 0 || dims[len(dims)-1] <= 0 {
		return 0, fmt.Errorf("input %q has shape %v, want a fixed trailing dimension", inputLatent, dims)
	}
	return int(dims[len(dims)-1]), nil
}

func seqLenFromSchema(outputs []ort.InputOutputInfo) (int, error) {
	for _, out := range outputs {
		if out.Name != outputTrajectory {
			continue
		}
		dims := out.Dimensions
		if len(dims) != 3 || dims[2] != 3 || dims[1] <= 0 {
			return 0, fmt.Errorf("output %q has shape %v, want [batch, seq_len, 3]", outputTrajectory, dims)
		}
		return int(dims[1]), nil
	}
	return 0, fmt.Errorf("model is missing output %q", outputTrajectory)
}

// LatentDim returns the latent dimensionality declared by the artifact.
func (m *Model) LatentDim() int { return m.latentDim }

// SeqLen returns the output sequence length declared by the artifact.
func (m *Model) SeqLen() int { return m.seqLen }

// Infer runs one forward pass. The float64/float32 conversion happens here
// and nowhere else; the rest of the pipeline works in float64 world
// coordinates.
func (m *Model) Infer(ctx context.Context, latent []float64, startNorm, endNorm [3]float64) ([][3]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(latent) != m.latentDim {
		return nil, fmt.Errorf("latent length %d, want %d", len(latent), m.latentDim)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("model %s: session closed", m.path)
	}

	latentData := m.latent.GetData()
	for i, v := range latent {
		latentData[i] = float32(v)
	}
	startData := m.start.GetData()
	endData := m.end.GetData()
	for i := 0; i < 3; i++ {
		startData[i] = float32(startNorm[i])
		endData[i] = float32(endNorm[i])
	}

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	outData := m.out.GetData()
	sequence := make([][3]float64, m.seqLen)
	for i := 0; i < m.seqLen; i++ {
		sequence[i] = [3]float64{
			float64(outData[i*3+0]),
			float64(outData[i*3+1]),
			float64(outData[i*3+2]),
		}
	}
	return sequence, nil
}

// Close destroys the session and its tensors. The model is unusable
// afterwards.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var firstErr error
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			firstErr = err
		}
	}
	if err := m.destroyTensorsErr(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (m *Model) destroyTensors() { _ = m.destroyTensorsErr() }

func (m *Model) destroyTensorsErr() error {
	var firstErr error
	for _, t := range []*ort.Tensor[float32]{m.latent, m.start, m.end, m.out} {
		if t == nil {
			continue
		}
		if err := t.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
