package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kestrel-uas/trajgen/internal/config"
	"github.com/kestrel-uas/trajgen/internal/traj/gen"
	"github.com/kestrel-uas/trajgen/internal/trajdb"
)

// stubModel interpolates start to end in normalized space, bending the Y
// axis by the first latent component so candidates differ per draw.
type stubModel struct {
	latentDim int
	seqLen    int
}

func (m *stubModel) Infer(ctx context.Context, latent []float64, startNorm, endNorm [3]float64) ([][3]float64, error) {
	out := make([][3]float64, m.seqLen)
	for i := range out {
		f := float64(i) / float64(m.seqLen-1)
		bend := latent[0] * math.Sin(f*math.Pi)
		out[i] = [3]float64{
			startNorm[0] + f*(endNorm[0]-startNorm[0]),
			startNorm[1] + f*(endNorm[1]-startNorm[1]) + bend,
			startNorm[2] + f*(endNorm[2]-startNorm[2]),
		}
	}
	return out, nil
}

func (m *stubModel) LatentDim() int { return m.latentDim }
func (m *stubModel) SeqLen() int    { return m.seqLen }
func (m *stubModel) Close() error   { return nil }

func newTestServer(t *testing.T, unitName string) *Server {
	t.Helper()

	g, err := gen.New(&stubModel{latentDim: 8, seqLen: 16}, gen.IdentityNormParams(), gen.WithSeed(42))
	if err != nil {
		t.Fatalf("gen.New failed: %v", err)
	}
	db, err := trajdb.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewServer(g, db, config.Empty(), unitName, "test")
}

func postGenerate(t *testing.T, s *Server, req GenerateRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(body))
	s.ServeMux().ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "m")

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}

	var status map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if status["status"] != "ok" {
		t.Errorf("status = %v, want ok", status["status"])
	}
	if status["model_loaded"] != true {
		t.Errorf("model_loaded = %v, want true", status["model_loaded"])
	}

	w = httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST health status = %d, want 405", w.Code)
	}
}

func TestConfig(t *testing.T) {
	s := newTestServer(t, "m")

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("config status = %d, want 200", w.Code)
	}

	var cfg map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decoding config response: %v", err)
	}
	if cfg["units"] != "m" {
		t.Errorf("units = %v, want m", cfg["units"])
	}
	if cfg["candidates"] != float64(config.DefaultCandidates) {
		t.Errorf("candidates = %v, want %d", cfg["candidates"], config.DefaultCandidates)
	}
}

func TestGenerate(t *testing.T) {
	s := newTestServer(t, "m")

	w := postGenerate(t, s, GenerateRequest{
		Start:    [3]float64{0, 0, 100},
		End:      [3]float64{500, 200, 150},
		NSamples: 6,
		TopK:     3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding generate response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.NGenerated != 6 {
		t.Errorf("n_generated = %d, want 6", resp.NGenerated)
	}
	if len(resp.Candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(resp.Candidates))
	}
	for i, c := range resp.Candidates {
		if c.Rank != i+1 {
			t.Errorf("candidate %d rank = %d, want %d", i, c.Rank, i+1)
		}
		if len(c.Waypoints) != 16 {
			t.Errorf("candidate %d has %d waypoints, want 16", i, len(c.Waypoints))
		}
		if i > 0 && c.Score > resp.Candidates[i-1].Score {
			t.Errorf("candidate %d score %v out of order", i, c.Score)
		}
	}
	if resp.Diversity <= 0 {
		t.Errorf("diversity = %v, want > 0", resp.Diversity)
	}

	// The run must be retrievable afterwards.
	w = httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get run status = %d", w.Code)
	}
	var detail struct {
		ID         string              `json:"run_id"`
		Candidates []CandidateResponse `json:"candidates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding run detail: %v", err)
	}
	if detail.ID != resp.RunID {
		t.Errorf("run_id = %s, want %s", detail.ID, resp.RunID)
	}
	if len(detail.Candidates) != 3 {
		t.Errorf("stored %d candidates, want 3", len(detail.Candidates))
	}
}

func TestGenerateRejections(t *testing.T) {
	s := newTestServer(t, "m")

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/generate", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET generate status = %d, want 405", w.Code)
	}

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{not json"))
	s.ServeMux().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}

	w = postGenerate(t, s, GenerateRequest{NSamples: maxRequestedCandidates + 1, TopK: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized n_samples status = %d, want 400", w.Code)
	}

	w = postGenerate(t, s, GenerateRequest{NSamples: 1, TopK: -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative top_k status = %d, want 400", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t, "m")

	for i := 0; i < 2; i++ {
		w := postGenerate(t, s, GenerateRequest{
			Start:    [3]float64{0, 0, 100},
			End:      [3]float64{100, 0, 100},
			NSamples: 2,
			TopK:     1,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("generate %d status = %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list runs status = %d", w.Code)
	}
	var runs []trajdb.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decoding runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestRunNotFound(t *testing.T) {
	s := newTestServer(t, "m")

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/does-not-exist", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", w.Code)
	}
}

func TestRunCSVAndChart(t *testing.T) {
	s := newTestServer(t, "m")

	w := postGenerate(t, s, GenerateRequest{
		Start:    [3]float64{0, 0, 100},
		End:      [3]float64{100, 50, 120},
		NSamples: 3,
		TopK:     2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d", w.Code)
	}
	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding generate response: %v", err)
	}

	w = httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID+"/csv", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("csv status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "Waypoint,X,Y,Z") {
		t.Errorf("csv output missing header: %q", w.Body.String()[:40])
	}

	w = httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID+"/csv?rank=99", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("out-of-range rank status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID+"/chart", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("chart status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("chart content type = %s", ct)
	}
}

func TestGenerateDiversityCoversFullBatch(t *testing.T) {
	s := newTestServer(t, "m")

	// Keep a single candidate: diversity must still reflect the whole
	// generated batch, not the kept subset (a one-element set scores 0).
	w := postGenerate(t, s, GenerateRequest{
		Start:    [3]float64{0, 0, 100},
		End:      [3]float64{500, 200, 150},
		NSamples: 4,
		TopK:     1,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding generate response: %v", err)
	}
	if len(resp.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(resp.Candidates))
	}
	if resp.Diversity <= 0 {
		t.Errorf("diversity = %v, want > 0 across the generated batch", resp.Diversity)
	}
}

func TestGenerateUnitConversion(t *testing.T) {
	sMeters := newTestServer(t, "m")
	sFeet := newTestServer(t, "ft")

	req := GenerateRequest{
		Start:    [3]float64{0, 0, 100},
		End:      [3]float64{100, 0, 100},
		NSamples: 1,
		TopK:     1,
	}

	var inMeters, inFeet GenerateResponse
	if err := json.Unmarshal(postGenerate(t, sMeters, req).Body.Bytes(), &inMeters); err != nil {
		t.Fatalf("decoding metres response: %v", err)
	}
	if err := json.Unmarshal(postGenerate(t, sFeet, req).Body.Bytes(), &inFeet); err != nil {
		t.Fatalf("decoding feet response: %v", err)
	}

	gotRatio := inFeet.Candidates[0].Metrics.StraightLineDistance /
		inMeters.Candidates[0].Metrics.StraightLineDistance
	if math.Abs(gotRatio-3.28084) > 1e-6 {
		t.Errorf("ft/m ratio = %v, want 3.28084", gotRatio)
	}
}
