package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kestrel-uas/trajgen/internal/export"
	"github.com/kestrel-uas/trajgen/internal/traj"
	"github.com/kestrel-uas/trajgen/internal/traj/gen"
	"github.com/kestrel-uas/trajgen/internal/trajdb"
)

const maxRequestedCandidates = 100

// GenerateRequest is the body of POST /api/generate. Start and end are
// [x, y, z] positions in metres.
type GenerateRequest struct {
	Start    [3]float64 `json:"start"`
	End      [3]float64 `json:"end"`
	NSamples int        `json:"n_samples"`
	TopK     int        `json:"top_k"`
}

// CandidateResponse is one ranked trajectory in a generate or run response.
type CandidateResponse struct {
	Rank      int                    `json:"rank"`
	Index     int                    `json:"index"`
	Score     float64                `json:"score"`
	Valid     bool                   `json:"valid"`
	Metrics   traj.TrajectoryMetrics `json:"metrics"`
	Waypoints traj.Trajectory        `json:"waypoints"`
}

// GenerateResponse is the body returned by POST /api/generate. Diversity
// is computed over the full generated batch, not just the kept candidates.
type GenerateResponse struct {
	Success         bool                `json:"success"`
	RunID           string              `json:"run_id"`
	NGenerated      int                 `json:"n_generated"`
	Diversity       float64             `json:"diversity"`
	InferenceTimeMs float64             `json:"inference_time_ms"`
	Candidates      []CandidateResponse `json:"candidates"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.gen == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Generator not initialised")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.NSamples == 0 {
		req.NSamples = s.tuning.GetCandidates()
	}
	if req.NSamples < 1 || req.NSamples > maxRequestedCandidates {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("n_samples must be between 1 and %d", maxRequestedCandidates))
		return
	}
	if req.TopK == 0 {
		req.TopK = s.tuning.GetTopK()
	}
	if req.TopK < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "top_k must be positive")
		return
	}

	start := traj.Waypoint{X: req.Start[0], Y: req.Start[1], Z: req.Start[2]}
	end := traj.Waypoint{X: req.End[0], Y: req.End[1], Z: req.End[2]}

	ctx, cancel := context.WithTimeout(r.Context(), s.tuning.GetBatchDeadline())
	defer cancel()

	began := time.Now()
	generated, err := s.gen.GenerateBatch(ctx, start, end, req.NSamples)
	elapsed := float64(time.Since(began).Nanoseconds()) / 1e6
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Generation failed: %v", err))
		return
	}

	resp, stored := s.rankAndRecord(start, end, generated, req.TopK, elapsed)
	if s.db != nil {
		if err := s.db.RecordRun(stored.run, stored.candidates); err != nil {
			// Run history is the point of the store, so a write failure
			// fails the request rather than silently dropping the run.
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to record run: %v", err))
			return
		}
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write response")
		return
	}
}

type storedRun struct {
	run        *trajdb.Run
	candidates []trajdb.Candidate
}

// rankAndRecord scores the generated batch, keeps the top k, and builds both
// the API response (with display-unit metrics) and the rows to persist
// (always metres).
func (s *Server) rankAndRecord(start, end traj.Waypoint, generated []gen.Candidate, topK int, elapsedMs float64) (*GenerateResponse, storedRun) {
	trajectories := make([]traj.Trajectory, len(generated))
	for i, c := range generated {
		trajectories[i] = c.Trajectory
	}

	weights := s.tuning.GetScoreWeights()
	limits := s.tuning.GetValidityLimits()
	ranked := traj.TopK(traj.RankTrajectories(trajectories, end, weights.Score), topK)

	resp := &GenerateResponse{
		Success:         true,
		RunID:           trajdb.NewRunID(),
		NGenerated:      len(generated),
		Diversity:       traj.ComputeDiversity(trajectories),
		InferenceTimeMs: elapsedMs,
	}
	var rows []trajdb.Candidate
	for rank, rc := range ranked {
		t := trajectories[rc.Index]
		m := traj.EvaluateTrajectory(t, end)
		valid := traj.IsTrajectoryValid(t, limits)

		resp.Candidates = append(resp.Candidates, CandidateResponse{
			Rank:      rank + 1,
			Index:     generated[rc.Index].Index,
			Score:     rc.Score,
			Valid:     valid,
			Metrics:   s.convertMetrics(m),
			Waypoints: t,
		})
		rows = append(rows, trajdb.Candidate{
			Rank:       rank + 1,
			Index:      generated[rc.Index].Index,
			Score:      rc.Score,
			Valid:      valid,
			Metrics:    m,
			Trajectory: t,
		})
	}

	seqLen := 0
	if len(trajectories) > 0 {
		seqLen = len(trajectories[0])
	}
	run := &trajdb.Run{
		ID:         resp.RunID,
		Start:      start,
		End:        end,
		SeqLen:     seqLen,
		Candidates: len(generated),
		TopK:       topK,
		Diversity:  resp.Diversity,
		DurationMs: elapsedMs,
	}
	return resp, storedRun{run: run, candidates: rows}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusNotFound, "Run history is disabled")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []trajdb.Run{}
	}
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write runs")
		return
	}
}

// handleRun serves /api/runs/{id}, /api/runs/{id}/csv, and
// /api/runs/{id}/chart.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Run history is disabled")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID, sub, _ := strings.Cut(rest, "/")
	if runID == "" {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusBadRequest, "Missing run ID")
		return
	}

	run, candidates, err := s.db.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to load run: %v", err))
		return
	}

	switch sub {
	case "":
		s.writeRunDetail(w, run, candidates)
	case "csv":
		s.writeRunCSV(w, r, runID, candidates)
	case "chart":
		s.writeRunChart(w, runID, candidates)
	default:
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Unknown run resource")
	}
}

func (s *Server) writeRunDetail(w http.ResponseWriter, run *trajdb.Run, candidates []trajdb.Candidate) {
	w.Header().Set("Content-Type", "application/json")

	out := struct {
		trajdb.Run
		Candidates []CandidateResponse `json:"candidates"`
	}{Run: *run}
	for _, c := range candidates {
		out.Candidates = append(out.Candidates, CandidateResponse{
			Rank:      c.Rank,
			Index:     c.Index,
			Score:     c.Score,
			Valid:     c.Valid,
			Metrics:   s.convertMetrics(c.Metrics),
			Waypoints: c.Trajectory,
		})
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write run")
		return
	}
}

// writeRunCSV streams one candidate of a run as CSV. The 1-based rank is
// selected with ?rank=N and defaults to the top candidate.
func (s *Server) writeRunCSV(w http.ResponseWriter, r *http.Request, runID string, candidates []trajdb.Candidate) {
	rank := 1
	if q := r.URL.Query().Get("rank"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			w.Header().Set("Content-Type", "application/json")
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'rank' parameter")
			return
		}
		rank = parsed
	}
	if rank > len(candidates) {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("Run has %d candidates", len(candidates)))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_rank%d.csv", runID, rank))
	if err := export.WriteCSV(w, candidates[rank-1].Trajectory); err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write CSV")
	}
}

func (s *Server) writeRunChart(w http.ResponseWriter, runID string, candidates []trajdb.Candidate) {
	trajectories := make([]traj.Trajectory, len(candidates))
	for i, c := range candidates {
		trajectories[i] = c.Trajectory
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := fmt.Sprintf("Run %s", runID)
	if err := export.RenderHTML3D(w, trajectories, title); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to render chart")
	}
}
