// Package api exposes trajectory generation over HTTP: a generate endpoint,
// run history backed by sqlite, and export endpoints for CSV and charts.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kestrel-uas/trajgen/internal/config"
	"github.com/kestrel-uas/trajgen/internal/traj"
	"github.com/kestrel-uas/trajgen/internal/traj/gen"
	"github.com/kestrel-uas/trajgen/internal/trajdb"
	"github.com/kestrel-uas/trajgen/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	gen     *gen.Generator
	db      *trajdb.DB
	tuning  *config.Tuning
	units   string
	version string
}

// NewServer wires a generator, a run store (may be nil to disable
// persistence), and tuning defaults into an HTTP server. units selects
// the distance unit used for metric fields in responses.
func NewServer(g *gen.Generator, db *trajdb.DB, tuning *config.Tuning, unitName, version string) *Server {
	if tuning == nil {
		tuning = &config.Tuning{}
	}
	return &Server{
		gen:     g,
		db:      db,
		tuning:  tuning,
		units:   unitName,
		version: version,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/runs/", s.handleRun)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// convertMetrics rescales the distance-valued metric fields for display.
// Ratios (efficiency, smoothness) and angles (curvature) are untouched.
func (s *Server) convertMetrics(m traj.TrajectoryMetrics) traj.TrajectoryMetrics {
	m.PathLength = units.ConvertDistance(m.PathLength, s.units)
	m.StraightLineDistance = units.ConvertDistance(m.StraightLineDistance, s.units)
	m.EndpointError = units.ConvertDistance(m.EndpointError, s.units)
	m.MinAltitude = units.ConvertDistance(m.MinAltitude, s.units)
	m.MaxAltitude = units.ConvertDistance(m.MaxAltitude, s.units)
	m.AvgAltitude = units.ConvertDistance(m.AvgAltitude, s.units)
	m.AvgVelocity = units.ConvertDistance(m.AvgVelocity, s.units)
	return m
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := map[string]interface{}{
		"status":       "ok",
		"model_loaded": s.gen != nil,
		"version":      s.version,
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write health status")
		return
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	weights := s.tuning.GetScoreWeights()
	limits := s.tuning.GetValidityLimits()
	cfg := map[string]interface{}{
		"units":          s.units,
		"candidates":     s.tuning.GetCandidates(),
		"top_k":          s.tuning.GetTopK(),
		"workers":        s.tuning.GetWorkers(),
		"batch_deadline": s.tuning.GetBatchDeadline().String(),
		"score_weights": map[string]float64{
			"efficiency":     weights.Efficiency,
			"smoothness":     weights.Smoothness,
			"endpoint_error": weights.EndpointError,
		},
		"validity_limits": map[string]float64{
			"max_curvature": limits.MaxCurvature,
			"min_altitude":  limits.MinAltitude,
			"max_altitude":  limits.MaxAltitude,
		},
	}
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
