// Package trajdb persists generation runs and their ranked candidates to
// sqlite. One run row per API/CLI generation request; one candidate row per
// ranked trajectory, with the waypoint sequence stored as JSON.
package trajdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if needed) the trajectory database at path and
// applies the baseline schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			start_x           DOUBLE,
			start_y           DOUBLE,
			start_z           DOUBLE,
			end_x             DOUBLE,
			end_y             DOUBLE,
			end_z             DOUBLE,
			seq_len           BIGINT,
			n_candidates      BIGINT,
			top_k             BIGINT,
			diversity         DOUBLE,
			duration_ms       DOUBLE,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS candidates (
			run_id                 TEXT,
			rank                   BIGINT,
			candidate_index        BIGINT,
			score                  DOUBLE,
			valid                  BOOLEAN,
			path_length            DOUBLE,
			straight_line_distance DOUBLE,
			path_efficiency        DOUBLE,
			avg_curvature          DOUBLE,
			max_curvature          DOUBLE,
			smoothness_score       DOUBLE,
			endpoint_error         DOUBLE,
			min_altitude           DOUBLE,
			max_altitude           DOUBLE,
			avg_altitude           DOUBLE,
			avg_velocity           DOUBLE,
			waypoints              TEXT,
			PRIMARY KEY (run_id, rank),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, path: path}, nil
}

// Run is one generation request and its batch-level summary.
type Run struct {
	ID          string        `json:"run_id"`
	Start       traj.Waypoint `json:"start"`
	End         traj.Waypoint `json:"end"`
	SeqLen      int           `json:"seq_len"`
	Candidates  int           `json:"n_candidates"`
	TopK        int           `json:"top_k"`
	Diversity   float64       `json:"diversity"`
	DurationMs  float64       `json:"duration_ms"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Candidate is one ranked trajectory within a run.
type Candidate struct {
	Rank       int                    `json:"rank"`  // 1-based position after ranking
	Index      int                    `json:"index"` // slot in the generated batch
	Score      float64                `json:"score"`
	Valid      bool                   `json:"valid"`
	Metrics    traj.TrajectoryMetrics `json:"metrics"`
	Trajectory traj.Trajectory        `json:"waypoints"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// RecordRun stores a run and all of its ranked candidates in one
// transaction.
func (db *DB) RecordRun(run *Run, candidates []Candidate) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, start_x, start_y, start_z, end_x, end_y, end_z,
			seq_len, n_candidates, top_k, diversity, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Start.X, run.Start.Y, run.Start.Z,
		run.End.X, run.End.Y, run.End.Z,
		run.SeqLen, run.Candidates, run.TopK,
		run.Diversity, run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, c := range candidates {
		waypoints, err := json.Marshal(c.Trajectory)
		if err != nil {
			return fmt.Errorf("marshal waypoints for run %s rank %d: %w", run.ID, c.Rank, err)
		}
		_, err = tx.Exec(`
			INSERT INTO candidates (run_id, rank, candidate_index, score, valid,
				path_length, straight_line_distance, path_efficiency,
				avg_curvature, max_curvature, smoothness_score, endpoint_error,
				min_altitude, max_altitude, avg_altitude, avg_velocity, waypoints)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, c.Rank, c.Index, c.Score, c.Valid,
			c.Metrics.PathLength, c.Metrics.StraightLineDistance, c.Metrics.PathEfficiency,
			c.Metrics.AvgCurvature, c.Metrics.MaxCurvature, c.Metrics.SmoothnessScore,
			c.Metrics.EndpointError,
			c.Metrics.MinAltitude, c.Metrics.MaxAltitude, c.Metrics.AvgAltitude,
			c.Metrics.AvgVelocity, string(waypoints),
		)
		if err != nil {
			return fmt.Errorf("insert candidate %s/%d: %w", run.ID, c.Rank, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, start_x, start_y, start_z, end_x, end_y, end_z,
			seq_len, n_candidates, top_k, diversity, duration_ms, created_at
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID,
			&r.Start.X, &r.Start.Y, &r.Start.Z,
			&r.End.X, &r.End.Y, &r.End.Z,
			&r.SeqLen, &r.Candidates, &r.TopK,
			&r.Diversity, &r.DurationMs, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run and its candidates ordered by rank. A missing run
// yields sql.ErrNoRows.
func (db *DB) GetRun(runID string) (*Run, []Candidate, error) {
	var r Run
	err := db.QueryRow(`
		SELECT run_id, start_x, start_y, start_z, end_x, end_y, end_z,
			seq_len, n_candidates, top_k, diversity, duration_ms, created_at
		FROM runs WHERE run_id = ?`, runID).Scan(&r.ID,
		&r.Start.X, &r.Start.Y, &r.Start.Z,
		&r.End.X, &r.End.Y, &r.End.Z,
		&r.SeqLen, &r.Candidates, &r.TopK,
		&r.Diversity, &r.DurationMs, &r.CreatedAt,
	)
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.Query(`
		SELECT rank, candidate_index, score, valid,
			path_length, straight_line_distance, path_efficiency,
			avg_curvature, max_curvature, smoothness_score, endpoint_error,
			min_altitude, max_altitude, avg_altitude, avg_velocity, waypoints
		FROM candidates WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var waypoints string
		if err := rows.Scan(&c.Rank, &c.Index, &c.Score, &c.Valid,
			&c.Metrics.PathLength, &c.Metrics.StraightLineDistance, &c.Metrics.PathEfficiency,
			&c.Metrics.AvgCurvature, &c.Metrics.MaxCurvature, &c.Metrics.SmoothnessScore,
			&c.Metrics.EndpointError,
			&c.Metrics.MinAltitude, &c.Metrics.MaxAltitude, &c.Metrics.AvgAltitude,
			&c.Metrics.AvgVelocity, &waypoints,
		); err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal([]byte(waypoints), &c.Trajectory); err != nil {
			return nil, nil, fmt.Errorf("unmarshal waypoints for run %s rank %d: %w", runID, c.Rank, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return &r, candidates, nil
}
