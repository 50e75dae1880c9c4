package trajdb

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/kestrel-uas/trajgen/internal/testutil"
	"github.com/kestrel-uas/trajgen/internal/traj"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun(id string) (*Run, []Candidate) {
	start := traj.Waypoint{X: 0, Y: 0, Z: 100}
	end := traj.Waypoint{X: 500, Y: 200, Z: 150}
	run := &Run{
		ID:         id,
		Start:      start,
		End:        end,
		SeqLen:     16,
		Candidates: 3,
		TopK:       2,
		Diversity:  12.5,
		DurationMs: 41.7,
	}

	var candidates []Candidate
	for rank := 1; rank <= 2; rank++ {
		trj := testutil.StraightTrajectory(start, end, 16)
		m := traj.EvaluateTrajectory(trj, end)
		candidates = append(candidates, Candidate{
			Rank:       rank,
			Index:      rank - 1,
			Score:      1.0 / float64(rank),
			Valid:      true,
			Metrics:    m,
			Trajectory: trj,
		})
	}
	return run, candidates
}

func TestRecordAndGetRun(t *testing.T) {
	db := newTestDB(t)

	run, candidates := testRun(NewRunID())
	if err := db.RecordRun(run, candidates); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, gotCandidates, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("run ID = %s, want %s", got.ID, run.ID)
	}
	if got.Start != run.Start || got.End != run.End {
		t.Errorf("endpoints = %v -> %v, want %v -> %v", got.Start, got.End, run.Start, run.End)
	}
	if got.Diversity != run.Diversity {
		t.Errorf("diversity = %v, want %v", got.Diversity, run.Diversity)
	}
	if len(gotCandidates) != len(candidates) {
		t.Fatalf("got %d candidates, want %d", len(gotCandidates), len(candidates))
	}
	for i, c := range gotCandidates {
		want := candidates[i]
		if c.Rank != want.Rank || c.Index != want.Index {
			t.Errorf("candidate %d: rank/index = %d/%d, want %d/%d", i, c.Rank, c.Index, want.Rank, want.Index)
		}
		if c.Score != want.Score {
			t.Errorf("candidate %d: score = %v, want %v", i, c.Score, want.Score)
		}
		if len(c.Trajectory) != len(want.Trajectory) {
			t.Errorf("candidate %d: %d waypoints, want %d", i, len(c.Trajectory), len(want.Trajectory))
		}
		if c.Metrics.PathLength != want.Metrics.PathLength {
			t.Errorf("candidate %d: path length = %v, want %v", i, c.Metrics.PathLength, want.Metrics.PathLength)
		}
	}
}

func TestGetRunMissing(t *testing.T) {
	db := newTestDB(t)

	_, _, err := db.GetRun("no-such-run")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetRun on missing run = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns(t *testing.T) {
	db := newTestDB(t)

	ids := []string{NewRunID(), NewRunID(), NewRunID()}
	for _, id := range ids {
		run, candidates := testRun(id)
		if err := db.RecordRun(run, candidates); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != len(ids) {
		t.Fatalf("got %d runs, want %d", len(runs), len(ids))
	}

	limited, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d runs with limit 2, want 2", len(limited))
	}
}

func TestRecordRunDuplicateID(t *testing.T) {
	db := newTestDB(t)

	run, candidates := testRun(NewRunID())
	if err := db.RecordRun(run, candidates); err != nil {
		t.Fatalf("first RecordRun failed: %v", err)
	}
	if err := db.RecordRun(run, candidates); err == nil {
		t.Error("expected error recording duplicate run ID, got nil")
	}
}

func TestMigrateVersionFresh(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion("../../db/migrations")
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("fresh db version = %d dirty = %v, want 0 false", version, dirty)
	}
}

func TestAttachAdminRoutesTailsql(t *testing.T) {
	db := newTestDB(t)

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code == http.StatusNotFound {
		t.Error("expected /debug/tailsql/ to be registered, got 404")
	}
}
