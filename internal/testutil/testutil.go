// Package testutil provides shared test assertions and trajectory
// fixtures used across packages.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kestrel-uas/trajgen/internal/traj"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta fails the test if got differs from want by more than tol.
func AssertInDelta(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("got %v, want %v (tolerance %v)", got, want, tol)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// StraightTrajectory returns n waypoints evenly spaced between start and
// end. It has curvature 0 everywhere and path efficiency 1.
func StraightTrajectory(start, end traj.Waypoint, n int) traj.Trajectory {
	if n < 2 {
		n = 2
	}
	out := make(traj.Trajectory, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		out[i] = traj.Waypoint{
			X: start.X + f*(end.X-start.X),
			Y: start.Y + f*(end.Y-start.Y),
			Z: start.Z + f*(end.Z-start.Z),
		}
	}
	return out
}

// ArcTrajectory returns n waypoints from start to end with a sinusoidal
// lateral bow of the given amplitude, useful when a test needs nonzero
// curvature without hand-writing waypoints.
func ArcTrajectory(start, end traj.Waypoint, n int, amplitude float64) traj.Trajectory {
	out := StraightTrajectory(start, end, n)
	// Interior points only: sin(pi) is not exactly zero in floating point,
	// and the endpoints must stay exactly start and end.
	for i := 1; i < len(out)-1; i++ {
		f := float64(i) / float64(len(out)-1)
		out[i].Y += amplitude * math.Sin(math.Pi*f)
	}
	return out
}
