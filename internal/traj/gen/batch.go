package gen

import (
	"context"
	"errors"
	"sync"

	"github.com/kestrel-uas/trajgen/internal/monitoring"
	"github.com/kestrel-uas/trajgen/internal/traj"
)

// defaultMaxWorkers caps batch fan-out when no worker count is configured.
// Model invocations are CPU-bound, so more workers than cores just thrash.
const defaultMaxWorkers = 4

// Candidate pairs a generated trajectory with its slot in the requested
// batch. The slot index survives out-of-order completion so that ranking
// and labeling stay associated with the right candidate.
type Candidate struct {
	Index      int
	Trajectory traj.Trajectory
}

// GenerateBatch produces n candidate trajectories with independent latent
// draws, fanning out over a bounded worker pool. Candidates are returned in
// ascending slot order. They are not guaranteed pairwise distinct;
// diversity is a statistical property of the draws, not an enforced one.
//
// If the context expires mid-batch, candidates that already completed are
// returned and the rest are dropped. Only when nothing completed does the
// context error surface. Any other generation failure aborts the batch.
func (g *Generator) GenerateBatch(ctx context.Context, start, end traj.Waypoint, n int) ([]Candidate, error) {
	if g == nil || g.model == nil {
		return nil, ErrNotInitialized
	}
	if n <= 0 {
		return nil, nil
	}

	workers := g.workers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	if workers > n {
		workers = n
	}

	results := make([]traj.Trajectory, n)
	jobs := make(chan int)

	// A failed worker cancels the batch so the feed loop and the other
	// workers stop instead of waiting out the deadline.
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				t, err := g.Generate(batchCtx, start, end)
				if err != nil {
					if !isContextErr(err) {
						recordErr(err)
					}
					return
				}
				results[i] = t
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-batchCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	completed := make([]Candidate, 0, n)
	for i, t := range results {
		if t != nil {
			completed = append(completed, Candidate{Index: i, Trajectory: t})
		}
	}
	if len(completed) < n {
		if len(completed) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		monitoring.Logf("batch deadline: returning %d of %d candidates", len(completed), n)
	}
	return completed, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
