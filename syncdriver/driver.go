// Package syncdriver runs the concurrent sync of planned index operations
// against the search store: a single producer feeding a bounded queue,
// drained by a fixed pool of workers, each issuing chunked bulk requests
// with retry-on-timeout backoff. The concurrency shape (buffered channel +
// sync.WaitGroup workers + atomic stats) follows the teacher's
// tracing.AsyncExporter, generalized here from trace batches to index-op
// chunks.
package syncdriver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"sgengine.dev/engineerr"
	"sgengine.dev/indexplanner"
	"sgengine.dev/searchstore"
)

// Config controls the sync driver's concurrency and chunking. Field names
// and defaults mirror spec.md §4.7.
type Config struct {
	ChunkSize        int           // ops per bulk request
	WorkerCount      int           // concurrent in-flight bulk requests
	BufferMultiplier int           // queue depth = WorkerCount * BufferMultiplier
	RetryLimit       int           // max retry attempts per chunk, on timeout only
	RetryBaseDelay   time.Duration // base of the exponential backoff (1s, 2s, 4s, ...)
	RateLimit        rate.Limit    // optional cap on chunk dispatch rate; 0 disables
}

// DefaultConfig returns the defaults named in spec.md §4.7.
func DefaultConfig() Config {
	return Config{
		ChunkSize:        500,
		WorkerCount:      4,
		BufferMultiplier: 2,
		RetryLimit:       3,
		RetryBaseDelay:   time.Second,
	}
}

// Stats tallies the outcome of a completed or failed Run.
type Stats struct {
	ChunksSucceeded int64
	ChunksFailed    int64
	OpsIndexed      int64
	OpsDeleted      int64
}

// Driver pushes planned index operations through the search store,
// suspending index visibility for the duration of the run and restoring it
// only on a clean finish.
type Driver struct {
	client  *searchstore.Client
	config  Config
	limiter *rate.Limiter
}

// New builds a Driver. config.ChunkSize, WorkerCount, and BufferMultiplier
// fall back to DefaultConfig's values when zero.
func New(client *searchstore.Client, config Config) *Driver {
	defaults := DefaultConfig()
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaults.ChunkSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.BufferMultiplier <= 0 {
		config.BufferMultiplier = defaults.BufferMultiplier
	}
	if config.RetryLimit <= 0 {
		config.RetryLimit = defaults.RetryLimit
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = defaults.RetryBaseDelay
	}

	d := &Driver{client: client, config: config}
	if config.RateLimit > 0 {
		d.limiter = rate.NewLimiter(config.RateLimit, config.WorkerCount)
	}
	return d
}

// Run drains ops as they arrive on the channel, batching them into chunks of
// config.ChunkSize and dispatching across config.WorkerCount workers reading
// from a single shared queue of depth WorkerCount*BufferMultiplier. ops is
// consumed incrementally rather than collected up front, so a slow or
// cancelled run stops pulling from the planner that feeds it — the
// back-pressure spec.md §9 asks for runs end to end: a full queue blocks
// this loop, which blocks the channel send on the other end of ops.
//
// Indices is the index pattern(s) the run may touch; visibility is
// suspended on them up front, before the first chunk is dispatched. On a
// clean run every index is explicitly refreshed and its settings restored.
// On any chunk failure, the run aborts without refreshing or restoring
// settings, so partially-written documents stay invisible until a later
// successful sync (spec.md §4.7's visibility discipline). An ops channel
// that closes without ever producing a value is a no-op: visibility is
// never even suspended.
func (d *Driver) Run(ctx context.Context, indices []string, ops <-chan indexplanner.Op) (Stats, error) {
	var stats Stats

	first, ok := <-ops
	if !ok {
		return stats, nil
	}

	if err := d.client.SuspendVisibility(ctx, indices); err != nil {
		return stats, fmt.Errorf("syncdriver: failed to suspend index visibility: %w", err)
	}

	queue := make(chan []indexplanner.Op, d.config.WorkerCount*d.config.BufferMultiplier)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var firstErr error
	var errOnce sync.Once
	recordErr := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < d.config.WorkerCount; i++ {
		wg.Add(1)
		go d.worker(runCtx, queue, &stats, recordErr, &wg)
	}

	batch := make([]indexplanner.Op, 0, d.config.ChunkSize)
	batch = append(batch, first)

	// send flushes the current batch onto the shared queue, stopping early
	// if a worker has already recorded a failure.
	send := func() bool {
		if len(batch) == 0 {
			return true
		}
		c := batch
		batch = make([]indexplanner.Op, 0, d.config.ChunkSize)
		select {
		case queue <- c:
			return true
		case <-runCtx.Done():
			return false
		}
	}

producer:
	for op := range ops {
		batch = append(batch, op)
		if len(batch) >= d.config.ChunkSize {
			if !send() {
				break producer
			}
		}
	}
	send()
	close(queue)

	wg.Wait()

	if firstErr != nil {
		return stats, firstErr
	}

	if err := d.client.Refresh(ctx, indices); err != nil {
		return stats, fmt.Errorf("syncdriver: failed to refresh indices after sync: %w", err)
	}
	if err := d.client.RestoreVisibility(ctx, indices); err != nil {
		return stats, fmt.Errorf("syncdriver: failed to restore index visibility after sync: %w", err)
	}

	return stats, nil
}

func (d *Driver) worker(ctx context.Context, queue <-chan []indexplanner.Op, stats *Stats, recordErr func(error), wg *sync.WaitGroup) {
	defer wg.Done()

	for c := range queue {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
		}

		result, err := d.sendWithRetry(ctx, c)
		if err != nil {
			atomic.AddInt64(&stats.ChunksFailed, 1)
			recordErr(fmt.Errorf("syncdriver: chunk of %d op(s) failed: %w", len(c), err))
			return
		}

		atomic.AddInt64(&stats.ChunksSucceeded, 1)
		atomic.AddInt64(&stats.OpsIndexed, int64(result.Indexed))
		atomic.AddInt64(&stats.OpsDeleted, int64(result.Deleted))
	}
}

// sendWithRetry issues one chunk, retrying only on transport timeouts, up to
// config.RetryLimit attempts with exponential backoff starting at
// RetryBaseDelay (1s, 2s, 4s by default). A bulk response carrying item-level
// errors is never retried — engineerr.BulkOpException surfaces immediately,
// since retrying would re-apply operations whose failure was not transient.
func (d *Driver) sendWithRetry(ctx context.Context, ops []indexplanner.Op) (*searchstore.BulkResult, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.config.RetryBaseDelay
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	policy := backoff.WithMaxRetries(exp, uint64(d.config.RetryLimit))

	var result *searchstore.BulkResult
	operation := func() error {
		var err error
		result, err = d.client.Bulk(ctx, ops)
		if err == nil {
			return nil
		}
		if isRetryableTimeout(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func isRetryableTimeout(err error) bool {
	transportErr, ok := err.(*engineerr.TransportError)
	return ok && transportErr.IsTimeout()
}
