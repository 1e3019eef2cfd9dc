package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stuttgart-things/repofleet/internal/manifest"
)

const (
	DefaultCloneConcurrency = 5
	DefaultExecConcurrency  = 10
)

// Action is run once per repository. It runs concurrently with the actions
// of other repositories and must not share mutable state with them without
// its own synchronization.
type Action[T any] func(ctx context.Context, repo *manifest.Repository) (T, error)

// Options configures a batch
type Options struct {
	// Concurrency is the number of actions allowed in flight at once; values
	// below 1 mean 1.
	Concurrency int
}

// Progress is emitted exactly once per repository when its action returns.
type Progress[T any] struct {
	Repo    *manifest.Repository
	Elapsed time.Duration
	Result  T
	Err     error
}

// Summary describes a finished batch
type Summary struct {
	Total   int
	Failed  int
	Elapsed time.Duration

	errs []error
}

// Err joins every per-repo error, each prefixed with its repo name. It is
// nil when nothing failed.
func (s Summary) Err() error {
	return errors.Join(s.errs...)
}

// Errors returns the per-repo errors in the order they were observed
func (s Summary) Errors() []error { return s.errs }

// Batch is one run of an action over a list of repositories. A Batch holds
// its own queue and counters and is never reused.
type Batch[T any] struct {
	progress chan Progress[T]
	done     chan struct{}

	mu      sync.Mutex
	summary Summary
}

// Start runs action for every repo with at most opts.Concurrency actions in
// flight. Repos are started in input order; completion order is not defined.
// The Progress channel is closed after the last event, and one failure never
// cancels the others. Start does not impose a timeout: a hung action holds
// its slot until ctx is done, and only if the action honours ctx.
func Start[T any](ctx context.Context, repos []*manifest.Repository, opts Options, action Action[T]) *Batch[T] {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	b := &Batch[T]{
		progress: make(chan Progress[T], len(repos)),
		done:     make(chan struct{}),
	}
	b.summary.Total = len(repos)

	logger := log.With().
		Int("repos", len(repos)).
		Int("concurrency", concurrency).
		Logger()
	logger.Debug().Msg("Starting batch")

	go func() {
		start := time.Now()

		var (
			wg  sync.WaitGroup
			sem = make(chan struct{}, concurrency)
		)
		for _, repo := range repos {
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				began := time.Now()
				result, err := action(ctx, repo)
				ev := Progress[T]{
					Repo:    repo,
					Elapsed: time.Since(began),
					Result:  result,
					Err:     err,
				}

				if err != nil {
					b.mu.Lock()
					b.summary.Failed++
					b.summary.errs = append(b.summary.errs, fmt.Errorf("%s: %w", repo.Name, err))
					b.mu.Unlock()
				}
				logger.Debug().
					Str("repo", repo.Name).
					Dur("duration", ev.Elapsed).
					Err(err).
					Msg("Action finished")

				b.progress <- ev
			}()
		}
		wg.Wait()

		b.mu.Lock()
		b.summary.Elapsed = time.Since(start)
		b.mu.Unlock()

		logger.Debug().
			Int("failed", b.summary.Failed).
			Dur("duration", b.summary.Elapsed).
			Msg("Batch finished")

		close(b.progress)
		close(b.done)
	}()

	return b
}

// Progress returns the per-repo event stream. It is buffered for every repo
// so the batch never blocks on a slow or absent reader.
func (b *Batch[T]) Progress() <-chan Progress[T] {
	return b.progress
}

// Wait blocks until every action has returned and gives the batch summary.
// It may be called any number of times.
func (b *Batch[T]) Wait() Summary {
	<-b.done
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary
}
