package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stuttgart-things/repofleet/internal/manifest"
)

func makeRepos(n int) []*manifest.Repository {
	repos := make([]*manifest.Repository, n)
	for i := range repos {
		repos[i] = &manifest.Repository{Name: fmt.Sprintf("repo-%02d", i)}
	}
	return repos
}

func TestBatchBoundsConcurrency(t *testing.T) {
	repos := makeRepos(20)

	var inFlight, maxInFlight atomic.Int32
	errBoom := errors.New("boom")

	batch := Start(context.Background(), repos, Options{Concurrency: 5},
		func(ctx context.Context, repo *manifest.Repository) (string, error) {
			n := inFlight.Add(1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)

			if strings.HasSuffix(repo.Name, "3") {
				return "", errBoom
			}
			return repo.Name, nil
		})

	seen := map[string]int{}
	failures := 0
	for ev := range batch.Progress() {
		seen[ev.Repo.Name]++
		if ev.Err != nil {
			failures++
			continue
		}
		if ev.Result != ev.Repo.Name {
			t.Errorf("result %q does not belong to %q", ev.Result, ev.Repo.Name)
		}
	}

	if got := maxInFlight.Load(); got > 5 {
		t.Errorf("max in flight = %d, want <= 5", got)
	}
	if len(seen) != 20 {
		t.Errorf("expected events for 20 repos, got %d", len(seen))
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("repo %s got %d events", name, n)
		}
	}

	summary := batch.Wait()
	if summary.Total != 20 {
		t.Errorf("Total = %d, want 20", summary.Total)
	}
	// repo-03 and repo-13
	if summary.Failed != 2 || failures != 2 {
		t.Errorf("Failed = %d, events with errors = %d, want 2", summary.Failed, failures)
	}
	err := summary.Err()
	if !errors.Is(err, errBoom) {
		t.Errorf("expected joined error to wrap errBoom, got %v", err)
	}
	if !strings.Contains(err.Error(), "repo-03: boom") || !strings.Contains(err.Error(), "repo-13: boom") {
		t.Errorf("joined error should name each repo: %v", err)
	}
	if errs := summary.Errors(); len(errs) != 2 || !errors.Is(errs[0], errBoom) || !errors.Is(errs[1], errBoom) {
		t.Errorf("Errors() = %v, want one error per failed repo", errs)
	}

	// A closed channel is the completion signal: nothing more arrives.
	if _, ok := <-batch.Progress(); ok {
		t.Error("expected closed progress channel")
	}
}

func TestBatchEmpty(t *testing.T) {
	batch := Start(context.Background(), nil, Options{Concurrency: 3},
		func(ctx context.Context, repo *manifest.Repository) (int, error) {
			t.Error("action should not run")
			return 0, nil
		})

	for range batch.Progress() {
		t.Error("unexpected event")
	}
	summary := batch.Wait()
	if summary.Total != 0 || summary.Err() != nil {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestElapsedExcludesQueueWait(t *testing.T) {
	repos := makeRepos(2)
	release := make(chan struct{})

	batch := Start(context.Background(), repos, Options{Concurrency: 1},
		func(ctx context.Context, repo *manifest.Repository) (struct{}, error) {
			if repo.Name == "repo-00" {
				<-release
			}
			return struct{}{}, nil
		})

	time.Sleep(100 * time.Millisecond)
	close(release)

	for ev := range batch.Progress() {
		if ev.Repo.Name == "repo-01" && ev.Elapsed >= 100*time.Millisecond {
			t.Errorf("queued repo elapsed = %v, should not include wait", ev.Elapsed)
		}
		if ev.Repo.Name == "repo-00" && ev.Elapsed < 100*time.Millisecond {
			t.Errorf("blocked repo elapsed = %v, want >= 100ms", ev.Elapsed)
		}
	}
}

func TestStartsInInputOrder(t *testing.T) {
	repos := makeRepos(6)
	started := make(chan string, len(repos))

	batch := Start(context.Background(), repos, Options{Concurrency: 1},
		func(ctx context.Context, repo *manifest.Repository) (struct{}, error) {
			started <- repo.Name
			return struct{}{}, nil
		})
	batch.Wait()
	close(started)

	i := 0
	for name := range started {
		if name != repos[i].Name {
			t.Errorf("start %d = %s, want %s", i, name, repos[i].Name)
		}
		i++
	}
}

func TestWaitIsRepeatable(t *testing.T) {
	batch := Start(context.Background(), makeRepos(3), Options{},
		func(ctx context.Context, repo *manifest.Repository) (int, error) {
			return 1, nil
		})
	first := batch.Wait()
	second := batch.Wait()
	if first.Total != second.Total || first.Failed != second.Failed {
		t.Errorf("Wait() not stable: %+v vs %+v", first, second)
	}
}
