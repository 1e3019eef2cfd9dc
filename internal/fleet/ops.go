package fleet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stuttgart-things/repofleet/internal/gitops"
	"github.com/stuttgart-things/repofleet/internal/manifest"
	"github.com/stuttgart-things/repofleet/internal/runner"
	"github.com/stuttgart-things/repofleet/internal/shell"
)

var (
	pullCmds = []string{
		"git fetch --tags --force --prune",
		"git rebase --quiet",
	}
	submoduleCmds = []string{
		"git submodule --quiet sync --recursive",
		"git submodule --quiet update --init --recursive",
	}
)

// CloneDir is where repo lives under baseDir
func CloneDir(baseDir string, repo *manifest.Repository) string {
	return filepath.Join(baseDir, repo.Name)
}

// CloneResult is the outcome of one clone
type CloneResult struct {
	Dir           string `json:"dir"`
	AlreadyCloned bool   `json:"alreadyCloned"`
}

// CloneRepos makes sure every repo is cloned under baseDir.
func CloneRepos(ctx context.Context, checker gitops.Checker, repos []*manifest.Repository, baseDir string, concurrency int) *runner.Batch[CloneResult] {
	if concurrency <= 0 {
		concurrency = runner.DefaultCloneConcurrency
	}
	return runner.Start(ctx, repos, runner.Options{Concurrency: concurrency},
		func(ctx context.Context, repo *manifest.Repository) (CloneResult, error) {
			dir := CloneDir(baseDir, repo)
			already, err := checker.EnsureCloned(ctx, repo, dir)
			return CloneResult{Dir: dir, AlreadyCloned: already}, err
		})
}

// ExecOptions configures ExecInClones
type ExecOptions struct {
	Command string
	// Precondition, when set, runs first; the repo is skipped unless it
	// exits zero. A precondition cut short by ctx is a failure, not a skip.
	Precondition string
	Concurrency  int
}

// ExecResult is the outcome of a command in one clone
type ExecResult struct {
	Dir string
	shell.Result
	Skipped bool
}

// ExecInClones runs opts.Command in the clone of every repo. A non-zero exit
// is reported as the repo's error with the captured output still in the
// result.
func ExecInClones(ctx context.Context, sh shell.Runner, repos []*manifest.Repository, baseDir string, opts ExecOptions) *runner.Batch[ExecResult] {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runner.DefaultExecConcurrency
	}
	return runner.Start(ctx, repos, runner.Options{Concurrency: concurrency},
		func(ctx context.Context, repo *manifest.Repository) (ExecResult, error) {
			res := ExecResult{Dir: CloneDir(baseDir, repo)}

			if opts.Precondition != "" {
				pre, err := sh.Run(ctx, opts.Precondition, res.Dir)
				var exitErr *shell.ExitError
				switch {
				case err == nil:
				case ctx.Err() != nil:
					res.Result = pre
					return res, fmt.Errorf("precondition: %w: %w", ctx.Err(), err)
				case errors.As(err, &exitErr):
					res.Result = pre
					res.Skipped = true
					return res, nil
				default:
					return res, fmt.Errorf("precondition: %w", err)
				}
			}

			out, err := sh.Run(ctx, opts.Command, res.Dir)
			res.Result = out
			return res, err
		})
}

// ExistingClones keeps the repos whose clone directory exists under
// baseDir. Only existence is checked, not that the directory is a clone of
// that repo.
func ExistingClones(repos []*manifest.Repository, baseDir string) ([]*manifest.Repository, error) {
	var out []*manifest.Repository
	for _, repo := range repos {
		dir := CloneDir(baseDir, repo)
		_, err := os.Stat(dir)
		switch {
		case err == nil:
			out = append(out, repo)
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("unexpected error stating %q: %w", dir, err)
		}
	}
	return out, nil
}

// PullCommand is the shell command that updates a clone
func PullCommand(submodules bool) string {
	cmds := pullCmds
	if submodules {
		cmds = append(append([]string{}, pullCmds...), submoduleCmds...)
	}
	return strings.Join(cmds, " && ")
}

// StatusOfClones reads the git status of every clone
func StatusOfClones(ctx context.Context, repos []*manifest.Repository, baseDir string, concurrency int) *runner.Batch[gitops.CloneStatus] {
	if concurrency <= 0 {
		concurrency = runner.DefaultExecConcurrency
	}
	return runner.Start(ctx, repos, runner.Options{Concurrency: concurrency},
		func(ctx context.Context, repo *manifest.Repository) (gitops.CloneStatus, error) {
			return gitops.Status(CloneDir(baseDir, repo))
		})
}
