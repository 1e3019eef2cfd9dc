package gitops

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/stuttgart-things/repofleet/internal/manifest"
)

// NotDirError is returned when the clone target exists but is a file
type NotDirError struct {
	Dir string
}

func (e *NotDirError) Error() string {
	return fmt.Sprintf("%q exists and is not a directory", e.Dir)
}

// NotCloneError is returned when the clone target is a directory without a
// readable origin remote
type NotCloneError struct {
	Dir  string
	Repo string
	Err  error
}

func (e *NotCloneError) Error() string {
	return fmt.Sprintf("%q exists and is not a git clone of repo %q: %v", e.Dir, e.Repo, e.Err)
}

func (e *NotCloneError) Unwrap() error { return e.Err }

// WrongOriginError is returned when the clone target is a clone of some
// other repository. The directory is left alone.
type WrongOriginError struct {
	Dir  string
	Repo string
	URL  string
}

func (e *WrongOriginError) Error() string {
	return fmt.Sprintf("%q is a clone of a repo other than %q: origin url is %q", e.Dir, e.Repo, e.URL)
}

// CloneError wraps a failed clone with the repo and target
type CloneError struct {
	Repo string
	Dir  string
	URL  string
	Err  error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("could not clone repo %q (%s) into %q: %v", e.Repo, e.URL, e.Dir, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// Checker makes sure a repository is cloned at a directory.
type Checker struct {
	Cloner Cloner
	// HTTPS clones with the HTTPS URL instead of the SSH one. Either URL is
	// accepted as a valid origin regardless.
	HTTPS bool
}

// EnsureCloned clones repo into dir unless dir already holds a clone of it,
// and reports which of the two happened.
//
// Only the existence of dir and its origin URL are checked. dir need not be
// the top of a working tree: a directory inside some other clone is judged by
// that clone's origin.
func (c Checker) EnsureCloned(ctx context.Context, repo *manifest.Repository, dir string) (bool, error) {
	logger := log.With().Str("repo", repo.Name).Str("dir", dir).Logger()

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		// fall through to clone
	case err != nil:
		return false, fmt.Errorf("unexpected error checking if %q exists: %w", dir, err)
	case !info.IsDir():
		return false, &NotDirError{Dir: dir}
	default:
		origin, err := c.Cloner.OriginURL(ctx, dir)
		if err != nil {
			return false, &NotCloneError{Dir: dir, Repo: repo.Name, Err: err}
		}
		if origin != repo.SSHCloneURL && origin != repo.HTTPSCloneURL {
			return false, &WrongOriginError{Dir: dir, Repo: repo.Name, URL: origin}
		}
		logger.Debug().Str("origin", origin).Msg("Already cloned")
		return true, nil
	}

	url := repo.SSHCloneURL
	if c.HTTPS {
		url = repo.HTTPSCloneURL
	}
	logger.Debug().Str("url", url).Msg("Cloning")
	if err := c.Cloner.Clone(ctx, url, dir); err != nil {
		return false, &CloneError{Repo: repo.Name, Dir: dir, URL: url, Err: err}
	}
	return false, nil
}
