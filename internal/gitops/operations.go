package gitops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog/log"
)

// Cloner is the version control capability the clone checker needs.
type Cloner interface {
	// Clone creates a clone of url at dir, which must not exist yet
	Clone(ctx context.Context, url, dir string) error
	// OriginURL returns the fetch URL of the "origin" remote of the
	// repository containing dir
	OriginURL(ctx context.Context, dir string) (string, error)
}

// GoGit clones in-process with go-git.
type GoGit struct {
	// Auth is used for http(s) URLs only; SSH URLs go through the agent.
	Auth *http.BasicAuth
	// Progress receives the remote's sideband output, if set
	Progress io.Writer
}

// NewGoGit returns a go-git cloner that authenticates HTTPS clones when both
// user and token are set
func NewGoGit(user, token string) *GoGit {
	g := &GoGit{}
	if user != "" && token != "" {
		g.Auth = &http.BasicAuth{
			Username: user,
			Password: token,
		}
	}
	return g
}

func (g *GoGit) Clone(ctx context.Context, url, dir string) error {
	_, statErr := os.Stat(dir)
	created := os.IsNotExist(statErr)

	cloneOpts := &git.CloneOptions{
		URL:      url,
		Progress: g.Progress,
	}
	if g.Auth != nil && isHTTP(url) {
		cloneOpts.Auth = g.Auth
	}

	log.Debug().Str("url", url).Str("dir", dir).Msg("Cloning with go-git")
	if _, err := git.PlainCloneContext(ctx, dir, false, cloneOpts); err != nil {
		if created {
			os.RemoveAll(dir)
		}
		return fmt.Errorf("cloning repository: %w", err)
	}
	return nil
}

// OriginURL looks for the repository at dir or any of its parents, the same
// way `git -C dir` does.
func (g *GoGit) OriginURL(ctx context.Context, dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", fmt.Errorf("no such remote 'origin'")
		}
		return "", fmt.Errorf("getting origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote 'origin' has no URL")
	}
	return urls[0], nil
}

func isHTTP(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}

var _ Cloner = (*GoGit)(nil)
