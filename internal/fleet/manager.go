package fleet

import (
	"context"
	"fmt"

	"github.com/stuttgart-things/repofleet/internal/config"
	"github.com/stuttgart-things/repofleet/internal/manifest"
	"github.com/stuttgart-things/repofleet/internal/selection"
)

// NotFoundError is returned by Repo for an unknown name
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no such repo: %q", e.Name)
}

// Manager answers repository queries for one config. Loaded manifests are
// cached until Reload.
type Manager struct {
	cfg   *config.Config
	cache *manifest.Cache
}

// New returns a Manager over the manifests of cfg
func New(cfg *config.Config) *Manager {
	loader := manifest.Loader{Hosting: cfg.Hosting}
	return &Manager{cfg: cfg, cache: manifest.NewCache(loader, cfg.Manifests)}
}

// Config returns the config the manager was built from
func (m *Manager) Config() *config.Config { return m.cfg }

// Unconfigured reports whether no manifest would be loaded at all
func (m *Manager) Unconfigured() bool {
	return len(m.cfg.Enabled()) == 0
}

// Repos returns every known repository sorted by name
func (m *Manager) Repos(ctx context.Context) ([]*manifest.Repository, error) {
	set, err := m.cache.Repos(ctx)
	if err != nil {
		return nil, err
	}
	return set.List(), nil
}

// ListRepos returns the repositories matching q sorted by name
func (m *Manager) ListRepos(ctx context.Context, q selection.Query) ([]*manifest.Repository, error) {
	repos, err := m.Repos(ctx)
	if err != nil {
		return nil, err
	}
	return selection.Select(repos, q)
}

// Repo returns the repository with exactly this name
func (m *Manager) Repo(ctx context.Context, name string) (*manifest.Repository, error) {
	set, err := m.cache.Repos(ctx)
	if err != nil {
		return nil, err
	}
	repo, ok := set.Get(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return repo, nil
}

// Reload drops the cached manifests
func (m *Manager) Reload() { m.cache.Invalidate() }
