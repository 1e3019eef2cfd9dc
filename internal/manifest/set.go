package manifest

import (
	"sort"
)

// Set is the merged collection of repositories, keyed by name. It is built
// once by a Loader and treated as read-only afterwards.
type Set struct {
	byName map[string]*Repository
}

// NewSet returns an empty Set
func NewSet() *Set {
	return &Set{byName: make(map[string]*Repository)}
}

// Get returns the repository with the given name
func (s *Set) Get(name string) (*Repository, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Len returns the number of repositories
func (s *Set) Len() int { return len(s.byName) }

// List returns all repositories sorted by name.
func (s *Set) List() []*Repository {
	out := make([]*Repository, 0, len(s.byName))
	for _, r := range s.byName {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted repository names
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// merge adds repo to the set. When the name is already present the label
// sets are combined key by key; the same key with a different value is a
// ConflictError.
func (s *Set) merge(repo *Repository, manifestName string) error {
	existing, ok := s.byName[repo.Name]
	if !ok {
		s.byName[repo.Name] = repo
		return nil
	}

	for _, key := range repo.Labels.Keys() {
		incoming := repo.Labels[key]
		current, ok := existing.Labels[key]
		if !ok {
			continue
		}
		if !current.Equal(incoming) {
			return &ConflictError{
				Repo:     repo.Name,
				Key:      key,
				Existing: current,
				Incoming: incoming,
				Manifest: manifestName,
			}
		}
	}
	for _, key := range repo.Labels.Keys() {
		if _, ok := existing.Labels[key]; !ok {
			existing.Labels[key] = repo.Labels[key]
		}
	}

	if len(repo.Tags) > 0 {
		existing.Tags = uniqueSorted(append(existing.Tags, repo.Tags...))
	}
	for _, m := range repo.Manifests {
		if !existing.HasManifest(m) {
			existing.Manifests = append(existing.Manifests, m)
		}
	}
	return nil
}
