package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stuttgart-things/repofleet/internal/labels"
)

const maxParallelReads = 8

// file is the on-disk manifest layout. Repository records are kept raw so
// their keys can be validated.
type file struct {
	Repositories *[]map[string]json.RawMessage `json:"repositories"`
	Defaults     *struct {
		Labels map[string]any `json:"labels"`
	} `json:"defaults"`
}

// Loader reads manifests and merges their repositories.
type Loader struct {
	Hosting Hosting

	// ReadFile defaults to os.ReadFile
	ReadFile func(path string) ([]byte, error)
}

// LoadAll loads every enabled manifest concurrently and merges the declared
// repositories by name. Merging happens in ref order once all reads are done,
// so conflicts are reported the same way whatever order the reads finish in.
func (l Loader) LoadAll(ctx context.Context, refs []Ref) (*Set, error) {
	var enabled []Ref
	for _, ref := range refs {
		if ref.Disabled {
			log.Debug().Str("manifest", ref.Name).Msg("Skipping disabled manifest")
			continue
		}
		enabled = append(enabled, ref)
	}

	decls := make([][]*Repository, len(enabled))
	errs := make([]error, len(enabled))

	var g errgroup.Group
	g.SetLimit(maxParallelReads)
	for i, ref := range enabled {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			repos, err := l.Load(ref)
			errs[i] = err
			decls[i] = repos
			return err
		})
	}
	if err := g.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}

	set := NewSet()
	for i, repos := range decls {
		for _, repo := range repos {
			if err := set.merge(repo, enabled[i].displayName()); err != nil {
				return nil, err
			}
		}
	}

	log.Debug().
		Int("manifests", len(enabled)).
		Int("repos", set.Len()).
		Msg("Loaded manifests")
	return set, nil
}

// Load reads a single manifest and returns its validated, normalized
// repositories. Duplicate names inside one manifest are not merged here.
func (l Loader) Load(ref Ref) ([]*Repository, error) {
	readFile := l.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	data, err := readFile(ref.Path)
	if err != nil {
		return nil, &IOError{Path: ref.Path, Err: err}
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Path: ref.Path, Err: err}
	}
	if f.Repositories == nil {
		return nil, &SchemaError{Path: ref.Path, Reason: `missing "repositories"`}
	}

	var defaults labels.Set
	if f.Defaults != nil {
		defaults = make(labels.Set, len(f.Defaults.Labels))
		for k, raw := range f.Defaults.Labels {
			v, err := labels.FromAny(raw)
			if err != nil {
				return nil, &SchemaError{Path: ref.Path, Reason: fmt.Sprintf("default label %q: %v", k, err)}
			}
			defaults[k] = v
		}
	}

	repos := make([]*Repository, 0, len(*f.Repositories))
	for _, rec := range *f.Repositories {
		repo, err := decodeRecord(ref.Path, rec)
		if err != nil {
			return nil, err
		}
		for k, v := range defaults {
			if _, ok := repo.Labels[k]; !ok {
				repo.Labels[k] = v
			}
		}
		l.normalize(repo, ref.displayName())
		repos = append(repos, repo)
	}
	return repos, nil
}

func decodeRecord(path string, rec map[string]json.RawMessage) (*Repository, error) {
	repo := &Repository{Labels: labels.Set{}}

	rawName, ok := rec["name"]
	if !ok {
		return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("repo is missing \"name\": %s", recordJSON(rec))}
	}
	if err := json.Unmarshal(rawName, &repo.Name); err != nil || repo.Name == "" {
		return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("repo \"name\" must be a non-empty string: %s", recordJSON(rec))}
	}

	var unexpected []string
	for k := range rec {
		if k != "name" && k != "labels" && k != "tags" {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, &SchemaError{Path: path, Repo: repo.Name, Attributes: unexpected}
	}

	rawLabels, hasLabels := rec["labels"]
	rawTags, hasTags := rec["tags"]
	if hasLabels && hasTags {
		return nil, &SchemaError{Path: path, Repo: repo.Name, Reason: `"labels" and "tags" cannot be combined`}
	}

	if hasLabels {
		var decoded map[string]any
		if err := json.Unmarshal(rawLabels, &decoded); err != nil {
			return nil, &SchemaError{Path: path, Repo: repo.Name, Reason: fmt.Sprintf(`"labels" must be an object: %v`, err)}
		}
		for k, raw := range decoded {
			v, err := labels.FromAny(raw)
			if err != nil {
				return nil, &SchemaError{Path: path, Repo: repo.Name, Reason: fmt.Sprintf("label %q: %v", k, err)}
			}
			repo.Labels[k] = v
		}
	}

	if hasTags {
		if err := json.Unmarshal(rawTags, &repo.Tags); err != nil {
			return nil, &SchemaError{Path: path, Repo: repo.Name, Reason: fmt.Sprintf(`"tags" must be a list of strings: %v`, err)}
		}
		repo.Tags = uniqueSorted(repo.Tags)
		// A tag is a boolean label.
		for _, tag := range repo.Tags {
			repo.Labels[tag] = labels.Bool(true)
		}
	}

	return repo, nil
}

func (l Loader) normalize(repo *Repository, manifestName string) {
	repo.Manifests = []string{manifestName}
	repo.HTMLURL = l.Hosting.HTMLURL(repo.Name)
	repo.SSHCloneURL = l.Hosting.SSHCloneURL(repo.Name)
	repo.HTTPSCloneURL = l.Hosting.HTTPSCloneURL(repo.Name)
}

func (r Ref) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}

func recordJSON(rec map[string]json.RawMessage) string {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Sprintf("%v", rec)
	}
	return string(b)
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
