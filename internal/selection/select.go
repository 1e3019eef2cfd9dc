package selection

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/stuttgart-things/repofleet/internal/labels"
	"github.com/stuttgart-things/repofleet/internal/manifest"
)

// Query narrows a repository set. Names are name globs combined as a union;
// LabelSelectors are combined as an intersection. An empty field does not
// filter.
type Query struct {
	Names          []string
	LabelSelectors []string
}

// IsEmpty reports whether the query filters nothing
func (q Query) IsEmpty() bool {
	return len(q.Names) == 0 && len(q.LabelSelectors) == 0
}

// Select returns the repos matching q in their input order. Every selector
// is parsed before any filtering happens, so a syntax error yields no
// partial result.
func Select(repos []*manifest.Repository, q Query) ([]*manifest.Repository, error) {
	selectors := make([]labels.Selector, 0, len(q.LabelSelectors))
	for _, raw := range q.LabelSelectors {
		sel, err := labels.ParseSelector(raw)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	if q.IsEmpty() {
		return repos, nil
	}

	out := repos
	if len(q.Names) > 0 {
		before := len(out)
		out = filter(out, func(r *manifest.Repository) bool {
			for _, pattern := range q.Names {
				if labels.MatchGlob(pattern, r.Name) {
					return true
				}
			}
			return false
		})
		log.Debug().
			Strs("names", q.Names).
			Int("before", before).
			Int("after", len(out)).
			Msg("Filtered repos by name")
	}

	for _, sel := range selectors {
		before := len(out)
		out = filter(out, func(r *manifest.Repository) bool {
			return sel.Matches(r.Labels)
		})
		log.Debug().
			Str("selector", sel.String()).
			Int("before", before).
			Int("after", len(out)).
			Msg("Filtered repos by label")
	}

	return out, nil
}

func filter(repos []*manifest.Repository, keep func(*manifest.Repository) bool) []*manifest.Repository {
	out := make([]*manifest.Repository, 0, len(repos))
	for _, r := range repos {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// SplitSelectors expands comma separated flag values, so `-l a,b` and
// `-l a -l b` are the same query. Empty items are dropped.
func SplitSelectors(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
