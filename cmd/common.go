package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/fleet"
	"github.com/stuttgart-things/repofleet/internal/manifest"
	"github.com/stuttgart-things/repofleet/internal/selection"
)

// repoFilter holds the selection flags shared by the repo commands
type repoFilter struct {
	labels []string
}

func (f *repoFilter) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.labels, "label", "l", nil,
		"Label selector: KEY, !KEY, KEY=GLOB or KEY!=GLOB (repeatable, or comma separated)")
}

func (f *repoFilter) query(names []string) selection.Query {
	return selection.Query{
		Names:          names,
		LabelSelectors: selection.SplitSelectors(f.labels),
	}
}

// selectRepos lists the repos matching names and the filter flags, warning
// on stderr when nothing matched
func selectRepos(ctx context.Context, cmd *cobra.Command, m *fleet.Manager, names []string, f *repoFilter, hint string) ([]*manifest.Repository, error) {
	repos, err := m.ListRepos(ctx, f.query(names))
	if err != nil {
		return nil, err
	}
	if len(repos) > 0 {
		return repos, nil
	}

	switch {
	case m.Unconfigured():
		warnUnconfigured(cmd.ErrOrStderr(), m)
	case len(names) > 0:
		msg := fmt.Sprintf("Warning: REPOS args (%s) matched zero repos", strings.Join(names, ", "))
		if hint != "" {
			msg += ", " + hint
		}
		warn(cmd.ErrOrStderr(), msg)
	}
	return repos, nil
}

func warn(w io.Writer, msg string) {
	fmt.Fprintln(w, paint(warnStyle, msg))
}

func warnUnconfigured(w io.Writer, m *fleet.Manager) {
	where := m.Config().Path
	if where == "" {
		where = "the config file (see --config)"
	}
	warn(w, fmt.Sprintf("Warning: no repo manifests are configured. Add manifests to %s, e.g.:\n"+
		`    {"manifests": [{"name": "mine", "path": "~/repos.json"}]}`, where))
}

// baseDirOrCwd returns dir, or the working directory when dir is empty
func baseDirOrCwd(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// completeRepoNames completes REPOS arguments from the configured manifests
func completeRepoNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	m, err := loadManager()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	repos, err := m.Repos(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, r := range repos {
		if strings.HasPrefix(r.Name, toComplete) {
			names = append(names, r.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
