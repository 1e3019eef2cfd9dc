package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/manifest"
)

var (
	listFilter   repoFilter
	listJSON     bool
	listLong     bool
	listColumns  string
	listNoHeader bool
	listSort     string
)

var (
	listColumnsDefault     = "name,labels"
	listColumnsDefaultLong = "name,manifests,labels,sshCloneUrl"
)

var listCmd = &cobra.Command{
	Use:     "list [REPOS...]",
	Aliases: []string{"ls"},
	Short:   "List repos",
	Long: `List the repos from all configured manifests.

REPOS are repo names or globs ("mahi", "sdc-*"); a repo matching any of them
is listed. Label selectors (-l) must all match.

Columns: name, labels, tags, manifests, htmlUrl, sshCloneUrl, httpsCloneUrl,
or labels.KEY for a single label.`,
	Example: `  repofleet list
  repofleet ls 'sdc-*' -l '!deprecated'
  repofleet list -l tritonservice=imgapi -o name,labels.tritonservice -H
  repofleet list -j`,
	ValidArgsFunction: completeRepoNames,
	RunE:              runList,
}

func init() {
	listFilter.addFlags(listCmd)
	listCmd.Flags().BoolVarP(&listJSON, "json", "j", false, "JSON stream output, one repo per line")
	listCmd.Flags().BoolVar(&listLong, "long", false, "Long table output")
	listCmd.Flags().StringVarP(&listColumns, "columns", "o", "", "Comma separated columns to show")
	listCmd.Flags().BoolVarP(&listNoHeader, "no-header", "H", false, "Omit the table header")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "name", "Comma separated columns to sort by, '-COL' for descending")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	m, err := loadManager()
	if err != nil {
		return err
	}
	repos, err := selectRepos(cmd.Context(), cmd, m, args, &listFilter, "")
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		return nil
	}

	if listJSON {
		return printReposJSON(cmd.OutOrStdout(), repos)
	}

	columns := listColumns
	if columns == "" {
		columns = listColumnsDefault
		if listLong {
			columns = listColumnsDefaultLong
		}
	}
	cols := splitList(columns)
	for _, c := range cols {
		if !validColumn(c) {
			return fmt.Errorf("unknown column %q", c)
		}
	}
	sortKeys := splitList(listSort)
	for _, k := range sortKeys {
		if !validColumn(strings.TrimPrefix(k, "-")) {
			return fmt.Errorf("unknown sort column %q", k)
		}
	}

	sortRepos(repos, sortKeys)
	return printReposTable(cmd.OutOrStdout(), repos, cols, !listNoHeader)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validColumn(col string) bool {
	switch col {
	case "name", "labels", "tags", "manifests", "htmlUrl", "sshCloneUrl", "httpsCloneUrl":
		return true
	}
	return strings.HasPrefix(col, "labels.") && len(col) > len("labels.")
}

func columnValue(r *manifest.Repository, col string) string {
	switch col {
	case "name":
		return r.Name
	case "labels":
		return r.Labels.String()
	case "tags":
		return strings.Join(r.Tags, ",")
	case "manifests":
		return strings.Join(r.Manifests, ",")
	case "htmlUrl":
		return r.HTMLURL
	case "sshCloneUrl":
		return r.SSHCloneURL
	case "httpsCloneUrl":
		return r.HTTPSCloneURL
	}
	if key, ok := strings.CutPrefix(col, "labels."); ok {
		if v, ok := r.Labels[key]; ok {
			return v.String()
		}
		return "-"
	}
	return ""
}

// sortRepos orders repos by the given columns, falling back to the name
func sortRepos(repos []*manifest.Repository, keys []string) {
	sort.SliceStable(repos, func(i, j int) bool {
		for _, k := range keys {
			desc := strings.HasPrefix(k, "-")
			col := strings.TrimPrefix(k, "-")
			a, b := columnValue(repos[i], col), columnValue(repos[j], col)
			if a == b {
				continue
			}
			if desc {
				return a > b
			}
			return a < b
		}
		return repos[i].Name < repos[j].Name
	})
}

func printReposTable(out io.Writer, repos []*manifest.Repository, cols []string, header bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if header {
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = strings.ToUpper(c)
		}
		fmt.Fprintln(w, strings.Join(names, "\t"))
	}
	for _, r := range repos {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = columnValue(r, c)
		}
		fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	return w.Flush()
}

func printReposJSON(out io.Writer, repos []*manifest.Repository) error {
	enc := json.NewEncoder(out)
	for _, r := range repos {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("marshalling repo %q: %w", r.Name, err)
		}
	}
	return nil
}
