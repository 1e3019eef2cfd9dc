package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/fleet"
	"github.com/stuttgart-things/repofleet/internal/gitops"
	"github.com/stuttgart-things/repofleet/internal/runner"
)

var (
	statusFilter   repoFilter
	statusDir      string
	statusNoHeader bool
)

var statusCmd = &cobra.Command{
	Use:               "status [REPOS...]",
	Short:             "Show branch and dirty state of existing clones",
	ValidArgsFunction: completeRepoNames,
	RunE:              runStatus,
}

func init() {
	statusFilter.addFlags(statusCmd)
	statusCmd.Flags().StringVarP(&statusDir, "dir", "d", "", "Base directory of the clones (default: current dir)")
	statusCmd.Flags().BoolVarP(&statusNoHeader, "no-header", "H", false, "Omit the table header")

	rootCmd.AddCommand(statusCmd)
}

type statusRow struct {
	repo string
	st   gitops.CloneStatus
	err  error
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, err := loadManager()
	if err != nil {
		return err
	}
	baseDir, err := baseDirOrCwd(statusDir)
	if err != nil {
		return err
	}
	repos, err := selectRepos(cmd.Context(), cmd, m, args, &statusFilter, "")
	if err != nil {
		return err
	}
	clones, err := fleet.ExistingClones(repos, baseDir)
	if err != nil {
		return err
	}

	batch := fleet.StatusOfClones(cmd.Context(), clones, baseDir, runner.DefaultExecConcurrency)
	var rows []statusRow
	for ev := range batch.Progress() {
		rows = append(rows, statusRow{repo: ev.Repo.Name, st: ev.Result, err: ev.Err})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].repo < rows[j].repo })

	if err := printStatusTable(cmd.OutOrStdout(), rows, !statusNoHeader); err != nil {
		return err
	}
	return batch.Wait().Err()
}

func printStatusTable(out io.Writer, rows []statusRow, header bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if header {
		fmt.Fprintln(w, "NAME\tBRANCH\tSTATE")
	}
	for _, r := range rows {
		switch {
		case r.err != nil:
			fmt.Fprintf(w, "%s\t-\t%s\n", r.repo, paint(errorStyle, "error"))
		case r.st.Dirty:
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.repo, r.st.Branch, paint(warnStyle, "dirty"))
		default:
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.repo, r.st.Branch, "clean")
		}
	}
	return w.Flush()
}
