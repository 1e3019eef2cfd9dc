package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/fleet"
	"github.com/stuttgart-things/repofleet/internal/runner"
	"github.com/stuttgart-things/repofleet/internal/shell"
)

var (
	pullFilter       repoFilter
	pullDir          string
	pullOutput       string
	pullConcurrency  int
	pullNoSubmodules bool
)

var pullCmd = &cobra.Command{
	Use:     "pull [REPOS...]",
	Aliases: []string{"up"},
	Short:   "Update existing clones",
	Long: `Fetch and rebase each selected repo clone under the current (or -d DIR)
dir, then sync and update its submodules unless -S is given. Repos that are
not cloned are skipped.`,
	ValidArgsFunction: completeRepoNames,
	RunE:              runPull,
}

func init() {
	pullFilter.addFlags(pullCmd)
	pullCmd.Flags().StringVarP(&pullDir, "dir", "d", "", "Base directory of the clones (default: current dir)")
	pullCmd.Flags().StringVarP(&pullOutput, "output", "o", "default", "Output mode: default, json, raw or table")
	pullCmd.Flags().IntVarP(&pullConcurrency, "concurrency", "c", runner.DefaultExecConcurrency, "Number of pulls to run at once")
	pullCmd.Flags().BoolVarP(&pullNoSubmodules, "no-submodules", "S", false, "Do not update submodules")

	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	if err := validOutputMode(pullOutput); err != nil {
		return err
	}
	m, err := loadManager()
	if err != nil {
		return err
	}
	baseDir, err := baseDirOrCwd(pullDir)
	if err != nil {
		return err
	}

	repos, err := selectRepos(cmd.Context(), cmd, m, args, &pullFilter, "")
	if err != nil {
		return err
	}
	clones, err := fleet.ExistingClones(repos, baseDir)
	if err != nil {
		return err
	}

	batch := fleet.ExecInClones(cmd.Context(), shell.Bash{}, clones, baseDir, fleet.ExecOptions{
		Command:     fleet.PullCommand(!pullNoSubmodules),
		Concurrency: pullConcurrency,
	})
	return runExec(newExecPrinter(pullOutput, cmd.OutOrStdout(), cmd.ErrOrStderr()), batch)
}
