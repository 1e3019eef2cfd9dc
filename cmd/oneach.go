package cmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/fleet"
	"github.com/stuttgart-things/repofleet/internal/runner"
	"github.com/stuttgart-things/repofleet/internal/shell"
)

var (
	oneachFilter       repoFilter
	oneachDir          string
	oneachOutput       string
	oneachConcurrency  int
	oneachPrecondition string
)

var oneachCmd = &cobra.Command{
	Use:   "oneach CMD [REPOS...]",
	Short: "Run a command in each repo clone",
	Long: heredoc.Doc(`
		Run CMD with bash in each selected repo clone (by default all) under the
		current (or -d DIR) dir. Repos without a clone directory are skipped.

		Output modes:
		  default  "# REPO" header, then the command's stdout and stderr
		  json     one JSON object per repo
		  raw      stdout and stderr as received
		  table    repo name and stdout, one row per repo

		With --if, CMD only runs where the precondition command exits zero.
	`),
	Example: heredoc.Doc(`
		  repofleet oneach 'git status -s' 'sdc-*'
		  repofleet oneach -o table 'git describe --tags' -l release
		  repofleet oneach --if 'test -f Makefile' 'make check'
	`),
	Args: cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return completeRepoNames(cmd, args, toComplete)
	},
	RunE: runOneach,
}

func init() {
	oneachFilter.addFlags(oneachCmd)
	oneachCmd.Flags().StringVarP(&oneachDir, "dir", "d", "", "Base directory of the clones (default: current dir)")
	oneachCmd.Flags().StringVarP(&oneachOutput, "output", "o", "default", "Output mode: default, json, raw or table")
	oneachCmd.Flags().IntVarP(&oneachConcurrency, "concurrency", "c", runner.DefaultExecConcurrency, "Number of commands to run at once")
	oneachCmd.Flags().StringVar(&oneachPrecondition, "if", "", "Only run CMD where this command exits zero")

	rootCmd.AddCommand(oneachCmd)
}

func runOneach(cmd *cobra.Command, args []string) error {
	if err := validOutputMode(oneachOutput); err != nil {
		return err
	}
	m, err := loadManager()
	if err != nil {
		return err
	}
	baseDir, err := baseDirOrCwd(oneachDir)
	if err != nil {
		return err
	}

	command, names := args[0], args[1:]
	repos, err := selectRepos(cmd.Context(), cmd, m, names, &oneachFilter, "did you forget to quote CMD?")
	if err != nil {
		return err
	}
	clones, err := fleet.ExistingClones(repos, baseDir)
	if err != nil {
		return err
	}

	batch := fleet.ExecInClones(cmd.Context(), shell.Bash{}, clones, baseDir, fleet.ExecOptions{
		Command:      command,
		Precondition: oneachPrecondition,
		Concurrency:  oneachConcurrency,
	})
	return runExec(newExecPrinter(oneachOutput, cmd.OutOrStdout(), cmd.ErrOrStderr()), batch)
}
