package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/fleet"
	"github.com/stuttgart-things/repofleet/internal/gitops"
	"github.com/stuttgart-things/repofleet/internal/runner"
)

var (
	cloneFilter      repoFilter
	cloneDir         string
	cloneYes         bool
	cloneConcurrency int
	cloneHTTPS       bool
	cloneGitCLI      bool
	cloneGitUser     string
	cloneGitToken    string
)

var cloneCmd = &cobra.Command{
	Use:   "clone [REPOS...]",
	Short: "Clone repos",
	Long: heredoc.Doc(`
		Clone the selected repos (by default all) into DIR/NAME.

		A repo whose directory already holds a clone of it is left alone. A
		directory holding anything else is an error for that repo; other repos are
		still cloned.
	`),
	Example: heredoc.Doc(`
		  repofleet clone -d ~/src 'sdc-*'
		  repofleet clone -y -l triton -l '!deprecated'
	`),
	ValidArgsFunction: completeRepoNames,
	RunE:              runClone,
}

func init() {
	cloneFilter.addFlags(cloneCmd)
	cloneCmd.Flags().StringVarP(&cloneDir, "dir", "d", "", "Base directory to clone into (default: current dir)")
	cloneCmd.Flags().BoolVarP(&cloneYes, "yes", "y", false, "Assume yes for confirmations")
	cloneCmd.Flags().IntVarP(&cloneConcurrency, "concurrency", "c", runner.DefaultCloneConcurrency, "Number of clones to run at once")
	cloneCmd.Flags().BoolVar(&cloneHTTPS, "https", false, "Clone over HTTPS instead of SSH")
	cloneCmd.Flags().BoolVar(&cloneGitCLI, "git-cli", false, "Clone with the git binary instead of go-git")
	cloneCmd.Flags().StringVar(&cloneGitUser, "git-user", "", "User for HTTPS clones (or GIT_USER/GITHUB_USER)")
	cloneCmd.Flags().StringVar(&cloneGitToken, "git-token", "", "Token for HTTPS clones (or GIT_TOKEN/GITHUB_TOKEN)")

	rootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	m, err := loadManager()
	if err != nil {
		return err
	}
	baseDir, err := baseDirOrCwd(cloneDir)
	if err != nil {
		return err
	}
	repos, err := selectRepos(cmd.Context(), cmd, m, args, &cloneFilter, "")
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		return nil
	}

	if !cloneYes {
		ok, err := confirmClone(len(repos), baseDir)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborting")
			return nil
		}
	}

	var cloner gitops.Cloner
	if cloneGitCLI {
		cloner = gitops.CLI{}
	} else {
		cloner = gitops.NewGoGit(gitops.ResolveCredentialsOptional(cloneGitUser, cloneGitToken))
	}
	checker := gitops.Checker{Cloner: cloner, HTTPS: cloneHTTPS}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintln(stderr, paint(progressStyle, fmt.Sprintf("Cloning %d repos into %q", len(repos), baseDir)))
	batch := fleet.CloneRepos(cmd.Context(), checker, repos, baseDir, cloneConcurrency)
	for ev := range batch.Progress() {
		switch {
		case ev.Err != nil:
			fmt.Fprintln(stderr, paint(errorStyle, fmt.Sprintf("error cloning repo %q: %v", ev.Repo.Name, ev.Err)))
		case ev.Result.AlreadyCloned:
			fmt.Fprintln(stderr, paint(dimStyle, fmt.Sprintf("repo clone %q already exists", ev.Repo.Name)))
		default:
			fmt.Fprintln(stderr, paint(successStyle, fmt.Sprintf("cloned %q to %q (%ds)", ev.Repo.Name, ev.Result.Dir, int(ev.Elapsed.Seconds()))))
		}
	}

	summary := batch.Wait()
	if err := summary.Err(); err != nil {
		return fmt.Errorf("%d of %d clones failed:\n%w", summary.Failed, summary.Total, err)
	}
	return nil
}

var errNoTTY = errors.New("cannot confirm without a terminal, use --yes")

func confirmClone(n int, baseDir string) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return false, errNoTTY
	}

	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Clone %d repos into %q?", n, baseDir)).
				Affirmative("Yes, clone").
				Negative("Cancel").
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation form: %w", err)
	}
	return confirm, nil
}
