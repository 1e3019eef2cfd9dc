package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:               "get REPO",
	Short:             "Show one repo as JSON",
	Long:              `Print the merged manifest entry of a single repo. REPO is an exact name, not a glob.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRepoNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}
		repo, err := m.Repo(cmd.Context(), args[0])
		if err != nil {
			if m.Unconfigured() {
				warnUnconfigured(cmd.ErrOrStderr(), m)
			}
			return err
		}

		data, err := json.MarshalIndent(repo, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
