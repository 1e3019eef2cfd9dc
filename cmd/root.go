package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/repofleet/internal/config"
	"github.com/stuttgart-things/repofleet/internal/fleet"
)

var (
	configPath string
	verbose    bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "repofleet",
	Short: "List, clone and run commands across a fleet of repos",
	Long: `repofleet works on a set of repositories declared in one or more JSON
manifests. Repos are selected by name glob ("sdc-*") and label selector
("-l triton -l '!deprecated'"), then listed, cloned, pulled or have a
command run in each clone.

Manifests are listed in the config file, by default
~/.config/repofleet/config.json (override with --config or $REPOFLEET_CONFIG).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
		setupColor(cmd.OutOrStdout())
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), logo())
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $REPOFLEET_CONFIG or ~/.config/repofleet/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose/debug output on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func setupLogging() {
	if verbose {
		logWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		log.Logger = log.Output(logWriter).Level(zerolog.DebugLevel)
	} else {
		log.Logger = zerolog.Nop()
	}
}

// loadManager reads the config and returns a manager over its manifests. A
// missing config is only an error when its path was given explicitly.
func loadManager() (*fleet.Manager, error) {
	path := configPath
	required := path != "" || os.Getenv(config.EnvPath) != ""
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("config", path).
		Int("manifests", len(cfg.Manifests)).
		Msg("Loaded config")
	return fleet.New(cfg), nil
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, paint(errorStyle, "Error: "+err.Error()))
		os.Exit(1)
	}
}
