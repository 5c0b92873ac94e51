package cmd

import (
	"fmt"
	"os"

	"track-resolver/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "track-resolver",
	Short: "Remote track resolution service",
	Long: `track-resolver turns remote item references (feed id + item id) into
playable track records, using a directory API, the feed documents themselves
and placeholder fallbacks, and keeps them in a persistent store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configDir is where the optional .env file is looked up.
var configDir string

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding the .env file")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console output with ISO8601 timestamps, whatever the configured format.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
