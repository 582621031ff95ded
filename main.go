package main

import (
	"fmt"
	"os"

	"bulletnotes/config"
	"bulletnotes/pkg/logger"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:          "bulletnotes",
	Short:        "Bullet-point notes API backed by PostgreSQL",
	SilenceUsage: true,
}

// loadConfig runs before the commands that talk to the database. Help,
// completion and version work without any configuration.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bulletnotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bulletnotes version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
