package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "revguard",
	Short: "Guarded revision ledger",
	Long:  "Maintains immutable entity revisions behind call boundaries and lifecycle guards. Every committed change is journalled, persisted to SQLite, and appended to a hash-chained audit trail.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.revguard/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
