package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/fintutor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "fintutor",
	Short: "Adaptive financial-literacy practice engine",
	Long: "fintutor runs tutor-led practice sessions on money skills, grades answers, " +
		"and tracks per-concept mastery to pick what to practise next.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FINTUTOR_DB env var)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: dev or prod (overrides FINTUTOR_LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then FINTUTOR_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
