package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/marat/lexdrill/internal/config"
	"github.com/marat/lexdrill/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lexdrill",
	Short: "Spaced-repetition vocabulary trainer",
	Long: "Lexdrill schedules vocabulary reviews with a spaced-repetition memory model\n" +
		"and adapts question types to how well you are doing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LEXDRILL_DB env var)")
	rootCmd.PersistentFlags().String("student", "", "Student profile name (overrides config)")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then LEXDRILL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if s, _ := cmd.Flags().GetString("student"); s != "" {
		cfg.Student = s
	}
	return cfg, nil
}

// newLogger builds the CLI logger from config. Anything below warn stays
// out of the terminal so it never interleaves with the practice prompt.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
