package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tankyu/diary/internal/config"
	"github.com/tankyu/diary/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tankyu",
	Short: "Inquiry-learning diary backend",
	Long: "tankyu keeps the research diaries of students: it classifies each report into\n" +
		"an inquiry phase and three competencies, comments on it, and tracks daily streaks.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TANKYU_DB and the config file)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default $XDG_CONFIG_HOME/tankyu/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config, if any.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}

// openStore loads the config and opens the database it points at.
func openStore(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	return st, cfg, nil
}
