package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/config"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	// cfg is loaded once in PersistentPreRunE and shared by every subcommand.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "valstats",
	Short: "Valorant agent leaderboard scraper",
	Long: `Scrape per-rank agent statistics from the blitz.gg leaderboards into CSV
tables and a SQLite store, then pivot pick rates into rank x agent heatmaps.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".valstats", "stats.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.valstats/config.yaml, or $VALSTATS_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(concatCmd)
	rootCmd.AddCommand(pivotCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	if cfg.Path != "" {
		slog.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
