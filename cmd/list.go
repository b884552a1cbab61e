package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/report"
	"github.com/pable/go-val-stats/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored acts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	acts, err := db.ListActs()
	if err != nil {
		return fmt.Errorf("list acts: %w", err)
	}
	if len(acts) == 0 {
		fmt.Fprintln(os.Stdout, "No acts stored yet. Run 'valstats scrape' to add some.")
		return nil
	}
	report.PrintActs(os.Stdout, acts)
	return nil
}
