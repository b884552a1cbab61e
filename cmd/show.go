package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/aggregator"
	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/report"
	"github.com/pable/go-val-stats/internal/storage"
)

var (
	showAgent     string
	showPlacement string
)

var showCmd = &cobra.Command{
	Use:   "show <e8act2>",
	Short: "Show the stored rows of one act",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showAgent, "agent", "", "highlight this agent")
	showCmd.Flags().StringVar(&showPlacement, "placement", "", "only rows scraped at this rank, e.g. radiant")
}

func runShow(cmd *cobra.Command, args []string) error {
	ep, act, err := catalog.ParseEpisodeKey(args[0])
	if err != nil {
		return err
	}
	key := model.ActKey{Episode: string(ep), Act: string(act)}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	rows, err := db.ActRows(key)
	if err != nil {
		return fmt.Errorf("query act: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No rows stored for %s\n", key)
		return nil
	}
	if showPlacement != "" {
		r, err := catalog.ParseRank(showPlacement)
		if err != nil {
			return err
		}
		rows = aggregator.FilterPlacement(rows, r.Name())
	}

	report.PrintActHeader(os.Stdout, key, rows)
	report.PrintRows(os.Stdout, rows, showAgent)
	return nil
}
