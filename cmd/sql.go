package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/report"
	"github.com/pable/go-val-stats/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the stats database",
	Long: `Run an arbitrary SQL query against the stats database and print results as a table.

Schema overview:
  agent_stats(episode, act, placement, agent, rank, kd, kills, deaths, assists,
    win_rate, pick_rate, avg_score, matches, seq)

Rates are fractions (0.553 = 55.3%). placement is the rank page name (radiant,
immortal3, ...). Example:
  valstats sql "SELECT agent, AVG(pick_rate) FROM agent_stats WHERE placement='radiant' GROUP BY agent ORDER BY 2 DESC"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintQuery(os.Stdout, cols, rows)
	return nil
}
