package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/storage"
)

var (
	dropForce bool
	dropAct   string
)

// dropCmd deletes the stats database file, or one act's rows.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the stats database or one stored act",
	Long: `Permanently delete the SQLite stats database. All stored rows will be lost.
Re-run 'valstats scrape' afterwards to rebuild. With --act only that act's rows
are removed. CSV tables are never touched.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropAct, "act", "", "only delete the rows of this act, e.g. e8act2")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropAct != "" {
		return dropOneAct(dropAct)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropOneAct(arg string) error {
	ep, act, err := catalog.ParseEpisodeKey(arg)
	if err != nil {
		return err
	}
	key := model.ActKey{Episode: string(ep), Act: string(act)}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will delete every stored row of %s from %s\n", key, dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	n, err := db.DeleteAct(key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	fmt.Fprintf(os.Stdout, "Deleted %d rows of %s\n", n, key)
	return nil
}
