package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/aggregator"
	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/report"
	"github.com/pable/go-val-stats/internal/storage"
	"github.com/pable/go-val-stats/internal/table"
)

var (
	pivotActs    []string
	pivotTop     string
	pivotNoCache bool
)

var pivotCmd = &cobra.Command{
	Use:   "pivot [table.csv ...]",
	Short: "Pivot mean pick rate into a rank x agent matrix",
	Long: `Reads act tables (default: every act table in the CSV directory, not the
master table) and prints the mean pick rate of every agent seen at the top rank, per rank placement.
Each matrix is cached as {csv-dir}/pick_rates/pick_rates_<table>.csv.

With --act the rows come from the SQLite database instead of CSV files.`,
	RunE: runPivot,
}

func init() {
	pivotCmd.Flags().StringSliceVar(&pivotActs, "act", nil, "read these acts (e.g. e8act2) from the database")
	pivotCmd.Flags().StringVar(&pivotTop, "top", "", "placement whose agents become columns (default: config top_placement)")
	pivotCmd.Flags().BoolVar(&pivotNoCache, "no-cache", false, "do not write pivot cache files")
}

// pivotSource is one table to pivot, named for titles and cache files.
type pivotSource struct {
	Name string
	Path string // empty when read from the database
	Rows []model.Row
}

func runPivot(cmd *cobra.Command, args []string) error {
	sources, err := loadPivotSources(args, pivotActs)
	if err != nil {
		return err
	}
	opts := aggregator.PivotOptions{TopPlacement: firstNonEmpty(pivotTop, cfg.TopPlacement)}

	for _, src := range sources {
		m := aggregator.PivotPickRate(src.Rows, opts)
		if len(m.Agents) == 0 {
			cWarn.Fprint(os.Stderr, "[skip] ")
			fmt.Fprintf(os.Stderr, "%s: no rows at placement %q\n", src.Name, opts.TopPlacement)
			continue
		}

		cHeader.Fprintf(os.Stdout, "\n--- %s ---\n", src.Name)
		report.PrintPivot(os.Stdout, displayOrder(m, src.Rows))

		if !pivotNoCache {
			if err := writePivotCache(src, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// writePivotCache stores m next to the table it came from. Database sources
// have no file and are not cached.
func writePivotCache(src pivotSource, m model.PivotMatrix) error {
	if src.Path == "" {
		return nil
	}
	cache := table.PivotPath(filepath.Dir(src.Path), src.Path)
	if err := table.WritePivot(cache, m); err != nil {
		return fmt.Errorf("write pivot cache: %w", err)
	}
	cMuted.Fprintf(os.Stdout, "cached %s\n", cache)
	return nil
}

// displayOrder puts the lowest placement on top, as the heatmaps show it.
func displayOrder(m model.PivotMatrix, rows []model.Row) model.PivotMatrix {
	order := aggregator.PlacementOrder(rows)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return aggregator.Reindex(m, order)
}

// loadPivotSources reads --act keys from the database and paths from CSV.
// With neither, every per-act table in the CSV directory is used, one
// source per (episode, act).
func loadPivotSources(paths, acts []string) ([]pivotSource, error) {
	var out []pivotSource

	if len(acts) > 0 {
		db, err := storage.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		for _, a := range acts {
			ep, act, err := catalog.ParseEpisodeKey(a)
			if err != nil {
				return nil, err
			}
			key := model.ActKey{Episode: string(ep), Act: string(act)}
			rows, err := db.ActRows(key)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", key, err)
			}
			if len(rows) == 0 {
				return nil, fmt.Errorf("no stored rows for %s", key)
			}
			out = append(out, pivotSource{Name: key.String(), Rows: rows})
		}
	}

	if len(paths) == 0 && len(acts) == 0 {
		files, err := table.ActFiles(cfg.CSVDir, table.MasterName)
		if err != nil {
			return nil, fmt.Errorf("list act tables: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no act tables in %s", cfg.CSVDir)
		}
		paths = files
	}
	for _, p := range paths {
		rows, err := table.ReadFile(p)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		out = append(out, pivotSource{Name: name, Path: p, Rows: rows})
	}
	return out, nil
}
