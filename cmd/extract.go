package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/parser"
	"github.com/pable/go-val-stats/internal/report"
	"github.com/pable/go-val-stats/internal/snapshot"
	"github.com/pable/go-val-stats/internal/storage"
	"github.com/pable/go-val-stats/internal/table"
)

var (
	extractKey     string
	extractRank    string
	extractArchive string
	extractOut     string
	extractStore   bool
	extractStrict  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [page.html|page.html.zst ...]",
	Short: "Extract agent rows from saved leaderboard pages",
	Long: `Runs the page extractor offline, on pages saved by 'scrape --snapshot-dir' or
downloaded by hand. The rank of each page is taken from --rank or, failing
that, from its file name (radiant.html.zst). With --archive-dir every archived
page of the --act key is extracted in rank order.

Examples:
  valstats extract --act e8act2 --rank radiant page.html
  valstats extract --act e8act2 --archive-dir pages --out csvs/e8act2.csv --store`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractKey, "act", "", "episode+act key used to tag rows, e.g. e8act2 (required)")
	extractCmd.Flags().StringVar(&extractRank, "rank", "", "rank of the page (default: from file name)")
	extractCmd.Flags().StringVar(&extractArchive, "archive-dir", "", "extract every archived page of --act from this directory")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "write the rows to this CSV file")
	extractCmd.Flags().BoolVar(&extractStore, "store", false, "replace the act's rows in the SQLite database")
	extractCmd.Flags().BoolVar(&extractStrict, "strict-windows", false, "fail on a trailing partial record instead of dropping it")
	_ = extractCmd.MarkFlagRequired("act")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ep, act, err := catalog.ParseEpisodeKey(extractKey)
	if err != nil {
		return err
	}
	key := model.ActKey{Episode: string(ep), Act: string(act)}

	paths := args
	if extractArchive != "" {
		archived, err := snapshot.Archive{Dir: extractArchive}.List(key.String())
		if err != nil {
			return fmt.Errorf("list archive: %w", err)
		}
		paths = append(paths, archived...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no pages given: pass files or --archive-dir")
	}

	opts := cfg.Parser()
	if cmd.Flags().Changed("strict-windows") {
		opts.Strict = extractStrict
	}

	var rows []model.Row
	for _, path := range paths {
		rank, err := pageRank(path)
		if err != nil {
			return err
		}
		html, err := snapshot.Load(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		page, err := parser.ExtractPage(strings.NewReader(html), opts)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
		if !page.Found {
			cWarn.Fprint(os.Stderr, "[skip] ")
			fmt.Fprintf(os.Stderr, "%s: no leaderboard container\n", path)
			continue
		}
		model.Tag(page.Rows, key.Episode, key.Act, rank.Name())
		rows = append(rows, page.Rows...)
	}

	report.PrintActHeader(os.Stdout, key, rows)
	report.PrintRows(os.Stdout, rows, "")

	if extractOut != "" {
		if err := table.WriteFile(extractOut, rows); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n", len(rows), extractOut)
	}
	if extractStore {
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		if err := db.WriteAct(context.Background(), key, rows); err != nil {
			return fmt.Errorf("store rows: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Stored %d rows for %s\n", len(rows), key)
	}
	return nil
}

func pageRank(path string) (catalog.Rank, error) {
	if extractRank != "" {
		return catalog.ParseRank(extractRank)
	}
	r, err := snapshot.RankFromPath(path)
	if err != nil {
		return 0, fmt.Errorf("%s: cannot infer rank from file name, pass --rank", path)
	}
	return r, nil
}
