package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/blitz"
	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/observability"
	"github.com/pable/go-val-stats/internal/scrape"
	"github.com/pable/go-val-stats/internal/snapshot"
	"github.com/pable/go-val-stats/internal/storage"
	"github.com/pable/go-val-stats/internal/table"
)

// scrape command flags.
var (
	scrapeEpisodes    []string
	scrapeActs        []string
	scrapeRanks       []string
	scrapeCSVDir      string
	scrapeSnapshotDir string
	scrapeMetricsFile string
	scrapeConcurrency int
	scrapeStrict      bool
	scrapeNoDB        bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch agent leaderboards for every rank and write per-act tables",
	Long: `Fetches one leaderboard page per (episode, act, rank), extracts agent rows,
and writes one CSV per act ({csv-dir}/{episode}{act}.csv) plus the concatenated
master table. Rows are also stored in the SQLite database unless --no-db is set.

Ranks without a leaderboard are skipped. An act where every rank is missing
writes no file. A page whose layout cannot be parsed aborts the run.

Examples:
  # Everything the catalog knows about
  valstats scrape

  # Two acts, four pages at a time, keeping the raw pages
  valstats scrape --episode e8 --act act1,act2 --concurrency 4 --snapshot-dir pages`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeEpisodes, "episode", nil, "episodes to fetch (default: config, else all)")
	scrapeCmd.Flags().StringSliceVar(&scrapeActs, "act", nil, "acts to fetch (default: config, else all)")
	scrapeCmd.Flags().StringSliceVar(&scrapeRanks, "rank", nil, "ranks to fetch, e.g. radiant,immortal3 (default: all)")
	scrapeCmd.Flags().StringVar(&scrapeCSVDir, "csv-dir", "", "output directory for act tables (default: config csv_dir)")
	scrapeCmd.Flags().StringVar(&scrapeSnapshotDir, "snapshot-dir", "", "archive fetched pages here as .html.zst")
	scrapeCmd.Flags().StringVar(&scrapeMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the run")
	scrapeCmd.Flags().IntVar(&scrapeConcurrency, "concurrency", 0, "rank pages fetched at once per act (default: config, else 1)")
	scrapeCmd.Flags().BoolVar(&scrapeStrict, "strict-windows", false, "fail on a trailing partial record instead of dropping it")
	scrapeCmd.Flags().BoolVar(&scrapeNoDB, "no-db", false, "do not store rows in the SQLite database")
}

func runScrape(cmd *cobra.Command, args []string) error {
	episodes, acts, err := resolveEpisodesActs(scrapeEpisodes, scrapeActs)
	if err != nil {
		return err
	}
	var ranks []catalog.Rank
	for _, s := range scrapeRanks {
		r, err := catalog.ParseRank(s)
		if err != nil {
			return err
		}
		ranks = append(ranks, r)
	}

	csvDir := firstNonEmpty(scrapeCSVDir, cfg.CSVDir)
	snapDir := firstNonEmpty(scrapeSnapshotDir, cfg.SnapshotDir)
	metricsFile := firstNonEmpty(scrapeMetricsFile, cfg.MetricsFile)
	concurrency := cfg.Concurrency
	if scrapeConcurrency > 0 {
		concurrency = scrapeConcurrency
	}
	parseOpts := cfg.Parser()
	if cmd.Flags().Changed("strict-windows") {
		parseOpts.Strict = scrapeStrict
	}

	client, err := blitz.NewClient(cfg.Blitz())
	if err != nil {
		return err
	}

	sinks := []scrape.Sink{table.Dir{Path: csvDir}}
	if !scrapeNoDB {
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	metrics := observability.NewMetrics()
	s := &scrape.Scraper{
		Fetcher:     client,
		Sinks:       sinks,
		Metrics:     metrics,
		Logger:      slog.Default(),
		Parse:       parseOpts,
		Ranks:       ranks,
		Concurrency: concurrency,
	}
	if snapDir != "" {
		s.Archive = &snapshot.Archive{Dir: snapDir}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sum, runErr := s.Run(ctx, episodes, acts)
	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			slog.Warn("write metrics failed", "path", metricsFile, "err", err)
		}
	}
	printScrapeSummary(sum)
	if runErr != nil {
		return runErr
	}
	if len(sum.Written) > 0 {
		fmt.Fprintf(os.Stdout, "Master table: %s\n", table.Dir{Path: csvDir}.MasterPath())
	}
	return nil
}

func printScrapeSummary(sum scrape.Summary) {
	fmt.Fprintln(os.Stdout)
	for _, k := range sum.Written {
		cOK.Fprint(os.Stdout, "[wrote] ")
		fmt.Fprintln(os.Stdout, k.String())
	}
	for _, k := range sum.Skipped {
		cWarn.Fprint(os.Stdout, "[skip]  ")
		fmt.Fprintf(os.Stdout, "%s (no leaderboard at any rank)\n", k)
	}
	cMuted.Fprintf(os.Stdout, "%d rows | pages: %d parsed, %d not found, %d empty\n",
		sum.Rows, sum.Parsed, sum.NotFound, sum.Empty)
}

// resolveEpisodesActs applies flag values, then config defaults, then the
// full catalogs.
func resolveEpisodesActs(epFlags, actFlags []string) ([]catalog.Episode, []catalog.Act, error) {
	epNames := epFlags
	if len(epNames) == 0 {
		epNames = cfg.Episodes
	}
	actNames := actFlags
	if len(actNames) == 0 {
		actNames = cfg.Acts
	}

	episodes := catalog.Episodes()
	if len(epNames) > 0 {
		episodes = nil
		for _, s := range epNames {
			ep, err := catalog.ParseEpisode(s)
			if err != nil {
				return nil, nil, err
			}
			episodes = append(episodes, ep)
		}
	}
	acts := catalog.Acts()
	if len(actNames) > 0 {
		acts = nil
		for _, s := range actNames {
			a, err := catalog.ParseAct(s)
			if err != nil {
				return nil, nil, err
			}
			acts = append(acts, a)
		}
	}
	return episodes, acts, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
