package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/aggregator"
	"github.com/pable/go-val-stats/internal/heatmap"
)

var (
	heatmapActs    []string
	heatmapDir     string
	heatmapScheme  string
	heatmapAll     bool
	heatmapNoCache bool
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap [table.csv ...]",
	Short: "Render pick-rate heatmaps as SVG",
	Long: `Pivots each table like 'pivot' and renders it to
{heatmap-dir}/{scheme}/{table}.svg, lowest rank on top. Without arguments
every act table in the CSV directory gets its own image, and the pivots are
cached like 'pivot' does.

Examples:
  valstats heatmap csvs/e8act2.csv --scheme viridis
  valstats heatmap --act e8act1,e8act2 --all-schemes`,
	RunE: runHeatmap,
}

func init() {
	heatmapCmd.Flags().StringSliceVar(&heatmapActs, "act", nil, "read these acts (e.g. e8act2) from the database")
	heatmapCmd.Flags().StringVar(&heatmapDir, "out", "", "output directory (default: config heatmap_dir)")
	heatmapCmd.Flags().StringVar(&heatmapScheme, "scheme", "", "color scheme: rocket, mako or viridis (default: config heatmap_scheme)")
	heatmapCmd.Flags().BoolVar(&heatmapAll, "all-schemes", false, "render every color scheme")
	heatmapCmd.Flags().BoolVar(&heatmapNoCache, "no-cache", false, "do not write pivot cache files")
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	schemes := heatmap.Schemes()
	if !heatmapAll {
		s, err := heatmap.ParseScheme(firstNonEmpty(heatmapScheme, cfg.Scheme))
		if err != nil {
			return err
		}
		schemes = []heatmap.Scheme{s}
	}

	sources, err := loadPivotSources(args, heatmapActs)
	if err != nil {
		return err
	}
	dir := firstNonEmpty(heatmapDir, cfg.HeatmapDir)
	opts := aggregator.PivotOptions{TopPlacement: cfg.TopPlacement}

	for _, src := range sources {
		m := aggregator.PivotPickRate(src.Rows, opts)
		if len(m.Agents) == 0 {
			cWarn.Fprint(os.Stderr, "[skip] ")
			fmt.Fprintf(os.Stderr, "%s: no rows at placement %q\n", src.Name, opts.TopPlacement)
			continue
		}
		if !heatmapNoCache {
			if err := writePivotCache(src, m); err != nil {
				return err
			}
		}
		shown := displayOrder(m, src.Rows)
		for _, s := range schemes {
			path, err := heatmap.WriteFile(dir, s, src.Name, shown)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
		}
	}
	return nil
}
