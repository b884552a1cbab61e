package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/table"
)

var (
	concatDir  string
	concatName string
)

var concatCmd = &cobra.Command{
	Use:   "concat",
	Short: "Rebuild the master table from the per-act CSV files",
	Long: `Concatenates every act table in the CSV directory, newest file name first,
into one master file. The master file itself is never read back in.`,
	Args: cobra.NoArgs,
	RunE: runConcat,
}

func init() {
	concatCmd.Flags().StringVar(&concatDir, "csv-dir", "", "directory holding the act tables (default: config csv_dir)")
	concatCmd.Flags().StringVar(&concatName, "name", table.MasterName, "master file name")
}

func runConcat(cmd *cobra.Command, args []string) error {
	dir := firstNonEmpty(concatDir, cfg.CSVDir)
	n, err := table.ConcatAll(dir, concatName)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n", n, filepath.Join(dir, concatName))
	return nil
}
