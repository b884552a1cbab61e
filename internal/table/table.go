// Package table persists agent rows as flat CSV files: one file per act, a
// master file concatenating every act, and pivot cache files.
package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pable/go-val-stats/internal/model"
)

// MasterName is the default file name of the concatenated table.
const MasterName = "all.csv"

// Columns is the header of every row file. rank leads as the index column.
var Columns = []string{
	"rank", "agent", "kd", "kills", "deaths", "assists",
	"win_rate", "pick_rate", "avg_score", "matches",
	"episode", "act", "placement",
}

// Dir writes act tables into a directory and builds the master table when
// the scrape finishes.
type Dir struct {
	Path   string
	Master string // defaults to MasterName
}

func (d Dir) master() string {
	if d.Master == "" {
		return MasterName
	}
	return d.Master
}

// ActPath returns the file an act table is written to, e.g. csvs/e8act2.csv.
func (d Dir) ActPath(key model.ActKey) string {
	return filepath.Join(d.Path, key.String()+".csv")
}

// MasterPath returns the concatenated table's path.
func (d Dir) MasterPath() string {
	return filepath.Join(d.Path, d.master())
}

// WriteAct writes one act table, replacing any earlier file.
func (d Dir) WriteAct(_ context.Context, key model.ActKey, rows []model.Row) error {
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}
	return WriteFile(d.ActPath(key), rows)
}

// Finish concatenates every act file into the master table.
func (d Dir) Finish(_ context.Context) error {
	_, err := ConcatAll(d.Path, d.master())
	return err
}

// WriteFile writes rows to path, creating its directory if needed.
func WriteFile(path string, rows []model.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRows(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteRows writes a header and one record per row.
func WriteRows(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(encodeRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeRow(r model.Row) []string {
	return []string{
		r.Rank,
		r.Agent,
		formatFloat(r.KD),
		formatFloat(r.Kills),
		formatFloat(r.Deaths),
		formatFloat(r.Assists),
		formatFloat(r.WinRate),
		formatFloat(r.PickRate),
		strconv.Itoa(r.AvgScore),
		strconv.Itoa(r.Matches),
		r.Episode,
		r.Act,
		r.Placement,
	}
}

// ReadFile reads a row file written by WriteFile.
func ReadFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadRows parses rows by header name, so column order in the file does not
// matter. Every column in Columns must be present.
func ReadRows(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out []model.Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		d := decoder{rec: rec, idx: idx}
		row := model.Row{
			Rank:      d.str("rank"),
			Agent:     d.str("agent"),
			KD:        d.float("kd"),
			Kills:     d.float("kills"),
			Deaths:    d.float("deaths"),
			Assists:   d.float("assists"),
			WinRate:   d.float("win_rate"),
			PickRate:  d.float("pick_rate"),
			AvgScore:  d.int("avg_score"),
			Matches:   d.int("matches"),
			Episode:   d.str("episode"),
			Act:       d.str("act"),
			Placement: d.str("placement"),
		}
		if d.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, d.err)
		}
		out = append(out, row)
	}
	return out, nil
}

// decoder reads named fields from one CSV record, keeping the first error.
type decoder struct {
	rec []string
	idx map[string]int
	err error
}

func (d *decoder) str(col string) string {
	return d.rec[d.idx[col]]
}

func (d *decoder) float(col string) float64 {
	if d.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(d.str(col), 64)
	if err != nil {
		d.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

func (d *decoder) int(col string) int {
	if d.err != nil {
		return 0
	}
	v, err := strconv.Atoi(d.str(col))
	if err != nil {
		d.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
