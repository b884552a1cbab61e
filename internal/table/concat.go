package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pable/go-val-stats/internal/model"
)

// ActFiles lists the act tables in dir in directory order (by name),
// skipping the master file and anything that is not a .csv file.
func ActFiles(dir, master string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".csv" || name == master {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ConcatAll unions every act table in dir into dir/master. Files are
// concatenated in reverse enumeration order, so the newest episode comes
// first. It returns the number of rows written.
func ConcatAll(dir, master string) (int, error) {
	files, err := ActFiles(dir, master)
	if err != nil {
		return 0, fmt.Errorf("list act tables: %w", err)
	}

	var all []model.Row
	for i := len(files) - 1; i >= 0; i-- {
		rows, err := ReadFile(files[i])
		if err != nil {
			return 0, err
		}
		all = append(all, rows...)
	}

	if err := WriteFile(filepath.Join(dir, master), all); err != nil {
		return 0, err
	}
	return len(all), nil
}

// WritePivot writes a pivot matrix as placement rows and one column per agent.
func WritePivot(path string, m model.PivotMatrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	header := append([]string{"placement"}, m.Agents...)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for i, p := range m.Placements {
		rec := make([]string, 0, len(m.Agents)+1)
		rec = append(rec, p)
		for _, v := range m.Values[i] {
			rec = append(rec, formatFloat(v))
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPivot reads a file written by WritePivot.
func ReadPivot(path string) (model.PivotMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.PivotMatrix{}, err
	}
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return model.PivotMatrix{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(recs) == 0 || len(recs[0]) == 0 || !strings.EqualFold(recs[0][0], "placement") {
		return model.PivotMatrix{}, fmt.Errorf("read %s: not a pivot table", path)
	}

	m := model.PivotMatrix{Agents: append([]string(nil), recs[0][1:]...)}
	for _, rec := range recs[1:] {
		vals := make([]float64, len(rec)-1)
		for j, s := range rec[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return model.PivotMatrix{}, fmt.Errorf("read %s: placement %s: %w", path, rec[0], err)
			}
			vals[j] = v
		}
		m.Placements = append(m.Placements, rec[0])
		m.Values = append(m.Values, vals)
	}
	return m, nil
}

// PivotPath returns the cache path for an act table, e.g.
// csvs/pick_rates/pick_rates_e8act2.csv.
func PivotPath(dir, actFile string) string {
	return filepath.Join(dir, "pick_rates", "pick_rates_"+filepath.Base(actFile))
}
