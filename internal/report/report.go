package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-val-stats/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintActHeader prints a one-line header for an act table.
func PrintActHeader(w io.Writer, key model.ActKey, rows []model.Row) {
	placements := make(map[string]bool)
	for _, r := range rows {
		placements[r.Placement] = true
	}
	fmt.Fprintf(w, "\nAct: %s  |  Rows: %d  |  Placements: %d\n\n", key, len(rows), len(placements))
}

// PrintRows prints agent rows. If focusAgent is non-empty, that agent's rows
// are marked with ">".
func PrintRows(w io.Writer, rows []model.Row, focusAgent string) {
	table := newTable(w)
	table.Header(
		" ", "PLACEMENT", "RANK", "AGENT", "K/D", "K", "D", "A", "KDA",
		"WIN%", "PICK%", "AVG_SCORE", "MATCHES",
	)

	for i := range rows {
		r := &rows[i]
		marker := " "
		if focusAgent != "" && strings.EqualFold(r.Agent, focusAgent) {
			marker = ">"
		}
		table.Append(
			marker,
			r.Placement,
			r.Rank,
			r.Agent,
			fmt.Sprintf("%.2f", r.KD),
			fmt.Sprintf("%.1f", r.Kills),
			fmt.Sprintf("%.1f", r.Deaths),
			fmt.Sprintf("%.1f", r.Assists),
			fmt.Sprintf("%.2f", r.KDA()),
			percent(r.WinRate),
			percent(r.PickRate),
			strconv.Itoa(r.AvgScore),
			strconv.Itoa(r.Matches),
		)
	}
	table.Render()
}

// PrintPivot prints a placement x agent pick-rate matrix with percent cells.
// Zero cells print as "—".
func PrintPivot(w io.Writer, m model.PivotMatrix) {
	table := newTable(w)

	header := make([]any, 0, len(m.Agents)+1)
	header = append(header, "PLACEMENT")
	for _, a := range m.Agents {
		header = append(header, strings.ToUpper(a))
	}
	table.Header(header...)

	for i, p := range m.Placements {
		row := make([]any, 0, len(m.Agents)+1)
		row = append(row, p)
		for _, v := range m.Values[i] {
			if v == 0 {
				row = append(row, "—")
				continue
			}
			row = append(row, percent(v))
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintActs prints one line per stored act.
func PrintActs(w io.Writer, acts []model.ActSummary) {
	table := newTable(w)
	table.Header("ACT", "EPISODE", "ROWS", "PLACEMENTS", "AGENTS")
	for _, a := range acts {
		table.Append(
			a.Key.String(),
			a.Key.Episode,
			strconv.Itoa(a.Rows),
			strconv.Itoa(a.Placements),
			strconv.Itoa(a.Agents),
		)
	}
	table.Render()
}

// PrintQuery prints the result of a raw query followed by a row count.
func PrintQuery(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
