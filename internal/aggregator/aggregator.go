package aggregator

import (
	"strings"

	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
)

// PivotOptions controls PivotPickRate.
type PivotOptions struct {
	// TopPlacement selects the agent columns: only agents observed at this
	// placement appear. Compared case-insensitively. Defaults to "radiant".
	TopPlacement string
}

// PivotPickRate reshapes rows into a placement x agent matrix of mean pick rate.
//
// Columns are the distinct agents seen at the top placement, in first-seen
// order. Rows are the placements at which any of those agents appear, in
// first-seen order. A (placement, agent) pair with no observation is 0.
func PivotPickRate(rows []model.Row, opts PivotOptions) model.PivotMatrix {
	top := opts.TopPlacement
	if top == "" {
		top = catalog.Radiant.Name()
	}

	// ---- Pass 1: agent columns from the top placement. ----

	agentCol := make(map[string]int)
	var agents []string
	for _, r := range rows {
		if !strings.EqualFold(r.Placement, top) {
			continue
		}
		if _, ok := agentCol[r.Agent]; !ok {
			agentCol[r.Agent] = len(agents)
			agents = append(agents, r.Agent)
		}
	}

	// ---- Pass 2: sum and count per (placement, agent). ----

	type cell struct {
		sum float64
		n   int
	}
	placementRow := make(map[string]int)
	var placements []string
	var cells [][]cell
	for _, r := range rows {
		j, ok := agentCol[r.Agent]
		if !ok {
			continue
		}
		i, ok := placementRow[r.Placement]
		if !ok {
			i = len(placements)
			placementRow[r.Placement] = i
			placements = append(placements, r.Placement)
			cells = append(cells, make([]cell, len(agents)))
		}
		cells[i][j].sum += r.PickRate
		cells[i][j].n++
	}

	// ---- Pass 3: means, zero-filled. ----

	values := make([][]float64, len(placements))
	for i := range cells {
		values[i] = make([]float64, len(agents))
		for j, c := range cells[i] {
			if c.n > 0 {
				values[i][j] = c.sum / float64(c.n)
			}
		}
	}

	return model.PivotMatrix{
		Placements: placements,
		Agents:     agents,
		Values:     values,
	}
}

// PlacementOrder returns the distinct placements of rows in first-seen order.
func PlacementOrder(rows []model.Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.Placement] {
			seen[r.Placement] = true
			out = append(out, r.Placement)
		}
	}
	return out
}

// Reindex returns a copy of m with rows in the given order. Labels that are
// not in m become all-zero rows; rows of m not named in order are dropped.
func Reindex(m model.PivotMatrix, order []string) model.PivotMatrix {
	rowOf := make(map[string]int, len(m.Placements))
	for i, p := range m.Placements {
		rowOf[p] = i
	}

	out := model.PivotMatrix{
		Placements: append([]string(nil), order...),
		Agents:     append([]string(nil), m.Agents...),
		Values:     make([][]float64, len(order)),
	}
	for i, p := range order {
		row := make([]float64, len(m.Agents))
		if src, ok := rowOf[p]; ok {
			copy(row, m.Values[src])
		}
		out.Values[i] = row
	}
	return out
}

// Reversed returns m with its rows in reverse order. With first-seen order
// from a highest-tier-first table this puts the lowest tier on top.
func Reversed(m model.PivotMatrix) model.PivotMatrix {
	order := make([]string, len(m.Placements))
	for i, p := range m.Placements {
		order[len(order)-1-i] = p
	}
	return Reindex(m, order)
}

// Flatten turns a matrix back into one row per cell, carrying placement,
// agent and pick rate. Pivoting the result reproduces m.
func Flatten(m model.PivotMatrix) []model.Row {
	out := make([]model.Row, 0, len(m.Placements)*len(m.Agents))
	for i, p := range m.Placements {
		for j, a := range m.Agents {
			out = append(out, model.Row{
				Agent:     a,
				PickRate:  m.Values[i][j],
				Placement: p,
			})
		}
	}
	return out
}

// FilterPlacement returns the rows scraped at placement (case-insensitive).
func FilterPlacement(rows []model.Row, placement string) []model.Row {
	var out []model.Row
	for _, r := range rows {
		if strings.EqualFold(r.Placement, placement) {
			out = append(out, r)
		}
	}
	return out
}
