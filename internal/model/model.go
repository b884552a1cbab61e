package model

import "fmt"

// ---- Scraped rows ----

// Row is one agent's leaderboard stats at one rank page, typed and tagged.
// Rank is the label the page printed in the row's leading cell; Placement is
// the catalog name of the rank page the row was scraped from.
type Row struct {
	Rank  string
	Agent string

	KD      float64
	Kills   float64
	Deaths  float64
	Assists float64

	WinRate  float64 // fraction in [0,1], 4 decimal places
	PickRate float64 // fraction in [0,1], 4 decimal places

	AvgScore int
	Matches  int

	Episode   string
	Act       string
	Placement string
}

// KDA returns (kills + assists) / deaths, or kills + assists when deaths is zero.
func (r *Row) KDA() float64 {
	if r.Deaths == 0 {
		return r.Kills + r.Assists
	}
	return (r.Kills + r.Assists) / r.Deaths
}

// Tag attaches the (episode, act, placement) triple to every row in place.
func Tag(rows []Row, episode, act, placement string) {
	for i := range rows {
		rows[i].Episode = episode
		rows[i].Act = act
		rows[i].Placement = placement
	}
}

// ActKey identifies one act table.
type ActKey struct {
	Episode string
	Act     string
}

// String is the combined key used in file names, e.g. "e8act2".
func (k ActKey) String() string { return k.Episode + k.Act }

// ActSummary is a lightweight record for the list command.
type ActSummary struct {
	Key        ActKey
	Rows       int
	Placements int
	Agents     int
}

// ---- Aggregated metrics ----

// PivotMatrix is a placement x agent grid of mean pick rates.
// Values[i][j] is the cell for Placements[i] and Agents[j].
type PivotMatrix struct {
	Placements []string
	Agents     []string
	Values     [][]float64
}

// At returns the cell for (placement, agent) and whether both labels exist.
func (m *PivotMatrix) At(placement, agent string) (float64, bool) {
	i := indexOf(m.Placements, placement)
	j := indexOf(m.Agents, agent)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// Max returns the largest cell, or 0 for an empty matrix.
func (m *PivotMatrix) Max() float64 {
	var hi float64
	for _, row := range m.Values {
		for _, v := range row {
			if v > hi {
				hi = v
			}
		}
	}
	return hi
}

// Validate checks that Values has one row per placement and one column per agent.
func (m *PivotMatrix) Validate() error {
	if len(m.Values) != len(m.Placements) {
		return fmt.Errorf("pivot has %d value rows for %d placements", len(m.Values), len(m.Placements))
	}
	for i, row := range m.Values {
		if len(row) != len(m.Agents) {
			return fmt.Errorf("pivot row %q has %d cells for %d agents", m.Placements[i], len(row), len(m.Agents))
		}
	}
	return nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
