package parser

import "fmt"

// Widths of the two token streams on a leaderboard page.
const (
	GeneralWidth = 7 // rank, agent, kd, win_rate, pick_rate, avg_score, matches
	CombatWidth  = 3 // kills, deaths, assists
	RecordWidth  = GeneralWidth + CombatWidth
)

// Positions within a Record. Records keep page order: the general window
// followed by the KDA window.
const (
	srcRank = iota
	srcAgent
	srcKD
	srcWinRate
	srcPickRate
	srcAvgScore
	srcMatches
	srcKills
	srcDeaths
	srcAssists
)

// Record is one agent's raw tokens in page order:
// rank, agent, kd, win_rate, pick_rate, avg_score, matches, kills, deaths, assists.
type Record [RecordWidth]string

// Window splits tokens into consecutive non-overlapping groups of width.
// A trailing partial group is dropped, or reported as ErrPartialGroup when
// strict is set.
func Window(tokens []string, width int, strict bool) ([][]string, error) {
	if width <= 0 {
		return nil, fmt.Errorf("window width must be positive, got %d", width)
	}
	if rem := len(tokens) % width; rem != 0 && strict {
		return nil, fmt.Errorf("%w: %d tokens, width %d, %d left over", ErrPartialGroup, len(tokens), width, rem)
	}
	n := len(tokens) / width
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, tokens[i*width:(i+1)*width])
	}
	return out, nil
}

// Zip joins general and KDA groups position for position into flat records.
func Zip(general, combat [][]string) ([]Record, error) {
	if len(general) != len(combat) {
		return nil, fmt.Errorf("%w: %d general, %d kda", ErrLengthMismatch, len(general), len(combat))
	}
	out := make([]Record, len(general))
	for i := range general {
		if len(general[i]) != GeneralWidth || len(combat[i]) != CombatWidth {
			return nil, fmt.Errorf("record %d: group widths %d/%d, want %d/%d",
				i, len(general[i]), len(combat[i]), GeneralWidth, CombatWidth)
		}
		copy(out[i][:GeneralWidth], general[i])
		copy(out[i][GeneralWidth:], combat[i])
	}
	return out, nil
}

// Records windows both streams and zips them.
func Records(general, combat []string, strict bool) ([]Record, error) {
	g, err := Window(general, GeneralWidth, strict)
	if err != nil {
		return nil, fmt.Errorf("general stream: %w", err)
	}
	c, err := Window(combat, CombatWidth, strict)
	if err != nil {
		return nil, fmt.Errorf("kda stream: %w", err)
	}
	return Zip(g, c)
}
