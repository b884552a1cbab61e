package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-val-stats/internal/model"
)

// agentCells is one leaderboard row as the page renders it.
type agentCells struct {
	general [GeneralWidth]string
	kda     [CombatWidth]string
}

var (
	jettCells = agentCells{
		general: [GeneralWidth]string{"Gold 3", "Jett", "1.2", "55.3%", "12.7%", "215", "1,204"},
		kda:     [CombatWidth]string{"150", "125", "95"},
	}
	razeCells = agentCells{
		general: [GeneralWidth]string{"Gold 3", "Raze", "0.98", "49.1%", "8.05%", "201", "987"},
		kda:     [CombatWidth]string{"13.4", "13.7", "4.2"},
	}
)

// leaderboardPage renders a page in the layout the default selectors expect.
// extraKDA adds spans to the KDA region without matching general cells.
func leaderboardPage(agents []agentCells, extraKDA ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><header><span class="type-body2">not in table</span></header>`)
	b.WriteString(`<div class="⚡b73efc61 row ⚡f6341061">`)
	for _, a := range agents {
		b.WriteString(`<div class="agent-row">`)
		for _, c := range a.general {
			fmt.Fprintf(&b, `<span class="type-body2">%s</span>`, c)
		}
		fmt.Fprintf(&b, `<div class="⚡8a7d61c3"><span>%s</span><span> / </span><span>%s</span><span> / </span><span>%s</span></div>`,
			a.kda[0], a.kda[1], a.kda[2])
		b.WriteString(`</div>`)
	}
	if len(extraKDA) > 0 {
		b.WriteString(`<div class="⚡8a7d61c3">`)
		for _, t := range extraKDA {
			fmt.Fprintf(&b, `<span>%s</span><span>, </span>`, t)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func seqTokens(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func TestRecords_ExactMultiples(t *testing.T) {
	for k := 0; k <= 4; k++ {
		general := seqTokens("g", GeneralWidth*k)
		combat := seqTokens("c", CombatWidth*k)

		recs, err := Records(general, combat, false)
		require.NoError(t, err)
		require.Len(t, recs, k)

		// Re-flattening yields every token exactly once, general then kda per record.
		var flat []string
		for _, r := range recs {
			flat = append(flat, r[:]...)
		}
		var want []string
		for i := 0; i < k; i++ {
			want = append(want, general[i*GeneralWidth:(i+1)*GeneralWidth]...)
			want = append(want, combat[i*CombatWidth:(i+1)*CombatWidth]...)
		}
		require.Equal(t, want, flat)
	}
}

func TestRecords_TrailingPartialDropped(t *testing.T) {
	for r := 1; r < GeneralWidth; r++ {
		general := seqTokens("g", GeneralWidth*3+r)
		combat := seqTokens("c", CombatWidth*3)

		recs, err := Records(general, combat, false)
		require.NoError(t, err)
		require.Len(t, recs, 3, "remainder %d", r)
	}
}

func TestRecords_StrictRejectsPartial(t *testing.T) {
	_, err := Records(seqTokens("g", GeneralWidth*2+1), seqTokens("c", CombatWidth*2), true)
	require.ErrorIs(t, err, ErrPartialGroup)

	_, err = Records(seqTokens("g", GeneralWidth*2), seqTokens("c", CombatWidth*2+2), true)
	require.ErrorIs(t, err, ErrPartialGroup)

	recs, err := Records(seqTokens("g", GeneralWidth*2), seqTokens("c", CombatWidth*2), true)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestRecords_LengthMismatch(t *testing.T) {
	_, err := Records(seqTokens("g", GeneralWidth*3), seqTokens("c", CombatWidth*2), false)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestWindow_BadWidth(t *testing.T) {
	_, err := Window([]string{"a"}, 0, false)
	require.Error(t, err)
}

func TestTypeRow(t *testing.T) {
	rec := Record{"Gold 3", "Jett", "1.2", "55.3%", "12.7%", "215", "1,204", "150", "125", "95"}

	row, err := TypeRow(rec)
	require.NoError(t, err)

	want := model.Row{
		Rank:     "Gold 3",
		Agent:    "Jett",
		KD:       1.2,
		Kills:    150,
		Deaths:   125,
		Assists:  95,
		WinRate:  0.5530,
		PickRate: 0.1270,
		AvgScore: 215,
		Matches:  1204,
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("TypeRow mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeRow_RoundsRatesToFourPlaces(t *testing.T) {
	rec := Record{"1", "Sage", "1.0", "50.123456%", "3.33333%", "200", "10", "1", "1", "1"}
	row, err := TypeRow(rec)
	require.NoError(t, err)
	require.Equal(t, 0.5012, row.WinRate)
	require.Equal(t, 0.0333, row.PickRate)
}

func TestTypeRow_MalformedPercentage(t *testing.T) {
	rec := Record{"Gold 3", "Jett", "1.2", "N/A", "12.7%", "215", "1,204", "150", "125", "95"}

	_, err := TypeRow(rec)
	require.ErrorIs(t, err, ErrMalformedField)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "win_rate", fe.Field)
	require.Equal(t, "N/A", fe.Value)
}

func TestTypeRow_MalformedEachNumericField(t *testing.T) {
	base := Record{"Gold 3", "Jett", "1.2", "55.3%", "12.7%", "215", "1,204", "150", "125", "95"}
	fields := map[int]string{
		srcKD: "kd", srcWinRate: "win_rate", srcPickRate: "pick_rate", srcAvgScore: "avg_score",
		srcMatches: "matches", srcKills: "kills", srcDeaths: "deaths", srcAssists: "assists",
	}
	for idx, name := range fields {
		rec := base
		rec[idx] = "--"
		_, err := TypeRow(rec)
		var fe *FieldError
		require.True(t, errors.As(err, &fe), "field %s", name)
		require.Equal(t, name, fe.Field)
	}
}

func TestTypeRow_NonFiniteAndOutOfRange(t *testing.T) {
	base := Record{"Gold 3", "Jett", "1.2", "55.3%", "12.7%", "215", "1,204", "150", "125", "95"}
	tests := []struct {
		idx   int
		value string
		field string
	}{
		{srcPickRate, "NaN%", "pick_rate"},
		{srcPickRate, "Inf%", "pick_rate"},
		{srcPickRate, "150%", "pick_rate"},
		{srcPickRate, "-3%", "pick_rate"},
		{srcWinRate, "100.01%", "win_rate"},
		{srcKD, "NaN", "kd"},
		{srcKD, "Infinity", "kd"},
		{srcKills, "-Inf", "kills"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			rec := base
			rec[tt.idx] = tt.value
			row, err := TypeRow(rec)
			require.ErrorIs(t, err, ErrMalformedField)
			require.Equal(t, model.Row{}, row)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, tt.field, fe.Field)
			require.Equal(t, tt.value, fe.Value)
		})
	}

	// The bounds themselves are valid.
	rec := base
	rec[srcWinRate], rec[srcPickRate] = "100%", "0%"
	row, err := TypeRow(rec)
	require.NoError(t, err)
	require.Equal(t, 1.0, row.WinRate)
	require.Equal(t, 0.0, row.PickRate)
}

func TestTypeRows_ReportsRowIndex(t *testing.T) {
	good := Record{"1", "Jett", "1.2", "55.3%", "12.7%", "215", "1,204", "150", "125", "95"}
	bad := good
	bad[srcMatches] = "lots"

	_, err := TypeRows([]Record{good, bad})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, 1, fe.Row)
	require.Contains(t, err.Error(), "row 1")
}

func TestExtract_Page(t *testing.T) {
	rows, err := Extract(leaderboardPage([]agentCells{jettCells, razeCells}), Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "Jett", rows[0].Agent)
	require.Equal(t, 1204, rows[0].Matches)
	require.Equal(t, 150.0, rows[0].Kills)
	require.Equal(t, 0.1270, rows[0].PickRate)

	require.Equal(t, "Raze", rows[1].Agent)
	require.Equal(t, 13.4, rows[1].Kills)
	require.Equal(t, 13.7, rows[1].Deaths)
	require.Equal(t, 4.2, rows[1].Assists)
	require.Equal(t, 0.0805, rows[1].PickRate)

	// Tags are the caller's job.
	require.Empty(t, rows[0].Episode)
	require.Empty(t, rows[0].Placement)
}

func TestExtract_NoContainer(t *testing.T) {
	rows, err := Extract(`<html><body><h1>404</h1><span class="type-body2">Page not found</span></body></html>`, Options{})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestExtract_EmptyContainer(t *testing.T) {
	rows, err := Extract(leaderboardPage(nil), Options{})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestExtractPage_Found(t *testing.T) {
	page, err := ExtractPage(strings.NewReader(`<html><body>gone</body></html>`), Options{})
	require.NoError(t, err)
	require.False(t, page.Found)

	page, err = ExtractPage(strings.NewReader(leaderboardPage(nil)), Options{})
	require.NoError(t, err)
	require.True(t, page.Found)
	require.Empty(t, page.Rows)

	page, err = ExtractPage(strings.NewReader(leaderboardPage([]agentCells{jettCells})), Options{})
	require.NoError(t, err)
	require.True(t, page.Found)
	require.Len(t, page.Rows, 1)
}

func TestExtract_KDAMismatchIsFatal(t *testing.T) {
	page := leaderboardPage([]agentCells{jettCells}, "1", "2", "3")
	rows, err := Extract(page, Options{})
	require.ErrorIs(t, err, ErrLengthMismatch)
	require.Nil(t, rows)
}

func TestExtract_MalformedCellIsFatal(t *testing.T) {
	broken := jettCells
	broken.general[4] = "N/A"
	_, err := Extract(leaderboardPage([]agentCells{razeCells, broken}), Options{})
	require.ErrorIs(t, err, ErrMalformedField)
}

func TestExtract_CustomSelectors(t *testing.T) {
	page := `<table id="lb"><tr>` +
		`<td class="c">1</td><td class="c">Omen</td><td class="c">1.05</td><td class="c">51%</td>` +
		`<td class="c">9.5%</td><td class="c">230</td><td class="c">2,001</td>` +
		`<td class="k"><b>14</b><b>/</b><b>13</b><b>/</b><b>6</b></td></tr></table>`
	opts := Options{Selectors: Selectors{Container: "#lb", BodyText: ".c", KDA: ".k b"}}

	rows, err := Extract(page, opts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Omen", rows[0].Agent)
	require.Equal(t, 2001, rows[0].Matches)
	require.Equal(t, 6.0, rows[0].Assists)
}

func TestIsSeparator(t *testing.T) {
	for _, s := range []string{" ", "", ", ", "/", " / ", "\n"} {
		require.True(t, isSeparator(s), "%q", s)
	}
	for _, s := range []string{"0", "12.5", "a"} {
		require.False(t, isSeparator(s), "%q", s)
	}
}
