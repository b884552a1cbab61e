package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/pable/go-val-stats/internal/model"
)

// TypeRow converts one record into a typed row. Episode, act and placement
// are left empty for the caller to attach.
func TypeRow(rec Record) (model.Row, error) {
	row := model.Row{
		Rank:  strings.TrimSpace(rec[srcRank]),
		Agent: strings.TrimSpace(rec[srcAgent]),
	}

	var err error
	if row.KD, err = parseFloat("kd", rec[srcKD]); err != nil {
		return model.Row{}, err
	}
	if row.Kills, err = parseFloat("kills", rec[srcKills]); err != nil {
		return model.Row{}, err
	}
	if row.Deaths, err = parseFloat("deaths", rec[srcDeaths]); err != nil {
		return model.Row{}, err
	}
	if row.Assists, err = parseFloat("assists", rec[srcAssists]); err != nil {
		return model.Row{}, err
	}
	if row.WinRate, err = parseRate("win_rate", rec[srcWinRate]); err != nil {
		return model.Row{}, err
	}
	if row.PickRate, err = parseRate("pick_rate", rec[srcPickRate]); err != nil {
		return model.Row{}, err
	}
	if row.AvgScore, err = parseInt("avg_score", rec[srcAvgScore]); err != nil {
		return model.Row{}, err
	}
	if row.Matches, err = parseInt("matches", strings.ReplaceAll(rec[srcMatches], ",", "")); err != nil {
		return model.Row{}, err
	}
	return row, nil
}

// TypeRows types every record, stopping at the first malformed one.
func TypeRows(recs []Record) ([]model.Row, error) {
	rows := make([]model.Row, 0, len(recs))
	for i, rec := range recs {
		row, err := TypeRow(rec)
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Row = i
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var (
	errNotFinite  = errors.New("not a finite number")
	errRateBounds = errors.New("rate outside 0-100%")
)

// parseRate turns "55.3%" into 0.553. Rates must lie in [0%, 100%].
func parseRate(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "%"), 64)
	if err != nil {
		return 0, &FieldError{Row: -1, Field: field, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Row: -1, Field: field, Value: raw, Err: errNotFinite}
	}
	if v < 0 || v > 100 {
		return 0, &FieldError{Row: -1, Field: field, Value: raw, Err: errRateBounds}
	}
	return round4(v / 100), nil
}

// parseFloat rejects NaN and infinities, which strconv accepts.
func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &FieldError{Row: -1, Field: field, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Row: -1, Field: field, Value: raw, Err: errNotFinite}
	}
	return v, nil
}

func parseInt(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FieldError{Row: -1, Field: field, Value: raw, Err: err}
	}
	return v, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
