package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pable/go-val-stats/internal/model"
)

const rowColumns = `rank, agent, kd, kills, deaths, assists, win_rate, pick_rate,
	avg_score, matches, episode, act, placement`

// ErrDuplicateRow means one batch holds two rows with the same
// (episode, act, placement, agent). The table keys on that tuple, so the
// later row would silently replace the earlier one.
var ErrDuplicateRow = errors.New("duplicate row in batch")

// InsertRows bulk-inserts rows in a transaction. Uses INSERT OR REPLACE so
// re-scraping an act overwrites rows stored by earlier calls. A key repeated
// within rows fails the whole batch with ErrDuplicateRow.
func (db *DB) InsertRows(rows []model.Row) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRows(context.Background(), tx, rows); err != nil {
		return err
	}
	return tx.Commit()
}

// WriteAct replaces the stored rows of one act in a single transaction, so
// the store can serve as a scrape sink next to the CSV directory.
func (db *DB) WriteAct(ctx context.Context, key model.ActKey, rows []model.Row) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_stats WHERE episode = ? AND act = ?`,
		key.Episode, key.Act); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	if err := insertRows(ctx, tx, rows); err != nil {
		return err
	}
	return tx.Commit()
}

type rowKey struct{ episode, act, placement, agent string }

func insertRows(ctx context.Context, tx *sql.Tx, rows []model.Row) error {
	seen := make(map[rowKey]int, len(rows))
	for i, r := range rows {
		k := rowKey{r.Episode, r.Act, r.Placement, r.Agent}
		if j, ok := seen[k]; ok {
			return fmt.Errorf("%w: %s %s/%s at rows %d and %d",
				ErrDuplicateRow, r.Episode+r.Act, r.Placement, r.Agent, j, i)
		}
		seen[k] = i
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO agent_stats(`+rowColumns+`, seq)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err = stmt.ExecContext(ctx,
			r.Rank, r.Agent, r.KD, r.Kills, r.Deaths, r.Assists,
			r.WinRate, r.PickRate, r.AvgScore, r.Matches,
			r.Episode, r.Act, r.Placement, i,
		)
		if err != nil {
			return fmt.Errorf("insert agent_stats for %s/%s: %w", r.Placement, r.Agent, err)
		}
	}
	return nil
}

// ActRows returns the rows of one act in scrape order.
func (db *DB) ActRows(key model.ActKey) ([]model.Row, error) {
	return db.queryRows(`
		SELECT `+rowColumns+` FROM agent_stats
		WHERE episode = ? AND act = ?
		ORDER BY seq`, key.Episode, key.Act)
}

// AllRows returns every stored row, newest act first, which matches the
// order of the concatenated CSV table.
func (db *DB) AllRows() ([]model.Row, error) {
	return db.queryRows(`
		SELECT ` + rowColumns + ` FROM agent_stats
		ORDER BY episode DESC, act DESC, seq`)
}

func (db *DB) queryRows(query string, args ...any) ([]model.Row, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var r model.Row
		if err := rows.Scan(
			&r.Rank, &r.Agent, &r.KD, &r.Kills, &r.Deaths, &r.Assists,
			&r.WinRate, &r.PickRate, &r.AvgScore, &r.Matches,
			&r.Episode, &r.Act, &r.Placement,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListActs returns one summary per stored act, newest first.
func (db *DB) ListActs() ([]model.ActSummary, error) {
	rows, err := db.conn.Query(`
		SELECT episode, act, COUNT(*), COUNT(DISTINCT placement), COUNT(DISTINCT agent)
		FROM agent_stats
		GROUP BY episode, act
		ORDER BY episode DESC, act DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActSummary
	for rows.Next() {
		var s model.ActSummary
		if err := rows.Scan(&s.Key.Episode, &s.Key.Act, &s.Rows, &s.Placements, &s.Agents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteAct removes every row of one act and returns how many were deleted.
func (db *DB) DeleteAct(key model.ActKey) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM agent_stats WHERE episode = ? AND act = ?`, key.Episode, key.Act)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueryRaw runs an arbitrary query and returns column names and every row
// rendered as strings. NULL becomes "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				rec[i] = v.String
			} else {
				rec[i] = "NULL"
			}
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}
