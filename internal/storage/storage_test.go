package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/pable/go-val-stats/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func actRows(episode, act string) []model.Row {
	rows := []model.Row{
		{Rank: "1", Agent: "Jett", KD: 1.2, Kills: 15, Deaths: 12.5, Assists: 3.1, WinRate: 0.553, PickRate: 0.127, AvgScore: 215, Matches: 1204},
		{Rank: "2", Agent: "Raze", KD: 0.98, Kills: 13.4, Deaths: 13.7, Assists: 4.2, WinRate: 0.491, PickRate: 0.0805, AvgScore: 201, Matches: 987},
	}
	model.Tag(rows, episode, act, "radiant")
	more := []model.Row{
		{Rank: "1", Agent: "Sage", KD: 1.01, Kills: 12, Deaths: 11, Assists: 8, WinRate: 0.51, PickRate: 0.09, AvgScore: 190, Matches: 3000},
	}
	model.Tag(more, episode, act, "gold3")
	return append(rows, more...)
}

func TestInsertAndActRows(t *testing.T) {
	db := openMemDB(t)
	key := model.ActKey{Episode: "e8", Act: "act2"}

	if err := db.InsertRows(actRows("e8", "act2")); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}

	got, err := db.ActRows(key)
	if err != nil {
		t.Fatalf("ActRows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	// Scrape order is preserved.
	if got[0].Agent != "Jett" || got[1].Agent != "Raze" || got[2].Agent != "Sage" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].Agent, got[1].Agent, got[2].Agent)
	}
	if got[0].PickRate != 0.127 || got[0].Matches != 1204 || got[0].AvgScore != 215 {
		t.Errorf("unexpected values: %+v", got[0])
	}
	if got[2].Placement != "gold3" {
		t.Errorf("expected gold3 placement, got %s", got[2].Placement)
	}

	empty, err := db.ActRows(model.ActKey{Episode: "e1", Act: "act1"})
	if err != nil {
		t.Fatalf("ActRows: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no rows for unknown act, got %d", len(empty))
	}
}

func TestInsertRows_ReplacesOnKey(t *testing.T) {
	db := openMemDB(t)

	rows := actRows("e8", "act1")
	if err := db.InsertRows(rows); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	rows[0].PickRate = 0.5
	if err := db.InsertRows(rows[:1]); err != nil {
		t.Fatalf("InsertRows (replace): %v", err)
	}

	got, _ := db.ActRows(model.ActKey{Episode: "e8", Act: "act1"})
	if len(got) != 3 {
		t.Fatalf("expected 3 rows after replace, got %d", len(got))
	}
	var jett model.Row
	for _, r := range got {
		if r.Agent == "Jett" {
			jett = r
		}
	}
	if jett.PickRate != 0.5 {
		t.Errorf("expected replaced pick rate 0.5, got %f", jett.PickRate)
	}
}

func TestInsertRows_DuplicateInBatchRejected(t *testing.T) {
	db := openMemDB(t)

	rows := actRows("e8", "act1")
	dup := rows[0]
	dup.PickRate = 0.9
	rows = append(rows, dup)

	err := db.InsertRows(rows)
	if !errors.Is(err, ErrDuplicateRow) {
		t.Fatalf("expected ErrDuplicateRow, got %v", err)
	}
	got, _ := db.ActRows(model.ActKey{Episode: "e8", Act: "act1"})
	if len(got) != 0 {
		t.Errorf("expected nothing stored after rejected batch, got %d rows", len(got))
	}

	err = db.WriteAct(context.Background(), model.ActKey{Episode: "e8", Act: "act1"}, rows)
	if !errors.Is(err, ErrDuplicateRow) {
		t.Errorf("WriteAct: expected ErrDuplicateRow, got %v", err)
	}
}

func TestWriteAct_ReplacesWholeAct(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	key := model.ActKey{Episode: "e7", Act: "act3"}

	if err := db.WriteAct(ctx, key, actRows("e7", "act3")); err != nil {
		t.Fatalf("WriteAct: %v", err)
	}
	if err := db.WriteAct(ctx, key, actRows("e7", "act3")[:1]); err != nil {
		t.Fatalf("WriteAct (second): %v", err)
	}

	got, _ := db.ActRows(key)
	if len(got) != 1 {
		t.Errorf("expected 1 row after rewrite, got %d", len(got))
	}
}

func TestListActsAndAllRows(t *testing.T) {
	db := openMemDB(t)
	for _, k := range []model.ActKey{{Episode: "e7", Act: "act1"}, {Episode: "e8", Act: "act1"}} {
		if err := db.InsertRows(actRows(k.Episode, k.Act)); err != nil {
			t.Fatalf("InsertRows: %v", err)
		}
	}

	acts, err := db.ListActs()
	if err != nil {
		t.Fatalf("ListActs: %v", err)
	}
	if len(acts) != 2 {
		t.Fatalf("expected 2 acts, got %d", len(acts))
	}
	// Newest first.
	if acts[0].Key.String() != "e8act1" {
		t.Errorf("expected e8act1 first, got %s", acts[0].Key)
	}
	if acts[0].Rows != 3 || acts[0].Placements != 2 || acts[0].Agents != 3 {
		t.Errorf("unexpected summary: %+v", acts[0])
	}

	all, err := db.AllRows()
	if err != nil {
		t.Fatalf("AllRows: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(all))
	}
	if all[0].Episode != "e8" || all[5].Episode != "e7" {
		t.Errorf("expected newest episode first, got %s ... %s", all[0].Episode, all[5].Episode)
	}
}

func TestDeleteAct(t *testing.T) {
	db := openMemDB(t)
	db.InsertRows(actRows("e6", "act2"))

	n, err := db.DeleteAct(model.ActKey{Episode: "e6", Act: "act2"})
	if err != nil {
		t.Fatalf("DeleteAct: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deleted rows, got %d", n)
	}
	n, _ = db.DeleteAct(model.ActKey{Episode: "e6", Act: "act2"})
	if n != 0 {
		t.Errorf("expected nothing left to delete, got %d", n)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.InsertRows(actRows("e8", "act2"))

	cols, rows, err := db.QueryRaw(`SELECT agent, matches, NULL AS note FROM agent_stats WHERE placement = 'radiant' ORDER BY seq`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 3 || cols[0] != "agent" || cols[2] != "note" {
		t.Errorf("unexpected columns: %v", cols)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Jett" || rows[0][1] != "1204" || rows[0][2] != "NULL" {
		t.Errorf("unexpected first row: %v", rows[0])
	}

	if _, _, err := db.QueryRaw(`SELECT * FROM nope`); err == nil {
		t.Error("expected error for unknown table")
	}
}
