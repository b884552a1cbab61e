package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-val-stats/internal/blitz"
	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/observability"
	"github.com/pable/go-val-stats/internal/parser"
	"github.com/pable/go-val-stats/internal/snapshot"
	"github.com/pable/go-val-stats/internal/storage"
	"github.com/pable/go-val-stats/internal/table"
)

var testRanks = []catalog.Rank{catalog.Radiant, catalog.Immortal3, catalog.Gold3}

// page renders a leaderboard in the default selector layout with one row per
// agent. extraKDA appends unmatched KDA spans.
func page(label string, agents []string, extraKDA ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="⚡b73efc61 row ⚡f6341061">`)
	for i, a := range agents {
		cells := []string{label, a, "1.05", "51.2%", fmt.Sprintf("%d.5%%", 10-i), "230", "2,001"}
		b.WriteString(`<div>`)
		for _, c := range cells {
			fmt.Fprintf(&b, `<span class="type-body2">%s</span>`, c)
		}
		b.WriteString(`<div class="⚡8a7d61c3"><span>14.1</span><span>/</span><span>13.2</span><span>/</span><span>6.3</span></div>`)
		b.WriteString(`</div>`)
	}
	for _, t := range extraKDA {
		fmt.Fprintf(&b, `<div class="⚡8a7d61c3"><span>%s</span></div>`, t)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

const missingContainer = `<html><body><h1>Something went wrong</h1></body></html>`

// fakeFetcher serves pages keyed by "<episodeKey>/<rank name>". Unknown keys
// are not found.
type fakeFetcher struct {
	pages  map[string]string
	errs   map[string]error
	delays map[catalog.Rank]time.Duration

	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, rank catalog.Rank, episodeKey string) (string, error) {
	key := episodeKey + "/" + rank.Name()
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if d := f.delays[rank]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err, ok := f.errs[key]; ok {
		return "", err
	}
	if html, ok := f.pages[key]; ok {
		return html, nil
	}
	return "", fmt.Errorf("GET %s: %w", key, blitz.ErrNotFound)
}

type recordingSink struct {
	acts     []model.ActKey
	rows     map[model.ActKey][]model.Row
	finished int
}

func (s *recordingSink) WriteAct(_ context.Context, key model.ActKey, rows []model.Row) error {
	if s.rows == nil {
		s.rows = make(map[model.ActKey][]model.Row)
	}
	s.acts = append(s.acts, key)
	s.rows[key] = rows
	return nil
}

func (s *recordingSink) Finish(context.Context) error {
	s.finished++
	return nil
}

func TestRun_AllNotFoundWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csvs")
	sink := &recordingSink{}
	s := &Scraper{
		Fetcher: &fakeFetcher{},
		Sinks:   []Sink{table.Dir{Path: dir}, sink},
		Ranks:   testRanks,
	}

	sum, err := s.Run(context.Background(), []catalog.Episode{catalog.Episode8}, []catalog.Act{catalog.Act2})
	require.NoError(t, err)
	require.Equal(t, len(testRanks), sum.NotFound)
	require.Empty(t, sum.Written)
	require.Equal(t, []model.ActKey{{Episode: "e8", Act: "act2"}}, sum.Skipped)

	require.Empty(t, sink.acts)
	require.Zero(t, sink.finished)
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err), "no act file or directory should be created")
}

func TestScrapeAct_MixedOutcomes(t *testing.T) {
	m := observability.NewMetrics()
	f := &fakeFetcher{pages: map[string]string{
		"e7act1/radiant": page("Radiant", []string{"Jett", "Raze"}),
		"e7act1/gold3":   missingContainer,
	}}
	s := &Scraper{Fetcher: f, Ranks: testRanks, Metrics: m}

	res, err := s.ScrapeAct(context.Background(), catalog.Episode7, catalog.Act1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count(observability.OutcomeParsed))
	require.Equal(t, 1, res.Count(observability.OutcomeNotFound))
	require.Equal(t, 1, res.Count(observability.OutcomeEmpty))

	require.Len(t, res.Rows, 2)
	for _, r := range res.Rows {
		require.Equal(t, "e7", r.Episode)
		require.Equal(t, "act1", r.Act)
		require.Equal(t, "radiant", r.Placement)
		require.Equal(t, "Radiant", r.Rank)
	}
	require.Equal(t, 0.105, res.Rows[0].PickRate)
	require.Equal(t, 2001, res.Rows[0].Matches)

	require.Equal(t, 1.0, testutil.ToFloat64(m.PagesTotal.WithLabelValues(observability.OutcomeEmpty)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PagesTotal.WithLabelValues(observability.OutcomeNotFound)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RowsTotal))
}

func TestScrapeAct_LengthMismatchAborts(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"e8act1/immortal3": page("Immortal 3", []string{"Omen"}, "1", "2", "3"),
	}}
	sink := &recordingSink{}
	s := &Scraper{Fetcher: f, Ranks: testRanks, Sinks: []Sink{sink}}

	_, err := s.Run(context.Background(), []catalog.Episode{catalog.Episode8}, []catalog.Act{catalog.Act1})
	require.ErrorIs(t, err, parser.ErrLengthMismatch)
	require.Contains(t, err.Error(), "immortal3")
	require.Empty(t, sink.acts)
}

func TestScrapeAct_MalformedFieldAborts(t *testing.T) {
	bad := strings.Replace(page("Radiant", []string{"Jett"}), "51.2%", "N/A", 1)
	f := &fakeFetcher{pages: map[string]string{"e8act1/radiant": bad}}
	s := &Scraper{Fetcher: f, Ranks: testRanks}

	_, err := s.ScrapeAct(context.Background(), catalog.Episode8, catalog.Act1)
	require.ErrorIs(t, err, parser.ErrMalformedField)
}

func TestScrapeAct_TimeoutIsNotNotFound(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"e8act1/gold3": fmt.Errorf("GET x: %w", blitz.ErrTimeout),
	}}
	s := &Scraper{Fetcher: f, Ranks: testRanks}

	_, err := s.ScrapeAct(context.Background(), catalog.Episode8, catalog.Act1)
	require.ErrorIs(t, err, blitz.ErrTimeout)
}

func TestScrapeAct_ConcurrencyKeepsRankOrder(t *testing.T) {
	f := &fakeFetcher{
		pages:  make(map[string]string),
		delays: make(map[catalog.Rank]time.Duration),
	}
	ranks := catalog.Ranks()[:6]
	for i, r := range ranks {
		f.pages["e6act3/"+r.Name()] = page(r.Label(), []string{"Agent" + strconv.Itoa(i)})
		// Highest tier answers last.
		f.delays[r] = time.Duration(len(ranks)-i) * 5 * time.Millisecond
	}
	s := &Scraper{Fetcher: f, Ranks: ranks, Concurrency: len(ranks)}

	res, err := s.ScrapeAct(context.Background(), catalog.Episode6, catalog.Act3)
	require.NoError(t, err)
	require.Len(t, res.Rows, len(ranks))
	for i, r := range res.Rows {
		require.Equal(t, ranks[i].Name(), r.Placement)
		require.Equal(t, "Agent"+strconv.Itoa(i), r.Agent)
	}
}

func TestRun_OrderAndFinish(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"e8act1/radiant": page("Radiant", []string{"Jett"}),
		"e7act3/radiant": page("Radiant", []string{"Sage"}),
		"e7act3/gold3":   page("Gold 3", []string{"Sage", "Reyna"}),
	}}
	sink := &recordingSink{}
	s := &Scraper{Fetcher: f, Ranks: testRanks, Sinks: []Sink{sink}}

	sum, err := s.Run(context.Background(),
		[]catalog.Episode{catalog.Episode8, catalog.Episode7},
		[]catalog.Act{catalog.Act1, catalog.Act3})
	require.NoError(t, err)

	want := []model.ActKey{{Episode: "e8", Act: "act1"}, {Episode: "e7", Act: "act3"}}
	require.Equal(t, want, sink.acts)
	require.Equal(t, want, sum.Written)
	require.Len(t, sum.Skipped, 2)
	require.Equal(t, 4, sum.Rows)
	require.Equal(t, 1, sink.finished)

	e7 := sink.rows[want[1]]
	require.Equal(t, []string{"radiant", "gold3", "gold3"},
		[]string{e7[0].Placement, e7[1].Placement, e7[2].Placement})
}

func TestRun_EndToEndOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("act") != "e8act2" {
			http.NotFound(w, r)
			return
		}
		switch q.Get("rank") {
		case strconv.Itoa(int(catalog.Radiant)):
			w.Write([]byte(page("Radiant", []string{"Jett", "Raze"})))
		case strconv.Itoa(int(catalog.Gold3)):
			w.Write([]byte(page("Gold 3", []string{"Jett"})))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := blitz.NewClient(blitz.Config{
		Endpoint: srv.URL + "/agents?rank={rank}&act={act}",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	root := t.TempDir()
	csvDir := filepath.Join(root, "csvs")
	archive := &snapshot.Archive{Dir: filepath.Join(root, "pages")}
	s := &Scraper{
		Fetcher:     client,
		Sinks:       []Sink{table.Dir{Path: csvDir}, db},
		Archive:     archive,
		Ranks:       testRanks,
		Concurrency: 2,
	}

	sum, err := s.Run(context.Background(),
		[]catalog.Episode{catalog.Episode8},
		[]catalog.Act{catalog.Act1, catalog.Act2})
	require.NoError(t, err)
	require.Equal(t, 3, sum.Rows)
	require.Equal(t, 2, sum.Parsed)

	require.NoFileExists(t, filepath.Join(csvDir, "e8act1.csv"))
	rows, err := table.ReadFile(filepath.Join(csvDir, "e8act2.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "gold3", rows[2].Placement)

	all, err := table.ReadFile(filepath.Join(csvDir, table.MasterName))
	require.NoError(t, err)
	require.Len(t, all, 3)

	stored, err := db.ActRows(model.ActKey{Episode: "e8", Act: "act2"})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	require.FileExists(t, archive.Path("e8act2", catalog.Radiant))
	require.NoFileExists(t, archive.Path("e8act2", catalog.Immortal3))
}
