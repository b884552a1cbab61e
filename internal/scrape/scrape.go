// Package scrape drives the fetch loop: for every episode and act it fetches
// one leaderboard page per rank, extracts and tags the rows, and hands each
// non-empty act table to the configured sinks.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-val-stats/internal/blitz"
	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/observability"
	"github.com/pable/go-val-stats/internal/parser"
	"github.com/pable/go-val-stats/internal/snapshot"
)

// Fetcher returns the HTML of one leaderboard page. A page the site does not
// have must be reported with an error wrapping blitz.ErrNotFound.
type Fetcher interface {
	FetchPage(ctx context.Context, rank catalog.Rank, episodeKey string) (string, error)
}

// Sink persists one act table.
type Sink interface {
	WriteAct(ctx context.Context, key model.ActKey, rows []model.Row) error
}

// Finisher is implemented by sinks that need a final step once every act has
// been written, such as building the master table.
type Finisher interface {
	Finish(ctx context.Context) error
}

// Scraper is the fetch loop. Zero values of the optional fields disable them.
type Scraper struct {
	Fetcher Fetcher
	Sinks   []Sink

	Archive *snapshot.Archive
	Metrics *observability.Metrics
	Logger  *slog.Logger

	Parse parser.Options

	// Ranks to fetch per act, highest tier first. Defaults to catalog.Ranks().
	Ranks []catalog.Rank
	// Concurrency is the number of rank pages fetched at once within an act.
	// Row order in the act table is rank order regardless.
	Concurrency int
}

// PageResult is the outcome of one rank page.
type PageResult struct {
	Rank    catalog.Rank
	Outcome string
	Rows    []model.Row
}

// ActResult is one act's accumulated table and per-rank outcomes.
type ActResult struct {
	Key   model.ActKey
	Rows  []model.Row
	Pages []PageResult
}

// Count returns how many pages ended with outcome.
func (r ActResult) Count(outcome string) int {
	n := 0
	for _, p := range r.Pages {
		if p.Outcome == outcome {
			n++
		}
	}
	return n
}

// Summary totals a Run.
type Summary struct {
	Written  []model.ActKey
	Skipped  []model.ActKey
	Rows     int
	Parsed   int
	NotFound int
	Empty    int
}

func (s *Scraper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Scraper) ranks() []catalog.Rank {
	if len(s.Ranks) > 0 {
		return s.Ranks
	}
	return catalog.Ranks()
}

// ScrapeAct fetches every rank page of one act and returns the tagged rows in
// rank order. Not-found and empty pages contribute no rows; any other fetch
// or extraction failure aborts the act.
func (s *Scraper) ScrapeAct(ctx context.Context, ep catalog.Episode, act catalog.Act) (ActResult, error) {
	key := model.ActKey{Episode: string(ep), Act: string(act)}
	ranks := s.ranks()
	pages := make([]PageResult, len(ranks))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, rank := range ranks {
		i, rank := i, rank // per-iteration copies (module targets go 1.21)
		g.Go(func() error {
			res, err := s.scrapePage(gctx, key, rank)
			pages[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return ActResult{Key: key, Pages: pages}, err
	}

	result := ActResult{Key: key, Pages: pages}
	for _, p := range pages {
		result.Rows = append(result.Rows, p.Rows...)
	}
	return result, nil
}

func (s *Scraper) scrapePage(ctx context.Context, key model.ActKey, rank catalog.Rank) (PageResult, error) {
	log := s.logger().With("act", key.String(), "rank", rank.Name())
	res := PageResult{Rank: rank}

	start := time.Now()
	html, err := s.Fetcher.FetchPage(ctx, rank, key.String())
	s.Metrics.ObserveFetch(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, blitz.ErrNotFound) {
			res.Outcome = observability.OutcomeNotFound
			s.Metrics.Page(res.Outcome, 0)
			log.Info("no leaderboard, skipping")
			return res, nil
		}
		res.Outcome = observability.OutcomeFailed
		s.Metrics.Page(res.Outcome, 0)
		return res, fmt.Errorf("fetch %s %s: %w", key, rank.Name(), err)
	}

	if s.Archive != nil {
		if path, err := s.Archive.Save(key.String(), rank, html); err != nil {
			log.Warn("archive page failed", "err", err)
		} else {
			log.Debug("archived page", "path", path)
		}
	}

	page, err := parser.ExtractPage(strings.NewReader(html), s.Parse)
	if err != nil {
		res.Outcome = observability.OutcomeFailed
		s.Metrics.Page(res.Outcome, 0)
		return res, fmt.Errorf("extract %s %s: %w", key, rank.Name(), err)
	}
	if !page.Found {
		res.Outcome = observability.OutcomeEmpty
		s.Metrics.Page(res.Outcome, 0)
		log.Warn("leaderboard container missing, skipping")
		return res, nil
	}

	model.Tag(page.Rows, key.Episode, key.Act, rank.Name())
	res.Outcome = observability.OutcomeParsed
	res.Rows = page.Rows
	s.Metrics.Page(res.Outcome, len(page.Rows))
	log.Debug("parsed page", "rows", len(page.Rows))
	return res, nil
}

// Run scrapes every (episode, act) pair in the given order. Each non-empty act
// table is written to every sink; an act with no rows writes nothing. Once all
// acts are done and at least one was written, sinks implementing Finisher are
// finished.
func (s *Scraper) Run(ctx context.Context, episodes []catalog.Episode, acts []catalog.Act) (Summary, error) {
	var sum Summary
	log := s.logger()

	for _, ep := range episodes {
		for _, act := range acts {
			res, err := s.ScrapeAct(ctx, ep, act)
			if err != nil {
				return sum, err
			}
			sum.Parsed += res.Count(observability.OutcomeParsed)
			sum.NotFound += res.Count(observability.OutcomeNotFound)
			sum.Empty += res.Count(observability.OutcomeEmpty)

			if len(res.Rows) == 0 {
				log.Info("act has no rows, nothing written", "act", res.Key.String())
				sum.Skipped = append(sum.Skipped, res.Key)
				continue
			}
			for _, sink := range s.Sinks {
				if err := sink.WriteAct(ctx, res.Key, res.Rows); err != nil {
					return sum, fmt.Errorf("write %s: %w", res.Key, err)
				}
			}
			s.Metrics.ActWritten()
			sum.Rows += len(res.Rows)
			sum.Written = append(sum.Written, res.Key)
			log.Info("wrote act", "act", res.Key.String(), "rows", len(res.Rows))
		}
	}

	if len(sum.Written) == 0 {
		return sum, nil
	}
	for _, sink := range s.Sinks {
		if f, ok := sink.(Finisher); ok {
			if err := f.Finish(ctx); err != nil {
				return sum, fmt.Errorf("finish: %w", err)
			}
		}
	}
	return sum, nil
}
