// Package parser turns one fetched leaderboard page into typed rows.
//
// The page lays out each agent as a run of "body text" cells followed, in a
// separate KDA block, by kills/deaths/assists spans. Field identity is purely
// positional, so extraction windows the two flat token streams into fixed
// width records, zips them and coerces each record.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pable/go-val-stats/internal/model"
)

// Selectors locate the data-bearing nodes of a leaderboard page. The class
// names are tied to the site's page template.
type Selectors struct {
	Container string `yaml:"container"`
	BodyText  string `yaml:"body_text"`
	KDA       string `yaml:"kda"`
}

// DefaultSelectors matches the current blitz.gg agent stats template.
var DefaultSelectors = Selectors{
	Container: ".⚡b73efc61.row.⚡f6341061",
	BodyText:  ".type-body2",
	KDA:       ".⚡8a7d61c3 span",
}

// Options controls extraction.
type Options struct {
	Selectors Selectors
	// Strict fails on token streams that end in a partial record instead of
	// dropping the remainder.
	Strict bool
}

func (o Options) selectors() Selectors {
	s := o.Selectors
	if s.Container == "" {
		s.Container = DefaultSelectors.Container
	}
	if s.BodyText == "" {
		s.BodyText = DefaultSelectors.BodyText
	}
	if s.KDA == "" {
		s.KDA = DefaultSelectors.KDA
	}
	return s
}

// Extract parses an HTML document and returns its rows in page order.
// A document without the leaderboard container yields no rows and no error.
func Extract(doc string, opts Options) ([]model.Row, error) {
	return ExtractReader(strings.NewReader(doc), opts)
}

// ExtractReader is Extract over a reader.
func ExtractReader(r io.Reader, opts Options) ([]model.Row, error) {
	page, err := ExtractPage(r, opts)
	return page.Rows, err
}

// Page is the result of extracting one document. Found is false when the
// leaderboard container is absent, which callers may want to tell apart from
// a leaderboard that parsed to zero rows.
type Page struct {
	Rows  []model.Row
	Found bool
}

// ExtractPage parses r and reports whether the container was present.
func ExtractPage(r io.Reader, opts Options) (Page, error) {
	d, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	return extract(d, opts)
}

// ExtractDocument runs extraction on an already parsed document.
func ExtractDocument(doc *goquery.Document, opts Options) ([]model.Row, error) {
	page, err := extract(doc, opts)
	return page.Rows, err
}

func extract(doc *goquery.Document, opts Options) (Page, error) {
	general, combat, found := Tokens(doc, opts.selectors())
	if !found {
		return Page{}, nil
	}
	recs, err := Records(general, combat, opts.Strict)
	if err != nil {
		return Page{Found: true}, err
	}
	rows, err := TypeRows(recs)
	if err != nil {
		return Page{Found: true}, err
	}
	return Page{Rows: rows, Found: true}, nil
}

// Tokens pulls the general and KDA token streams out of the first container
// match. found is false when the container is absent.
func Tokens(doc *goquery.Document, sel Selectors) (general, combat []string, found bool) {
	container := doc.Find(sel.Container).First()
	if container.Length() == 0 {
		return nil, nil, false
	}

	container.Find(sel.BodyText).Each(func(_ int, s *goquery.Selection) {
		for _, t := range ownText(s) {
			if t = strings.TrimSpace(t); t != "" {
				general = append(general, t)
			}
		}
	})

	container.Find(sel.KDA).Each(func(_ int, s *goquery.Selection) {
		for _, t := range ownText(s) {
			if isSeparator(t) {
				continue
			}
			combat = append(combat, strings.TrimSpace(t))
		}
	})

	return general, combat, true
}

// ownText returns the direct text-node children of each node in s, one
// token per text node.
func ownText(s *goquery.Selection) []string {
	var out []string
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				out = append(out, c.Data)
			}
		}
	}
	return out
}

// isSeparator reports whether t is KDA punctuation rather than a value.
func isSeparator(t string) bool {
	switch strings.TrimSpace(t) {
	case "", ",", "/":
		return true
	}
	return false
}
