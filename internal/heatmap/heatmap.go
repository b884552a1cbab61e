// Package heatmap renders a pick-rate pivot as a standalone SVG heatmap.
package heatmap

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pable/go-val-stats/internal/model"
)

// Scheme names a color gradient.
type Scheme string

const (
	Rocket  Scheme = "rocket"
	Mako    Scheme = "mako"
	Viridis Scheme = "viridis"
)

// Schemes lists the supported gradients, default first.
func Schemes() []Scheme { return []Scheme{Rocket, Mako, Viridis} }

// ParseScheme accepts a scheme name case-insensitively. Empty means Rocket.
func ParseScheme(s string) (Scheme, error) {
	if s == "" {
		return Rocket, nil
	}
	for _, sc := range Schemes() {
		if strings.EqualFold(s, string(sc)) {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown color scheme %q", s)
}

type rgb struct{ r, g, b uint8 }

// Sampled stops, dark to light.
var gradients = map[Scheme][]rgb{
	Rocket:  {{0x03, 0x05, 0x1a}, {0x4c, 0x1d, 0x4b}, {0xa1, 0x1a, 0x5b}, {0xe8, 0x3f, 0x3f}, {0xf6, 0x9c, 0x73}, {0xfa, 0xeb, 0xdd}},
	Mako:    {{0x0b, 0x04, 0x05}, {0x35, 0x26, 0x4c}, {0x34, 0x5f, 0xa2}, {0x35, 0x9f, 0xab}, {0x60, 0xce, 0xac}, {0xde, 0xf5, 0xe5}},
	Viridis: {{0x44, 0x01, 0x54}, {0x41, 0x44, 0x87}, {0x2a, 0x78, 0x8e}, {0x22, 0xa8, 0x84}, {0x7a, 0xd1, 0x51}, {0xfd, 0xe7, 0x25}},
}

// Color maps t in [0,1] to a hex color on the scheme's gradient.
func (s Scheme) Color(t float64) string {
	stops, ok := gradients[s]
	if !ok {
		stops = gradients[Rocket]
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		c := stops[len(stops)-1]
		return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
	}
	f := pos - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + f*(float64(y)-float64(x)))) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(a.r, b.r), lerp(a.g, b.g), lerp(a.b, b.b))
}

// Options controls one render. Nothing here is shared between renders.
type Options struct {
	Title    string
	Scheme   Scheme
	CellSize int  // pixels, default 36
	Annotate bool // print percent values inside cells
}

const (
	labelWidth  = 110
	headerSpace = 90
	titleSpace  = 30
)

// Render writes m as an SVG document to w. Color scales from 0 to the
// matrix maximum.
func Render(w io.Writer, m model.PivotMatrix, opts Options) error {
	if err := m.Validate(); err != nil {
		return err
	}
	cell := opts.CellSize
	if cell <= 0 {
		cell = 36
	}
	scheme := opts.Scheme
	if scheme == "" {
		scheme = Rocket
	}
	hi := m.Max()

	width := labelWidth + cell*len(m.Agents) + 10
	height := titleSpace + headerSpace + cell*len(m.Placements) + 10

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="sans-serif" font-size="11">`+"\n", width, height)
	fmt.Fprintf(bw, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", width, height)
	if opts.Title != "" {
		fmt.Fprintf(bw, `<text x="%d" y="20" font-size="14" text-anchor="middle">%s</text>`+"\n", width/2, escape(opts.Title))
	}

	top := titleSpace + headerSpace
	for j, a := range m.Agents {
		x := labelWidth + j*cell + cell/2
		fmt.Fprintf(bw, `<text x="%d" y="%d" transform="rotate(-60 %d %d)">%s</text>`+"\n", x, top-6, x, top-6, escape(a))
	}
	for i, p := range m.Placements {
		y := top + i*cell
		fmt.Fprintf(bw, `<text x="%d" y="%d" text-anchor="end">%s</text>`+"\n", labelWidth-6, y+cell/2+4, escape(p))
		for j, v := range m.Values[i] {
			t := 0.0
			if hi > 0 {
				t = v / hi
			}
			x := labelWidth + j*cell
			fmt.Fprintf(bw, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s %s %.1f%%</title></rect>`+"\n",
				x, y, cell, cell, scheme.Color(t), escape(p), escape(m.Agents[j]), v*100)
			if opts.Annotate && v > 0 {
				ink := "#ffffff"
				if t > 0.6 {
					ink = "#000000"
				}
				fmt.Fprintf(bw, `<text x="%d" y="%d" fill="%s" font-size="9" text-anchor="middle">%.1f</text>`+"\n",
					x+cell/2, y+cell/2+3, ink, v*100)
			}
		}
	}
	fmt.Fprintln(bw, `</svg>`)
	return bw.Flush()
}

// Path returns {dir}/{scheme}/{title}.svg.
func Path(dir string, scheme Scheme, title string) string {
	return filepath.Join(dir, string(scheme), title+".svg")
}

// WriteFile renders m to Path(dir, scheme, title) and returns the path.
func WriteFile(dir string, scheme Scheme, title string, m model.PivotMatrix) (string, error) {
	path := Path(dir, scheme, title)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Render(f, m, Options{Title: title, Scheme: scheme}); err != nil {
		f.Close()
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	return path, f.Close()
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
