// Package snapshot archives fetched leaderboard pages as zstd-compressed HTML
// so extraction can be re-run offline after a layout change.
package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-val-stats/internal/catalog"
)

// Ext is the suffix of archived pages.
const Ext = ".html.zst"

// Archive stores pages under Dir/<episode key>/<rank name>.html.zst.
type Archive struct {
	Dir string
}

// Path returns where the page for (episodeKey, rank) is stored.
func (a Archive) Path(episodeKey string, rank catalog.Rank) string {
	return filepath.Join(a.Dir, episodeKey, rank.Name()+Ext)
}

// Save compresses and writes one page, replacing any earlier copy.
func (a Archive) Save(episodeKey string, rank catalog.Rank, html string) (string, error) {
	path := a.Path(episodeKey, rank)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return "", fmt.Errorf("zstd: %w", err)
	}
	if _, err := io.WriteString(enc, html); err != nil {
		enc.Close()
		os.Remove(path)
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("flush snapshot: %w", err)
	}
	return path, nil
}

// Load reads a page from disk. Files ending in .zst are decompressed; any
// other file is returned as is.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(path, ".zst") {
		return string(data), nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return "", fmt.Errorf("decompress %s: %w", path, err)
	}
	return string(out), nil
}

// List returns the archived pages for one episode key, highest rank first.
func (a Archive) List(episodeKey string) ([]string, error) {
	var out []string
	for _, r := range catalog.Ranks() {
		p := a.Path(episodeKey, r)
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return out, nil
}

// RankFromPath recovers the rank from an archived page name such as
// "immortal3.html.zst". Plain ".html" names are accepted too.
func RankFromPath(path string) (catalog.Rank, error) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".zst")
	name = strings.TrimSuffix(name, ".html")
	return catalog.ParseRank(name)
}
