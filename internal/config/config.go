// Package config loads the optional valstats YAML config file and applies
// environment overrides and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pable/go-val-stats/internal/blitz"
	"github.com/pable/go-val-stats/internal/parser"
)

const defaultRetries = 3

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type Config struct {
	Endpoint          string  `yaml:"endpoint"`
	UserAgent         string  `yaml:"user_agent"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	Retries           int     `yaml:"retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Concurrency       int     `yaml:"concurrency"`

	Selectors     parser.Selectors `yaml:"selectors"`
	StrictWindows bool             `yaml:"strict_windows"`

	CSVDir      string `yaml:"csv_dir"`
	HeatmapDir  string `yaml:"heatmap_dir"`
	SnapshotDir string `yaml:"snapshot_dir"` // empty disables page archiving
	MetricsFile string `yaml:"metrics_file"` // empty disables textfile export

	Episodes     []string `yaml:"episodes"`
	Acts         []string `yaml:"acts"`
	TopPlacement string   `yaml:"top_placement"`
	Scheme       string   `yaml:"heatmap_scheme"`

	Path string `yaml:"-"` // file the config was loaded from, empty if none
}

// DefaultPath returns ~/.valstats/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".valstats", "config.yaml")
}

// Load reads the config at path. If path is empty, VALSTATS_CONFIG and then
// DefaultPath are used. A missing file is not an error.
//
// retries is preset before decoding, so an explicit "retries: 0" disables
// retrying while an absent key keeps the default.
func Load(path string) (Config, error) {
	cfg := Config{Retries: defaultRetries}

	explicit := path != ""
	if !explicit {
		if envPath := os.Getenv("VALSTATS_CONFIG"); envPath != "" {
			path, explicit = envPath, true
		} else {
			path = DefaultPath()
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Path = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	envOverride(&cfg.Endpoint, "VALSTATS_ENDPOINT")
	envOverride(&cfg.UserAgent, "VALSTATS_USER_AGENT")
	envOverride(&cfg.CSVDir, "VALSTATS_CSV_DIR")
	envOverride(&cfg.HeatmapDir, "VALSTATS_HEATMAP_DIR")
	envOverride(&cfg.SnapshotDir, "VALSTATS_SNAPSHOT_DIR")
	envOverride(&cfg.MetricsFile, "VALSTATS_METRICS_FILE")
	envOverrideInt(&cfg.Retries, "VALSTATS_RETRIES")
	envOverrideInt(&cfg.Concurrency, "VALSTATS_CONCURRENCY")
	envOverrideFloat(&cfg.RequestsPerSecond, "VALSTATS_RPS")
	envOverrideBool(&cfg.StrictWindows, "VALSTATS_STRICT_WINDOWS")

	if cfg.Endpoint == "" {
		cfg.Endpoint = blitz.DefaultEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.CSVDir == "" {
		cfg.CSVDir = "csvs"
	}
	if cfg.HeatmapDir == "" {
		cfg.HeatmapDir = "heatmaps"
	}
	if cfg.TopPlacement == "" {
		cfg.TopPlacement = "radiant"
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "rocket"
	}
	return cfg, nil
}

// Blitz returns the fetcher settings.
func (c Config) Blitz() blitz.Config {
	return blitz.Config{
		Endpoint:          c.Endpoint,
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		Retries:           c.Retries,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// Parser returns the extraction settings.
func (c Config) Parser() parser.Options {
	return parser.Options{Selectors: c.Selectors, Strict: c.StrictWindows}
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
