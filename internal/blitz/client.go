// Package blitz fetches agent leaderboard pages from blitz.gg.
package blitz

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pable/go-val-stats/internal/catalog"
)

// DefaultEndpoint is the agent stats page. {rank} is replaced with the tier id
// and {act} with the combined episode+act key (e.g. "e8act2").
const DefaultEndpoint = "https://blitz.gg/valorant/stats/agents?&mode=competitive&rank={rank}&act={act}"

var (
	// ErrNotFound means the site has no leaderboard for this rank and act.
	ErrNotFound = errors.New("leaderboard not found")
	// ErrTimeout means the request did not complete in time. It is a transport
	// failure, not an absence of data.
	ErrTimeout = errors.New("request timed out")
	// ErrUnavailable means the site kept failing (5xx or 429) after retries.
	ErrUnavailable = errors.New("leaderboard site unavailable")
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	Endpoint          string
	UserAgent         string
	Timeout           time.Duration
	Retries           int
	RetryWait         time.Duration
	RequestsPerSecond float64 // <= 0 disables rate limiting
}

// Client is a minimal leaderboard page client.
type Client struct {
	endpoint string
	http     *resty.Client
	limiter  *rate.Limiter
}

// NewClient returns a client for the given config.
func NewClient(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.Contains(endpoint, "{rank}") || !strings.Contains(endpoint, "{act}") {
		return nil, fmt.Errorf("endpoint %q must contain {rank} and {act}", endpoint)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	wait := cfg.RetryWait
	if wait <= 0 {
		wait = time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(wait)
	client.SetRetryMaxWaitTime(wait * 8)
	client.SetLogger(slogLogger{})
	client.AddRetryCondition(retryable)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		endpoint: endpoint,
		http:     client,
		limiter:  rate.NewLimiter(limit, 1),
	}, nil
}

// URL renders the page URL for a rank and episode key.
func (c *Client) URL(rank catalog.Rank, episodeKey string) string {
	return strings.NewReplacer(
		"{rank}", strconv.Itoa(int(rank)),
		"{act}", episodeKey,
	).Replace(c.endpoint)
}

// FetchPage downloads one leaderboard page and returns its HTML.
func (c *Client) FetchPage(ctx context.Context, rank catalog.Rank, episodeKey string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url := c.URL(rank, episodeKey)
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("GET %s: %w: %v", url, ErrTimeout, err)
		}
		return "", fmt.Errorf("GET %s: %w", url, err)
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return resp.String(), nil
	case code == http.StatusTooManyRequests || code >= 500:
		return "", fmt.Errorf("GET %s: %w: HTTP %d", url, ErrUnavailable, code)
	default:
		return "", fmt.Errorf("GET %s: %w: HTTP %d", url, ErrNotFound, code)
	}
}

// retryable replaces resty's default condition, so transport errors are
// listed here too. Cancellation and timeouts are final.
func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !isTimeout(err)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
