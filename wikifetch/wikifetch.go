// Package wikifetch retrieves wiki content over the two MediaWiki HTTP API
// styles: the REST content API (page HTML) and the classic Action API
// (action=parse). A client configured with the "auto" style walks an
// ordered strategy list and returns the first payload that succeeds, so a
// REST outage degrades to the Action API instead of failing the pipeline.
//
// Transient failures (network errors, HTTP 429, HTTP 5xx) are retried per
// strategy with exponential backoff; other client errors and API-reported
// errors are permanent for that strategy. Every HTTP attempt can be handed
// to a provenance recorder.
package wikifetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Styles accepted by Client.Page.
const (
	StyleREST   = "rest"
	StyleAction = "action"
	StyleAuto   = "auto"
)

// autoOrder is the fallback strategy list for StyleAuto. REST first: it
// returns the page HTML directly and is the cheaper endpoint.
var autoOrder = []string{StyleREST, StyleAction}

var languageRe = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)

// Record describes one HTTP attempt for provenance recording.
type Record struct {
	Kind      string // page-rest | page-action | summary
	Language  string
	Page      string
	URL       string
	Status    int // 0 when the request never completed
	Bytes     int
	SHA256    string
	Error     string
	Duration  time.Duration
	FetchedAt time.Time
}

// RecordFunc receives fetch records. Implementations must not block for
// long and must never fail the fetch.
type RecordFunc func(ctx context.Context, rec Record)

// Config configures a Client.
type Config struct {
	// BaseDomain is the wiki farm domain; the language becomes the
	// subdomain. Default: "wikipedia.org".
	BaseDomain string
	// BaseURL overrides the request origin entirely (no language
	// subdomain). Used by tests.
	BaseURL string
	// UserAgent sent with every request.
	UserAgent string
	// Timeout per HTTP request. Default: 30s.
	Timeout time.Duration
	// MaxBytes caps response bodies. Default: 20 MiB.
	MaxBytes int64
	// MaxRetries is the total number of attempts per strategy for
	// transient failures. Default: 3.
	MaxRetries int
	// RetryBackoff is the first retry delay, doubled per attempt.
	// Default: 2s.
	RetryBackoff time.Duration
	// MinInterval enforces a politeness delay between requests across the
	// whole client. Default: 0 (disabled).
	MinInterval time.Duration
	// Record receives one entry per HTTP attempt. Optional.
	Record RecordFunc
	// HTTPClient overrides the internal client. Optional.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseDomain == "" {
		c.BaseDomain = "wikipedia.org"
	}
	if c.UserAgent == "" {
		c.UserAgent = "mendelev/1.0 (https://github.com/hazyhaar/mendelev)"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 20 * 1024 * 1024
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client fetches wiki pages and summaries.
type Client struct {
	client *http.Client
	config Config

	mu   sync.Mutex
	last time.Time
}

// New creates a Client.
func New(cfg Config) *Client {
	cfg.defaults()
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		}
	}
	return &Client{client: client, config: cfg}
}

// origin returns the scheme+host prefix for a language.
func (c *Client) origin(lang string) string {
	if c.config.BaseURL != "" {
		return strings.TrimSuffix(c.config.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.%s", lang, c.config.BaseDomain)
}

// CheckLanguage normalizes a language code (trim, lowercase) and rejects
// anything that is not a plausible BCP 47 tag.
func CheckLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !languageRe.MatchString(lang) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return lang, nil
}

// response is the outcome of one completed HTTP exchange.
type response struct {
	status      int
	body        []byte
	hash        string
	contentType string
}

// get performs a single HTTP attempt, honoring the politeness interval and
// the body size cap, and hands the outcome to the provenance recorder.
// On a non-success status the returned response still carries the code so
// the caller can classify the failure.
func (c *Client) get(ctx context.Context, kind, lang, page, rawURL string) (*response, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rec := Record{Kind: kind, Language: lang, Page: page, URL: rawURL, FetchedAt: start.UTC()}
	defer func() {
		rec.Duration = time.Since(start)
		if c.config.Record != nil {
			c.config.Record(ctx, rec)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		rec.Error = err.Error()
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		rec.Error = err.Error()
		return nil, fmt.Errorf("http get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	rec.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w %d for %s", ErrHTTPStatus, resp.StatusCode, rawURL)
		rec.Error = err.Error()
		return &response{status: resp.StatusCode}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes+1))
	if err != nil {
		rec.Error = err.Error()
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.config.MaxBytes {
		err := fmt.Errorf("%w (%d byte cap)", ErrTooLarge, c.config.MaxBytes)
		rec.Error = err.Error()
		return nil, err
	}

	h := sha256.Sum256(body)
	rec.Bytes = len(body)
	rec.SHA256 = fmt.Sprintf("%x", h)

	return &response{
		status:      resp.StatusCode,
		body:        body,
		hash:        rec.SHA256,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// getRetry wraps get with the transient-failure retry policy.
func (c *Client) getRetry(ctx context.Context, kind, lang, page, rawURL string) (*response, error) {
	backoff := c.config.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		resp, err := c.get(ctx, kind, lang, page, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
		transient := resp == nil || resp.status == http.StatusTooManyRequests || resp.status >= 500
		if !transient || attempt == c.config.MaxRetries {
			return nil, lastErr
		}

		c.config.Logger.Warn("fetch retry",
			"kind", kind, "url", rawURL, "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// pace enforces MinInterval between requests. Concurrent callers are
// serialized on purpose: the delay exists to be polite to the remote API.
func (c *Client) pace(ctx context.Context) error {
	if c.config.MinInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := c.config.MinInterval - time.Since(c.last); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	c.last = time.Now()
	return nil
}
