// Package config loads and validates the pipeline configuration file.
//
// One YAML file drives a whole build: source page and API style, fetch
// politeness knobs, summary fan-out, cover geometry and book identity.
// Artifact locations derive from two directories (data_dir, book_dir)
// so stages agree on paths without repeating them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/mendelev/wikifetch"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// defaultPages maps a primary language subtag to the wiki page listing
// the elements in that language.
var defaultPages = map[string]string{
	"en": "List of chemical elements",
	"ja": "元素の一覧",
}

// Config is the top-level pipeline configuration.
type Config struct {
	Language  string `yaml:"language"`
	Page      string `yaml:"page"`
	API       string `yaml:"api"` // rest | action | auto
	UserAgent string `yaml:"user_agent"`
	DataDir   string `yaml:"data_dir"`
	BookDir   string `yaml:"book_dir"`

	// Archive is the provenance database path. Absent defaults to
	// {data_dir}/mendelev.db; an explicit empty string disables
	// recording.
	Archive *string `yaml:"archive"`

	Fetch     FetchConfig     `yaml:"fetch"`
	Summaries SummariesConfig `yaml:"summaries"`
	Cover     CoverConfig     `yaml:"cover"`
	Book      BookConfig      `yaml:"book"`
}

// FetchConfig tunes the HTTP client.
type FetchConfig struct {
	TimeoutSeconds      int   `yaml:"timeout_seconds"`
	MaxRetries          int   `yaml:"max_retries"`
	RetryBackoffSeconds int   `yaml:"retry_backoff_seconds"`
	MinIntervalMS       int   `yaml:"min_interval_ms"`
	MaxBytes            int64 `yaml:"max_bytes"`
}

func (f FetchConfig) Timeout() time.Duration      { return time.Duration(f.TimeoutSeconds) * time.Second }
func (f FetchConfig) RetryBackoff() time.Duration { return time.Duration(f.RetryBackoffSeconds) * time.Second }
func (f FetchConfig) MinInterval() time.Duration  { return time.Duration(f.MinIntervalMS) * time.Millisecond }

// SummariesConfig tunes the per-element summary aggregation.
type SummariesConfig struct {
	Workers int `yaml:"workers"`
	// MaxFailureFraction is the tolerated failed/total ratio. Zero or
	// absent means the 0.2 default, matching the aggregator.
	MaxFailureFraction float64 `yaml:"max_failure_fraction"`
	RawDir             string  `yaml:"raw_dir"`
}

// CoverConfig describes the rasterized cover.
type CoverConfig struct {
	Title       string            `yaml:"title"`    // default localized
	Subtitle    string            `yaml:"subtitle"` // default localized
	Compact     bool              `yaml:"compact"`
	Width       int               `yaml:"width"`
	Height      int               `yaml:"height"`
	Format      string            `yaml:"format"` // jpeg | jpg | png
	JPEGQuality int               `yaml:"jpeg_quality"`
	Font        string            `yaml:"font"`    // optional TTF path
	Palette     map[string]string `yaml:"palette"` // category -> "#rrggbb"
}

// BookConfig controls the packaged e-book.
type BookConfig struct {
	ID  string `yaml:"id"`  // default fresh urn:uuid
	CSS string `yaml:"css"` // optional stylesheet path
}

// Load reads a YAML configuration file. Unknown keys are rejected so a
// typo fails loudly instead of running silently with defaults. An empty
// file yields the default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration the flag-driven subcommands start
// from when no file is given.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero fields in place. Load calls it; callers
// assembling a Config by hand should too.
func (c *Config) ApplyDefaults() {
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language == "" {
		c.Language = "en"
	}
	if c.API == "" {
		c.API = wikifetch.StyleAuto
	}
	if c.Page == "" {
		c.Page = PageFor(c.Language)
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.BookDir == "" {
		c.BookDir = "book"
	}
	if c.Archive == nil {
		p := filepath.Join(c.DataDir, "mendelev.db")
		c.Archive = &p
	}

	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.Fetch.MaxRetries <= 0 {
		c.Fetch.MaxRetries = 3
	}
	if c.Fetch.RetryBackoffSeconds <= 0 {
		c.Fetch.RetryBackoffSeconds = 2
	}
	if c.Fetch.MinIntervalMS < 0 {
		c.Fetch.MinIntervalMS = 0
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 20 * 1024 * 1024
	}

	if c.Summaries.Workers <= 0 {
		c.Summaries.Workers = 4
	}
	if c.Summaries.MaxFailureFraction <= 0 {
		c.Summaries.MaxFailureFraction = 0.2
	}
	if c.Summaries.RawDir == "" {
		c.Summaries.RawDir = filepath.Join(c.DataDir, "raw", "elements")
	}

	if c.Cover.Width <= 0 {
		c.Cover.Width = 1600
	}
	if c.Cover.Height <= 0 {
		c.Cover.Height = 2560
	}
	if c.Cover.Format == "" {
		c.Cover.Format = "jpeg"
	}
	if c.Cover.JPEGQuality <= 0 {
		c.Cover.JPEGQuality = 90
	}
}

// Validate reports the first configuration error. Call after
// ApplyDefaults.
func (c *Config) Validate() error {
	if _, err := wikifetch.CheckLanguage(c.Language); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.API {
	case wikifetch.StyleREST, wikifetch.StyleAction, wikifetch.StyleAuto:
	default:
		return fmt.Errorf("config: unknown api style %q", c.API)
	}
	if f := c.Summaries.MaxFailureFraction; f < 0 || f > 1 {
		return fmt.Errorf("config: max_failure_fraction %v outside [0, 1]", f)
	}
	if c.Cover.Width <= 0 || c.Cover.Height <= 0 {
		return fmt.Errorf("config: cover dimensions %dx%d not positive", c.Cover.Width, c.Cover.Height)
	}
	switch c.Cover.Format {
	case "jpeg", "jpg", "png":
	default:
		return fmt.Errorf("config: unknown cover format %q", c.Cover.Format)
	}
	if q := c.Cover.JPEGQuality; q < 1 || q > 100 {
		return fmt.Errorf("config: jpeg_quality %d outside [1, 100]", q)
	}
	for cat, hex := range c.Cover.Palette {
		if !hexColorRe.MatchString(hex) {
			return fmt.Errorf("config: palette %s: %q is not #rrggbb", cat, hex)
		}
	}
	return nil
}

// PageFor returns the built-in source page title for a language,
// falling back to the English page.
func PageFor(lang string) string {
	primary, _, _ := strings.Cut(lang, "-")
	if page, ok := defaultPages[primary]; ok {
		return page
	}
	return defaultPages["en"]
}

// ClientConfig maps the fetch section onto a wiki client
// configuration. Record and Logger stay with the caller.
func (c *Config) ClientConfig() wikifetch.Config {
	return wikifetch.Config{
		UserAgent:    c.UserAgent,
		Timeout:      c.Fetch.Timeout(),
		MaxBytes:     c.Fetch.MaxBytes,
		MaxRetries:   c.Fetch.MaxRetries,
		RetryBackoff: c.Fetch.RetryBackoff(),
		MinInterval:  c.Fetch.MinInterval(),
	}
}

// ArchivePath returns the provenance database path, empty when
// recording is disabled.
func (c *Config) ArchivePath() string {
	if c.Archive == nil {
		return ""
	}
	return *c.Archive
}

// Derived artifact locations. Stages address each other's outputs
// through these so one configuration names every path exactly once.

func (c *Config) RawDir() string        { return filepath.Join(c.DataDir, "raw") }
func (c *Config) MetaPath() string      { return filepath.Join(c.DataDir, "meta.json") }
func (c *Config) DatasetPath() string   { return filepath.Join(c.DataDir, "elements.json") }
func (c *Config) SummariesPath() string { return filepath.Join(c.DataDir, "summaries.json") }
func (c *Config) ScenePath() string     { return filepath.Join(c.BookDir, "cover-scene.json") }
func (c *Config) SVGPath() string       { return filepath.Join(c.BookDir, "cover.svg") }
func (c *Config) DistDir() string       { return filepath.Join(c.BookDir, "dist") }

func (c *Config) CoverPath() string {
	ext := ".jpg"
	if c.Cover.Format == "png" {
		ext = ".png"
	}
	return filepath.Join(c.DistDir(), "cover"+ext)
}

func (c *Config) PosterPath() string          { return filepath.Join(c.DistDir(), "cover-poster.pdf") }
func (c *Config) AttributionPath() string     { return filepath.Join(c.BookDir, "attribution.xhtml") }
func (c *Config) AttributionTextPath() string { return filepath.Join(c.DistDir(), "ATTRIBUTION.txt") }

func (c *Config) EpubPath() string {
	return filepath.Join(c.DistDir(), "PeriodicTable."+c.Language+".epub")
}
