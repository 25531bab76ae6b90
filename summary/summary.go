// Package summary aggregates per-element prose summaries into the
// collection artifact the book embeds.
//
// Elements fan out over a bounded worker pool; each worker fetches the
// element's summary, sanitizes the HTML extract, and derives a plain-text
// form when the API returns none. Individual failures are recorded and
// tolerated up to a fraction of the dataset; past that the whole stage
// fails and no artifact is written.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/safeio"
	"github.com/hazyhaar/mendelev/wikifetch"
)

// Fetcher is the summary source. *wikifetch.Client satisfies it; tests
// supply stubs.
type Fetcher interface {
	Summary(ctx context.Context, lang, title string) (*wikifetch.PageSummary, error)
}

// Config configures one aggregation pass.
type Config struct {
	Fetcher  Fetcher
	Language string // default "en"
	// Workers bounds the fetch fan-out. Default: 4.
	Workers int
	// MaxFailureFraction is the tolerated failed/total ratio before the
	// stage fails. Default: 0.2.
	MaxFailureFraction float64
	// RawDir, when set, receives each raw summary response body.
	RawDir string
	// Sanitizer filters extract_html. Default: DefaultPolicy().
	Sanitizer *bluemonday.Policy
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxFailureFraction <= 0 {
		c.MaxFailureFraction = 0.2
	}
	if c.Sanitizer == nil {
		c.Sanitizer = DefaultPolicy()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// DefaultPolicy admits only the inline prose markup the summary endpoint
// emits: paragraphs, emphasis, sub/superscripts (chemical formulas) and
// plain links. Everything else, scripts and styles included, is stripped.
func DefaultPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "b", "i", "em", "strong", "sub", "sup", "span")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	return p
}

// ElementSummary is one element's record enriched with its prose summary.
// The embedded element fields serialize flat, so the collection remains a
// superset of the dataset artifact.
type ElementSummary struct {
	element.Element
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	SummaryHTML string               `json:"summary_html,omitempty"`
	SourceURL   string               `json:"summary_source_url,omitempty"`
	Thumbnail   *wikifetch.Thumbnail `json:"thumbnail,omitempty"`
	RawFile     string               `json:"raw_file,omitempty"`
}

// ElementFailure records one element whose summary could not be fetched.
type ElementFailure struct {
	AtomicNumber int    `json:"atomic_number"`
	Symbol       string `json:"symbol"`
	Title        string `json:"title"`
	Reason       string `json:"reason"`
}

// CollectionMeta describes the provenance of a collection.
type CollectionMeta struct {
	Language      string `json:"language"`
	Source        string `json:"source"`
	SourceURL     string `json:"source_url,omitempty"`
	GeneratedFrom string `json:"generated_from,omitempty"`
	Count         int    `json:"count"`
}

// Collection is the aggregated summary artifact.
type Collection struct {
	Meta     CollectionMeta   `json:"meta"`
	Elements []ElementSummary `json:"elements"`
	Failed   []ElementFailure `json:"failed,omitempty"`
}

// Aggregate fetches and assembles summaries for every element. The input
// order does not matter; output is sorted by atomic number regardless of
// worker scheduling.
func Aggregate(ctx context.Context, elements []element.Element, cfg Config) (*Collection, error) {
	if len(elements) == 0 {
		return nil, ErrNoElements
	}
	cfg.defaults()
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("summary: no fetcher configured")
	}

	type outcome struct {
		summary *ElementSummary
		failure *ElementFailure
	}
	results := make([]outcome, len(elements))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv := converter.NewConverter(
				converter.WithPlugins(
					base.NewBasePlugin(),
					commonmark.NewCommonmarkPlugin(),
				),
			)
			for i := range jobs {
				e := elements[i]
				title := pageTitle(e)
				s, err := cfg.Fetcher.Summary(ctx, cfg.Language, title)
				if err != nil {
					cfg.Logger.Warn("summary fetch failed",
						"element", e.AtomicNumber, "title", title, "error", err)
					results[i] = outcome{failure: &ElementFailure{
						AtomicNumber: e.AtomicNumber,
						Symbol:       e.Symbol,
						Title:        title,
						Reason:       err.Error(),
					}}
					continue
				}

				es := build(e, title, s, cfg.Sanitizer, conv)
				if cfg.RawDir != "" {
					name := wikifetch.RawFileName(title, cfg.Language, "summary")
					if err := safeio.WriteFile(filepath.Join(cfg.RawDir, name), s.Raw, 0o644); err != nil {
						results[i] = outcome{failure: &ElementFailure{
							AtomicNumber: e.AtomicNumber,
							Symbol:       e.Symbol,
							Title:        title,
							Reason:       fmt.Sprintf("save raw: %v", err),
						}}
						continue
					}
					es.RawFile = name
				}
				results[i] = outcome{summary: es}
			}
		}()
	}
	for i := range elements {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	col := &Collection{Meta: CollectionMeta{
		Language: cfg.Language,
		Source:   "wikipedia-summary",
	}}
	for _, r := range results {
		switch {
		case r.summary != nil:
			col.Elements = append(col.Elements, *r.summary)
		case r.failure != nil:
			col.Failed = append(col.Failed, *r.failure)
		}
	}

	if frac := float64(len(col.Failed)) / float64(len(elements)); frac > cfg.MaxFailureFraction {
		return nil, fmt.Errorf("%w: %d of %d (max fraction %.2f)",
			ErrTooManyFailures, len(col.Failed), len(elements), cfg.MaxFailureFraction)
	}

	sortSummaries(col.Elements)
	col.Meta.Count = len(col.Elements)
	return col, nil
}

func sortSummaries(s []ElementSummary) {
	sort.Slice(s, func(i, j int) bool {
		return s[i].AtomicNumber < s[j].AtomicNumber
	})
}

// pageTitle derives the API title from the element's wiki URL, falling
// back to the underscored name.
func pageTitle(e element.Element) string {
	if i := strings.LastIndex(e.WikiURL, "/"); i >= 0 {
		if t := e.WikiURL[i+1:]; t != "" {
			return t
		}
	}
	return e.WikiTitle()
}

func build(e element.Element, title string, s *wikifetch.PageSummary, pol *bluemonday.Policy, conv *converter.Converter) *ElementSummary {
	es := &ElementSummary{
		Element:     e,
		Title:       s.Title,
		Description: s.Description,
		Summary:     strings.TrimSpace(s.Extract),
		SummaryHTML: strings.TrimSpace(pol.Sanitize(s.ExtractHTML)),
		SourceURL:   s.URL,
		Thumbnail:   s.Thumbnail,
	}
	if es.Title == "" {
		es.Title = strings.ReplaceAll(title, "_", " ")
	}
	if es.SourceURL == "" {
		es.SourceURL = e.WikiURL
	}
	if es.Summary == "" && es.SummaryHTML != "" {
		if md, err := conv.ConvertString(es.SummaryHTML); err == nil {
			es.Summary = plainText(md)
		}
	}
	return es
}

var mdLinkRe = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

var mdMarks = strings.NewReplacer("**", "", "*", "", "`", "")

// plainText reduces converted markdown to plain prose: links unwrapped to
// their text, emphasis marks removed, whitespace collapsed.
func plainText(md string) string {
	md = mdLinkRe.ReplaceAllString(md, "$1")
	md = mdMarks.Replace(md)
	return strings.Join(strings.Fields(md), " ")
}
