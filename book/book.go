// Package book assembles the EPUB: XHTML pages rendered from the dataset
// and its summaries, the navigation documents, the OPF manifest and the
// final zip container. Rendering is pure given a Config; the only disk
// inputs are the cover image and the attribution page, both produced by
// earlier stages. Builds are reproducible once a book id is injected:
// every other varying byte is pinned to the recorded modification time.
package book

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/l10n"
	"github.com/hazyhaar/mendelev/safeio"
	"github.com/hazyhaar/mendelev/summary"
)

var (
	// ErrNoElements is returned when the config carries an empty dataset.
	ErrNoElements = errors.New("book: no elements")

	// ErrNoCover is returned when the cover image artifact is missing.
	ErrNoCover = errors.New("book: cover image missing")

	// ErrNoAttribution is returned when the attribution page is missing.
	// The book never ships without its licensing page, so this is fatal
	// rather than a skipped chapter.
	ErrNoAttribution = errors.New("book: attribution artifact missing")
)

// Config carries everything one build needs. Elements usually come from
// the summary aggregate; a dataset without summaries can be wrapped into
// bare ElementSummary values and still produces a complete book, minus
// the prose.
type Config struct {
	Elements []summary.ElementSummary
	Meta     element.Meta
	Strings  l10n.Strings

	CoverImage       string // rasterized cover, .jpg or .png
	AttributionXHTML string // page produced by the attrib stage
	Output           string // .epub destination

	// BookID is the dc:identifier. Empty generates a fresh urn:uuid;
	// inject one to make builds byte-reproducible.
	BookID string

	// Modified pins dcterms:modified and every zip timestamp, RFC 3339.
	// Empty falls back to the recorded fetch time.
	Modified string

	// CSS overrides the bundled stylesheet.
	CSS string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BookID == "" {
		c.BookID = "urn:uuid:" + uuid.NewString()
	}
	if c.Modified == "" {
		c.Modified = c.Meta.FetchedAtUTC
	}
	if c.CSS == "" {
		c.CSS = DefaultCSS
	}
	if !c.Strings.Has("book_title") {
		c.Strings = l10n.Lookup(c.Meta.Language)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RenderFiles renders the complete container as a path-to-bytes map,
// zip-internal paths included ("mimetype", "META-INF/...", "OEBPS/...").
// Build packs this map; the preview server serves it directly.
func RenderFiles(cfg Config) (map[string][]byte, error) {
	cfg.defaults()
	if len(cfg.Elements) == 0 {
		return nil, ErrNoElements
	}
	mod, err := modifiedTime(cfg.Modified)
	if err != nil {
		return nil, err
	}

	elements := make([]summary.ElementSummary, len(cfg.Elements))
	copy(elements, cfg.Elements)
	sort.Slice(elements, func(i, j int) bool {
		return elements[i].AtomicNumber < elements[j].AtomicNumber
	})

	cover, err := readArtifact(cfg.CoverImage, ErrNoCover)
	if err != nil {
		return nil, err
	}
	imageName, imageType, err := coverAsset(cfg.CoverImage)
	if err != nil {
		return nil, err
	}
	attribution, err := readArtifact(cfg.AttributionXHTML, ErrNoAttribution)
	if err != nil {
		return nil, err
	}

	pages, hrefByZ := profilePages(elements)
	tr := cfg.Strings

	files := map[string][]byte{
		"mimetype":                []byte(mimetypePayload),
		"META-INF/container.xml":  []byte(containerXML),
		"OEBPS/css/style.css":     []byte(cfg.CSS),
		"OEBPS/" + imageName:      cover,
		"OEBPS/attribution.xhtml": attribution,
	}

	renders := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"OEBPS/cover.xhtml", func() ([]byte, error) { return renderCover(tr, imageName) }},
		{"OEBPS/quick-table.xhtml", func() ([]byte, error) { return renderQuickTable(tr, elements, hrefByZ) }},
		{"OEBPS/index.xhtml", func() ([]byte, error) { return renderIndex(tr, elements, hrefByZ) }},
		{"OEBPS/blocks.xhtml", func() ([]byte, error) { return renderBlocks(tr, elements) }},
		{"OEBPS/elements/index.xhtml", func() ([]byte, error) { return renderElementIndex(tr, pages) }},
		{"OEBPS/legend.xhtml", func() ([]byte, error) { return renderLegend(tr, elements) }},
		{"OEBPS/nav.xhtml", func() ([]byte, error) { return renderNav(tr, pages) }},
		{"OEBPS/toc.ncx", func() ([]byte, error) { return renderNCX(tr, cfg.BookID, pages) }},
		{"OEBPS/content.opf", func() ([]byte, error) {
			return renderOPF(tr, cfg.BookID, mod.Format("2006-01-02T15:04:05Z"), imageName, imageType, pages)
		}},
	}
	for _, r := range renders {
		data, err := r.render()
		if err != nil {
			return nil, err
		}
		files[r.name] = data
	}
	for i, p := range pages {
		data, err := renderElementPage(tr, elements[i])
		if err != nil {
			return nil, err
		}
		files["OEBPS/"+p.Href] = data
	}

	return files, nil
}

// Build renders the container and writes the .epub atomically.
func Build(cfg Config) error {
	cfg.defaults()
	if cfg.Output == "" {
		return errors.New("book: no output path")
	}

	files, err := RenderFiles(cfg)
	if err != nil {
		return err
	}
	mod, err := modifiedTime(cfg.Modified)
	if err != nil {
		return err
	}
	data, err := packEPUB(files, mod)
	if err != nil {
		return err
	}
	if err := safeio.WriteFile(cfg.Output, data, 0o644); err != nil {
		return fmt.Errorf("book: save %s: %w", cfg.Output, err)
	}

	cfg.Logger.Info("epub written",
		"out", cfg.Output,
		"elements", len(cfg.Elements),
		"entries", len(files),
		"bytes", len(data))
	return nil
}

func readArtifact(path string, missing error) ([]byte, error) {
	if path == "" {
		return nil, missing
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", missing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("book: read %s: %w", path, err)
	}
	return data, nil
}

func modifiedTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("book: parse modified %q: %w", s, err)
	}
	return t.UTC(), nil
}
