package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/mendelev/archive"
	"github.com/hazyhaar/mendelev/attrib"
	"github.com/hazyhaar/mendelev/book"
	"github.com/hazyhaar/mendelev/config"
	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/l10n"
	"github.com/hazyhaar/mendelev/layout"
	"github.com/hazyhaar/mendelev/normalize"
	"github.com/hazyhaar/mendelev/raster"
	"github.com/hazyhaar/mendelev/safeio"
	"github.com/hazyhaar/mendelev/summary"
	"github.com/hazyhaar/mendelev/wikifetch"
)

// openArchive opens the provenance store, or returns nil when recording
// is disabled.
func openArchive(path string, logger *slog.Logger) (*archive.Store, error) {
	if path == "" {
		logger.Debug("provenance recording disabled")
		return nil, nil
	}
	store, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("provenance archive open", "path", path)
	return store, nil
}

// newClient builds the wiki client, wiring fetch records into the
// archive when one is open.
func newClient(cfg *config.Config, store *archive.Store, logger *slog.Logger) *wikifetch.Client {
	wc := cfg.ClientConfig()
	wc.Logger = logger
	if store != nil {
		wc.Record = func(ctx context.Context, rec wikifetch.Record) {
			if err := store.RecordFetch(ctx, fetchRow(rec)); err != nil {
				logger.Warn("fetch record dropped", "error", err)
			}
		}
	}
	return wikifetch.New(wc)
}

// fetchRow maps a client fetch record onto an archive row.
func fetchRow(rec wikifetch.Record) archive.Fetch {
	return archive.Fetch{
		Kind:        rec.Kind,
		Language:    rec.Language,
		Page:        rec.Page,
		URL:         rec.URL,
		Status:      rec.Status,
		Bytes:       rec.Bytes,
		ContentHash: rec.SHA256,
		Error:       rec.Error,
		DurationMs:  rec.Duration.Milliseconds(),
		FetchedAt:   rec.FetchedAt.UnixMilli(),
	}
}

// runStage runs fn inside an archive run record when a store is open.
// Archive failures never fail the stage, they only warn; the stage's
// own error comes back wrapped with the stage name.
func runStage(ctx context.Context, store *archive.Store, logger *slog.Logger, stage, input string, fn func() (string, error)) error {
	var id string
	if store != nil {
		var err error
		id, err = store.BeginRun(ctx, stage, input)
		if err != nil {
			logger.Warn("run record open failed", "stage", stage, "error", err)
			id = ""
		}
	}

	output, ferr := fn()

	if id != "" {
		if err := store.EndRun(ctx, id, output, ferr); err != nil {
			logger.Warn("run record close failed", "stage", stage, "error", err)
		}
	}
	if ferr != nil {
		return fmt.Errorf("%s: %w", stage, ferr)
	}
	return nil
}

// fetchStage fetches the source page, saves the payload artifact and
// derives the meta artifact. Returns the payload path.
func fetchStage(ctx context.Context, client *wikifetch.Client, cfg *config.Config, logger *slog.Logger) (string, error) {
	payload, err := client.Page(ctx, cfg.Language, cfg.Page, cfg.API)
	if err != nil {
		return "", err
	}
	rawPath, err := wikifetch.SavePayload(cfg.RawDir(), payload)
	if err != nil {
		return "", err
	}
	if err := element.SaveMeta(cfg.MetaPath(), payload.Meta(rawPath)); err != nil {
		return "", err
	}
	logger.Info("page fetched", "page", payload.Page, "lang", payload.Language,
		"api", payload.API, "raw", rawPath, "meta", cfg.MetaPath())
	return rawPath, nil
}

// normalizeStage parses the payload into the dataset artifact. A
// non-empty metaPath refreshes the meta artifact from the payload, so
// normalize can be re-run without re-fetching.
func normalizeStage(rawPath, metaPath, outPath, lang string, logger *slog.Logger) (int, error) {
	payload, err := wikifetch.LoadPayload(rawPath)
	if err != nil {
		return 0, err
	}
	if lang == "" {
		lang = payload.Language
	}

	res, err := normalize.Run([]byte(payload.HTML), normalize.Config{Language: lang, Logger: logger})
	if err != nil {
		return 0, err
	}
	if err := element.SaveDataset(outPath, res.Elements); err != nil {
		return 0, err
	}
	if metaPath != "" {
		if err := element.SaveMeta(metaPath, payload.Meta(rawPath)); err != nil {
			return 0, err
		}
	}
	logger.Info("dataset written", "out", outPath,
		"elements", len(res.Elements), "dropped", len(res.Dropped))
	return len(res.Elements), nil
}

// summariesStage aggregates per-element summaries over the dataset and
// writes the collection artifact.
func summariesStage(ctx context.Context, datasetPath, outPath string, scfg summary.Config, logger *slog.Logger) (*summary.Collection, error) {
	elements, err := element.LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}
	col, err := summary.Aggregate(ctx, elements, scfg)
	if err != nil {
		return nil, err
	}
	if err := summary.SaveCollection(outPath, col); err != nil {
		return nil, err
	}
	logger.Info("summaries written", "out", outPath,
		"elements", len(col.Elements), "failed", len(col.Failed))
	return col, nil
}

// gridConfig assembles the scene layout from the cover settings,
// localizing texts left empty.
func gridConfig(cover config.CoverConfig, lang string) layout.GridConfig {
	tr := l10n.Lookup(lang)
	title, subtitle := cover.Title, cover.Subtitle
	if title == "" {
		title = tr.Get("cover_arc_title")
	}
	if subtitle == "" {
		subtitle = tr.Get("cover_arc_subtitle")
	}
	return layout.GridConfig{
		Title:    title,
		Subtitle: subtitle,
		Compact:  cover.Compact,
		Palette:  cover.Palette,
	}
}

// coverStage lays the dataset out as the scene and SVG artifacts.
func coverStage(datasetPath, scenePath, svgPath string, grid layout.GridConfig, logger *slog.Logger) error {
	elements, err := element.LoadDataset(datasetPath)
	if err != nil {
		return err
	}
	scene, err := layout.BuildScene(elements, grid)
	if err != nil {
		return err
	}
	if err := layout.SaveScene(scenePath, scene); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := scene.EncodeSVG(&buf); err != nil {
		return err
	}
	if err := safeio.WriteFile(svgPath, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Info("cover laid out", "scene", scenePath, "svg", svgPath,
		"rects", len(scene.Rects), "texts", len(scene.Texts))
	return nil
}

// attributionStage writes the licensing page artifacts from the dataset
// and its meta.
func attributionStage(datasetPath, metaPath, xhtmlPath, textPath, lang string, logger *slog.Logger) error {
	elements, err := element.LoadDataset(datasetPath)
	if err != nil {
		return err
	}
	meta, err := element.LoadMeta(metaPath)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = meta.Language
	}

	page := attrib.Build(elements, meta, l10n.Lookup(lang))
	if err := page.WriteArtifacts(xhtmlPath, textPath); err != nil {
		return err
	}
	logger.Info("attribution written", "xhtml", xhtmlPath, "text", textPath,
		"items", len(page.Items))
	return nil
}

// epubStage packages the book from the summary collection (or a bare
// dataset) plus the prebuilt cover and attribution artifacts.
func epubStage(inPath string, meta element.Meta, bcfg book.Config, logger *slog.Logger) error {
	elements, err := loadElements(inPath)
	if err != nil {
		return err
	}
	bcfg.Elements = elements
	bcfg.Meta = meta
	bcfg.Logger = logger
	return book.Build(bcfg)
}

// loadElements reads the book input, accepting either the summary
// collection artifact or a bare dataset. A dataset yields summaries
// with empty prose, so the book still builds when the summary stage
// was skipped.
func loadElements(path string) ([]summary.ElementSummary, error) {
	col, cerr := summary.LoadCollection(path)
	if cerr == nil {
		return col.Elements, nil
	}
	elements, derr := element.LoadDataset(path)
	if derr != nil {
		return nil, fmt.Errorf("read %s: not a summary collection (%v) nor a dataset: %w", path, cerr, derr)
	}
	out := make([]summary.ElementSummary, len(elements))
	for i, e := range elements {
		out[i] = summary.ElementSummary{Element: e}
	}
	return out, nil
}

// buildAll runs every stage in order; the first failure stops the
// pipeline. Stage boundaries match the subcommands, so a failed build
// can resume by hand from its artifacts.
func buildAll(ctx context.Context, client *wikifetch.Client, cfg *config.Config, store *archive.Store, logger *slog.Logger) error {
	var rawPath string
	err := runStage(ctx, store, logger, "fetch", cfg.Page, func() (string, error) {
		var err error
		rawPath, err = fetchStage(ctx, client, cfg, logger)
		return rawPath, err
	})
	if err != nil {
		return err
	}

	err = runStage(ctx, store, logger, "normalize", rawPath, func() (string, error) {
		_, err := normalizeStage(rawPath, "", cfg.DatasetPath(), cfg.Language, logger)
		return cfg.DatasetPath(), err
	})
	if err != nil {
		return err
	}

	err = runStage(ctx, store, logger, "summaries", cfg.DatasetPath(), func() (string, error) {
		scfg := summary.Config{
			Fetcher:            client,
			Language:           cfg.Language,
			Workers:            cfg.Summaries.Workers,
			MaxFailureFraction: cfg.Summaries.MaxFailureFraction,
			RawDir:             cfg.Summaries.RawDir,
			Logger:             logger,
		}
		_, err := summariesStage(ctx, cfg.DatasetPath(), cfg.SummariesPath(), scfg, logger)
		return cfg.SummariesPath(), err
	})
	if err != nil {
		return err
	}

	err = runStage(ctx, store, logger, "cover", cfg.DatasetPath(), func() (string, error) {
		grid := gridConfig(cfg.Cover, cfg.Language)
		return cfg.ScenePath(), coverStage(cfg.DatasetPath(), cfg.ScenePath(), cfg.SVGPath(), grid, logger)
	})
	if err != nil {
		return err
	}

	err = runStage(ctx, store, logger, "rasterize", cfg.ScenePath(), func() (string, error) {
		rcfg := raster.Config{
			Width:    cfg.Cover.Width,
			Height:   cfg.Cover.Height,
			Format:   cfg.Cover.Format,
			Quality:  cfg.Cover.JPEGQuality,
			FontPath: cfg.Cover.Font,
			Logger:   logger,
		}
		return cfg.CoverPath(), raster.RenderFile(cfg.ScenePath(), cfg.CoverPath(), rcfg)
	})
	if err != nil {
		return err
	}

	err = runStage(ctx, store, logger, "attribution", cfg.DatasetPath(), func() (string, error) {
		return cfg.AttributionPath(), attributionStage(cfg.DatasetPath(), cfg.MetaPath(),
			cfg.AttributionPath(), cfg.AttributionTextPath(), cfg.Language, logger)
	})
	if err != nil {
		return err
	}

	err = runStage(ctx, store, logger, "epub", cfg.SummariesPath(), func() (string, error) {
		meta, err := element.LoadMeta(cfg.MetaPath())
		if err != nil {
			return "", err
		}
		bcfg := book.Config{
			CoverImage:       cfg.CoverPath(),
			AttributionXHTML: cfg.AttributionPath(),
			Output:           cfg.EpubPath(),
			BookID:           cfg.Book.ID,
		}
		if cfg.Book.CSS != "" {
			css, err := os.ReadFile(cfg.Book.CSS)
			if err != nil {
				return "", fmt.Errorf("read css: %w", err)
			}
			bcfg.CSS = string(css)
		}
		return cfg.EpubPath(), epubStage(cfg.SummariesPath(), meta, bcfg, logger)
	})
	if err != nil {
		return err
	}

	logger.Info("build complete", "epub", cfg.EpubPath())
	return nil
}
