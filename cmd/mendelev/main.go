// Command mendelev builds a periodic-table e-book from a live wiki.
//
// Usage:
//
//	mendelev build -config mendelev.yaml    # run the whole pipeline
//	mendelev fetch -lang ja                 # run one stage
//	mendelev serve -dir book/dist           # preview built artifacts
//
// Every stage reads and writes file artifacts, so the pipeline can be
// run one stage at a time or end to end with build.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/mendelev/archive"
	"github.com/hazyhaar/mendelev/book"
	"github.com/hazyhaar/mendelev/config"
	"github.com/hazyhaar/mendelev/element"
	"github.com/hazyhaar/mendelev/raster"
	"github.com/hazyhaar/mendelev/serve"
	"github.com/hazyhaar/mendelev/summary"
	"github.com/hazyhaar/mendelev/wikifetch"
)

const levelHelp = "log level: debug, info, warn, error"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "fetch":
		err = cmdFetch(os.Args[2:])
	case "normalize":
		err = cmdNormalize(os.Args[2:])
	case "summaries":
		err = cmdSummaries(os.Args[2:])
	case "cover":
		err = cmdCover(os.Args[2:])
	case "rasterize":
		err = cmdRasterize(os.Args[2:])
	case "attribution":
		err = cmdAttribution(os.Args[2:])
	case "epub":
		err = cmdEpub(os.Args[2:])
	case "poster":
		err = cmdPoster(os.Args[2:])
	case "build":
		err = cmdBuild(os.Args[2:])
	case "log":
		err = cmdLog(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "help", "-h", "-help", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("mendelev: fatal", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mendelev — periodic-table e-book pipeline

usage:
  mendelev fetch       [-config mendelev.yaml | -lang en -page "..."]
  mendelev normalize   -in data/raw/<payload>.json [-out data/elements.json]
  mendelev summaries   [-in data/elements.json -out data/summaries.json]
  mendelev cover       [-in data/elements.json -scene ... -svg ...]
  mendelev rasterize   [-scene book/cover-scene.json -out book/dist/cover.jpg]
  mendelev attribution [-in data/elements.json -out book/attribution.xhtml]
  mendelev epub        [-in data/summaries.json -cover ... -out ...]
  mendelev poster      [-cover book/dist/cover.jpg -out ...]
  mendelev build       [-config mendelev.yaml]
  mendelev log         [-archive data/mendelev.db -limit 20]
  mendelev serve       [-dir book/dist -addr :8080]

fetch        Fetches the source wiki page into a raw payload artifact.
normalize    Parses the payload table into the element dataset.
summaries    Fetches per-element summaries into the collection artifact.
cover        Lays out the cover scene and SVG from the dataset.
rasterize    Paints the scene into a JPEG or PNG cover image.
attribution  Generates the licensing page (XHTML and plain text).
epub         Packages dataset, summaries, cover and attribution as EPUB 3.
poster       Wraps the cover image in a single-page PDF.
build        Runs every stage in order, recording runs in the archive.
log          Prints recent fetches and stage runs from the archive.
serve        Serves built artifacts over HTTP for preview.

Each subcommand takes -log-level (debug, info, warn, error); run a
subcommand with -h for its flags.
`)
}

// newLogger builds the process logger and installs it as the slog
// default so library fallbacks log through the same handler.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}

// resolveConfig loads the configuration file when given, applies the
// caller's flag overrides, then defaults and validates the result.
func resolveConfig(path string, mutate func(*config.Config)) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to mendelev.yaml")
	lang := fs.String("lang", "", "source language")
	page := fs.String("page", "", "source page title (default: per-language)")
	api := fs.String("api", "", "api style: rest, action or auto")
	dataDir := fs.String("data", "", "data directory")
	archivePath := fs.String("archive", "", "provenance db path, empty disables")
	userAgent := fs.String("user-agent", "", "http user agent")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)

	// Flags override the file. An explicit -lang without -page re-derives
	// the per-language default page; -data without -archive re-derives the
	// archive path under the new directory.
	seen := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	cfg, err := resolveConfig(*configPath, func(c *config.Config) {
		if seen["lang"] {
			c.Language = *lang
			if !seen["page"] {
				c.Page = ""
			}
		}
		if seen["page"] {
			c.Page = *page
		}
		if seen["api"] {
			c.API = *api
		}
		if seen["data"] {
			c.DataDir = *dataDir
			if !seen["archive"] {
				c.Archive = nil
			}
		}
		if seen["archive"] {
			p := *archivePath
			c.Archive = &p
		}
		if seen["user-agent"] {
			c.UserAgent = *userAgent
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openArchive(cfg.ArchivePath(), logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	client := newClient(cfg, store, logger)
	return runStage(ctx, store, logger, "fetch", cfg.Page, func() (string, error) {
		return fetchStage(ctx, client, cfg, logger)
	})
}

func cmdNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	def := config.Default()
	in := fs.String("in", "", "raw payload artifact (required)")
	metaPath := fs.String("meta", def.MetaPath(), "meta artifact to refresh, empty skips")
	out := fs.String("out", def.DatasetPath(), "dataset artifact")
	lang := fs.String("lang", "", "override language (default: payload language)")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("normalize: -in is required")
	}
	_, err := normalizeStage(*in, *metaPath, *out, *lang, logger)
	return err
}

func cmdSummaries(args []string) error {
	fs := flag.NewFlagSet("summaries", flag.ExitOnError)
	def := config.Default()
	in := fs.String("in", def.DatasetPath(), "dataset artifact")
	metaPath := fs.String("meta", def.MetaPath(), "meta artifact")
	out := fs.String("out", def.SummariesPath(), "summary collection artifact")
	lang := fs.String("lang", "", "override language (default: meta language)")
	workers := fs.Int("workers", def.Summaries.Workers, "fetch worker count")
	maxFailure := fs.Float64("max-failure", def.Summaries.MaxFailureFraction, "tolerated failure fraction")
	rawDir := fs.String("raw-dir", def.Summaries.RawDir, "directory for raw summary bodies, empty disables")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)

	language := *lang
	if language == "" {
		m, err := element.LoadMeta(*metaPath)
		if err != nil {
			return fmt.Errorf("summaries: %w (pass -lang to skip the meta artifact)", err)
		}
		language = m.Language
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := wikifetch.New(wikifetch.Config{Logger: logger})
	scfg := summary.Config{
		Fetcher:            client,
		Language:           language,
		Workers:            *workers,
		MaxFailureFraction: *maxFailure,
		RawDir:             *rawDir,
		Logger:             logger,
	}
	_, err := summariesStage(ctx, *in, *out, scfg, logger)
	return err
}

func cmdCover(args []string) error {
	fs := flag.NewFlagSet("cover", flag.ExitOnError)
	def := config.Default()
	in := fs.String("in", def.DatasetPath(), "dataset artifact")
	scenePath := fs.String("scene", def.ScenePath(), "scene artifact")
	svgPath := fs.String("svg", def.SVGPath(), "svg artifact")
	title := fs.String("title", "", "cover title (default: localized)")
	subtitle := fs.String("subtitle", "", "cover subtitle (default: localized)")
	compact := fs.Bool("compact", false, "omit element names")
	lang := fs.String("lang", "en", "language for the default texts")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)
	grid := gridConfig(config.CoverConfig{
		Title:    *title,
		Subtitle: *subtitle,
		Compact:  *compact,
	}, *lang)
	return coverStage(*in, *scenePath, *svgPath, grid, logger)
}

func cmdRasterize(args []string) error {
	fs := flag.NewFlagSet("rasterize", flag.ExitOnError)
	def := config.Default()
	scenePath := fs.String("scene", def.ScenePath(), "scene artifact")
	out := fs.String("out", def.CoverPath(), "image output")
	width := fs.Int("width", 0, "target width (default 1600)")
	height := fs.Int("height", 0, "target height (default 2560)")
	format := fs.String("format", "", "jpeg or png (default: from output extension)")
	quality := fs.Int("quality", 0, "jpeg quality (default 90)")
	font := fs.String("font", "", "ttf font path (default: bundled)")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)
	return raster.RenderFile(*scenePath, *out, raster.Config{
		Width:    *width,
		Height:   *height,
		Format:   *format,
		Quality:  *quality,
		FontPath: *font,
		Logger:   logger,
	})
}

func cmdAttribution(args []string) error {
	fs := flag.NewFlagSet("attribution", flag.ExitOnError)
	def := config.Default()
	in := fs.String("in", def.DatasetPath(), "dataset artifact")
	metaPath := fs.String("meta", def.MetaPath(), "meta artifact")
	out := fs.String("out", def.AttributionPath(), "xhtml output")
	textOut := fs.String("text-out", def.AttributionTextPath(), "plain text output, empty skips")
	lang := fs.String("lang", "", "override language (default: meta language)")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)
	return attributionStage(*in, *metaPath, *out, *textOut, *lang, logger)
}

func cmdEpub(args []string) error {
	fs := flag.NewFlagSet("epub", flag.ExitOnError)
	def := config.Default()
	in := fs.String("in", def.SummariesPath(), "summary collection or dataset artifact")
	metaPath := fs.String("meta", def.MetaPath(), "meta artifact")
	coverPath := fs.String("cover", def.CoverPath(), "cover image")
	attribPath := fs.String("attribution", def.AttributionPath(), "attribution xhtml artifact")
	out := fs.String("out", "", "epub output (default: derived from language)")
	lang := fs.String("lang", "", "override language (default: meta language)")
	id := fs.String("id", "", "book identifier (default: fresh urn:uuid)")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)

	meta, err := element.LoadMeta(*metaPath)
	if err != nil {
		return fmt.Errorf("epub: %w", err)
	}
	if *lang != "" {
		norm, err := wikifetch.CheckLanguage(*lang)
		if err != nil {
			return err
		}
		meta.Language = norm
	}
	output := *out
	if output == "" {
		d := config.Default()
		d.Language = meta.Language
		output = d.EpubPath()
	}

	return epubStage(*in, meta, book.Config{
		CoverImage:       *coverPath,
		AttributionXHTML: *attribPath,
		Output:           output,
		BookID:           *id,
	}, logger)
}

func cmdPoster(args []string) error {
	fs := flag.NewFlagSet("poster", flag.ExitOnError)
	def := config.Default()
	cover := fs.String("cover", def.CoverPath(), "cover image")
	out := fs.String("out", def.PosterPath(), "pdf output")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)
	if err := raster.Poster(*cover, *out); err != nil {
		return err
	}
	logger.Info("poster written", "cover", *cover, "out", *out)
	return nil
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", "", "path to mendelev.yaml")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)
	cfg, err := resolveConfig(*configPath, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openArchive(cfg.ArchivePath(), logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	client := newClient(cfg, store, logger)
	return buildAll(ctx, client, cfg, store, logger)
}

func cmdLog(args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	archivePath := fs.String("archive", config.Default().ArchivePath(), "provenance db path")
	limit := fs.Int("limit", 20, "rows per section")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	newLogger(*logLevel)

	store, err := archive.Open(*archivePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runs, err := store.RecentRuns(ctx, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("runs (%d):\n", len(runs))
	for _, r := range runs {
		fmt.Printf("  %s  %-11s %-7s %s -> %s\n",
			time.UnixMilli(r.StartedAt).UTC().Format(time.RFC3339),
			r.Stage, r.Status, r.Input, r.Output)
		if r.Detail != "" {
			fmt.Printf("      %s\n", r.Detail)
		}
	}

	fetches, err := store.RecentFetches(ctx, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("fetches (%d):\n", len(fetches))
	for _, f := range fetches {
		fmt.Printf("  %s  %-12s %3d  %8dB  %s\n",
			time.UnixMilli(f.FetchedAt).UTC().Format(time.RFC3339),
			f.Kind, f.Status, f.Bytes, f.URL)
		if f.Error != "" {
			fmt.Printf("      %s\n", f.Error)
		}
	}
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dir := fs.String("dir", config.Default().DistDir(), "artifact directory to serve")
	addr := fs.String("addr", ":8080", "listen address")
	logLevel := fs.String("log-level", "info", levelHelp)
	fs.Parse(args)

	logger := newLogger(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve.Run(ctx, *addr, serve.Config{Dir: *dir, Logger: logger})
}
