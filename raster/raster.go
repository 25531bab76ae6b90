// Package raster paints a layout scene into the cover bitmap.
//
// The render is single-threaded and wall-clock free: identical scene,
// config and font bytes produce byte-identical images, which keeps cover
// regeneration diffable.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/hazyhaar/mendelev/layout"
)

var (
	// ErrFont reports an unusable font: a missing or unparseable override
	// file. Fatal and non-retriable.
	ErrFont = errors.New("raster: font unavailable")

	// ErrFormat reports an unsupported output encoding.
	ErrFormat = errors.New("raster: unsupported image format")

	// ErrDimensions reports a non-positive target size.
	ErrDimensions = errors.New("raster: non-positive dimensions")
)

// Config configures one render. Zero values take the Kindle portrait
// cover defaults (1600x2560 JPEG at quality 90).
type Config struct {
	Width  int
	Height int

	// Format is "jpeg" or "png". RenderFile derives it from the output
	// extension when empty.
	Format string

	// Quality applies to JPEG output. Default: 90.
	Quality int

	// FontPath overrides the bundled Go Regular face with a TTF file,
	// serving all weights. The bundled face has no CJK glyphs, so
	// Japanese covers need an override.
	FontPath string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Width == 0 {
		c.Width = 1600
	}
	if c.Height == 0 {
		c.Height = 2560
	}
	if c.Quality <= 0 {
		c.Quality = 90
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Render paints the scene onto a cfg.Width x cfg.Height canvas. A scene
// whose orientation differs from the target is rotated 90 degrees
// clockwise first, then scaled to fit and centered with white
// letterboxing.
func Render(scene *layout.Scene, cfg Config) (image.Image, error) {
	cfg.defaults()
	if cfg.Width < 0 || cfg.Height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, cfg.Width, cfg.Height)
	}
	if scene.Width <= 0 || scene.Height <= 0 {
		return nil, fmt.Errorf("%w: scene %dx%d", ErrDimensions, scene.Width, scene.Height)
	}

	regular, bold, err := loadFonts(cfg.FontPath)
	if err != nil {
		return nil, err
	}

	rotate := (scene.Width >= scene.Height) != (cfg.Width >= cfg.Height)
	drawW, drawH := cfg.Width, cfg.Height
	if rotate {
		drawW, drawH = cfg.Height, cfg.Width
	}
	scale := math.Min(float64(drawW)/float64(scene.Width), float64(drawH)/float64(scene.Height))

	inner := image.NewRGBA(image.Rect(0, 0,
		int(math.Round(float64(scene.Width)*scale)),
		int(math.Round(float64(scene.Height)*scale))))

	bg := parseColor(scene.Background, color.White, cfg.Logger)
	draw.Draw(inner, inner.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for _, r := range scene.Rects {
		paintRect(inner, r, scale, cfg.Logger)
	}

	ftc := freetype.NewContext()
	ftc.SetDPI(72)
	ftc.SetClip(inner.Bounds())
	ftc.SetDst(inner)
	for _, t := range scene.Texts {
		if t.Content == "" || t.Size <= 0 {
			continue
		}
		f := regular
		if t.Weight == "bold" {
			f = bold
		}
		if err := paintText(ftc, f, t, scale, cfg.Logger); err != nil {
			return nil, err
		}
	}

	img := inner
	if rotate {
		img = rotate90(inner)
	}
	if img.Bounds().Dx() == cfg.Width && img.Bounds().Dy() == cfg.Height {
		return img, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	offset := image.Pt((cfg.Width-img.Bounds().Dx())/2, (cfg.Height-img.Bounds().Dy())/2)
	draw.Draw(out, img.Bounds().Add(offset), img, image.Point{}, draw.Src)
	return out, nil
}

func loadFonts(path string) (regular, bold *truetype.Font, err error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFont, err)
		}
		f, err := freetype.ParseFont(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: parse %s: %v", ErrFont, path, err)
		}
		return f, f, nil
	}
	regular, err = freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bundled regular: %v", ErrFont, err)
	}
	bold, err = freetype.ParseFont(gobold.TTF)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bundled bold: %v", ErrFont, err)
	}
	return regular, bold, nil
}

func px(v float64) int { return int(math.Round(v)) }

func paintRect(img *image.RGBA, r layout.Rect, scale float64, logger *slog.Logger) {
	x0, y0 := px(r.X*scale), px(r.Y*scale)
	x1, y1 := px((r.X+r.Width)*scale), px((r.Y+r.Height)*scale)
	if x1 <= x0 || y1 <= y0 {
		return
	}

	if r.Fill != "" {
		fill := parseColor(r.Fill, color.White, logger)
		draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	}
	if r.Stroke != "" && r.StrokeWidth > 0 {
		stroke := parseColor(r.Stroke, color.Black, logger)
		sw := px(r.StrokeWidth * scale)
		if sw < 1 {
			sw = 1
		}
		u := &image.Uniform{C: stroke}
		draw.Draw(img, image.Rect(x0, y0, x1, y0+sw), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(x0, y1-sw, x1, y1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(x0, y0, x0+sw, y1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(x1-sw, y0, x1, y1), u, image.Point{}, draw.Src)
	}
}

func paintText(ftc *freetype.Context, f *truetype.Font, t layout.Text, scale float64, logger *slog.Logger) error {
	size := t.Size * scale
	ftc.SetFont(f)
	ftc.SetFontSize(size)
	ftc.SetSrc(&image.Uniform{C: parseColor(t.Fill, color.Black, logger)})

	pt := fixed.Point26_6{X: fixed.I(px(t.X * scale)), Y: fixed.I(px(t.Y * scale))}
	if t.Anchor == "middle" || t.Anchor == "end" {
		face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
		drawer := &font.Drawer{Face: face}
		width := drawer.MeasureString(t.Content)
		if t.Anchor == "middle" {
			pt.X -= width / 2
		} else {
			pt.X -= width
		}
	}
	if _, err := ftc.DrawString(t.Content, pt); err != nil {
		return fmt.Errorf("raster: draw %q: %w", t.Content, err)
	}
	return nil
}

// rotate90 rotates clockwise: the scene's left edge becomes the top.
func rotate90(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(b.Dy()-1-y, x, src.At(x, y))
		}
	}
	return dst
}

// parseColor reads "#rrggbb". Anything else falls back to the given
// default so a bad palette entry degrades instead of failing the cover.
func parseColor(s string, fallback color.Color, logger *slog.Logger) color.Color {
	if s == "" {
		return fallback
	}
	c, err := hexColor(s)
	if err != nil {
		logger.Warn("unparseable color", "value", s, "error", err)
		return fallback
	}
	return c
}

func hexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("want #rrggbb, got %q", s)
	}
	var parseErr error
	hexToByte := func(b byte) byte {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		}
		parseErr = fmt.Errorf("invalid hex char %q", b)
		return 0
	}
	c.R = hexToByte(s[1])<<4 + hexToByte(s[2])
	c.G = hexToByte(s[3])<<4 + hexToByte(s[4])
	c.B = hexToByte(s[5])<<4 + hexToByte(s[6])
	return c, parseErr
}
