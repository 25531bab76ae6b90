package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/mendelev/layout"
	"github.com/hazyhaar/mendelev/safeio"
)

// Encode writes the image in the given format. Quality applies to JPEG
// only; zero or negative means 90.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		if quality <= 0 {
			quality = 90
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("raster: encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("raster: encode png: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
	return nil
}

// formatFor resolves the encode format from the config, falling back to
// the output file extension.
func formatFor(cfg Config, outPath string) (string, error) {
	if cfg.Format != "" {
		return cfg.Format, nil
	}
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".png":
		return "png", nil
	}
	return "", fmt.Errorf("%w: cannot derive from %q", ErrFormat, outPath)
}

// RenderFile rasterizes a scene artifact into an image file, written
// atomically.
func RenderFile(scenePath, outPath string, cfg Config) error {
	cfg.defaults()

	format, err := formatFor(cfg, outPath)
	if err != nil {
		return err
	}

	scene, err := layout.LoadScene(scenePath)
	if err != nil {
		return err
	}

	img, err := Render(scene, cfg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, format, cfg.Quality); err != nil {
		return err
	}
	if err := safeio.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("raster: write %s: %w", outPath, err)
	}

	cfg.Logger.Info("cover rasterized",
		"scene", scenePath, "out", outPath,
		"format", format, "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"bytes", buf.Len())
	return nil
}
