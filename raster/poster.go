package raster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// Poster wraps the rasterized cover into a single-page PDF sized to the
// image. pdfcpu appends pages when the output file already exists, so the
// import runs against a fresh temp file which then replaces the target.
func Poster(imagePath, pdfPath string) error {
	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("raster: poster source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(pdfPath), 0o755); err != nil {
		return fmt.Errorf("raster: poster: %w", err)
	}

	tmp := pdfPath + ".tmp"
	_ = os.Remove(tmp)
	if err := api.ImportImagesFile([]string{imagePath}, tmp, pdfcpu.DefaultImportConfig(), nil); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("raster: poster import: %w", err)
	}
	if err := os.Rename(tmp, pdfPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("raster: poster: %w", err)
	}
	return nil
}
