package book

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"
)

// packEPUB assembles the container bytes. The EPUB OCF demands the
// mimetype entry first and uncompressed so readers can sniff it at a
// fixed offset; everything else is deflated in sorted path order with the
// shared timestamp, so the same file map always packs to the same bytes.
func packEPUB(files map[string][]byte, modified time.Time) ([]byte, error) {
	mimetype, ok := files["mimetype"]
	if !ok {
		return nil, errors.New("book: file map has no mimetype entry")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     "mimetype",
		Method:   zip.Store,
		Modified: modified,
	})
	if err != nil {
		return nil, fmt.Errorf("book: zip mimetype: %w", err)
	}
	if _, err := w.Write(mimetype); err != nil {
		return nil, fmt.Errorf("book: zip mimetype: %w", err)
	}

	names := make([]string, 0, len(files)-1)
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("book: zip entry %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("book: zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("book: close zip: %w", err)
	}
	return buf.Bytes(), nil
}
