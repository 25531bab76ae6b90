// Package safeio provides the file-handling primitives shared by every
// pipeline stage: atomic artifact writes (write a temp file in the target
// directory, then rename) and a path guard for user-supplied relative paths.
//
// Stages communicate exclusively through file artifacts, so a partially
// written file must never be observable at its final path. Rename within
// one directory is atomic on POSIX filesystems; consumers either see the
// previous artifact or the complete new one.
package safeio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a relative path escapes its base directory.
var ErrPathTraversal = errors.New("safeio: path escapes base directory")

// WriteFile writes data to path atomically. Parent directories are created
// as needed. The temp file lives in the target directory so the final
// rename never crosses a filesystem boundary.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("safeio: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("safeio: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("safeio: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("safeio: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("safeio: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("safeio: rename: %w", err)
	}
	return nil
}

// WriteJSON marshals v as indented UTF-8 JSON with a trailing newline and
// writes it atomically. The encoding is deterministic for a given value, so
// artifacts are byte-stable across runs.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("safeio: marshal %s: %w", path, err)
	}
	return WriteFile(path, append(data, '\n'), 0o644)
}

// ReadJSON reads path and unmarshals it into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("safeio: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("safeio: decode %s: %w", path, err)
	}
	return nil
}

// SafeChild validates that joining base and rel does not escape base.
// Returns the cleaned joined path or ErrPathTraversal.
func SafeChild(base, rel string) (string, error) {
	if strings.Contains(rel, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+rel))
	if cleaned != filepath.Clean(base) &&
		!strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}
