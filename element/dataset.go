package element

import (
	"fmt"
	"time"

	"github.com/hazyhaar/mendelev/safeio"
)

// Meta records the provenance of one fetch invocation. It is written once
// by the fetch stage and never mutated afterwards; downstream stages read
// it and record their own runs in the provenance archive instead.
type Meta struct {
	FetchedAtUTC string `json:"fetched_at_utc"`
	Language     string `json:"language"`
	Page         string `json:"page"`
	API          string `json:"api"`
	SourceURL    string `json:"source_url"`
	RawFile      string `json:"raw_file"`
}

// FetchedAt parses the recorded retrieval timestamp.
func (m Meta) FetchedAt() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, m.FetchedAtUTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("element: parse fetched_at_utc %q: %w", m.FetchedAtUTC, err)
	}
	return t.UTC(), nil
}

// SaveDataset writes the normalized dataset artifact: a JSON array of
// records, indented, atomic. Records are sorted by atomic number first so
// the artifact is byte-stable for a given input.
func SaveDataset(path string, elements []Element) error {
	SortByNumber(elements)
	return safeio.WriteJSON(path, elements)
}

// LoadDataset reads a dataset artifact and re-validates it, so a corrupted
// or hand-edited file fails at the boundary rather than deep in a stage.
func LoadDataset(path string) ([]Element, error) {
	var elements []Element
	if err := safeio.ReadJSON(path, &elements); err != nil {
		return nil, err
	}
	if err := ValidateAll(elements); err != nil {
		return nil, fmt.Errorf("element: dataset %s: %w", path, err)
	}
	SortByNumber(elements)
	return elements, nil
}

// SaveMeta writes the provenance artifact atomically.
func SaveMeta(path string, m Meta) error {
	return safeio.WriteJSON(path, m)
}

// LoadMeta reads a provenance artifact.
func LoadMeta(path string) (Meta, error) {
	var m Meta
	if err := safeio.ReadJSON(path, &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}
