package summary

import (
	"fmt"

	"github.com/hazyhaar/mendelev/safeio"
)

// SaveCollection writes the collection artifact atomically, sorted by
// atomic number so repeated runs produce identical bytes.
func SaveCollection(path string, c *Collection) error {
	sortSummaries(c.Elements)
	c.Meta.Count = len(c.Elements)
	if err := safeio.WriteJSON(path, c); err != nil {
		return fmt.Errorf("summary: save collection: %w", err)
	}
	return nil
}

// LoadCollection reads a collection artifact back.
func LoadCollection(path string) (*Collection, error) {
	var c Collection
	if err := safeio.ReadJSON(path, &c); err != nil {
		return nil, fmt.Errorf("summary: load collection: %w", err)
	}
	if len(c.Elements) == 0 {
		return nil, ErrNoElements
	}
	sortSummaries(c.Elements)
	return &c, nil
}
