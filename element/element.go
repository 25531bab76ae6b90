// Package element defines the canonical chemical-element dataset produced by
// normalization and consumed by every downstream stage: the record type, its
// validation invariants, ordering helpers, and the file artifact codecs.
package element

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxAtomicNumber is the highest atomic number the pipeline accepts.
// Oganesson (118) closes period 7; anything above is structural drift in
// the source table, not a new element this code should guess about.
const MaxAtomicNumber = 118

var (
	// ErrDuplicateElement reports two records sharing an atomic number or
	// symbol. Uniqueness violations are structural, so they fail the whole
	// dataset rather than dropping one row.
	ErrDuplicateElement = errors.New("element: duplicate atomic number or symbol")

	// ErrEmptyDataset reports a dataset with no records.
	ErrEmptyDataset = errors.New("element: dataset has no records")
)

// Element is one normalized chemical element.
//
// standard_atomic_weight, phase and origin are opaque display text: cleaned
// of markup and footnotes but never parsed further. Predicted weights keep
// their numeral ("[98]" normalizes to "98") without gaining meaning.
type Element struct {
	AtomicNumber int    `json:"atomic_number"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Group        *int   `json:"group,omitempty"`
	Period       int    `json:"period"`
	Block        string `json:"block,omitempty"`
	Weight       string `json:"standard_atomic_weight,omitempty"`
	Phase        string `json:"phase,omitempty"`
	Origin       string `json:"origin,omitempty"`
	Category     string `json:"category"`
	WikiURL      string `json:"wiki_url"`
}

// WikiTitle returns the element's page title in URL form (spaces replaced
// by underscores), suitable for the content and summary APIs.
func (e Element) WikiTitle() string {
	return strings.ReplaceAll(strings.TrimSpace(e.Name), " ", "_")
}

// Validate checks the per-record invariants.
func (e Element) Validate() error {
	if e.AtomicNumber < 1 || e.AtomicNumber > MaxAtomicNumber {
		return fmt.Errorf("element: atomic number %d out of range 1..%d", e.AtomicNumber, MaxAtomicNumber)
	}
	if e.Symbol == "" {
		return fmt.Errorf("element %d: empty symbol", e.AtomicNumber)
	}
	if n := len([]rune(e.Symbol)); n > 3 {
		return fmt.Errorf("element %d: symbol %q longer than 3 characters", e.AtomicNumber, e.Symbol)
	}
	if e.Name == "" {
		return fmt.Errorf("element %d: empty name", e.AtomicNumber)
	}
	if e.Period < 1 || e.Period > 7 {
		return fmt.Errorf("element %d: period %d out of range 1..7", e.AtomicNumber, e.Period)
	}
	if e.Group != nil && (*e.Group < 1 || *e.Group > 18) {
		return fmt.Errorf("element %d: group %d out of range 1..18", e.AtomicNumber, *e.Group)
	}
	if e.Block != "" && e.Block != "s" && e.Block != "p" && e.Block != "d" && e.Block != "f" {
		return fmt.Errorf("element %d: block %q not one of s, p, d, f", e.AtomicNumber, e.Block)
	}
	return nil
}

// ValidateAll checks every record plus the dataset-wide uniqueness
// invariants. A violation anywhere fails the whole dataset.
func ValidateAll(elements []Element) error {
	if len(elements) == 0 {
		return ErrEmptyDataset
	}
	byNumber := make(map[int]string, len(elements))
	bySymbol := make(map[string]int, len(elements))
	for _, e := range elements {
		if err := e.Validate(); err != nil {
			return err
		}
		if prev, ok := byNumber[e.AtomicNumber]; ok {
			return fmt.Errorf("atomic number %d claimed by %q and %q: %w",
				e.AtomicNumber, prev, e.Symbol, ErrDuplicateElement)
		}
		byNumber[e.AtomicNumber] = e.Symbol
		if prev, ok := bySymbol[e.Symbol]; ok {
			return fmt.Errorf("symbol %q claimed by elements %d and %d: %w",
				e.Symbol, prev, e.AtomicNumber, ErrDuplicateElement)
		}
		bySymbol[e.Symbol] = e.AtomicNumber
	}
	return nil
}

// SortByNumber orders elements by atomic number ascending, in place.
func SortByNumber(elements []Element) {
	sort.Slice(elements, func(i, j int) bool {
		return elements[i].AtomicNumber < elements[j].AtomicNumber
	})
}

// SortBySymbol orders elements by (symbol, atomic number) ascending, in
// place. Used for alphabetical indexes.
func SortBySymbol(elements []Element) {
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Symbol != elements[j].Symbol {
			return elements[i].Symbol < elements[j].Symbol
		}
		return elements[i].AtomicNumber < elements[j].AtomicNumber
	})
}
