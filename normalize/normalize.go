// Package normalize turns the raw HTML of a "list of chemical elements"
// wiki page into the canonical element dataset.
//
// The pipeline is: select the one marked table whose headers map onto the
// element schema, resolve headers through the column rule set (validated
// up front, so a missing required column fails loudly instead of silently
// dropping data), clean every cell, coerce the numeric fields, and
// validate the result. Individual malformed rows are dropped and reported;
// structural problems (no table, ambiguous tables, missing columns,
// duplicate elements) fail the whole pass with zero records.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/mendelev/element"
)

// Config configures one normalization pass.
type Config struct {
	// Language for the generated wiki URLs. Default: "en".
	Language string
	// BaseDomain for the generated wiki URLs. Default: "wikipedia.org".
	BaseDomain string
	// Marker is the table class that flags candidate tables.
	// Default: "wikitable".
	Marker string
	// Rules is the column mapping rule set. Default: DefaultRules().
	Rules  *ColumnRules
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.BaseDomain == "" {
		c.BaseDomain = "wikipedia.org"
	}
	if c.Marker == "" {
		c.Marker = "wikitable"
	}
	if c.Rules == nil {
		c.Rules = DefaultRules()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RowError is one dropped data row: its index within the table body and
// the reason it was unusable.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Stats summarizes a pass for logging and run records.
type Stats struct {
	RowsSeen       int
	RowsKept       int
	RowsDropped    int
	DroppedHeaders []string
}

// Result is a successful normalization: the validated dataset plus the
// row-level diagnostics that did not stop it.
type Result struct {
	Elements []element.Element
	Dropped  []RowError
	Stats    Stats
}

// Run normalizes one raw page document.
func Run(doc []byte, cfg Config) (*Result, error) {
	cfg.defaults()

	rt, err := selectElementTable(doc, cfg.Marker, cfg.Rules)
	if err != nil {
		return nil, err
	}

	cm := cfg.Rules.mapColumns(rt.headers)
	for _, h := range cm.droppedHeaders {
		cfg.Logger.Warn("unrecognized column dropped", "header", h)
	}
	for _, h := range cm.duplicates {
		cfg.Logger.Warn("duplicate column ignored", "header", h)
	}
	if missing := cfg.Rules.missingRequired(cm); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	cell := func(row []string, field string) string {
		idx, ok := cm.byField[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	res := &Result{Stats: Stats{DroppedHeaders: cm.droppedHeaders}}
	for i, row := range rt.rows {
		res.Stats.RowsSeen++
		drop := func(reason string) {
			res.Dropped = append(res.Dropped, RowError{Row: i, Reason: reason})
			cfg.Logger.Warn("row dropped", "row", i, "reason", reason)
		}

		z, ok := ToInt(cell(row, FieldAtomicNumber))
		if !ok {
			drop(fmt.Sprintf("atomic_number %q not an integer", cell(row, FieldAtomicNumber)))
			continue
		}
		if z < 1 || z > element.MaxAtomicNumber {
			drop(fmt.Sprintf("atomic_number %d out of range", z))
			continue
		}

		symbol := cell(row, FieldSymbol)
		if symbol == "" {
			drop(fmt.Sprintf("element %d: empty symbol", z))
			continue
		}
		name := cell(row, FieldName)
		if name == "" {
			drop(fmt.Sprintf("element %d: empty name", z))
			continue
		}

		period, ok := ToInt(cell(row, FieldPeriod))
		if !ok || period < 1 || period > 7 {
			drop(fmt.Sprintf("element %d: period %q unusable", z, cell(row, FieldPeriod)))
			continue
		}

		// Group failures are tolerated: the f-block series legitimately
		// renders a dash here.
		var group *int
		if g, ok := ToInt(cell(row, FieldGroup)); ok {
			if g >= 1 && g <= 18 {
				group = &g
			} else {
				cfg.Logger.Warn("group out of range, cleared", "element", z, "group", g)
			}
		}

		blockLabel := cell(row, FieldBlock)
		block := blockLetter(blockLabel)
		if block == "" && blockLabel != "" {
			cfg.Logger.Warn("unrecognized block label", "element", z, "label", blockLabel)
		}

		res.Elements = append(res.Elements, element.Element{
			AtomicNumber: z,
			Symbol:       symbol,
			Name:         name,
			Group:        group,
			Period:       period,
			Block:        block,
			Weight:       cell(row, FieldWeight),
			Phase:        cell(row, FieldPhase),
			Origin:       cell(row, FieldOrigin),
			Category:     deriveCategory(blockLabel, z),
			WikiURL: fmt.Sprintf("https://%s.%s/wiki/%s",
				cfg.Language, cfg.BaseDomain, strings.ReplaceAll(name, " ", "_")),
		})
		res.Stats.RowsKept++
	}
	res.Stats.RowsDropped = len(res.Dropped)

	element.SortByNumber(res.Elements)
	if err := element.ValidateAll(res.Elements); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return res, nil
}

// blockLetter reduces a block label ("s-block") to its letter, or empty
// when the label is absent or unrecognized. The letter is taken from the
// label, never computed from electron configuration.
func blockLetter(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return ""
	}
	switch l[0] {
	case 's', 'p', 'd', 'f':
		return string(l[0])
	}
	return ""
}
