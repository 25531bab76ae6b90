// Package layout places elements on the 18x9 periodic-table grid and
// builds the cover scene graph the rasterizer consumes.
package layout

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/mendelev/element"
)

var (
	// ErrNoPosition reports an element that fits neither the main grid nor
	// the overflow series rows.
	ErrNoPosition = errors.New("layout: element has no grid position")

	// ErrCellCollision reports two elements resolving to the same cell.
	// The grid is a bijection; a collision means the dataset or the
	// placement rules are wrong, so the layout fails rather than paint
	// one element over another.
	ErrCellCollision = errors.New("layout: grid cell claimed twice")
)

// GridCell is a 1-based (row, column) address. Rows 1..7 are the periods;
// rows 8 and 9 hold the lanthanide and actinide series.
type GridCell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Placement pairs an element with its resolved cell.
type Placement struct {
	Cell    GridCell
	Element element.Element
}

const (
	lanthanideFirst = 57
	lanthanideLast  = 71
	actinideFirst   = 89
	actinideLast    = 103

	// seriesStartColumn leaves columns 1..3 of the overflow rows empty,
	// marking the break from the main table.
	seriesStartColumn = 4
)

// Position resolves one element's grid cell. The series ranges win over
// group membership: a lanthanide or actinide routes to its overflow row
// even when the source table assigns it a nominal group.
func Position(e element.Element) (GridCell, error) {
	switch {
	case e.AtomicNumber >= lanthanideFirst && e.AtomicNumber <= lanthanideLast:
		return GridCell{Row: 8, Col: seriesStartColumn + e.AtomicNumber - lanthanideFirst}, nil
	case e.AtomicNumber >= actinideFirst && e.AtomicNumber <= actinideLast:
		return GridCell{Row: 9, Col: seriesStartColumn + e.AtomicNumber - actinideFirst}, nil
	}
	if e.Group != nil && *e.Group >= 1 && *e.Group <= 18 && e.Period >= 1 && e.Period <= 7 {
		return GridCell{Row: e.Period, Col: *e.Group}, nil
	}
	return GridCell{}, fmt.Errorf("%w: element %d (%s)", ErrNoPosition, e.AtomicNumber, e.Symbol)
}

// PlaceAll positions every element, failing on the first element without
// a cell or the first cell claimed twice.
func PlaceAll(elements []element.Element) ([]Placement, error) {
	occupied := make(map[GridCell]element.Element, len(elements))
	out := make([]Placement, 0, len(elements))
	for _, e := range elements {
		cell, err := Position(e)
		if err != nil {
			return nil, err
		}
		if prev, ok := occupied[cell]; ok {
			return nil, fmt.Errorf("%w: row %d col %d claimed by %s and %s",
				ErrCellCollision, cell.Row, cell.Col, prev.Symbol, e.Symbol)
		}
		occupied[cell] = e
		out = append(out, Placement{Cell: cell, Element: e})
	}
	return out, nil
}
