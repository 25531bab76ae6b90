package normalize

import "errors"

var (
	// ErrNoTable is returned when the document contains no marked table
	// whose headers map onto the element schema.
	ErrNoTable = errors.New("normalize: no element table found")

	// ErrAmbiguousTable is returned when more than one marked table maps
	// onto the element schema and the normalizer cannot pick one.
	ErrAmbiguousTable = errors.New("normalize: multiple candidate element tables")

	// ErrMissingColumns is returned when the selected table lacks headers
	// for required fields. The message names every missing field.
	ErrMissingColumns = errors.New("normalize: required columns not found")
)
