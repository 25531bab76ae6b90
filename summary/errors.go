package summary

import "errors"

var (
	// ErrNoElements is returned when the aggregator is given an empty
	// dataset.
	ErrNoElements = errors.New("summary: no elements to aggregate")

	// ErrTooManyFailures is returned when the per-element failure fraction
	// exceeds the configured ceiling. Partial results are discarded; a
	// collection missing a fifth of its elements is a broken book.
	ErrTooManyFailures = errors.New("summary: too many elements failed")
)
