package dataset

import "errors"

var (
	// ErrMissingColumn is returned when a column required by an operation is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrSchema is returned when the shape or column kinds of a table cannot be used as requested.
	ErrSchema = errors.New("schema error")
)
