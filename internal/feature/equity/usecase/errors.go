// Package usecase implements the business logic for the equity feature.
package usecase

import "errors"

var (
	// ErrBhavcopyNotFound is returned when no bhavcopy is published for a day (weekends, exchange holidays).
	ErrBhavcopyNotFound = errors.New("bhavcopy not found")

	// ErrTableNotFound is returned when a ranking is requested from a table that has not been loaded yet.
	ErrTableNotFound = errors.New("table not found")

	// ErrInvalidTableName is returned when a table name is not a plain SQL identifier.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrUnknownSource is returned when a ranking source other than "latest" or "series" is requested.
	ErrUnknownSource = errors.New("unknown ranking source")
)
