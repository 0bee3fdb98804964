package demonlistdb

import "errors"

var (
	// ErrNotFound is returned when a targeted row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownTier is returned for a tier with no backing table.
	ErrUnknownTier = errors.New("unknown tier")
)
