// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyExists  = errors.New("already exists")
	ErrMarkerNotFound = errors.New("marker not found")
	ErrBlockNotFound  = errors.New("tracker block not found")
	ErrGlyphComma     = errors.New("glyph may not contain a comma")
	ErrPeriodDisabled = errors.New("periodic notes not enabled for granularity")
)
