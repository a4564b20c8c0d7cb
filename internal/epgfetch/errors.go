// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epgfetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSources is returned when a guide spec expands to no URL.
	ErrNoSources = errors.New("no epg sources")

	// ErrNoFormat is returned when no guide format accepts a payload.
	ErrNoFormat = errors.New("unrecognized epg format")
)

// SourceError is a network or file failure loading one guide source.
type SourceError struct {
	URL string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("epg source %s: %v", e.URL, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// AllSourcesFailedError reports a fetch in which every source failed. First
// is the error of the first source in spec order.
type AllSourcesFailedError struct {
	Sources int
	First   error
}

func (e *AllSourcesFailedError) Error() string {
	return fmt.Sprintf("all %d epg sources failed: %v", e.Sources, e.First)
}

func (e *AllSourcesFailedError) Unwrap() error { return e.First }
