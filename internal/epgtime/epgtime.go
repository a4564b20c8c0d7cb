// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package epgtime converts the date encodings found in programme guides
// (XMLTV timestamps, Win32 FILETIME values, Russian calendar text) into
// epoch seconds.
package epgtime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when a guide timestamp matches none of the
// accepted layouts.
var ErrInvalidTimestamp = errors.New("invalid guide timestamp")

// xmltvLayouts lists the accepted digit layouts by descending precision.
var xmltvLayouts = []string{
	"20060102150405 -0700",
	"200601021504 -0700",
	"2006010215 -0700",
	"20060102 -0700",
	"200601 -0700",
	"2006 -0700",
}

// digits, then an optional zone, with or without a separating space
var xmltvRe = regexp.MustCompile(`^(\d{4,14})\s*([+-]\d{4})?$`)

// Offset converts an hour offset into seconds.
func Offset(hours int) float64 {
	return float64(hours) * 3600
}

// ParseXMLTV parses an XMLTV timestamp such as "20240115203000 +0100" and
// returns epoch seconds shifted by offsetHours. A timestamp without a zone is
// read as UTC.
func ParseXMLTV(s string, offsetHours int) (float64, error) {
	m := xmltvRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	zone := m[2]
	if zone == "" {
		zone = "+0000"
	}
	layout, ok := layoutForDigits(len(m[1]))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	t, err := time.Parse(layout, m[1]+" "+zone)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return float64(t.Unix()) + Offset(offsetHours), nil
}

// layoutForDigits picks the one layout whose date part has exactly n digits;
// time.Parse accepts one-digit hours, so the length must be checked first.
func layoutForDigits(n int) (string, bool) {
	for _, layout := range xmltvLayouts {
		if date, _, _ := strings.Cut(layout, " "); len(date) == n {
			return layout, true
		}
	}
	return "", false
}

// FormatXMLTV renders epoch seconds in the full XMLTV layout (UTC).
func FormatXMLTV(epoch float64) string {
	return time.Unix(int64(epoch), 0).UTC().Format(xmltvLayouts[0])
}

// fileTimeEpochDelta is the number of 100ns ticks between 1601-01-01 and 1970-01-01.
const fileTimeEpochDelta = 116444736000000000

// FileTimeToUnix converts a Win32 FILETIME (100ns ticks since 1601-01-01 UTC)
// into epoch seconds shifted by offsetHours.
func FileTimeToUnix(ft uint64, offsetHours int) float64 {
	ticks := int64(ft) - fileTimeEpochDelta
	return float64(ticks)/1e7 + Offset(offsetHours)
}

// UnixToFileTime is the inverse of FileTimeToUnix without an offset.
func UnixToFileTime(epoch float64) uint64 {
	return uint64(int64(epoch*1e7) + fileTimeEpochDelta)
}
