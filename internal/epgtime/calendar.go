// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epgtime

import (
	"strings"
	"time"
)

// genitive month names as printed in regional guides ("15 января")
var monthsGenitive = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// MonthGenitive resolves a Russian month name in the genitive case.
func MonthGenitive(word string) (time.Month, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	w = strings.TrimSuffix(w, ".")
	w = strings.ReplaceAll(w, "ё", "е")
	m, ok := monthsGenitive[w]
	return m, ok
}

// yearBumpWindow is how far in the past a day/month pair may lie before it
// is read as belonging to next year.
const yearBumpWindow = 30 * 24 * time.Hour

// InferDate places day/month in now's year, or the following year when that
// date is more than 30 days before now. The result is midnight in loc.
func InferDate(now time.Time, day int, month time.Month, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, loc)
	if now.Sub(d) > yearBumpWindow {
		d = time.Date(now.Year()+1, month, day, 0, 0, 0, 0, loc)
	}
	return d
}
