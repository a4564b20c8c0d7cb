// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import "strings"

// A guide URL spec is either a single URL, a comma separated list, or a list
// encoded with the marker and delimiter below.
const (
	MultipleMarker  = "^^::MULTIPLE::^^"
	SourceDelimiter = ":::^^^:::"
)

// JoinSources encodes urls into a single spec string. An empty list yields "".
func JoinSources(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return MultipleMarker + strings.Join(urls, SourceDelimiter)
}

// SplitSources expands a spec into its URLs, trimmed, in order, without
// empties or duplicates.
func SplitSources(spec string) []string {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}

	var parts []string
	if rest, ok := strings.CutPrefix(spec, MultipleMarker); ok {
		parts = strings.Split(rest, SourceDelimiter)
	} else {
		parts = strings.Split(spec, ",")
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
