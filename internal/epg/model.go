// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package epg parses electronic programme guides (XMLTV, JTV, TXT) into a
// common channel -> programme model.
package epg

// Programme is one scheduled broadcast. Start and Stop are epoch seconds;
// Stop is 0 when the source did not provide it.
type Programme struct {
	Start     float64 `json:"start"`
	Stop      float64 `json:"stop"`
	Title     string  `json:"title"`
	Desc      string  `json:"desc"`
	CatchupID string  `json:"catchup_id,omitempty"`
}

// Guide is the parsed content of one or more guide sources.
type Guide struct {
	// Programmes maps a channel alias to its schedule in source order.
	Programmes map[string][]Programme `json:"programmes"`
	// Names maps a guide channel id to its display-name aliases.
	Names map[string][]string `json:"names"`
	// Icons maps a lowercased display name to an icon URL.
	Icons map[string]string `json:"icons"`
}

// NewGuide returns an empty guide with all maps allocated.
func NewGuide() *Guide {
	return &Guide{
		Programmes: make(map[string][]Programme),
		Names:      make(map[string][]string),
		Icons:      make(map[string]string),
	}
}

// GuideFromProgrammes wraps a bare programme map, as produced by the JTV and
// TXT parsers, into a Guide.
func GuideFromProgrammes(programmes map[string][]Programme) *Guide {
	g := NewGuide()
	if programmes != nil {
		g.Programmes = programmes
	}
	return g
}

// Merge copies every key of other into g. Keys already present in g are
// replaced, not appended to.
func (g *Guide) Merge(other *Guide) {
	if other == nil {
		return
	}
	for k, v := range other.Programmes {
		g.Programmes[k] = v
	}
	for k, v := range other.Names {
		g.Names[k] = v
	}
	for k, v := range other.Icons {
		g.Icons[k] = v
	}
}

// ProgrammeCount returns the total number of programmes over all channels.
func (g *Guide) ProgrammeCount() int {
	n := 0
	for _, list := range g.Programmes {
		n += len(list)
	}
	return n
}

// NowPlaying returns the programme of list running at the epoch second now.
// Entries with an unknown stop are treated as running until the next start.
func NowPlaying(list []Programme, now float64) (Programme, bool) {
	for i, p := range list {
		if p.Start > now {
			continue
		}
		stop := p.Stop
		if stop == 0 && i+1 < len(list) {
			stop = list[i+1].Start
		}
		if stop == 0 || now < stop {
			return p, true
		}
	}
	return Programme{}, false
}

// chainStops fills Stop of each entry from the Start of the entry after it
// and drops the trailing entry whose end is unknown.
func chainStops(list []Programme) []Programme {
	if len(list) < 2 {
		return list[:0]
	}
	for i := 0; i < len(list)-1; i++ {
		list[i].Stop = list[i+1].Start
	}
	return list[:len(list)-1]
}
