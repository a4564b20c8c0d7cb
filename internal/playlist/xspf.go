// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ManuGH/tvguide/internal/metrics"
	"golang.org/x/net/html/charset"
)

type xspfPlaylist struct {
	XMLName xml.Name    `xml:"playlist"`
	Tracks  []xspfTrack `xml:"trackList>track"`
}

type xspfTrack struct {
	Title     string   `xml:"title"`
	Locations []string `xml:"location"`
}

// ParseXSPF parses an XSPF playlist. XML errors are returned as produced by
// encoding/xml. XSPF carries no guide reference, so the returned source list
// is always empty.
func ParseXSPF(data []byte) ([]Channel, []string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var doc xspfPlaylist
	if err := dec.Decode(&doc); err != nil {
		metrics.IncPlaylistParseFailure("xml")
		return nil, nil, err
	}

	channels := make([]Channel, 0, len(doc.Tracks))
	for i, tr := range doc.Tracks {
		title := strings.TrimSpace(tr.Title)
		location := ""
		if len(tr.Locations) > 0 {
			location = strings.TrimSpace(tr.Locations[0])
		}
		if title == "" || location == "" {
			return nil, nil, fmt.Errorf("%w: track %d needs title and location", ErrInvalidTrack, i+1)
		}
		ch := newChannel()
		ch.Title = title
		ch.URL = location
		channels = append(channels, ch)
	}

	metrics.RecordPlaylistParsed("xspf", len(channels))
	return channels, []string{}, nil
}
