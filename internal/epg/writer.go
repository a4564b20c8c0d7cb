// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import (
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/ManuGH/tvguide/internal/epgtime"
)

// Generator is written into the generator-info-name attribute of exports.
const Generator = "tvguide"

type tvDoc struct {
	XMLName   xml.Name       `xml:"tv"`
	Generator string         `xml:"generator-info-name,attr,omitempty"`
	Channels  []channelDoc   `xml:"channel"`
	Programs  []programmeDoc `xml:"programme"`
}

type channelDoc struct {
	ID          string   `xml:"id,attr"`
	DisplayName []string `xml:"display-name"`
	Icon        *iconDoc `xml:"icon,omitempty"`
}

type iconDoc struct {
	Src string `xml:"src,attr"`
}

type programmeDoc struct {
	Start     string `xml:"start,attr"`
	Stop      string `xml:"stop,attr,omitempty"`
	Channel   string `xml:"channel,attr"`
	CatchupID string `xml:"catchup-id,attr,omitempty"`
	Title     string `xml:"title"`
	Desc      string `xml:"desc,omitempty"`
}

// WriteXMLTV exports g as an XMLTV document. Every programme list key
// becomes one channel whose id and display name are the key, so the output
// parses back into the same programme map. Channels are sorted by key.
func WriteXMLTV(w io.Writer, g *Guide) error {
	keys := make([]string, 0, len(g.Programmes))
	for k := range g.Programmes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := tvDoc{
		Generator: Generator,
		Channels:  make([]channelDoc, 0, len(keys)),
		Programs:  make([]programmeDoc, 0, g.ProgrammeCount()),
	}
	for _, k := range keys {
		ch := channelDoc{ID: k, DisplayName: []string{k}}
		if src := g.Icons[strings.ToLower(k)]; src != "" {
			ch.Icon = &iconDoc{Src: src}
		}
		doc.Channels = append(doc.Channels, ch)

		for _, p := range g.Programmes[k] {
			pd := programmeDoc{
				Start:     epgtime.FormatXMLTV(p.Start),
				Channel:   k,
				CatchupID: p.CatchupID,
				Title:     p.Title,
				Desc:      p.Desc,
			}
			if p.Stop != 0 {
				pd.Stop = epgtime.FormatXMLTV(p.Stop)
			}
			doc.Programs = append(doc.Programs, pd)
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
