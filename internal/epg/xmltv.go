// SPDX-License-Identifier: MIT

package epg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/tvguide/internal/epgtime"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

type xmltvChannel struct {
	ID           string      `xml:"id,attr"`
	DisplayNames []string    `xml:"display-name"`
	Icons        []xmltvIcon `xml:"icon"`
}

type xmltvIcon struct {
	Src string `xml:"src,attr"`
}

type xmltvProgramme struct {
	Start     string   `xml:"start,attr"`
	Stop      string   `xml:"stop,attr"`
	Channel   string   `xml:"channel,attr"`
	CatchupID string   `xml:"catchup-id,attr"`
	Titles    []string `xml:"title"`
	Descs     []string `xml:"desc"`
}

// ParseXMLTV parses an XMLTV guide. The payload may be plain, gzip or xz
// compressed; each decoding is tried only when the previous one failed and
// the error of the plain attempt is returned when none succeeds.
//
// catchupDays is accepted for callers that window the result; the parser
// itself keeps every programme.
func ParseXMLTV(data []byte, offsetHours, catchupDays int) (*Guide, error) {
	logger := xglog.WithComponent("epg").With().Str(xglog.FieldFormat, "xmltv").Logger()

	g, firstErr := decodeXMLTV(data, offsetHours, logger)
	if firstErr == nil {
		return g, nil
	}
	for _, inflate := range []func([]byte) ([]byte, error){gunzip, unxz} {
		raw, err := inflate(data)
		if err != nil {
			continue
		}
		if g, err := decodeXMLTV(raw, offsetHours, logger); err == nil {
			return g, nil
		}
	}
	return nil, firstErr
}

type pendingProgramme struct {
	channel string
	prog    Programme
}

func decodeXMLTV(data []byte, offsetHours int, logger zerolog.Logger) (*Guide, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	g := NewGuide()
	var (
		pending  []pendingProgramme
		rootSeen bool
		badTimes int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.CharData:
			if !rootSeen && len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text before root element", ErrNotXMLTV)
			}
		case xml.StartElement:
			if !rootSeen {
				if t.Name.Local != "tv" {
					return nil, fmt.Errorf("%w: root element <%s>", ErrNotXMLTV, t.Name.Local)
				}
				rootSeen = true
				continue
			}
			switch t.Name.Local {
			case "channel":
				var ch xmltvChannel
				if err := dec.DecodeElement(&ch, &t); err != nil {
					return nil, err
				}
				g.addChannel(ch)
			case "programme":
				var p xmltvProgramme
				if err := dec.DecodeElement(&p, &t); err != nil {
					return nil, err
				}
				prog, ok := toProgramme(p, offsetHours)
				if !ok {
					badTimes++
				}
				pending = append(pending, pendingProgramme{channel: strings.TrimSpace(p.Channel), prog: prog})
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		}
	}
	if !rootSeen {
		return nil, fmt.Errorf("%w: no root element", ErrNotXMLTV)
	}

	skipped := 0
	for _, pp := range pending {
		aliases := g.Names[pp.channel]
		if len(aliases) == 0 {
			skipped++
			continue
		}
		for _, alias := range aliases {
			g.Programmes[alias] = append(g.Programmes[alias], pp.prog)
		}
	}

	logger.Debug().
		Int(xglog.FieldChannels, len(g.Names)).
		Int(xglog.FieldProgrammes, len(pending)).
		Int("unresolved", skipped).
		Int("bad_timestamps", badTimes).
		Msg("xmltv parsed")
	return g, nil
}

func (g *Guide) addChannel(ch xmltvChannel) {
	id := strings.TrimSpace(ch.ID)
	if id == "" {
		return
	}
	last := ""
	for _, name := range ch.DisplayNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		last = name
		if !containsString(g.Names[id], name) {
			g.Names[id] = append(g.Names[id], name)
		}
	}
	if last == "" {
		return
	}
	for _, icon := range ch.Icons {
		if src := strings.TrimSpace(icon.Src); src != "" {
			g.Icons[strings.ToLower(last)] = src
			break
		}
	}
}

// toProgramme converts one element; a bound that fails to parse becomes 0
// and ok reports false.
func toProgramme(p xmltvProgramme, offsetHours int) (Programme, bool) {
	ok := true
	start, err := epgtime.ParseXMLTV(p.Start, offsetHours)
	if err != nil {
		start, ok = 0, false
	}
	stop, err := epgtime.ParseXMLTV(p.Stop, offsetHours)
	if err != nil {
		stop, ok = 0, false
	}
	return Programme{
		Start:     start,
		Stop:      stop,
		Title:     firstText(p.Titles),
		Desc:      firstText(p.Descs),
		CatchupID: strings.TrimSpace(p.CatchupID),
	}, ok
}

func firstText(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
