// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epgfetch

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/ManuGH/tvguide/internal/epg"
)

// Format is one guide encoding in the detection chain. Rejects reports
// whether err means "not this format", in which case the next format is
// tried; any other error fails the source.
type Format interface {
	Name() string
	Parse(data []byte, opts Options) (*epg.Guide, error)
	Rejects(err error) bool
}

// DefaultFormats returns the detection chain XMLTV, JTV, TXT.
func DefaultFormats(txt epg.TXTOptions) []Format {
	return []Format{xmltvFormat{}, jtvFormat{}, txtFormat{opts: txt}}
}

type xmltvFormat struct{}

func (xmltvFormat) Name() string { return "xmltv" }

func (xmltvFormat) Parse(data []byte, opts Options) (*epg.Guide, error) {
	return epg.ParseXMLTV(data, opts.OffsetHours, opts.CatchupDays)
}

func (xmltvFormat) Rejects(err error) bool {
	var syntaxErr *xml.SyntaxError
	return errors.Is(err, epg.ErrNotXMLTV) ||
		errors.As(err, &syntaxErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

type jtvFormat struct{}

func (jtvFormat) Name() string { return "jtv" }

func (jtvFormat) Parse(data []byte, opts Options) (*epg.Guide, error) {
	m, err := epg.ParseJTV(data, opts.OffsetHours)
	if err != nil {
		return nil, err
	}
	return epg.GuideFromProgrammes(m), nil
}

func (jtvFormat) Rejects(err error) bool {
	return errors.Is(err, epg.ErrInvalidJTV) || errors.Is(err, epg.ErrJTVEmpty)
}

type txtFormat struct {
	opts epg.TXTOptions
}

func (txtFormat) Name() string { return "txt" }

func (f txtFormat) Parse(data []byte, opts Options) (*epg.Guide, error) {
	m, err := epg.ParseTXT(data, opts.OffsetHours, f.opts)
	if err != nil {
		return nil, err
	}
	return epg.GuideFromProgrammes(m), nil
}

func (txtFormat) Rejects(err error) bool {
	return errors.Is(err, epg.ErrUnrecognizedFormat)
}

// detect runs the chain and returns the first accepted guide with the name
// of the format that produced it.
func detect(formats []Format, data []byte, opts Options) (*epg.Guide, string, error) {
	rejected := []error{ErrNoFormat}
	for _, f := range formats {
		g, err := f.Parse(data, opts)
		if err == nil {
			return g, f.Name(), nil
		}
		if !f.Rejects(err) {
			return nil, f.Name(), fmt.Errorf("%s: %w", f.Name(), err)
		}
		rejected = append(rejected, fmt.Errorf("%s: %w", f.Name(), err))
	}
	return nil, "", errors.Join(rejected...)
}
