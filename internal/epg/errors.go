// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import "errors"

var (
	// ErrNotXMLTV is returned when a document parses as XML but is not an XMLTV guide.
	ErrNotXMLTV = errors.New("not an xmltv document")

	// ErrInvalidJTV is returned when a .pdt member lacks the JTV magic header.
	ErrInvalidJTV = errors.New("invalid jtv title table")

	// ErrJTVEmpty is returned when a JTV archive yields no channel.
	ErrJTVEmpty = errors.New("jtv archive contains no channels")

	// ErrUnrecognizedFormat is returned when TXT input lacks the tv.all marker.
	ErrUnrecognizedFormat = errors.New("unrecognized txt guide format")
)
