// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeCP1251 decodes windows-1251 bytes. Bytes that are valid UTF-8 with
// multi-byte runes are taken as UTF-8 instead, since some feeds mislabel
// their encoding.
func decodeCP1251(b []byte) string {
	if isMultibyteUTF8(b) {
		return string(b)
	}
	s, err := charmap.Windows1251.NewDecoder().Bytes(b)
	if err != nil || strings.ContainsRune(string(s), utf8.RuneError) {
		return strings.ToValidUTF8(string(b), "")
	}
	return string(s)
}

// decodeArchiveName turns a zip member name into text. Names flagged as
// non-UTF-8 were written by DOS tools and carry CP866 bytes.
func decodeArchiveName(name string, nonUTF8 bool) string {
	if !nonUTF8 && utf8.ValidString(name) {
		return name
	}
	s, err := charmap.CodePage866.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return s
}

func isMultibyteUTF8(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return true
		}
	}
	return false
}
