// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ManuGH/tvguide/internal/epgtime"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/klauspost/compress/zip"
)

const (
	jtvMagicLen     = 26
	jtvRecordLen    = 12
	jtvMaxMemberLen = 64 << 20
)

// known title table headers, differing only in their padding
var jtvMagics = [][]byte{
	[]byte("JTV 3.x TV Program Data\n\n\n"),
	[]byte("JTV 3.x TV Program Data\xa0\xa0\xa0"),
}

type jtvPair struct {
	ndx []byte
	pdt []byte
}

// ParseJTV parses a JTV archive: a zip holding a <channel>.ndx schedule and a
// <channel>.pdt title table per channel. Each channel is keyed by its name
// with underscores read as spaces and, when that differs, by the raw name
// as well; both keys share one programme list.
func ParseJTV(data []byte, offsetHours int) (map[string][]Programme, error) {
	logger := xglog.WithComponent("epg").With().Str(xglog.FieldFormat, "jtv").Logger()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJTV, err)
	}

	pairs := make(map[string]*jtvPair)
	var order []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(decodeArchiveName(f.Name, f.NonUTF8))
		ext := strings.ToLower(path.Ext(name))
		if ext != ".ndx" && ext != ".pdt" {
			continue
		}
		base := strings.TrimSuffix(name, path.Ext(name))
		if base == "" {
			continue
		}

		body, err := readMember(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		p, ok := pairs[base]
		if !ok {
			p = &jtvPair{}
			pairs[base] = p
			order = append(order, base)
		}
		if ext == ".ndx" {
			p.ndx = body
		} else {
			p.pdt = body
		}
	}

	out := make(map[string][]Programme)
	for _, base := range order {
		p := pairs[base]
		if p.ndx == nil || p.pdt == nil {
			logger.Debug().Str(xglog.FieldChannel, base).Msg("jtv channel without index or title table skipped")
			continue
		}
		titles, err := jtvTitles(p.pdt)
		if err != nil {
			return nil, fmt.Errorf("%s.pdt: %w", base, err)
		}
		starts := jtvSchedule(p.ndx, offsetHours)

		n := min(len(titles), len(starts))
		list := make([]Programme, n)
		for i := 0; i < n; i++ {
			list[i] = Programme{Start: starts[i], Title: titles[i]}
		}
		list = chainStops(list)

		spaced := strings.ReplaceAll(base, "_", " ")
		out[spaced] = list
		if spaced != base {
			out[base] = list
		}
	}

	if len(out) == 0 {
		return nil, ErrJTVEmpty
	}
	logger.Debug().Int(xglog.FieldChannels, len(order)).Msg("jtv parsed")
	return out, nil
}

func readMember(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > jtvMaxMemberLen {
		return nil, fmt.Errorf("member exceeds %d bytes", jtvMaxMemberLen)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, jtvMaxMemberLen))
}

// jtvTitles reads the length-prefixed title records that follow the magic.
func jtvTitles(pdt []byte) ([]string, error) {
	if len(pdt) < jtvMagicLen || !hasJTVMagic(pdt[:jtvMagicLen]) {
		return nil, ErrInvalidJTV
	}
	var titles []string
	rest := pdt[jtvMagicLen:]
	for len(rest) >= 2 {
		n := int(binary.LittleEndian.Uint16(rest))
		rest = rest[2:]
		if n > len(rest) {
			break
		}
		titles = append(titles, strings.TrimSpace(decodeCP1251(rest[:n])))
		rest = rest[n:]
	}
	return titles, nil
}

func hasJTVMagic(head []byte) bool {
	for _, m := range jtvMagics {
		if bytes.Equal(head, m) {
			return true
		}
	}
	return false
}

// jtvSchedule reads the start times of an index. A truncated trailing record
// is ignored.
func jtvSchedule(ndx []byte, offsetHours int) []float64 {
	if len(ndx) < 2 {
		return nil
	}
	count := int(binary.LittleEndian.Uint16(ndx))
	records := ndx[2:]
	if avail := len(records) / jtvRecordLen; avail < count {
		count = avail
	}
	starts := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		rec := records[i*jtvRecordLen : (i+1)*jtvRecordLen]
		ft := binary.LittleEndian.Uint64(rec[2:10])
		starts = append(starts, epgtime.FileTimeToUnix(ft, offsetHours))
	}
	return starts
}
