// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/tvguide/internal/epgtime"
	xglog "github.com/ManuGH/tvguide/internal/log"
)

const (
	txtMarker = "tv.all"
	// how many lines of free text may follow a title as its description
	txtMaxDescLines = 500
	// a day in a block starts in the morning; an earlier time after this
	// minute of the day belongs to the next calendar day
	txtRolloverAfter = 6 * 60
)

var (
	// "Понедельник. 15 января. Первый канал"
	txtHeaderRe = regexp.MustCompile(`^[^\d.]+\.\s*(\d{1,2})\s+([^\s.]+)\.?\s+(.+)$`)
	// "06:30 Новости"
	txtTimeRe = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})\s+(.+)$`)
)

// TXTOptions controls date inference for ParseTXT.
type TXTOptions struct {
	// Now anchors year inference. Defaults to time.Now.
	Now func() time.Time
	// Location is the zone guide wall clock times are read in. Defaults to time.Local.
	Location *time.Location
}

type txtBlock struct {
	channel   string
	midnight  time.Time
	dayShift  float64
	prevMin   int
	passedSix bool
	rolled    bool
}

// ParseTXT parses a "tv.all" plain text guide. The text is read as UTF-8 when
// it is valid multi-byte UTF-8 and as windows-1251 otherwise.
func ParseTXT(data []byte, offsetHours int, opts TXTOptions) (map[string][]Programme, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := xglog.WithComponent("epg").With().Str(xglog.FieldFormat, "txt").Logger()

	text := strings.TrimPrefix(decodeCP1251(data), "\ufeff")
	text = strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(strings.ToLower(text), txtMarker) {
		return nil, ErrUnrecognizedFormat
	}

	now := opts.Now()
	out := make(map[string][]Programme)
	var (
		block     *txtBlock
		last      *Programme
		descLines int
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 || line == "" {
			continue
		}

		if m := txtHeaderRe.FindStringSubmatch(line); m != nil {
			if month, ok := epgtime.MonthGenitive(m[2]); ok {
				day, _ := strconv.Atoi(m[1])
				block = &txtBlock{
					channel:  strings.TrimSpace(m[3]),
					midnight: epgtime.InferDate(now, day, month, opts.Location),
					prevMin:  -1,
				}
				last = nil
				continue
			}
		}

		if m := txtTimeRe.FindStringSubmatch(line); m != nil && block != nil {
			h, _ := strconv.Atoi(m[1])
			mm, _ := strconv.Atoi(m[2])
			if h < 24 && mm < 60 {
				minutes := h*60 + mm
				if !block.rolled && block.passedSix && minutes < block.prevMin {
					block.dayShift = 86400
					block.rolled = true
				}
				if minutes >= txtRolloverAfter {
					block.passedSix = true
				}
				block.prevMin = minutes

				start := float64(block.midnight.Unix()) + float64(minutes*60) + block.dayShift + epgtime.Offset(offsetHours)
				list := append(out[block.channel], Programme{Start: start, Title: strings.TrimSpace(m[3])})
				out[block.channel] = list
				last = &list[len(list)-1]
				descLines = 0
				continue
			}
		}

		if last != nil && descLines < txtMaxDescLines {
			if last.Desc != "" {
				last.Desc += "\n"
			}
			last.Desc += line
			descLines++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	programmes := 0
	for ch, list := range out {
		list = chainStops(list)
		if len(list) == 0 {
			delete(out, ch)
			continue
		}
		out[ch] = list
		programmes += len(list)
	}
	logger.Debug().
		Int(xglog.FieldChannels, len(out)).
		Int(xglog.FieldProgrammes, programmes).
		Msg("txt parsed")
	return out, nil
}
