// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ManuGH/tvguide/internal/epg"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/ManuGH/tvguide/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	headerPrefix  = "#EXTM3U"
	extinfPrefix  = "#EXTINF:"
	extgrpPrefix  = "#EXTGRP:"
	extlogoPrefix = "#EXTLOGO:"
	vlcoptPrefix  = "#EXTVLCOPT:"
)

// attribute names looked up on #EXTM3U and #EXTINF lines
var attrNames = []string{
	"x-tvg-url", "tvg-url", "url-tvg",
	"tvg-name", "tvg-id", "tvg-logo",
	"group-title", "tvg-group",
	"catchup", "catchup-type", "catchup-source", "catchup-days",
}

// headerEPGAttrs are checked in order; the first non-empty one wins.
var headerEPGAttrs = []string{"x-tvg-url", "tvg-url", "url-tvg"}

// Options configures a Parser.
type Options struct {
	// UDPProxy is the base URL of a udpxy-style proxy. When set, udp:// and
	// rtp:// stream URLs are rewritten to go through it.
	UDPProxy string
	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Parser turns M3U/M3U8 text into channel records. A Parser holds no
// per-call state and may be shared between goroutines.
type Parser struct {
	udpProxy string
	logger   zerolog.Logger
	attrs    map[string]*regexp.Regexp
}

// NewParser builds a Parser and compiles its attribute patterns.
func NewParser(opts Options) *Parser {
	logger := xglog.WithComponent("playlist")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	attrs := make(map[string]*regexp.Regexp, len(attrNames))
	for _, name := range attrNames {
		attrs[name] = attrPattern(name)
	}
	return &Parser{
		udpProxy: strings.TrimSpace(opts.UDPProxy),
		logger:   logger,
		attrs:    attrs,
	}
}

// attrPattern matches key="value" (or an unquoted key=value) where key is not
// the tail of a longer attribute name such as x-tvg-url.
func attrPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\w-])` + regexp.QuoteMeta(name) + `\s*=\s*(?:"([^"]*)"|([^\s,"]+))`)
}

func (p *Parser) attr(line, name string) string {
	re, ok := p.attrs[name]
	if !ok {
		re = attrPattern(name)
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[2])
}

// Parse parses playlist text. It returns the channels in source order and the
// guide URL spec declared by the playlist ("" when there is none).
func (p *Parser) Parse(text string) ([]Channel, string, error) {
	lines := splitLines(text)
	if !hasEXTINF(lines) {
		metrics.IncPlaylistParseFailure("malformed")
		return nil, "", fmt.Errorf("%w: no %s entry", ErrMalformedPlaylist, extinfPrefix)
	}

	var (
		channels  []Channel
		headerEPG string
		tvgURLs   []string
		seenURLs  = make(map[string]struct{})
		buffer    []string
	)

	for i, line := range lines {
		switch {
		case line == "":
			continue
		case hasPrefixFold(line, headerPrefix):
			if headerEPG == "" {
				headerEPG = p.headerEPG(line)
			}
		case strings.HasPrefix(line, "#"):
			buffer = append(buffer, line)
		default:
			ch, ok := p.entry(buffer, line, i+1)
			buffer = buffer[:0]
			if !ok {
				continue
			}
			if ch.TvgURL != "" {
				if _, dup := seenURLs[ch.TvgURL]; !dup {
					seenURLs[ch.TvgURL] = struct{}{}
					tvgURLs = append(tvgURLs, ch.TvgURL)
				}
			}
			channels = append(channels, ch)
		}
	}

	if len(channels) == 0 {
		metrics.IncPlaylistParseFailure("no_channels")
		return nil, "", ErrNoChannels
	}

	epgSpec := headerEPG
	if epgSpec == "" && len(tvgURLs) > 0 {
		epgSpec = epg.JoinSources(tvgURLs)
	}

	metrics.RecordPlaylistParsed("m3u", len(channels))
	p.logger.Debug().
		Int(xglog.FieldChannels, len(channels)).
		Str("epg", epgSpec).
		Msg("playlist parsed")
	return channels, epgSpec, nil
}

func (p *Parser) headerEPG(line string) string {
	for _, name := range headerEPGAttrs {
		if v := p.attr(line, name); v != "" {
			return v
		}
	}
	return ""
}

// entry builds the channel for one stream URL from the directives that
// preceded it. It reports false when the buffer holds no #EXTINF line.
func (p *Parser) entry(buffer []string, streamURL string, lineNo int) (Channel, bool) {
	extinf := ""
	for _, l := range buffer {
		if hasPrefixFold(l, extinfPrefix) {
			// a repeated EXTINF without URL is superseded
			extinf = l
		}
	}
	if extinf == "" {
		p.logger.Debug().Int(xglog.FieldLine, lineNo).Msg("url without #EXTINF skipped")
		return Channel{}, false
	}

	ch := p.parseEXTINF(extinf, lineNo)

	for _, l := range buffer {
		switch {
		case hasPrefixFold(l, extgrpPrefix):
			if v := strings.TrimSpace(l[len(extgrpPrefix):]); v != "" {
				ch.Group = v
			}
		case hasPrefixFold(l, extlogoPrefix):
			if v := strings.TrimSpace(l[len(extlogoPrefix):]); v != "" {
				ch.TvgLogo = v
			}
		case hasPrefixFold(l, vlcoptPrefix):
			key, value, ok := strings.Cut(strings.TrimSpace(l[len(vlcoptPrefix):]), "=")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "http-user-agent":
				ch.UserAgent = value
			case "http-referrer", "http-referer":
				ch.Referer = value
			}
		}
	}

	streamURL = strings.TrimSpace(streamURL)
	streamURL = applyKodiArgs(&ch, streamURL)
	ch.URL = p.rewriteUDP(streamURL)
	return ch, true
}

func (p *Parser) parseEXTINF(line string, lineNo int) Channel {
	ch := newChannel()

	attrs, title := splitEXTINF(line)
	ch.Title = strings.TrimSpace(title)
	ch.TvgName = p.attr(attrs, "tvg-name")
	ch.TvgID = p.attr(attrs, "tvg-id")
	ch.TvgLogo = p.attr(attrs, "tvg-logo")
	ch.TvgURL = p.attr(attrs, "tvg-url")
	ch.CatchupSource = p.attr(attrs, "catchup-source")

	if g := p.attr(attrs, "group-title"); g != "" {
		ch.Group = g
	} else if g := p.attr(attrs, "tvg-group"); g != "" {
		ch.Group = g
	}

	if c := p.attr(attrs, "catchup"); c != "" {
		ch.Catchup = CatchupMode(c)
	} else if c := p.attr(attrs, "catchup-type"); c != "" {
		ch.Catchup = CatchupMode(c)
	}

	if days := p.attr(attrs, "catchup-days"); days != "" {
		if _, err := strconv.Atoi(days); err != nil {
			metrics.IncStandardsViolation("catchup-days")
			p.logger.Warn().
				Int(xglog.FieldLine, lineNo).
				Str("value", days).
				Str("default", DefaultCatchupDays).
				Msg("standards violation: catchup-days is not an integer, using default")
		} else {
			ch.CatchupDays = days
		}
	}

	if ch.Title == "" {
		ch.Title = ch.TvgName
	}
	return ch
}

// splitEXTINF separates the attribute section of an #EXTINF line from the
// title. The title is the text after the last comma outside a quoted value,
// so quoted attributes may contain commas but a title cannot.
func splitEXTINF(line string) (attrs, title string) {
	body := line[len(extinfPrefix):]
	inQuote := false
	cut := -1
	for i, r := range body {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				cut = i
			}
		}
	}
	if cut < 0 {
		return body, ""
	}
	return body[:cut], body[cut+1:]
}

// applyKodiArgs strips a "|User-Agent=..&Referer=.." suffix from u and copies
// the recognised values into ch.
func applyKodiArgs(ch *Channel, u string) string {
	base, args, ok := strings.Cut(u, "|")
	if !ok {
		return u
	}
	for _, arg := range strings.Split(args, "&") {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			continue
		}
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent":
			ch.UserAgent = value
		case "referer", "referrer":
			ch.Referer = value
		}
	}
	return strings.TrimSpace(base)
}

// rewriteUDP routes multicast URLs through the configured proxy.
func (p *Parser) rewriteUDP(u string) string {
	if p.udpProxy == "" {
		return u
	}
	for _, scheme := range []string{"udp", "rtp"} {
		prefix := scheme + "://"
		if !hasPrefixFold(u, prefix) {
			continue
		}
		out := p.udpProxy + "/" + scheme + "/" + u[len(prefix):]
		out = strings.ReplaceAll(out, "@", "")
		return strings.Replace(out, "//"+scheme+"/", "/"+scheme+"/", 1)
	}
	return u
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

func hasEXTINF(lines []string) bool {
	for _, l := range lines {
		if hasPrefixFold(l, extinfPrefix) {
			return true
		}
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
