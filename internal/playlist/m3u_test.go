// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ManuGH/tvguide/internal/epg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T, udpProxy string) (*Parser, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	return NewParser(Options{UDPProxy: udpProxy, Logger: &l}), &buf
}

func TestParse_ChannelsInSourceOrder(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := `#EXTM3U
#EXTINF:-1 tvg-id="one.tv" tvg-name="One" group-title="News",One HD
http://host/1
#EXTINF:-1 tvg-id="two.tv",Two
#EXTVLCOPT:http-user-agent=VLC
http://host/2

#EXTINF:-1,Three
http://host/3
`
	channels, spec, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, channels, 3)
	assert.Empty(t, spec)

	assert.Equal(t, "One HD", channels[0].Title)
	assert.Equal(t, "One", channels[0].TvgName)
	assert.Equal(t, "one.tv", channels[0].TvgID)
	assert.Equal(t, "News", channels[0].Group)
	assert.Equal(t, "http://host/1", channels[0].URL)

	assert.Equal(t, "Two", channels[1].Title)
	assert.Equal(t, "VLC", channels[1].UserAgent)
	assert.Equal(t, DefaultGroup, channels[1].Group)

	assert.Equal(t, "Three", channels[2].Title)
	assert.Equal(t, "http://host/3", channels[2].URL)
}

func TestParse_Defaults(t *testing.T) {
	p, _ := newTestParser(t, "")
	channels, spec, err := p.Parse("#EXTM3U\n#EXTINF:-1,Only\nhttp://h/s\n")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Empty(t, spec, "no guide hint anywhere yields an empty spec")

	ch := channels[0]
	assert.Equal(t, DefaultGroup, ch.Group)
	assert.Equal(t, CatchupDefault, ch.Catchup)
	assert.Equal(t, DefaultCatchupDays, ch.CatchupDays)
	assert.Empty(t, ch.TvgID)
	assert.Empty(t, ch.TvgName)
	assert.Empty(t, ch.TvgLogo)
	assert.Empty(t, ch.UserAgent)
	assert.Empty(t, ch.Referer)
}

func TestParse_DirectivesOverrideInline(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := `#EXTM3U
#EXTINF:-1 tvg-logo="http://inline/logo.png" group-title="Inline",Chan
#EXTGRP:Directive Group
#EXTLOGO:http://directive/logo.png
#EXTVLCOPT:http-user-agent=DirectiveUA
#EXTVLCOPT:http-referrer=http://directive/ref
http://host/stream
`
	channels, _, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, channels, 1)

	ch := channels[0]
	assert.Equal(t, "Directive Group", ch.Group)
	assert.Equal(t, "http://directive/logo.png", ch.TvgLogo)
	assert.Equal(t, "DirectiveUA", ch.UserAgent)
	assert.Equal(t, "http://directive/ref", ch.Referer)
}

func TestParse_DirectiveBeforeEXTINFStillApplies(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := "#EXTM3U\n#EXTGRP:Early\n#EXTINF:-1 group-title=\"Late\",Chan\nhttp://h/s\n"
	channels, _, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "Early", channels[0].Group)
}

func TestParse_KodiURLArguments(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := `#EXTM3U
#EXTINF:-1,Kodi
#EXTVLCOPT:http-user-agent=Directive
http://host/path|User-Agent=X&Referer=Y
#EXTINF:-1,Lower
http://host/other|user-agent=Mozilla%2F5.0
#EXTINF:-1,Unknown
http://host/third|X-Forwarded-For=1.2.3.4
`
	channels, _, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, channels, 3)

	assert.Equal(t, "http://host/path", channels[0].URL)
	assert.Equal(t, "X", channels[0].UserAgent, "kodi arguments win over directives")
	assert.Equal(t, "Y", channels[0].Referer)

	assert.Equal(t, "http://host/other", channels[1].URL)
	assert.Equal(t, "Mozilla/5.0", channels[1].UserAgent)

	assert.Equal(t, "http://host/third", channels[2].URL)
	assert.Empty(t, channels[2].UserAgent)
	for _, ch := range channels {
		assert.NotContains(t, ch.URL, "|")
	}
}

func TestParse_CatchupResolution(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := `#EXTM3U
#EXTINF:-1 catchup="shift" catchup-type="flussonic" catchup-days="7" catchup-source="?utc={utc}",A
http://h/a
#EXTINF:-1 catchup-type="flussonic",B
http://h/b
#EXTINF:-1,C
http://h/c
`
	channels, _, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, channels, 3)

	assert.Equal(t, CatchupShift, channels[0].Catchup)
	assert.Equal(t, "7", channels[0].CatchupDays)
	assert.Equal(t, "?utc={utc}", channels[0].CatchupSource)
	assert.Equal(t, CatchupFlussonic, channels[1].Catchup)
	assert.Equal(t, CatchupDefault, channels[2].Catchup)
}

func TestParse_CatchupDaysNotInteger(t *testing.T) {
	p, logs := newTestParser(t, "")
	channels, _, err := p.Parse("#EXTM3U\n#EXTINF:-1 catchup-days=\"abc\",A\nhttp://h/a\n")
	require.NoError(t, err)
	assert.Equal(t, "1", channels[0].CatchupDays)
	assert.Contains(t, logs.String(), "standards violation")
}

func TestParse_UDPProxyRewrite(t *testing.T) {
	tests := []struct {
		name  string
		proxy string
		in    string
		want  string
	}{
		{"udp", "http://proxy:8080", "udp://239.0.0.1:1234", "http://proxy:8080/udp/239.0.0.1:1234"},
		{"udp with at", "http://proxy:8080", "udp://@239.0.0.1:1234", "http://proxy:8080/udp/239.0.0.1:1234"},
		{"rtp", "http://proxy:8080", "rtp://@232.1.1.1:5000", "http://proxy:8080/rtp/232.1.1.1:5000"},
		{"trailing slash proxy", "http://proxy:8080/", "udp://239.0.0.1:1234", "http://proxy:8080/udp/239.0.0.1:1234"},
		{"http untouched", "http://proxy:8080", "http://h/s", "http://h/s"},
		{"no proxy", "", "udp://@239.0.0.1:1234", "udp://@239.0.0.1:1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestParser(t, tt.proxy)
			channels, _, err := p.Parse("#EXTM3U\n#EXTINF:-1,A\n" + tt.in + "\n")
			require.NoError(t, err)
			got := channels[0].URL
			assert.Equal(t, tt.want, got)
			if tt.proxy != "" {
				assert.NotContains(t, got, "@")
				assert.NotContains(t, got, "//udp/")
				assert.NotContains(t, got, "//rtp/")
			}
		})
	}
}

func TestParse_HeaderEPGPriority(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`#EXTM3U x-tvg-url="http://a/x.xml" tvg-url="http://a/t.xml" url-tvg="http://a/u.xml"`, "http://a/x.xml"},
		{`#EXTM3U url-tvg="http://a/u.xml" tvg-url="http://a/t.xml"`, "http://a/t.xml"},
		{`#EXTM3U url-tvg="http://a/u.xml"`, "http://a/u.xml"},
		{`#EXTM3U x-tvg-url="" url-tvg="http://a/u.xml"`, "http://a/u.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p, _ := newTestParser(t, "")
			_, spec, err := p.Parse(tt.header + "\n#EXTINF:-1 tvg-url=\"http://chan/epg.xml\",A\nhttp://h/a\n")
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func TestParse_MultiplePerChannelGuides(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := `#EXTM3U
#EXTINF:-1 tvg-url="http://a/1.xml",A
http://h/a
#EXTINF:-1 tvg-url="http://a/2.xml",B
http://h/b
#EXTINF:-1 tvg-url="http://a/1.xml",C
http://h/c
#EXTINF:-1,D
http://h/d
`
	channels, spec, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, channels, 4)

	require.True(t, strings.HasPrefix(spec, epg.MultipleMarker))
	assert.Equal(t, epg.MultipleMarker+"http://a/1.xml"+epg.SourceDelimiter+"http://a/2.xml", spec)
	assert.Equal(t, 1, strings.Count(spec, "http://a/1.xml"))
	assert.Equal(t, []string{"http://a/1.xml", "http://a/2.xml"}, epg.SplitSources(spec))
}

func TestParse_URLWithoutEXTINFSkipped(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := "#EXTM3U\nhttp://h/orphan\n#EXTINF:-1,A\nhttp://h/a\n#EXTGRP:Lonely\nhttp://h/lonely\n"
	channels, _, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "http://h/a", channels[0].URL)
}

func TestParse_TitleWithCommasAndUnicode(t *testing.T) {
	p, _ := newTestParser(t, "")
	text := "#EXTM3U\r\n#EXTINF:-1 tvg-name=\"Sport, Extra\" group-title=\"Спорт\",Новости, Погода\r\nhttp://h/a\r\n"
	channels, _, err := p.Parse(text)
	require.NoError(t, err)
	// quoted attributes keep their commas; the title follows the last one
	assert.Equal(t, "Погода", channels[0].Title)
	assert.Equal(t, "Sport, Extra", channels[0].TvgName)
	assert.Equal(t, "Спорт", channels[0].Group)
}

func TestParse_TitleAfterLastComma(t *testing.T) {
	p, _ := newTestParser(t, "")
	channels, _, err := p.Parse("#EXTM3U\n#EXTINF:-1 tvg-id=\"a\",News, Weather\nhttp://h/a\n")
	require.NoError(t, err)
	assert.Equal(t, "Weather", channels[0].Title)
	assert.Equal(t, "a", channels[0].TvgID)
}

func TestWriteM3U_CommaInTitle(t *testing.T) {
	in := []Channel{{Title: "News, Weather", Group: DefaultGroup, Catchup: CatchupDefault, CatchupDays: "1", URL: "http://h/a"}}

	var b bytes.Buffer
	require.NoError(t, WriteM3U(&b, in, ""))

	p, _ := newTestParser(t, "")
	out, _, err := p.Parse(b.String())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "News; Weather", out[0].Title)
}

func TestParse_TitleFallsBackToTvgName(t *testing.T) {
	p, _ := newTestParser(t, "")
	channels, _, err := p.Parse("#EXTM3U\n#EXTINF:-1 tvg-name=\"Named\",\nhttp://h/a\n")
	require.NoError(t, err)
	assert.Equal(t, "Named", channels[0].Title)
}

func TestParse_Errors(t *testing.T) {
	p, _ := newTestParser(t, "")

	_, _, err := p.Parse("")
	require.ErrorIs(t, err, ErrMalformedPlaylist)

	_, _, err = p.Parse("#EXTM3U\nhttp://h/a\n")
	require.ErrorIs(t, err, ErrMalformedPlaylist)

	_, _, err = p.Parse("just some text")
	require.ErrorIs(t, err, ErrMalformedPlaylist)

	_, _, err = p.Parse("#EXTM3U\n#EXTINF:-1,Dangling\n")
	require.ErrorIs(t, err, ErrNoChannels)
}

func TestParse_WithoutHeader(t *testing.T) {
	p, _ := newTestParser(t, "")
	channels, _, err := p.Parse("#EXTINF:-1,A\nhttp://h/a\n")
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestParse_NChannels(t *testing.T) {
	p, _ := newTestParser(t, "")
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	const n = 250
	for i := 0; i < n; i++ {
		b.WriteString("#EXTINF:-1 tvg-id=\"id\",Chan\n#EXTGRP:G\nhttp://h/s\n")
	}
	channels, _, err := p.Parse(b.String())
	require.NoError(t, err)
	assert.Len(t, channels, n)
}

func TestWriteM3U_RoundTrip(t *testing.T) {
	in := []Channel{
		{
			Title: "ORF1 HD", TvgName: "ORF1", TvgID: "orf1.at", TvgLogo: "http://p/ORF1.png",
			Group: "AT", Catchup: CatchupShift, CatchupDays: "3",
			UserAgent: "UA/1", Referer: "http://ref", URL: "http://sref/1",
		},
		{
			Title: "Plain", Group: DefaultGroup, Catchup: CatchupDefault, CatchupDays: "1",
			TvgURL: "http://guide/plain.xml", URL: "http://sref/2",
		},
	}

	var b bytes.Buffer
	require.NoError(t, WriteM3U(&b, in, "http://guide/all.xml"))
	assert.True(t, strings.HasPrefix(b.String(), "#EXTM3U"))
	assert.Equal(t, len(in), strings.Count(b.String(), "#EXTINF:"))

	p, _ := newTestParser(t, "")
	out, spec, err := p.Parse(b.String())
	require.NoError(t, err)
	assert.Equal(t, "http://guide/all.xml", spec)
	assert.Equal(t, in, out)
}
