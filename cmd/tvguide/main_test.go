// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/tvguide/internal/snapshot"
	"github.com/ManuGH/tvguide/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlaylist = `#EXTM3U url-tvg="http://example.com/guide.xml"
#EXTINF:-1 tvg-id="one" tvg-name="One",One HD
http://stream/1
#EXTINF:-1 group-title="News",Two
http://stream/2
`

const testGuide = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <channel id="one"><display-name>One</display-name></channel>
  <programme start="20240115060000 +0000" stop="20240115070000 +0000" channel="one">
    <title>Morning</title>
  </programme>
</tv>
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{name: "no command", args: nil, wantExit: exitUsage, wantStderr: "Usage:"},
		{name: "unknown command", args: []string{"serve"}, wantExit: exitUsage, wantStderr: "Unknown command: serve"},
		{name: "bad flag", args: []string{"-nope"}, wantExit: exitUsage},
		{name: "version", args: []string{"-version"}, wantExit: exitOK, wantStdout: version.Version},
		{name: "playlist without input", args: []string{"playlist"}, wantExit: exitUsage, wantStderr: "-in is required"},
		{name: "playlist bad format", args: []string{"playlist", "-in", "x.m3u", "-format", "pls"}, wantExit: exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantExit, code)
			assert.Contains(t, stdout, tt.wantStdout)
			assert.Contains(t, stderr, tt.wantStderr)
		})
	}
}

func TestRun_Validate(t *testing.T) {
	valid := writeTemp(t, "valid.yaml", "epg_offset_hours: 3\ncatchup_days: 7\n")
	unknown := writeTemp(t, "unknown.yaml", "epg_offset_hours: 3\nbogus: true\n")
	outOfRange := writeTemp(t, "range.yaml", "epg_offset_hours: 99\n")

	code, stdout, _ := runCLI(t, "-config", valid, "validate")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "is valid")

	code, _, stderr := runCLI(t, "-config", unknown, "validate")
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "Configuration error")

	code, _, stderr = runCLI(t, "-config", outOfRange, "validate")
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "Configuration error")
}

func TestRun_Playlist(t *testing.T) {
	in := writeTemp(t, "list.m3u", testPlaylist)
	out := filepath.Join(t.TempDir(), "out.m3u")

	code, stdout, stderr := runCLI(t, "playlist", "-in", in, "-out", out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "channels: 2")
	assert.Contains(t, stdout, "epg: http://example.com/guide.xml")

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), "#EXTM3U")
	assert.Contains(t, string(written), "http://stream/2")
}

func TestRun_PlaylistXSPF(t *testing.T) {
	in := writeTemp(t, "list.xspf", `<?xml version="1.0" encoding="UTF-8"?>
<playlist version="1" xmlns="http://xspf.org/ns/0/">
  <trackList>
    <track><title>Radio</title><location>http://radio/stream</location></track>
  </trackList>
</playlist>
`)
	code, stdout, stderr := runCLI(t, "playlist", "-in", in)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "channels: 1")
	assert.NotContains(t, stdout, "epg:")
}

func TestRun_PlaylistMalformed(t *testing.T) {
	in := writeTemp(t, "bad.m3u", "#EXTM3U\nhttp://orphan\n")
	code, _, stderr := runCLI(t, "playlist", "-in", in)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "Playlist error")
}

func TestRun_EPGExportAndSnapshot(t *testing.T) {
	guide := writeTemp(t, "guide.xml", testGuide)
	dir := t.TempDir()
	export := filepath.Join(dir, "merged.xml")
	snap := filepath.Join(dir, "guide.json.gz")

	code, stdout, stderr := runCLI(t, "epg", "-spec", guide, "-export", export, "-snapshot", snap)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "OK")
	assert.Contains(t, stdout, "xmltv")
	assert.Contains(t, stdout, "merged: 1 channels, 1 programmes")

	exported, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "<title>Morning</title>")

	s, err := snapshot.Load(snap)
	require.NoError(t, err)
	assert.Equal(t, guide, s.Spec)
	assert.NotEmpty(t, s.JobID)
	assert.Len(t, s.Guide.Programmes["One"], 1)
}

func TestRun_EPGAllSourcesFail(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")
	code, stdout, stderr := runCLI(t, "epg", "-spec", "file://"+filepath.ToSlash(missing))
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stdout, "FAIL")
	assert.Contains(t, stderr, "Guide error")
}

func TestRun_EPGFromConfiguredPlaylist(t *testing.T) {
	guide := writeTemp(t, "guide.xml", testGuide)
	list := writeTemp(t, "list.m3u", "#EXTM3U url-tvg=\""+guide+"\"\n#EXTINF:-1 tvg-id=\"one\",One HD\nhttp://stream/1\n")
	cfg := writeTemp(t, "config.yaml", "playlist: \""+filepath.ToSlash(list)+"\"\n")

	code, stdout, stderr := runCLI(t, "-config", cfg, "epg", "-now")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "merged: 1 channels")
	// the programme is in the past, so nothing is on now
	assert.Contains(t, stdout, "One HD")
}

func TestRun_MetricsFile(t *testing.T) {
	guide := writeTemp(t, "guide.xml", testGuide)
	prom := filepath.Join(t.TempDir(), "tvguide.prom")

	code, _, stderr := runCLI(t, "-metrics-file", prom, "epg", "-spec", guide)
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tvguide_epg_source_fetch_total")
	assert.Contains(t, string(data), "tvguide_epg_fetch_duration_seconds")
}

func TestRun_ValidateUnknownEnvKey(t *testing.T) {
	t.Setenv("TVGUIDE_EPG_OFSET_HOURS", "3")

	code, stdout, stderr := runCLI(t, "validate")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "is valid")
	assert.Contains(t, stderr, "unknown environment key TVGUIDE_EPG_OFSET_HOURS")
}

func TestRun_EPGFallsBackToSnapshot(t *testing.T) {
	guide := writeTemp(t, "guide.xml", testGuide)
	snap := filepath.Join(t.TempDir(), "guide.json.gz")

	code, _, stderr := runCLI(t, "epg", "-spec", guide, "-snapshot", snap)
	require.Equal(t, exitOK, code, stderr)
	before, err := os.ReadFile(snap)
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "missing.xml")
	code, _, stderr = runCLI(t, "epg", "-spec", missing, "-snapshot", snap)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "keeping previous snapshot")
	assert.Contains(t, stderr, "(1 channels, 1 programmes)")
	assert.Contains(t, stderr, "Guide error")

	after, err := os.ReadFile(snap)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_EPGUnreachableRedis(t *testing.T) {
	guide := writeTemp(t, "guide.xml", testGuide)
	cfg := writeTemp(t, "config.yaml", "cache:\n  redis_addr: \"127.0.0.1:1\"\n")

	code, stdout, stderr := runCLI(t, "-config", cfg, "epg", "-spec", guide)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "Cache error")
	assert.NotContains(t, stdout, "merged:")
}
