// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ManuGH/tvguide/internal/epg"
	"github.com/ManuGH/tvguide/internal/epgfetch"
	"github.com/ManuGH/tvguide/internal/playlist"
	"github.com/ManuGH/tvguide/internal/snapshot"
)

func (a *app) runPlaylist(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("tvguide playlist", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	in := fs.String("in", a.settings.Playlist, "playlist file path or URL")
	format := fs.String("format", "auto", "playlist format: auto, m3u or xspf")
	out := fs.String("out", "", "write the normalised playlist to this file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if strings.TrimSpace(*in) == "" {
		fmt.Fprintln(a.stderr, "Error: -in is required (or set playlist in the configuration)")
		return exitUsage
	}
	switch *format {
	case "auto", "m3u", "xspf":
	default:
		fmt.Fprintf(a.stderr, "Error: unknown playlist format %q\n", *format)
		return exitUsage
	}

	channels, spec, err := a.loadPlaylist(ctx, *in, *format)
	if err != nil {
		fmt.Fprintf(a.stderr, "Playlist error in %s:\n  %v\n", *in, err)
		return exitFail
	}

	fmt.Fprintf(a.stdout, "channels: %d\n", len(channels))
	for _, src := range epg.SplitSources(spec) {
		fmt.Fprintf(a.stdout, "epg: %s\n", src)
	}

	if *out != "" {
		err := snapshot.WriteFileAtomic(ctx, *out, func(w io.Writer) error {
			return playlist.WriteM3U(w, channels, spec)
		})
		if err != nil {
			fmt.Fprintf(a.stderr, "Write error: %v\n", err)
			return exitFail
		}
		a.logger.Info().Str("path", *out).Int("channels", len(channels)).Msg("playlist written")
	}
	return exitOK
}

// loadPlaylist reads and parses a playlist; the returned spec is the guide
// URL spec it declares.
func (a *app) loadPlaylist(ctx context.Context, source, format string) ([]playlist.Channel, string, error) {
	loader := epgfetch.NewSourceLoader(epgfetch.LoaderConfig{
		Client:  a.httpClient(),
		Timeout: a.settings.FetchTimeout,
	})
	data, err := loader.Load(ctx, source, a.userAgent)
	if err != nil {
		return nil, "", err
	}

	if format == "auto" {
		format = sniffPlaylistFormat(source, data)
	}
	if format == "xspf" {
		channels, _, err := playlist.ParseXSPF(data)
		return channels, "", err
	}

	parser := playlist.NewParser(playlist.Options{UDPProxy: a.settings.UDPProxy})
	return parser.Parse(string(data))
}

func sniffPlaylistFormat(source string, data []byte) string {
	if strings.EqualFold(filepath.Ext(source), ".xspf") {
		return "xspf"
	}
	head := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if bytes.HasPrefix(head, []byte("<")) {
		return "xspf"
	}
	return "m3u"
}
