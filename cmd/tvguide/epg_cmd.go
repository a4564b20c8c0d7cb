// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/tvguide/internal/cache"
	"github.com/ManuGH/tvguide/internal/epg"
	"github.com/ManuGH/tvguide/internal/epgfetch"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/ManuGH/tvguide/internal/snapshot"
)

func (a *app) runEPG(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("tvguide epg", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	spec := fs.String("spec", a.settings.EPG, "guide URL spec: one URL, a comma separated list, or a playlist-encoded list")
	export := fs.String("export", "", "export the merged guide as XMLTV to this file")
	snapPath := fs.String("snapshot", "", "save the merged guide snapshot to this file")
	showNow := fs.Bool("now", false, "print what is on now for each playlist channel")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var channels []channelRef
	if *showNow || strings.TrimSpace(*spec) == "" {
		if a.settings.Playlist != "" {
			list, playlistSpec, err := a.loadPlaylist(ctx, a.settings.Playlist, "auto")
			if err != nil {
				fmt.Fprintf(a.stderr, "Playlist error in %s:\n  %v\n", a.settings.Playlist, err)
				return exitFail
			}
			for _, ch := range list {
				channels = append(channels, channelRef{tvgID: ch.TvgID, tvgName: ch.TvgName, title: ch.Title})
			}
			if strings.TrimSpace(*spec) == "" {
				*spec = playlistSpec
			}
		}
	}
	if strings.TrimSpace(*spec) == "" {
		fmt.Fprintln(a.stderr, "Error: -spec is required (or set epg or a playlist declaring a guide in the configuration)")
		return exitUsage
	}

	sourceCache, err := a.newCache(ctx)
	if err != nil {
		fmt.Fprintf(a.stderr, "Cache error: %v\n", err)
		return exitFail
	}
	defer func() { _ = sourceCache.Close() }()

	fetcher := epgfetch.New(epgfetch.Config{
		Loader: epgfetch.NewSourceLoader(epgfetch.LoaderConfig{
			Client:   a.httpClient(),
			Timeout:  a.settings.FetchTimeout,
			Cache:    sourceCache,
			CacheTTL: a.settings.Cache.TTL,
		}),
		Formats:        epgfetch.DefaultFormats(epg.TXTOptions{}),
		MaxConcurrency: a.settings.MaxConcurrency,
	})

	res, err := fetcher.Fetch(ctx, *spec, epgfetch.Options{
		UserAgent:   a.userAgent,
		OffsetHours: a.settings.EPGOffsetHours,
		CatchupDays: a.settings.CatchupDays,
	})
	if res != nil {
		printSources(a.stdout, res)
	}
	if err != nil {
		var all *epgfetch.AllSourcesFailedError
		if errors.As(err, &all) && *snapPath != "" {
			a.fallBackToSnapshot(*snapPath, *showNow, channels)
		}
		fmt.Fprintf(a.stderr, "Guide error: %v\n", err)
		return exitFail
	}

	fmt.Fprintf(a.stdout, "merged: %d channels, %d programmes\n", len(res.Guide.Programmes), res.Guide.ProgrammeCount())

	if *export != "" {
		err := snapshot.WriteFileAtomic(ctx, *export, func(w io.Writer) error {
			return epg.WriteXMLTV(w, res.Guide)
		})
		if err != nil {
			fmt.Fprintf(a.stderr, "Export error: %v\n", err)
			return exitFail
		}
	}
	if *snapPath != "" {
		err := snapshot.Save(ctx, *snapPath, snapshot.Snapshot{
			FetchedAt: time.Now().UTC(),
			Spec:      *spec,
			JobID:     res.JobID,
			Guide:     res.Guide,
		})
		if err != nil {
			fmt.Fprintf(a.stderr, "Snapshot error: %v\n", err)
			return exitFail
		}
	}
	if *showNow {
		printNowPlaying(a.stdout, res.Guide, channels, time.Now())
	}
	return exitOK
}

// fallBackToSnapshot reports the last good guide after a fetch in which
// every source failed. The snapshot file is left untouched.
func (a *app) fallBackToSnapshot(path string, showNow bool, channels []channelRef) {
	prev, err := snapshot.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn().Err(err).Str(xglog.FieldPath, path).Msg("previous guide snapshot unreadable")
		}
		return
	}
	fmt.Fprintf(a.stderr, "Guide fetch failed, keeping previous snapshot %s from %s (%d channels, %d programmes)\n",
		path, prev.FetchedAt.Format(time.RFC3339), len(prev.Guide.Programmes), prev.Guide.ProgrammeCount())
	if showNow {
		printNowPlaying(a.stdout, prev.Guide, channels, time.Now())
	}
}

func (a *app) newCache(ctx context.Context) (cache.Cache, error) {
	cs := a.settings.Cache
	switch {
	case cs.TTL <= 0:
		return cache.NewNoOpCache(), nil
	case cs.RedisAddr != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cs.RedisAddr,
			Password: cs.RedisPassword,
			DB:       cs.RedisDB,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(time.Minute), nil
	}
}

func printSources(w io.Writer, res *epgfetch.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range res.Sources {
		if s.Err != nil {
			fmt.Fprintf(tw, "FAIL\t%s\t\t\t%v\n", s.URL, s.Err)
			continue
		}
		fmt.Fprintf(tw, "OK\t%s\t%s\t%d channels\t%d programmes\n", s.URL, s.Format, s.Channels, s.Programmes)
	}
	_ = tw.Flush()
}

type channelRef struct {
	tvgID, tvgName, title string
}

func printNowPlaying(w io.Writer, g *epg.Guide, channels []channelRef, now time.Time) {
	at := float64(now.Unix())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ch := range channels {
		key, ok := g.Resolve(ch.tvgID, ch.tvgName, ch.title)
		if !ok {
			fmt.Fprintf(tw, "%s\t-\n", ch.title)
			continue
		}
		p, ok := epg.NowPlaying(g.Programmes[key], at)
		if !ok {
			fmt.Fprintf(tw, "%s\t-\n", ch.title)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ch.title, time.Unix(int64(p.Start), 0).Format("15:04"), p.Title)
	}
	_ = tw.Flush()
}
