// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package epgfetch loads guide sources concurrently, detects their format and
// merges them into one epg.Guide.
package epgfetch

import (
	"context"
	"time"

	"github.com/ManuGH/tvguide/internal/epg"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/ManuGH/tvguide/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 4

// Options are the per-fetch parse settings.
type Options struct {
	UserAgent   string
	OffsetHours int
	CatchupDays int
}

// Config configures a Fetcher.
type Config struct {
	// Loader reads source payloads. Defaults to NewSourceLoader(LoaderConfig{}).
	Loader Loader
	// Formats is the detection chain. Defaults to DefaultFormats.
	Formats []Format
	// MaxConcurrency bounds sources loaded at once. Zero means 4.
	MaxConcurrency int
	Logger         *zerolog.Logger
}

// Fetcher runs guide fetches. It is safe for concurrent use.
type Fetcher struct {
	loader      Loader
	formats     []Format
	concurrency int
	logger      zerolog.Logger
}

// SourceStatus is the outcome of one source in spec order.
type SourceStatus struct {
	URL        string
	Format     string
	Channels   int
	Programmes int
	Err        error
}

// Result is the outcome of a fetch. OK is true when at least one source
// parsed; otherwise Err holds the first source's error.
type Result struct {
	Guide    *epg.Guide
	OK       bool
	Err      error
	Sources  []SourceStatus
	JobID    string
	Duration time.Duration
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	f := &Fetcher{
		loader:      cfg.Loader,
		formats:     cfg.Formats,
		concurrency: cfg.MaxConcurrency,
	}
	if f.loader == nil {
		f.loader = NewSourceLoader(LoaderConfig{})
	}
	if len(f.formats) == 0 {
		f.formats = DefaultFormats(epg.TXTOptions{})
	}
	if f.concurrency <= 0 {
		f.concurrency = defaultMaxConcurrency
	}
	if cfg.Logger != nil {
		f.logger = cfg.Logger.With().Str(xglog.FieldComponent, "epgfetch").Logger()
	} else {
		f.logger = xglog.WithComponent("epgfetch")
	}
	return f
}

type sourceResult struct {
	guide  *epg.Guide
	format string
	err    error
}

// Fetch loads every source named by spec (see epg.SplitSources), parses each
// with the first accepting format and merges the guides in spec order, so a
// later source overwrites the channels it shares with an earlier one.
//
// A failing source is logged and skipped. When every source fails the
// returned Result has OK false and the error is an *AllSourcesFailedError.
func (f *Fetcher) Fetch(ctx context.Context, spec string, opts Options) (*Result, error) {
	sources := epg.SplitSources(spec)
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	jobID := uuid.NewString()
	ctx = xglog.ContextWithJobID(ctx, jobID)
	logger := xglog.WithContext(ctx, f.logger)
	ctx = logger.WithContext(ctx)
	started := time.Now()

	results := make([]sourceResult, len(sources))
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, i, src, opts)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Guide:   epg.NewGuide(),
		Sources: make([]SourceStatus, len(sources)),
		JobID:   jobID,
	}
	for i, r := range results {
		st := SourceStatus{URL: sources[i], Format: r.format, Err: r.err}
		if r.err != nil {
			if res.Err == nil {
				res.Err = r.err
			}
		} else {
			res.OK = true
			res.Guide.Merge(r.guide)
			st.Channels = len(r.guide.Programmes)
			st.Programmes = r.guide.ProgrammeCount()
		}
		res.Sources[i] = st
	}
	if res.OK {
		res.Err = nil
	}
	res.Duration = time.Since(started)

	channels, programmes := len(res.Guide.Programmes), res.Guide.ProgrammeCount()
	metrics.RecordEPGFetch(channels, programmes, res.OK, res.Duration)

	if !res.OK {
		logger.Error().
			Err(res.Err).
			Int("sources", len(sources)).
			Msg("all epg sources failed")
		return res, &AllSourcesFailedError{Sources: len(sources), First: res.Err}
	}
	logger.Info().
		Int("sources", len(sources)).
		Int(xglog.FieldChannels, channels).
		Int(xglog.FieldProgrammes, programmes).
		Dur("duration", res.Duration).
		Msg("epg fetch complete")
	return res, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, index int, src string, opts Options) sourceResult {
	logger := zerolog.Ctx(ctx).With().
		Int(xglog.FieldSourceIndex, index).
		Str(xglog.FieldSourceURL, src).
		Logger()

	data, err := f.loader.Load(ctx, src, opts.UserAgent)
	if err != nil {
		metrics.IncEPGSourceFetch("unknown", metrics.OutcomeFailure)
		logger.Warn().Err(err).Msg("epg source load failed")
		return sourceResult{err: err}
	}

	guide, format, err := detect(f.formats, data, opts)
	if err != nil {
		if format == "" {
			format = "unknown"
		}
		metrics.IncEPGSourceFetch(format, metrics.OutcomeFailure)
		logger.Warn().Err(err).Str(xglog.FieldFormat, format).Msg("epg source parse failed")
		return sourceResult{format: format, err: &SourceError{URL: src, Err: err}}
	}

	metrics.IncEPGSourceFetch(format, metrics.OutcomeSuccess)
	logger.Debug().
		Str(xglog.FieldFormat, format).
		Int(xglog.FieldChannels, len(guide.Programmes)).
		Int(xglog.FieldProgrammes, guide.ProgrammeCount()).
		Msg("epg source parsed")
	return sourceResult{guide: guide, format: format}
}
