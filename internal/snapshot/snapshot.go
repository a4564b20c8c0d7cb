// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package snapshot persists fetched guides so a failed refresh can fall back
// to the last good data.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ManuGH/tvguide/internal/epg"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/klauspost/compress/gzip"
)

// Version is written into every snapshot; Load rejects other versions.
const Version = 1

// ErrVersion is returned by Load for a snapshot written in another layout.
var ErrVersion = errors.New("unsupported snapshot version")

// Snapshot is a guide together with the fetch that produced it.
type Snapshot struct {
	Version   int        `json:"version"`
	FetchedAt time.Time  `json:"fetched_at"`
	Spec      string     `json:"spec"`
	JobID     string     `json:"job_id,omitempty"`
	Guide     *epg.Guide `json:"guide"`
}

// Save writes s to path as gzip compressed JSON, atomically replacing any
// previous snapshot.
func Save(ctx context.Context, path string, s Snapshot) error {
	if s.Guide == nil {
		return errors.New("snapshot without guide")
	}
	s.Version = Version

	err := WriteFileAtomic(ctx, path, func(w io.Writer) error {
		zw := gzip.NewWriter(w)
		if err := json.NewEncoder(zw).Encode(s); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return zw.Close()
	})
	if err != nil {
		return err
	}

	xglog.FromContext(ctx).Info().
		Str(xglog.FieldPath, path).
		Int(xglog.FieldChannels, len(s.Guide.Programmes)).
		Int(xglog.FieldProgrammes, s.Guide.ProgrammeCount()).
		Msg("guide snapshot saved")
	return nil
}

// Load reads a snapshot written by Save. A missing file is reported with an
// error matching os.ErrNotExist.
func Load(path string) (*Snapshot, error) {
	// #nosec G304 -- snapshot path comes from operator configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	var s Snapshot
	if err := json.NewDecoder(zr).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	if s.Guide == nil {
		s.Guide = epg.NewGuide()
	}
	if s.Guide.Programmes == nil {
		s.Guide.Programmes = make(map[string][]epg.Programme)
	}
	if s.Guide.Names == nil {
		s.Guide.Names = make(map[string][]string)
	}
	if s.Guide.Icons == nil {
		s.Guide.Icons = make(map[string]string)
	}
	return &s, nil
}
