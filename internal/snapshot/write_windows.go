// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build windows

package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	xglog "github.com/ManuGH/tvguide/internal/log"
)

// WriteFileAtomic writes path through write using a temp file and rename.
// Windows offers no fsync-then-rename guarantee, so this is best effort.
func WriteFileAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	logger := xglog.FromContext(ctx)

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tvguide-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := write(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	logger.Debug().Str(xglog.FieldPath, path).Msg("wrote file")
	return nil
}
