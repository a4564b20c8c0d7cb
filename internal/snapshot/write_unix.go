// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !windows

package snapshot

import (
	"context"
	"fmt"
	"io"

	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/google/renameio/v2"
)

// WriteFileAtomic writes path through write with full durability: the data
// goes to a pending file that is fsynced and renamed over path only when
// write succeeds. On failure path is left untouched.
func WriteFileAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	logger := xglog.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// no-op once committed
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(xglog.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if err := write(pendingFile); err != nil {
		return err
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
