// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithJobID(t *testing.T) {
	tests := []struct {
		name  string
		ctx   context.Context
		jobID string
		want  string
	}{
		{
			name:  "nil context",
			ctx:   nil,
			jobID: "job-123",
			want:  "job-123",
		},
		{
			name:  "background context",
			ctx:   context.Background(),
			jobID: "job-456",
			want:  "job-456",
		},
		{
			name:  "empty job ID",
			ctx:   context.Background(),
			jobID: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithJobID(tt.ctx, tt.jobID) //nolint:staticcheck // nil ctx is part of the contract
			assert.Equal(t, tt.want, JobIDFromContext(ctx))
		})
	}
}

func TestJobIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, JobIDFromContext(context.Background()))
	assert.Empty(t, JobIDFromContext(nil)) //nolint:staticcheck
}

func TestWithContext_AddsJobID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithJobID(context.Background(), "run-1")
	l := WithContext(ctx, base)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry[FieldJobID])
	assert.Equal(t, "hello", entry["message"])
}

func TestWithContext_NoFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry[FieldJobID]
	assert.False(t, ok)
}

func TestFromContext_FallsBackToBase(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)

	var buf bytes.Buffer
	custom := zerolog.New(&buf)
	ctx := custom.WithContext(context.Background())
	got := FromContext(ctx)
	got.Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")
}
