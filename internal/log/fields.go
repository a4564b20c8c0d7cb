// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID = "job_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Source fields
	FieldSourceURL   = "source_url"
	FieldSourceIndex = "source_index"
	FieldFormat      = "format"
	FieldPath        = "path"

	// Playlist / guide fields
	FieldChannel    = "channel"
	FieldChannelID  = "channel_id"
	FieldLine       = "line"
	FieldChannels   = "channels"
	FieldProgrammes = "programmes"
)
