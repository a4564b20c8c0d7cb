// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import "errors"

var (
	// ErrMalformedPlaylist is returned for text that carries no #EXTINF entry.
	ErrMalformedPlaylist = errors.New("malformed playlist")

	// ErrNoChannels is returned when a playlist parsed cleanly but produced no channel.
	ErrNoChannels = errors.New("no channels found in playlist")

	// ErrInvalidTrack is returned for an XSPF track without title or location.
	ErrInvalidTrack = errors.New("invalid xspf track")
)
