// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playlist parses IPTV playlists (M3U/M3U8, XSPF) into channel records.
package playlist

// DefaultGroup is assigned to channels without a usable group.
const DefaultGroup = "All channels"

// DefaultCatchupDays is used when catchup-days is missing or not an integer.
const DefaultCatchupDays = "1"

// CatchupMode selects how catch-up URLs are templated by players.
// Values other than the constants below are preserved verbatim.
type CatchupMode string

const (
	CatchupDefault   CatchupMode = "default"
	CatchupShift     CatchupMode = "shift"
	CatchupFlussonic CatchupMode = "flussonic"
	CatchupXC        CatchupMode = "xc"
)

// Channel is one playlist entry.
type Channel struct {
	Title         string      `json:"title"`
	TvgName       string      `json:"tvg_name"`
	TvgID         string      `json:"tvg_id"`
	TvgLogo       string      `json:"tvg_logo,omitempty"`
	Group         string      `json:"group"`
	TvgURL        string      `json:"tvg_url,omitempty"`
	Catchup       CatchupMode `json:"catchup"`
	CatchupSource string      `json:"catchup_source,omitempty"`
	CatchupDays   string      `json:"catchup_days"`
	UserAgent     string      `json:"user_agent,omitempty"`
	Referer       string      `json:"referer,omitempty"`
	URL           string      `json:"url"`
}

func newChannel() Channel {
	return Channel{
		Group:       DefaultGroup,
		Catchup:     CatchupDefault,
		CatchupDays: DefaultCatchupDays,
	}
}
