// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strconv"
	"strings"
)

// UserAgents are the presets selectable by index in the user_agent setting.
// Index 0 is the default.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"VLC/3.0.20 LibVLC/3.0.20",
	"Kodi/21.0 (X11; Linux x86_64) App_Bitness/64 Version/21.0",
	"Lavf/60.16.100",
	"tvguide",
}

// ResolveUserAgent turns the user_agent setting into a header value: empty
// selects the default preset, an in-range integer selects a preset, and
// anything else is used verbatim.
func ResolveUserAgent(setting string) string {
	s := strings.TrimSpace(setting)
	if s == "" {
		return UserAgents[0]
	}
	if i, err := strconv.Atoi(s); err == nil {
		if i >= 0 && i < len(UserAgents) {
			return UserAgents[i]
		}
	}
	return s
}
