// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"
	"time"

	"github.com/ManuGH/tvguide/internal/validate"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// Validate checks value ranges of a Settings.
func Validate(cfg Settings) error {
	v := validate.New()

	v.Range("EPGOffsetHours", cfg.EPGOffsetHours, -23, 23)
	v.NonNegative("CatchupDays", cfg.CatchupDays)
	v.DurationRange("FetchTimeout", cfg.FetchTimeout, time.Second, 5*time.Minute)
	v.Range("MaxConcurrency", cfg.MaxConcurrency, 1, 16)

	if strings.TrimSpace(cfg.UDPProxy) != "" {
		v.URL("UDPProxy", cfg.UDPProxy, []string{"http", "https"})
	}

	v.DurationRange("Cache.TTL", cfg.Cache.TTL, 0, 7*24*time.Hour)
	v.Range("Cache.RedisDB", cfg.Cache.RedisDB, 0, 15)

	v.OneOf("LogLevel", strings.ToLower(cfg.LogLevel), logLevels)

	return v.Err()
}
