// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads tvguide settings from defaults, a YAML file and
// TVGUIDE_* environment variables.
package config

import "time"

// Defaults
const (
	DefaultFetchTimeout   = 30 * time.Second
	DefaultMaxConcurrency = 4
	DefaultCatchupDays    = 1
	DefaultCacheTTL       = 6 * time.Hour
	DefaultLogLevel       = "info"
)

// Settings is the complete runtime configuration.
type Settings struct {
	// Playlist is the path or URL of the M3U/XSPF playlist.
	Playlist string `yaml:"playlist"`
	// UDPProxy is a udpxy base URL for multicast streams.
	UDPProxy string `yaml:"udp_proxy"`
	// EPG overrides the guide URL spec declared by the playlist.
	EPG            string        `yaml:"epg"`
	EPGOffsetHours int           `yaml:"epg_offset_hours"`
	CatchupDays    int           `yaml:"catchup_days"`
	UserAgent      string        `yaml:"user_agent"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	Cache          CacheSettings `yaml:"cache"`
	LogLevel       string        `yaml:"log_level"`
}

// CacheSettings configures the raw guide payload cache. A zero TTL disables
// caching; an empty RedisAddr selects the in-memory cache.
type CacheSettings struct {
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		CatchupDays:    DefaultCatchupDays,
		FetchTimeout:   DefaultFetchTimeout,
		MaxConcurrency: DefaultMaxConcurrency,
		Cache:          CacheSettings{TTL: DefaultCacheTTL},
		LogLevel:       DefaultLogLevel,
	}
}
