// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment key read by Loader.
const EnvPrefix = "TVGUIDE_"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{} // keys the last Load looked at
}

// NewLoader creates a loader for configPath; an empty path skips the file.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, current string) string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, current)
}

func (l *Loader) envInt(key string, current int) int {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, current)
}

func (l *Loader) envDuration(key string, current time.Duration) time.Duration {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, current)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// validates the result.
func (l *Loader) Load() (Settings, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) mergeEnv(cfg *Settings) {
	cfg.Playlist = l.envString("PLAYLIST", cfg.Playlist)
	cfg.UDPProxy = l.envString("UDP_PROXY", cfg.UDPProxy)
	cfg.EPG = l.envString("EPG", cfg.EPG)
	cfg.EPGOffsetHours = l.envInt("EPG_OFFSET_HOURS", cfg.EPGOffsetHours)
	cfg.CatchupDays = l.envInt("CATCHUP_DAYS", cfg.CatchupDays)
	cfg.UserAgent = l.envString("USER_AGENT", cfg.UserAgent)
	cfg.FetchTimeout = l.envDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.MaxConcurrency = l.envInt("MAX_CONCURRENCY", cfg.MaxConcurrency)
	cfg.Cache.TTL = l.envDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
}

// loadFile decodes a YAML file onto cfg with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *Settings) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}
