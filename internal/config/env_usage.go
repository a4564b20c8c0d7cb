// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"sort"
	"strings"

	"github.com/ManuGH/tvguide/internal/log"
)

// UnknownEnvKeys returns the TVGUIDE_* keys of environ that the last Load did
// not consume (dead flags or typos), sorted, and logs a warning for each.
// environ uses the os.Environ "KEY=value" form.
func (l *Loader) UnknownEnvKeys(environ []string) []string {
	var unknown []string
	for _, pair := range environ {
		key, _, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, consumed := l.ConsumedEnvKeys[key]; consumed {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)

	logger := log.WithComponent("config")
	for _, key := range unknown {
		logger.Warn().Str("key", key).Msg("unknown TVGUIDE env key detected (dead flag or typo)")
	}
	return unknown
}
