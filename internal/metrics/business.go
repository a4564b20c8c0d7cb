// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// Playlist metrics
	playlistChannelsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvguide_playlist_channels_parsed_total",
		Help: "Total number of channel records produced by playlist parsing",
	}, []string{"format"}) // format=m3u|xspf

	playlistParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvguide_playlist_parse_failures_total",
		Help: "Total number of rejected playlists by reason",
	}, []string{"reason"}) // reason=malformed|no_channels|xml

	playlistStandardsViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvguide_playlist_standards_violations_total",
		Help: "Attributes that violated the playlist conventions and fell back to defaults",
	}, []string{"attribute"})

	// EPG metrics
	epgSourceFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvguide_epg_source_fetch_total",
		Help: "EPG source loads by detected format and outcome",
	}, []string{"format", "outcome"}) // format=xmltv|jtv|txt|none

	epgSourceCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvguide_epg_source_cache_total",
		Help: "Raw EPG source cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	epgProgrammesMerged = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvguide_epg_programmes_merged",
		Help: "Number of programmes in the last merged guide",
	})

	epgChannelsMerged = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvguide_epg_channels_merged",
		Help: "Number of channel keys in the last merged guide",
	})

	epgFetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tvguide_epg_fetch_duration_seconds",
		Help:    "Time spent fetching and merging all EPG sources",
		Buckets: prometheus.DefBuckets,
	})

	epgFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvguide_epg_fetch_failures_total",
		Help: "Fetch runs in which every configured EPG source failed",
	})
)

func RecordPlaylistParsed(format string, channels int) {
	playlistChannelsParsed.WithLabelValues(format).Add(float64(channels))
}

func IncPlaylistParseFailure(reason string) { playlistParseFailures.WithLabelValues(reason).Inc() }

func IncStandardsViolation(attribute string) {
	playlistStandardsViolations.WithLabelValues(attribute).Inc()
}

func IncEPGSourceFetch(format, outcome string) {
	if format == "" {
		format = "none"
	}
	epgSourceFetchTotal.WithLabelValues(format, outcome).Inc()
}

func IncEPGSourceCache(hit bool) {
	if hit {
		epgSourceCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	epgSourceCacheTotal.WithLabelValues("miss").Inc()
}

// RecordEPGFetch records the outcome of one complete fetch run.
func RecordEPGFetch(channels, programmes int, ok bool, duration time.Duration) {
	epgFetchDurationSeconds.Observe(duration.Seconds())
	if !ok {
		epgFetchFailures.Inc()
		return
	}
	epgChannelsMerged.Set(float64(channels))
	epgProgrammesMerged.Set(float64(programmes))
}
