// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// tvguide parses IPTV playlists and fetches, merges and exports their
// programme guides.
//
// Usage:
//
//	tvguide [-config file.yaml] playlist -in playlist.m3u [-format auto|m3u|xspf] [-out file.m3u]
//	tvguide [-config file.yaml] epg [-spec url[,url]] [-export guide.xml] [-snapshot guide.json.gz] [-now]
//	tvguide [-config file.yaml] validate
//
// The global -metrics-file flag writes the Prometheus registry in textfile
// collector format once the command finishes.
//
// Exit codes:
//   - 0: success
//   - 1: operation failed
//   - 2: usage error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/tvguide/internal/config"
	xglog "github.com/ManuGH/tvguide/internal/log"
	"github.com/ManuGH/tvguide/internal/platform/httpx"
	"github.com/ManuGH/tvguide/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// app carries what every subcommand needs.
type app struct {
	settings  config.Settings
	userAgent string
	stdout    io.Writer
	stderr    io.Writer
	logger    zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tvguide", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML configuration file")
	showVersion := fs.Bool("version", false, "print version and exit")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics in textfile collector format on exit")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		return exitOK
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return exitUsage
	}

	path := strings.TrimSpace(*configPath)
	loader := config.NewLoader(path)
	settings, err := loader.Load()
	if err != nil {
		if path == "" {
			path = "environment"
		}
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return exitFail
	}

	xglog.Configure(xglog.Config{Level: settings.LogLevel, Output: zerolog.SyncWriter(stderr)})
	xglog.SetLevel(settings.LogLevel)

	a := &app{
		settings:  settings,
		userAgent: config.ResolveUserAgent(settings.UserAgent),
		stdout:    stdout,
		stderr:    stderr,
		logger:    xglog.WithComponent("cli"),
	}

	var code int
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "playlist":
		code = a.runPlaylist(ctx, rest)
	case "epg":
		code = a.runEPG(ctx, rest)
	case "validate":
		code = a.runValidate(*configPath, loader.UnknownEnvKeys(os.Environ()))
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printUsage(stderr)
		return exitUsage
	}

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, prometheus.DefaultGatherer); err != nil {
			a.logger.Error().Err(err).Str(xglog.FieldPath, *metricsFile).Msg("failed to write metrics")
			if code == exitOK {
				code = exitFail
			}
		}
	}
	return code
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  global flags: [-config file.yaml] [-metrics-file tvguide.prom] [-version]")
	fmt.Fprintln(w, "  tvguide [-config file.yaml] playlist -in <path|url> [-format auto|m3u|xspf] [-out file.m3u]")
	fmt.Fprintln(w, "  tvguide [-config file.yaml] epg [-spec url[,url]] [-export guide.xml] [-snapshot guide.json.gz] [-now]")
	fmt.Fprintln(w, "  tvguide [-config file.yaml] validate")
}

func (a *app) httpClient() *http.Client {
	return httpx.NewClient(httpx.Options{
		Timeout:   a.settings.FetchTimeout,
		UserAgent: a.userAgent,
	})
}

func (a *app) runValidate(path string, unknownEnv []string) int {
	if path == "" {
		path = "defaults and environment"
	}
	for _, key := range unknownEnv {
		fmt.Fprintf(a.stderr, "Warning: unknown environment key %s\n", key)
	}
	fmt.Fprintf(a.stdout, "✓ %s is valid\n", path)
	return exitOK
}
