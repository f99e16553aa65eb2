// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jcodagnone/talkmap/geocode"
	"github.com/jcodagnone/talkmap/render"
	"github.com/jcodagnone/talkmap/store"
	"github.com/jcodagnone/talkmap/talkmap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	providerNominatim = "nominatim"
	providerGoogle    = "google"
)

var errMissingUserAgent = errors.New(
	"a Nominatim user agent must be supplied via --user-agent or TALKMAP_USER_AGENT")

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "talkmap",
		Short: "Builds a clustered map of the places where talks were given",
		Long: `
talkmap scans a directory of markdown talks, reads the location: field of their
front matter, geocodes every distinct location and writes a Leaflet map with
clustered markers to the output directory.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGenerate,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Configuration file (yaml, toml or json)")
	pf.String("log-level", "INFO", "Logging level: DEBUG, INFO, WARNING, ERROR or CRITICAL")
	pf.String("trace-id", "", "Trace identifier attached to every log line (random when empty)")
	pf.String("output-dir", "talkmap", "Directory receiving the map artifacts")
	pf.String("cache-db", "", "DuckDB file caching geocoding results between runs")

	f := cmd.Flags()
	f.String("talks-dir", "_talks", "Directory containing the markdown talks")
	f.String("user-agent", "", "User agent sent to the geocoding provider")
	f.String("provider", providerNominatim, "Geocoding provider: nominatim or google")
	f.String("nominatim-url", geocode.DefaultNominatimURL, "Nominatim API base URL")
	f.String("google-project", "", "Google Cloud project holding the Maps API key")
	f.String("google-region", "", "Region bias for Google Maps lookups (ccTLD)")
	f.Duration("min-delay", geocode.DefaultMinDelay, "Minimum delay between geocoding requests")
	f.Int("max-retries", geocode.DefaultMaxRetries, "Retries for transient geocoding failures")
	f.Duration("error-wait", geocode.DefaultErrorWait, "Wait before retrying a failed request")
	f.Duration("timeout", geocode.DefaultTimeout, "Timeout for a single geocoding request")
	f.Bool("hash-labels", false, "Replace location labels by a short hash")
	f.Int("h3-resolution", render.DefaultH3Resolution, "H3 resolution of clusters.json")
	f.Bool("trace-http", false, "Dump geocoding HTTP traffic to stderr")

	return cmd
}

// loggedError marks an error already reported through the logger.
type loggedError struct {
	error
}

func (e *loggedError) Unwrap() error {
	return e.error
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	v, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := loggerFor(cmd, v)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		logger.Error("Talk map generation failed", "error", err)

		return &loggedError{err}
	}

	if strings.TrimSpace(v.GetString("user-agent")) == "" {
		return fail(errMissingUserAgent)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var trace io.Writer
	if v.GetBool("trace-http") {
		trace = cmd.ErrOrStderr()
	}

	geocoder, release, err := newGeocoder(ctx, v, trace, logger)
	if err != nil {
		return fail(err)
	}
	defer release()

	generator := talkmap.NewGenerator(geocoder, render.NewHTMLRenderer(), logger)

	_, err = generator.Generate(ctx, talkmap.Options{
		TalksDir:     v.GetString("talks-dir"),
		OutputDir:    v.GetString("output-dir"),
		HashLabels:   v.GetBool("hash-labels"),
		H3Resolution: v.GetInt("h3-resolution"),
	})
	if err != nil {
		return fail(err)
	}

	return nil
}

// newGeocoder builds provider, pacing and (optionally) cache. HTTP traffic is
// dumped to trace when it is not nil. The returned function releases the
// resources held by the chain.
func newGeocoder(
	ctx context.Context,
	v *viper.Viper,
	trace io.Writer,
	logger *slog.Logger,
) (geocode.Geocoder, func(), error) {
	options := &geocode.ClientOptions{
		UserAgent:   strings.TrimSpace(v.GetString("user-agent")),
		BaseURL:     v.GetString("nominatim-url"),
		Timeout:     v.GetDuration("timeout"),
		TraceWriter: trace,
	}

	var provider geocode.Geocoder

	switch strings.ToLower(v.GetString("provider")) {
	case providerNominatim:
		g, err := geocode.NewNominatimGeocoder(options)
		if err != nil {
			return nil, nil, err
		}
		provider = g
	case providerGoogle:
		key, err := geocode.GoogleMapsAPIKey(ctx, v.GetString("google-project"), logger)
		if err != nil {
			return nil, nil, err
		}

		options.BaseURL = ""

		g, err := geocode.NewGoogleMapsGeocoder(key, v.GetString("google-region"), options)
		if err != nil {
			return nil, nil, err
		}
		provider = g
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", v.GetString("provider"))
	}

	var geocoder geocode.Geocoder = geocode.NewRateLimited(provider, geocode.RateLimitOptions{
		MinDelay:   v.GetDuration("min-delay"),
		MaxRetries: v.GetInt("max-retries"),
		ErrorWait:  v.GetDuration("error-wait"),
	}, logger)

	path := v.GetString("cache-db")
	if path == "" {
		return geocoder, releaseFunc(provider, nil, logger), nil
	}

	repo, closeRepo, err := openRepository(path)
	if err != nil {
		return nil, nil, errors.Join(err, releaseErr(provider, nil))
	}

	logger.Debug("Using geocode cache", "path", path)

	return geocode.NewCached(repo, geocoder, logger), releaseFunc(provider, closeRepo, logger), nil
}

type idleCloser interface {
	CloseIdleConnections()
}

// releaseErr drops the idle connections of provider and closes the cache.
func releaseErr(provider geocode.Geocoder, closeCache func() error) error {
	if c, ok := provider.(idleCloser); ok {
		c.CloseIdleConnections()
	}

	if closeCache == nil {
		return nil
	}

	if err := closeCache(); err != nil {
		return fmt.Errorf("closing geocode cache: %w", err)
	}

	return nil
}

func releaseFunc(provider geocode.Geocoder, closeCache func() error, logger *slog.Logger) func() {
	return func() {
		if err := releaseErr(provider, closeCache); err != nil {
			logger.Warn("Failed to release geocoder", "error", err)
		}
	}
}

// openRepository opens the cache database and makes sure its schema exists.
func openRepository(path string) (*store.Repository, func() error, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}

	repo := store.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	return repo, db.Close, nil
}

// Version is set by main.
var Version = "dev"

// Execute runs the command tree and exits with status 1 on failure.
func Execute(version string) {
	Version = version

	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless it was already logged.
func reportError(w io.Writer, err error) {
	var logged *loggedError
	if errors.As(err, &logged) {
		return
	}

	fmt.Fprintln(w, "Error:", err)
}
