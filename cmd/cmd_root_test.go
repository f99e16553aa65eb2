// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jcodagnone/talkmap/geocode"
	"github.com/jcodagnone/talkmap/render"
	"github.com/jcodagnone/talkmap/store"
	"github.com/jcodagnone/talkmap/talkmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	root.AddCommand(newCacheCmd())

	var stderr bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()

	return stderr.String(), err
}

func writeTalk(t *testing.T, dir, name, location string) {
	t.Helper()

	content := "---\ntitle: \"" + name + "\"\nlocation: \"" + location + "\"\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o600))
}

func nominatimServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "talkmap-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("q") != "Austin, TX" {
			_, _ = w.Write([]byte(`[]`))

			return
		}

		_, _ = w.Write([]byte(`[{"lat":"30.2711","lon":"-97.7437","display_name":"Austin, Texas","place_rank":16}]`))
	}))
	t.Cleanup(ts.Close)

	return ts
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"Critical", LevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseLogLevel("verbose")
	require.ErrorIs(t, err, errInvalidLogLevel)
}

func TestNewLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "CRITICAL", "abc")
	require.NoError(t, err)

	logger.Error("dropped")
	logger.Log(t.Context(), LevelCritical, "kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "level=CRITICAL")
	assert.Contains(t, out, "logger=talkmap")
	assert.Contains(t, out, "trace_id=abc")
}

func TestNewLoggerRandomTraceID(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "INFO", "")
	require.NoError(t, err)

	logger.Info("hello")
	assert.Regexp(t, `trace_id=[0-9a-f-]{36}`, buf.String())
}

func TestMissingUserAgent(t *testing.T) {
	t.Setenv("TALKMAP_USER_AGENT", "")

	stderr, err := execute(t, "--talks-dir", t.TempDir(), "--trace-id", "t1")
	require.ErrorIs(t, err, errMissingUserAgent)
	assert.Contains(t, stderr, "Talk map generation failed")
	assert.Contains(t, stderr, "trace_id=t1")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--user-agent", "talkmap-test", "--log-level", "LOUD")
	require.ErrorIs(t, err, errInvalidLogLevel)
}

func TestUnknownProvider(t *testing.T) {
	_, err := execute(t, "--user-agent", "talkmap-test", "--provider", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestGenerateCommand(t *testing.T) {
	var requests atomic.Int32
	ts := nominatimServer(t, &requests)

	talksDir := t.TempDir()
	writeTalk(t, talksDir, "2013-austin", "Austin, TX")
	writeTalk(t, talksDir, "2014-austin", "Austin,   TX")
	writeTalk(t, talksDir, "2015-nowhere", "Atlantis")

	outputDir := filepath.Join(t.TempDir(), "talkmap")

	stderr, err := execute(t,
		"--user-agent", "talkmap-test",
		"--talks-dir", talksDir,
		"--output-dir", outputDir,
		"--nominatim-url", ts.URL,
		"--min-delay", "0s",
		"--error-wait", "0s",
		"--log-level", "DEBUG",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Talk map artifacts written")
	assert.Contains(t, stderr, "locations_count=1")
	assert.Contains(t, stderr, "talks_processed=3")
	assert.Equal(t, int32(2), requests.Load())

	for _, name := range []string{render.MapFile, render.LocationsFile, render.ClustersFile} {
		_, err := os.Stat(filepath.Join(outputDir, name))
		assert.NoError(t, err, name)
	}
}

func TestGenerateCommandMissingTalksDir(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "talkmap")

	stderr, err := execute(t,
		"--user-agent", "talkmap-test",
		"--talks-dir", filepath.Join(t.TempDir(), "missing"),
		"--output-dir", outputDir,
	)
	require.ErrorIs(t, err, talkmap.ErrTalksDirNotFound)
	assert.Contains(t, stderr, "Talk map generation failed")

	_, statErr := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateCommandWithCache(t *testing.T) {
	var requests atomic.Int32
	ts := nominatimServer(t, &requests)

	talksDir := t.TempDir()
	writeTalk(t, talksDir, "austin", "Austin, TX")

	cacheDB := filepath.Join(t.TempDir(), "cache", "geocodes.duckdb")
	args := []string{
		"--user-agent", "talkmap-test",
		"--talks-dir", talksDir,
		"--output-dir", t.TempDir(),
		"--nominatim-url", ts.URL,
		"--min-delay", "0s",
		"--cache-db", cacheDB,
	}

	_, err := execute(t, args...)
	require.NoError(t, err)
	_, err = execute(t, args...)
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load(), "second run must be served from the cache")

	exported := filepath.Join(t.TempDir(), "geocodes.json")
	_, err = execute(t, "cache", "export", exported, "--cache-db", cacheDB)
	require.NoError(t, err)

	data, err := os.ReadFile(exported)
	require.NoError(t, err)

	var seed store.SeedData
	require.NoError(t, json.Unmarshal(data, &seed))
	require.Len(t, seed.Geocodes, 1)
	assert.Equal(t, "Austin, TX", seed.Geocodes[0].Location)
}

func TestCacheExportRequiresDB(t *testing.T) {
	t.Setenv("TALKMAP_CACHE_DB", "")

	_, err := execute(t, "cache", "export", filepath.Join(t.TempDir(), "out.json"))
	require.ErrorIs(t, err, errMissingCacheDB)
}

func TestGenerateCommandTracesHTTP(t *testing.T) {
	var requests atomic.Int32
	ts := nominatimServer(t, &requests)

	talksDir := t.TempDir()
	writeTalk(t, talksDir, "austin", "Austin, TX")

	stderr, err := execute(t,
		"--user-agent", "talkmap-test",
		"--talks-dir", talksDir,
		"--output-dir", t.TempDir(),
		"--nominatim-url", ts.URL,
		"--min-delay", "0s",
		"--trace-http",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "> GET /search?")
	assert.Contains(t, stderr, "< RESPONSE: [")
}

type idleProvider struct {
	closed int
}

func (p *idleProvider) Geocode(context.Context, string) (*geocode.Result, error) {
	return nil, nil
}

func (p *idleProvider) CloseIdleConnections() {
	p.closed++
}

func TestReleaseClosesProviderAndCache(t *testing.T) {
	provider := &idleProvider{}
	cacheClosed := 0

	var buf bytes.Buffer
	logger, err := newLogger(&buf, "INFO", "t1")
	require.NoError(t, err)

	releaseFunc(provider, func() error {
		cacheClosed++

		return errors.New("locked")
	}, logger)()

	assert.Equal(t, 1, provider.closed)
	assert.Equal(t, 1, cacheClosed)
	assert.Contains(t, buf.String(), "Failed to release geocoder")

	require.NoError(t, releaseErr(provider, nil))
	assert.Equal(t, 2, provider.closed)
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer

	reportError(&buf, errors.New("unknown flag: --nope"))
	assert.Equal(t, "Error: unknown flag: --nope\n", buf.String())

	buf.Reset()
	t.Setenv("TALKMAP_USER_AGENT", "")

	_, err := execute(t, "--talks-dir", t.TempDir())
	require.ErrorIs(t, err, errMissingUserAgent)

	reportError(&buf, err)
	assert.Empty(t, buf.String(), "logged errors are not printed twice")
}
