// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "TALKMAP"

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.LevelError + 4

var errInvalidLogLevel = errors.New("invalid log level")

// loadSettings binds the flags of cmd (inherited ones included) into a fresh
// viper instance, with TALKMAP_* environment variables and the optional
// --config file as fallbacks.
func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return v, nil
}

// parseLogLevel accepts the level names DEBUG, INFO, WARNING, ERROR and
// CRITICAL, in any case.
func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("%w %q: use one of DEBUG, INFO, WARNING, ERROR, CRITICAL", errInvalidLogLevel, name)
	}
}

// newLogger builds the root logger. An empty traceID gets a random one.
func newLogger(w io.Writer, level, traceID string) (*slog.Logger, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}

	if traceID == "" {
		traceID = uuid.NewString()
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l >= LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}

			return a
		},
	})

	return slog.New(handler).With("logger", "talkmap", "trace_id", traceID), nil
}

// loggerFor builds the logger from the persistent logging flags of cmd.
func loggerFor(cmd *cobra.Command, v *viper.Viper) (*slog.Logger, error) {
	return newLogger(cmd.ErrOrStderr(), v.GetString("log-level"), v.GetString("trace-id"))
}
