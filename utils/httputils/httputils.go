// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides utility functions for working with HTTP.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

type closeIdler interface {
	CloseIdleConnections()
}

func closeIdle(t http.RoundTripper) {
	if c, ok := t.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

const redacted = "REDACTED"

// LoggingRoundTripper writes a trace of every request and response.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool

	// RedactQuery lists query parameters (API keys) whose values are hidden
	// in the trace.
	RedactQuery []string
}

const (
	maxTraceLines     = 2048
	maxTraceLineBytes = 512
	truncatedMark     = " [...]"
)

// prefixLines marks each line with the direction of the message and caps the
// number and width of lines.
func prefixLines(dump string, direction rune) string {
	lines := strings.Split(dump, "\n")

	truncated := len(lines) > maxTraceLines
	if truncated {
		lines = lines[:maxTraceLines]
	}

	var sb strings.Builder
	for _, line := range lines {
		if len(line) > maxTraceLineBytes {
			line = line[:maxTraceLineBytes] + truncatedMark
		}

		fmt.Fprintf(&sb, "%c %s\n", direction, line)
	}

	if truncated {
		fmt.Fprintf(&sb, "%c%s\n", direction, truncatedMark)
	}

	return sb.String()
}

// redactURI returns the request URI of u with the values of the RedactQuery
// parameters replaced.
func (t *LoggingRoundTripper) redactURI(u *url.URL) string {
	query := u.Query()
	changed := false

	for _, name := range t.RedactQuery {
		if query.Has(name) {
			query.Set(name, redacted)
			changed = true
		}
	}

	if !changed {
		return u.RequestURI()
	}

	clone := *u
	clone.RawQuery = query.Encode()

	return clone.RequestURI()
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	text := strings.Replace(string(dump), req.URL.RequestURI(), t.redactURI(req.URL), 1)
	_, err = io.WriteString(t.Writer, prefixLines(text, '>'))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	_, err = fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n%s", duration, prefixLines(string(dump), '<'))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// CloseIdleConnections forwards to the wrapped transport.
func (t *LoggingRoundTripper) CloseIdleConnections() {
	closeIdle(t.Transport)
}

// AppendRequestHeadersRoundTripper adds headers to the request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface. The request is
// cloned before the headers are set, as RoundTrippers must not mutate it.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}

// CloseIdleConnections forwards to the wrapped transport.
func (t *AppendRequestHeadersRoundTripper) CloseIdleConnections() {
	closeIdle(t.Transport)
}
