// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jcodagnone/talkmap/utils/httputils"
)

// DefaultTimeout is the per request timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

const maxResponseSize = 4 << 20

// ClientOptions configures the HTTP client shared by the providers.
type ClientOptions struct {
	// UserAgent identifies this client to the provider. Required by Nominatim's
	// usage policy.
	UserAgent string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Timeout for a single request.
	Timeout time.Duration

	// Transport is the underlying transport. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	// TraceWriter receives a dump of every request and response when set.
	TraceWriter io.Writer

	// TraceBody includes bodies in the trace.
	TraceBody bool
}

func newHTTPClient(options *ClientOptions) *http.Client {
	transport := options.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:      options.TraceWriter,
		DumpBody:    options.TraceBody,
		Transport:   transport,
		RedactQuery: []string{"key"},
	}

	userAgent := "talkmap/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: headerTransport,
	}
}

func decodeJSON(provider string, r io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, maxResponseSize)).Decode(v); err != nil {
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("%s: decoding response", provider),
			Err:     err,
		}
	}

	return nil
}
