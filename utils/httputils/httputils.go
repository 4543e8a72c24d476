// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides round trippers shared by the remote geocoders.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// secretPattern matches credentials that must never reach a trace: API keys
// in query strings and Authorization headers.
var secretPattern = regexp.MustCompile(`(?i)([?&]key=)[^&\s]+|(authorization:\s*)\S.*`)

func redact(line string) string {
	return secretPattern.ReplaceAllString(line, "${1}${2}REDACTED")
}

// LoggingRoundTripper dumps every request and response it forwards to
// Writer. Credentials are redacted. A nil Writer disables tracing.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// abbreviate prefixes each line and caps both the number of lines and their
// length.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = fmt.Sprintf("%c %s", prefix, redact(line))
		if len(line) > maxChars {
			cut := maxChars
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}

			line = line[:cut] + "…"
		}

		lines[i] = line
	}

	return lines
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration); err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

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

// AppendRequestHeadersRoundTripper sets fixed headers, such as the
// User-Agent, on every request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}

// NewTransport stacks the optional tracing and header round trippers on top
// of base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, headers map[string]string, trace io.Writer, dumpBody bool) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	var rt http.RoundTripper = &LoggingRoundTripper{
		Transport: base,
		Writer:    trace,
		DumpBody:  dumpBody,
	}

	if len(headers) > 0 {
		rt = &AppendRequestHeadersRoundTripper{Transport: rt, Headers: headers}
	}

	return rt
}
