// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "nil", err: nil, want: false},
		{name: "rate limit type", err: &GeocodingError{Type: ErrorTypeRateLimit, Message: "slow down"}, want: true},
		{name: "wrapped rate limit type", err: fmt.Errorf("geocoding: %w", &GeocodingError{Type: ErrorTypeRateLimit}), want: true},
		{name: "message contains rate limit", err: errors.New("rate limit exceeded"), want: true},
		{name: "message contains too many requests", err: errors.New("too many requests"), want: true},
		{name: "message contains 429", err: errors.New("provider returned status 429"), want: true},
		{name: "other type", err: &GeocodingError{Type: ErrorTypeNotFound, Message: "429 in text"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "nil", err: nil, want: false},
		{name: "quota type", err: &GeocodingError{Type: ErrorTypeQuotaExceeded}, want: true},
		{name: "google status", err: classifyStatus("OVER_QUERY_LIMIT", ""), want: true},
		{name: "message contains over_query_limit", err: errors.New("status: OVER_QUERY_LIMIT"), want: true},
		{name: "message contains quota exceeded", err: errors.New("daily quota exceeded"), want: true},
		{name: "other type", err: &GeocodingError{Type: ErrorTypeTimeout}, want: false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "nil", err: nil, want: false},
		{name: "timeout type", err: &GeocodingError{Type: ErrorTypeTimeout}, want: true},
		{name: "message contains timeout", err: errors.New("i/o timeout"), want: true},
		{name: "message contains deadline exceeded", err: errors.New("context deadline exceeded"), want: true},
		{name: "other type", err: &GeocodingError{Type: ErrorTypeNetworkError, Message: "timeout"}, want: false},
	}, IsTimeoutError)
}

func TestIsNotFoundError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "nil", err: nil, want: false},
		{name: "not found type", err: &GeocodingError{Type: ErrorTypeNotFound}, want: true},
		{name: "zero results", err: classifyStatus("ZERO_RESULTS", ""), want: true},
		{name: "plain error", err: errors.New("not found"), want: false},
	}, IsNotFoundError)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantType   ErrorType
	}{
		{name: "429 too many requests", statusCode: 429, wantType: ErrorTypeRateLimit},
		{name: "403 forbidden", statusCode: 403, wantType: ErrorTypeQuotaExceeded},
		{name: "400 bad request", statusCode: 400, wantType: ErrorTypeInvalidRequest},
		{name: "404 not found", statusCode: 404, wantType: ErrorTypeNotFound},
		{name: "503 service unavailable", statusCode: 503, wantType: ErrorTypeNetworkError},
		{name: "502 bad gateway", statusCode: 502, wantType: ErrorTypeNetworkError},
		{name: "504 gateway timeout", statusCode: 504, wantType: ErrorTypeNetworkError},
		{name: "500 internal server error", statusCode: 500, body: "oops", wantType: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHTTPError(tt.statusCode, tt.body)
			if got.Type != tt.wantType {
				t.Errorf("ClassifyHTTPError() type = %v, want %v", got.Type, tt.wantType)
			}

			if tt.body != "" && !strings.Contains(got.Error(), tt.body) {
				t.Errorf("ClassifyHTTPError() message %q should contain the body", got.Error())
			}
		})
	}
}

func TestClassifyHTTPErrorTruncatesBody(t *testing.T) {
	got := ClassifyHTTPError(500, strings.Repeat("x", 1000))
	if len(got.Message) > 300 {
		t.Errorf("message was not truncated: %d bytes", len(got.Message))
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := map[string]ErrorType{
		"ZERO_RESULTS":     ErrorTypeNotFound,
		"OVER_QUERY_LIMIT": ErrorTypeQuotaExceeded,
		"OVER_DAILY_LIMIT": ErrorTypeQuotaExceeded,
		"REQUEST_DENIED":   ErrorTypeQuotaExceeded,
		"INVALID_REQUEST":  ErrorTypeInvalidRequest,
		"UNKNOWN_ERROR":    ErrorTypeUnknown,
	}

	for status, want := range tests {
		t.Run(status, func(t *testing.T) {
			got := classifyStatus(status, "details")
			if got.Type != want {
				t.Errorf("classifyStatus(%s) type = %v, want %v", status, got.Type, want)
			}

			if !strings.Contains(got.Error(), "details") {
				t.Errorf("message %q should keep the provider message", got.Error())
			}
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	if got := ErrorTypeQuotaExceeded.String(); got != "quota_exceeded" {
		t.Errorf("String() = %q", got)
	}

	if got := ErrorType(42).String(); got != "ErrorType(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	innerErr := errors.New("inner error")
	geoErr := &GeocodingError{
		Type:    ErrorTypeNotFound,
		Message: "location not found",
		Err:     innerErr,
	}

	if !errors.Is(geoErr, innerErr) {
		t.Error("errors.Is should find wrapped error")
	}

	if got := geoErr.Error(); got != "location not found: inner error" {
		t.Errorf("Error() = %q", got)
	}
}
