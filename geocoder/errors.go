// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError is an error reported by a geocoding provider.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit means the provider throttled us.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the quota is exhausted or the key was
	// rejected.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout means the request did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound means the location is unknown to the provider.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest means the request was malformed.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError means the provider could not be reached.
	ErrorTypeNetworkError
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeQuotaExceeded:  "quota_exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeInvalidRequest: "invalid_request",
	ErrorTypeNetworkError:   "network_error",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func hasType(err error, t ErrorType) (found, matches bool) {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return true, geoErr.Type == t
	}

	return false, false
}

// IsRateLimitError reports whether err means the provider throttled us.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if found, ok := hasType(err, ErrorTypeRateLimit); found {
		return ok
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err means the quota is exhausted.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}

	if found, ok := hasType(err, ErrorTypeQuotaExceeded); found {
		return ok
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if found, ok := hasType(err, ErrorTypeTimeout); found {
		return ok
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError reports whether err means the location is unknown.
func IsNotFoundError(err error) bool {
	_, ok := hasType(err, ErrorTypeNotFound)

	return ok
}

// IsInvalidRequestError reports whether err means the request was
// malformed.
func IsInvalidRequestError(err error) bool {
	_, ok := hasType(err, ErrorTypeInvalidRequest)

	return ok
}

// ClassifyHTTPError maps an HTTP status code returned by a provider to a
// geocoding error. The body, when present, is kept in the message.
func ClassifyHTTPError(statusCode int, body string) *GeocodingError {
	var geoErr *GeocodingError

	switch statusCode {
	case http.StatusTooManyRequests:
		geoErr = &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit reached"}
	case http.StatusForbidden:
		geoErr = &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded or access denied"}
	case http.StatusBadRequest:
		geoErr = &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "invalid request"}
	case http.StatusNotFound:
		geoErr = &GeocodingError{Type: ErrorTypeNotFound, Message: "location not found"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		geoErr = &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		geoErr = &GeocodingError{Type: ErrorTypeUnknown, Message: fmt.Sprintf("HTTP error %d", statusCode)}
	}

	if body = strings.TrimSpace(body); body != "" {
		const maxBody = 200
		if len(body) > maxBody {
			body = body[:maxBody] + "…"
		}

		geoErr.Message += ": " + body
	}

	return geoErr
}

// classifyStatus maps a Google Geocoding API status to a geocoding error.
func classifyStatus(status, message string) *GeocodingError {
	geoErr := &GeocodingError{Message: "google maps status " + status}
	if message != "" {
		geoErr.Message += ": " + message
	}

	switch status {
	case "ZERO_RESULTS":
		geoErr.Type = ErrorTypeNotFound
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		geoErr.Type = ErrorTypeQuotaExceeded
	case "INVALID_REQUEST":
		geoErr.Type = ErrorTypeInvalidRequest
	default:
		geoErr.Type = ErrorTypeUnknown
	}

	return geoErr
}
