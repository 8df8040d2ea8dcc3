// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxMessagePreview bounds how much of an error body ends up in logs.
const maxMessagePreview = 512

// HTTPError represents an HTTP error response with status code, URL, and message.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is a description of the error (may be a preview of the response body).
	Message string

	// URL is the requested URL.
	URL string

	// RetryAfter is the delay requested by a Retry-After header, if any.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// Retryable reports whether repeating the request may succeed: rate
// limiting and server-side failures.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// NewHTTPErrorFromResponse builds an HTTPError from a non-2xx response and
// its already-read body. The query string is dropped from the URL since it
// may carry credentials.
func NewHTTPErrorFromResponse(resp *http.Response, body []byte) *HTTPError {
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		redacted := *resp.Request.URL
		redacted.RawQuery = ""
		u = redacted.String()
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessagePreview {
		msg = msg[:maxMessagePreview] + "..."
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		URL:        u,
		Message:    msg,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter understands the delta-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// IsHTTPError checks if an error is an HTTPError with the specified status code.
// If statusCode is 0, it matches any HTTPError.
func IsHTTPError(err error, statusCode int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	if statusCode == 0 {
		return true
	}
	return httpErr.StatusCode == statusCode
}
