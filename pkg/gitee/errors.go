// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package gitee

import (
	"errors"
	"fmt"
)

var (
	// ErrUserInfo is returned when the user endpoint answers successfully but
	// does not identify the user. It signals a provider contract violation,
	// not a connectivity problem.
	ErrUserInfo = errors.New("failed to get Gitee username from user info response")

	// ErrNoAccessToken is returned when an authenticated API call is made for
	// a user that has never completed the authorization flow.
	ErrNoAccessToken = errors.New("no valid access token found")
)

// APIError describes a failed exchange with Gitee: the request could not be
// sent, the response status was not 2xx, or the body could not be decoded.
type APIError struct {
	// Op names the call that failed, e.g. "token exchange" or "GET /user".
	Op string
	// URL is the requested URL, without query parameters.
	URL string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gitee api request failed: %s (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gitee api request failed: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err is, or wraps, an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// ValidationError reports a violated invariant on a domain object.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
