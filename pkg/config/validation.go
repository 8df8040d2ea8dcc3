// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
)

// Error message templates for consistent error formatting
const (
	errFileNotFound     = "file not found or not accessible: %w"
	errInvalidURL       = "invalid URL format: %w"
	errInvalidURLScheme = "URL must start with https://"
)

// validateFilePath validates that a file path exists and is accessible.
// It also cleans the file path using filepath.Clean.
func validateFilePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	if _, err := os.Stat(cleanPath); err != nil {
		return "", fmt.Errorf(errFileNotFound, err)
	}

	return cleanPath, nil
}

// validateURLScheme validates that a URL is absolute and uses https, or
// http as well when allowInsecure is set.
func validateURLScheme(rawURL string, allowInsecure bool) (*neturl.URL, error) {
	parsedURL, err := neturl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf(errInvalidURL, err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf(errInvalidURL, errors.New("host is required"))
	}

	switch {
	case parsedURL.Scheme == "https":
	case parsedURL.Scheme == "http" && allowInsecure:
	case allowInsecure:
		return nil, errors.New("URL must start with http:// or https://")
	default:
		return nil, errors.New(errInvalidURLScheme)
	}

	return parsedURL, nil
}
