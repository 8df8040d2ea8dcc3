// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stacklok/toolhive-core/httperr"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no error",
			err:            nil,
			expectedStatus: http.StatusTeapot,
			expectedBody:   "handled",
		},
		{
			name:           "plain error is internal",
			err:            errors.New("database exploded"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error",
		},
		{
			name:           "client error exposes message",
			err:            httperr.WithCode(errors.New("missing code"), http.StatusBadRequest),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "missing code",
		},
		{
			name:           "wrapped coded error keeps its code",
			err:            fmt.Errorf("application app-1: %w", httperr.WithCode(errors.New("not found"), http.StatusNotFound)),
			expectedStatus: http.StatusNotFound,
			expectedBody:   "application app-1: not found",
		},
		{
			name:           "bad gateway hides details",
			err:            httperr.WithCode(errors.New("token=secret leaked"), http.StatusBadGateway),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := ErrorHandler(func(w http.ResponseWriter, _ *http.Request) error {
				if tt.err != nil {
					return tt.err
				}
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("handled"))
				return nil
			})

			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedBody, strings.TrimSpace(rec.Body.String()))
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}
