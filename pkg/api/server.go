// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api contains the HTTP surface of the Gitee OAuth service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/tourze/gitee-oauth/pkg/api/v1"
	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/oauth"
)

const (
	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = ":8080"

	defaultRequestTimeout  = 30 * time.Second
	defaultGracefulTimeout = 15 * time.Second
	readHeaderTimeout      = 10 * time.Second
	idleTimeout            = 60 * time.Second
)

// Config controls the HTTP server.
type Config struct {
	// Address is the TCP address to listen on.
	Address string `mapstructure:"address" yaml:"address"`

	// PublicURL is the externally reachable base URL. Redirect URIs sent to
	// Gitee are built from it and must match the registered callback.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`

	// RequestTimeout bounds each request, including the calls to Gitee.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout,omitempty"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Address:         DefaultAddress,
		PublicURL:       "http://localhost:8080",
		RequestTimeout:  defaultRequestTimeout,
		ShutdownTimeout: defaultGracefulTimeout,
	}
}

// Validate checks that the configuration can serve the OAuth flow.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("server address is required")
	}
	if c.PublicURL == "" {
		return errors.New("server public url is required")
	}
	return nil
}

// NewRouter wires the OAuth and health routes behind the common middleware.
func NewRouter(
	cfg Config,
	orchestrator oauth.Orchestrator,
	applications v1.ApplicationGetter,
	health v1.HealthChecker,
) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		loggingMiddleware,
	)

	routers := map[string]http.Handler{
		"/health":      v1.HealthcheckRouter(health),
		"/version":     v1.VersionRouter(),
		"/gitee/oauth": v1.OAuthRouter(orchestrator, applications, cfg.PublicURL),
	}
	for prefix, router := range routers {
		r.Mount(prefix, router)
	}
	return r
}

// Serve serves handler on listener until ctx is cancelled, then shuts down
// gracefully. It is assumed that the caller sets up appropriate signal handling.
func Serve(ctx context.Context, cfg Config, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("starting http server", "address", listener.Addr().String(), "public_url", cfg.PublicURL)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultGracefulTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

// ListenAndServe listens on cfg.Address and calls Serve.
func ListenAndServe(ctx context.Context, cfg Config, handler http.Handler) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Address, err)
	}
	return Serve(ctx, cfg, listener, handler)
}

// loggingMiddleware logs one line per request. Query strings are left out
// since the callback carries the authorization code.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
