// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config contains the definition of the service configuration and
// the logic required to load it from a YAML file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tourze/gitee-oauth/pkg/api"
	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/gitee/client"
	"github.com/tourze/gitee-oauth/pkg/networking"
	"github.com/tourze/gitee-oauth/pkg/oauth"
	"github.com/tourze/gitee-oauth/pkg/storage"
)

// EnvPrefix prefixes every environment override, e.g. GITEE_SERVER_ADDRESS.
const EnvPrefix = "GITEE"

// Config represents the configuration of the service.
type Config struct {
	Server       api.Config          `mapstructure:"server" yaml:"server"`
	Storage      storage.Config      `mapstructure:"storage" yaml:"storage"`
	Gitee        GiteeConfig         `mapstructure:"gitee" yaml:"gitee"`
	Applications []ApplicationConfig `mapstructure:"applications" yaml:"applications,omitempty"`
}

// GiteeConfig holds the provider endpoints and the outbound HTTP settings.
type GiteeConfig struct {
	AuthorizeURL string `mapstructure:"authorize_url" yaml:"authorize_url"`
	TokenURL     string `mapstructure:"token_url" yaml:"token_url"`
	UserURL      string `mapstructure:"user_url" yaml:"user_url"`
	APIBaseURL   string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// RateLimit and RateBurst throttle REST API calls made by the client.
	RateLimit  float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst  int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	MaxRetries uint    `mapstructure:"max_retries" yaml:"max_retries"`

	// RefreshDedup collapses concurrent refreshes of the same token.
	RefreshDedup bool `mapstructure:"refresh_dedup" yaml:"refresh_dedup"`

	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// CABundle is an optional PEM file that replaces the system root pool.
	CABundle string `mapstructure:"ca_bundle" yaml:"ca_bundle,omitempty"`

	// AllowPrivateIPs and AllowInsecureHTTP exist for local development
	// against a fake provider. Both default to false.
	AllowPrivateIPs   bool `mapstructure:"allow_private_ips" yaml:"allow_private_ips,omitempty"`
	AllowInsecureHTTP bool `mapstructure:"allow_insecure_http" yaml:"allow_insecure_http,omitempty"`
}

// ApplicationConfig declares an OAuth application to register at startup.
type ApplicationConfig struct {
	ID           string   `mapstructure:"id" yaml:"id"`
	Name         string   `mapstructure:"name" yaml:"name"`
	ClientID     string   `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string   `mapstructure:"client_secret" yaml:"client_secret"`
	Homepage     string   `mapstructure:"homepage" yaml:"homepage,omitempty"`
	Description  string   `mapstructure:"description" yaml:"description,omitempty"`
	Scopes       []string `mapstructure:"scopes" yaml:"scopes,omitempty"`
}

// SetDefaults registers a default for every key. Viper only consults the
// environment for keys it knows, so this also enables the GITEE_ overrides.
func SetDefaults(v *viper.Viper) {
	server := api.DefaultConfig()
	v.SetDefault("server.address", server.Address)
	v.SetDefault("server.public_url", server.PublicURL)
	v.SetDefault("server.request_timeout", server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", server.ShutdownTimeout)

	store := storage.DefaultConfig()
	v.SetDefault("storage.type", string(store.Type))
	v.SetDefault("storage.cleanup_interval", store.CleanupInterval)
	v.SetDefault("storage.redis.addr", "")
	v.SetDefault("storage.redis.username", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", store.Redis.KeyPrefix)
	v.SetDefault("storage.redis.dial_timeout", storage.DefaultDialTimeout)
	v.SetDefault("storage.redis.read_timeout", storage.DefaultReadTimeout)
	v.SetDefault("storage.redis.write_timeout", storage.DefaultWriteTimeout)

	endpoints := oauth.DefaultEndpoints()
	v.SetDefault("gitee.authorize_url", endpoints.AuthorizeURL)
	v.SetDefault("gitee.token_url", endpoints.TokenURL)
	v.SetDefault("gitee.user_url", endpoints.UserURL)
	v.SetDefault("gitee.api_base_url", client.DefaultBaseURL)
	v.SetDefault("gitee.rate_limit", client.DefaultRateLimit)
	v.SetDefault("gitee.rate_burst", client.DefaultRateBurst)
	v.SetDefault("gitee.max_retries", client.DefaultMaxRetries)
	v.SetDefault("gitee.refresh_dedup", false)
	v.SetDefault("gitee.timeout", networking.HttpTimeout)
	v.SetDefault("gitee.ca_bundle", "")
	v.SetDefault("gitee.allow_private_ips", false)
	v.SetDefault("gitee.allow_insecure_http", false)
}

// Load reads the configuration into v from path (optional), the GITEE_
// environment and any flags already bound to v, then validates it.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		cleanPath, err := validateFilePath(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(cleanPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if _, err := validateURLScheme(c.Server.PublicURL, true); err != nil {
		return fmt.Errorf("server.public_url: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Gitee.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Applications))
	for i := range c.Applications {
		app := &c.Applications[i]
		if app.ID == "" {
			return fmt.Errorf("applications[%d]: id is required", i)
		}
		if _, dup := seen[app.ID]; dup {
			return fmt.Errorf("applications[%d]: duplicate id %q", i, app.ID)
		}
		seen[app.ID] = struct{}{}
		if _, err := app.ToApplication(); err != nil {
			return fmt.Errorf("applications[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks the provider endpoints and client limits.
func (g *GiteeConfig) Validate() error {
	for name, raw := range map[string]string{
		"authorize_url": g.AuthorizeURL,
		"token_url":     g.TokenURL,
		"user_url":      g.UserURL,
		"api_base_url":  g.APIBaseURL,
	} {
		if _, err := validateURLScheme(raw, g.AllowInsecureHTTP); err != nil {
			return fmt.Errorf("gitee.%s: %w", name, err)
		}
	}
	if g.RateLimit <= 0 || g.RateBurst <= 0 {
		return errors.New("gitee.rate_limit and gitee.rate_burst must be positive")
	}
	if g.CABundle != "" {
		if _, err := validateFilePath(g.CABundle); err != nil {
			return fmt.Errorf("gitee.ca_bundle: %w", err)
		}
	}
	return nil
}

// Endpoints returns the OAuth endpoints.
func (g *GiteeConfig) Endpoints() oauth.Endpoints {
	return oauth.Endpoints{
		AuthorizeURL: g.AuthorizeURL,
		TokenURL:     g.TokenURL,
		UserURL:      g.UserURL,
	}
}

// HTTPClient builds the outbound client shared by the OAuth service and the
// REST client.
func (g *GiteeConfig) HTTPClient() (*http.Client, error) {
	builder := networking.NewHttpClientBuilder().
		WithPrivateIPs(g.AllowPrivateIPs).
		WithInsecureHTTP(g.AllowInsecureHTTP)
	if g.Timeout > 0 {
		builder = builder.WithTimeout(g.Timeout)
	}
	if g.CABundle != "" {
		builder = builder.WithCABundle(g.CABundle)
	}
	return builder.Build()
}

// ClientOptions returns the REST client options.
func (g *GiteeConfig) ClientOptions(httpClient networking.HTTPClient) []client.Option {
	return []client.Option{
		client.WithHTTPClient(httpClient),
		client.WithBaseURL(g.APIBaseURL),
		client.WithRateLimit(g.RateLimit, g.RateBurst),
		client.WithMaxRetries(g.MaxRetries),
	}
}

// ToApplication converts the declaration into a validated Application.
// Applications without scopes get gitee.DefaultScopes.
func (a *ApplicationConfig) ToApplication() (*gitee.Application, error) {
	scopes := gitee.DefaultScopes()
	if len(a.Scopes) > 0 {
		parsed, err := gitee.ParseScopes(a.Scopes)
		if err != nil {
			return nil, err
		}
		scopes = parsed
	}

	app := &gitee.Application{
		ID:           a.ID,
		Name:         a.Name,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Homepage:     a.Homepage,
		Description:  a.Description,
		Scopes:       scopes,
	}
	if app.Name == "" {
		app.Name = a.ID
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}
