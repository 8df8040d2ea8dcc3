// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gitee holds the domain model shared by the OAuth flow, the
// storage backends and the Gitee API client.
package gitee

import (
	"slices"
	"time"
)

// DefaultBranch is used for repositories that do not report one.
const DefaultBranch = "master"

// Application is an OAuth client registered on Gitee.
type Application struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Homepage     string    `json:"homepage,omitempty"`
	Description  string    `json:"description,omitempty"`
	Scopes       []Scope   `json:"scopes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the invariants every application must satisfy before it
// can take part in an authorization flow.
func (a *Application) Validate() error {
	if a == nil {
		return &ValidationError{Field: "application", Reason: "is required"}
	}
	if a.ClientID == "" {
		return &ValidationError{Field: "client_id", Reason: "is required"}
	}
	if a.ClientSecret == "" {
		return &ValidationError{Field: "client_secret", Reason: "is required"}
	}
	if len(a.Scopes) == 0 {
		return &ValidationError{Field: "scopes", Reason: "must not be empty"}
	}
	for _, s := range a.Scopes {
		if !s.Valid() {
			return &ValidationError{Field: "scopes", Reason: "contains an unknown scope " + s.String()}
		}
	}
	return nil
}

// ScopeString returns the granted scopes in authorize-endpoint format.
func (a *Application) ScopeString() string {
	return JoinScopes(a.Scopes)
}

// Clone returns a deep copy of the application.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	c.Scopes = slices.Clone(a.Scopes)
	return &c
}

// AccessToken is one credential issued by Gitee for one user under one
// application. Records are never updated in place: a refresh produces a new
// AccessToken and the newest record by CreatedAt is the current one.
type AccessToken struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	// Application is the owning application. It is populated in process and
	// never serialized; stores persist ApplicationID only.
	Application   *Application `json:"-"`
	UserID        string       `json:"user_id"`
	AccessToken   string       `json:"access_token"`
	RefreshToken  string       `json:"refresh_token,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	GiteeUsername string       `json:"gitee_username"`
	CreatedAt     time.Time    `json:"created_at"`
}

// HasRefreshToken reports whether the token can be refreshed.
func (t *AccessToken) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// IsExpired reports whether the token has an expiry strictly before now.
// Tokens without an expiry never expire.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// NeedsRefresh reports whether the token is expired and can be refreshed.
func (t *AccessToken) NeedsRefresh(now time.Time) bool {
	return t.IsExpired(now) && t.HasRefreshToken()
}

// Clone returns a copy of the token. The Application reference is shared.
func (t *AccessToken) Clone() *AccessToken {
	if t == nil {
		return nil
	}
	c := *t
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		c.ExpiresAt = &exp
	}
	return &c
}

// Repository is the locally synced metadata of a Gitee repository.
type Repository struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	UserID        string    `json:"user_id"`
	FullName      string    `json:"full_name"`
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	Description   string    `json:"description,omitempty"`
	DefaultBranch string    `json:"default_branch"`
	Private       bool      `json:"private"`
	Fork          bool      `json:"fork"`
	HTMLURL       string    `json:"html_url"`
	SSHURL        string    `json:"ssh_url"`
	PushedAt      time.Time `json:"pushed_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
