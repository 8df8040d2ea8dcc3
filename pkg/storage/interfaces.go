// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package storage provides the persistence collaborators of the Gitee OAuth
// flow: an ephemeral state cache, an append-only token history, and stores
// for applications and synced repositories.
package storage

import (
	"context"
	"time"

	"github.com/tourze/gitee-oauth/pkg/gitee"
)

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=interfaces.go StateStore,TokenStore,ApplicationStore,RepositoryStore

// StateStore is a TTL key-value cache used to carry a callback URL across the
// redirect round-trip to Gitee.
type StateStore interface {
	// SetState stores value under key for ttl.
	SetState(ctx context.Context, key, value string, ttl time.Duration) error
	// GetState returns the value stored under key. The boolean is false when
	// the key is missing or expired.
	GetState(ctx context.Context, key string) (string, bool, error)
	// DeleteState removes key. Deleting a missing key is not an error.
	DeleteState(ctx context.Context, key string) error
}

// StateTaker is implemented by state stores that can read and delete a key
// in one atomic step, so that only one of several concurrent readers wins.
type StateTaker interface {
	TakeState(ctx context.Context, key string) (string, bool, error)
}

// TokenStore persists access tokens. Tokens are append-only: SaveToken always
// creates a new record and nothing is ever updated in place.
type TokenStore interface {
	// SaveToken persists a new token, assigning an ID and creation time when
	// they are empty.
	SaveToken(ctx context.Context, token *gitee.AccessToken) error
	// FindLatestToken returns the most recently created token for the pair,
	// or ErrNotFound.
	FindLatestToken(ctx context.Context, userID, applicationID string) (*gitee.AccessToken, error)
	// ListTokens returns every token for the pair, newest first.
	ListTokens(ctx context.Context, userID, applicationID string) ([]*gitee.AccessToken, error)
}

// ApplicationStore persists registered OAuth applications.
type ApplicationStore interface {
	// SaveApplication creates or replaces an application keyed by its ID.
	SaveApplication(ctx context.Context, app *gitee.Application) error
	// GetApplication returns the application with the given ID, or ErrNotFound.
	GetApplication(ctx context.Context, id string) (*gitee.Application, error)
	// GetApplicationByClientID returns the application with the given client ID, or ErrNotFound.
	GetApplicationByClientID(ctx context.Context, clientID string) (*gitee.Application, error)
	// ListApplications returns all applications ordered by name.
	ListApplications(ctx context.Context) ([]*gitee.Application, error)
	// DeleteApplication removes an application, or returns ErrNotFound.
	DeleteApplication(ctx context.Context, id string) error
}

// RepositoryStore persists synced repository metadata, unique per
// (user, application, full name).
type RepositoryStore interface {
	// SaveRepository inserts or replaces the repository identified by its
	// user, application and full name.
	SaveRepository(ctx context.Context, repo *gitee.Repository) error
	// GetRepository returns one repository, or ErrNotFound.
	GetRepository(ctx context.Context, userID, applicationID, fullName string) (*gitee.Repository, error)
	// ListRepositories returns the repositories of a user under an
	// application, ordered by full name.
	ListRepositories(ctx context.Context, userID, applicationID string) ([]*gitee.Repository, error)
}

// Storage combines every store with lifecycle management.
type Storage interface {
	StateStore
	StateTaker
	TokenStore
	ApplicationStore
	RepositoryStore

	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error
	// Close releases resources held by the backend.
	Close() error
}
