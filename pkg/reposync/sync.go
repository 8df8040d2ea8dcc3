// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package reposync copies a user's Gitee repositories into the local
// repository store.
package reposync

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-logr/logr"

	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/gitee/client"
	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/storage"
)

//go:generate mockgen -destination=mocks/mock_lister.go -package=mocks -source=sync.go RepositoryLister

// progressEvery controls how often progress is logged during long syncs.
const progressEvery = 100

// RepositoryLister lists the repositories visible to a user.
type RepositoryLister interface {
	ListRepositories(ctx context.Context, auth client.Auth, params url.Values) ([]client.Repository, error)
}

// Stats summarizes one sync run. Processed counts repositories that were
// written, so Processed == Created + Updated.
type Stats struct {
	Processed int
	Created   int
	Updated   int
	Skipped   int
}

// Syncer mirrors remote repositories into a RepositoryStore.
type Syncer struct {
	lister RepositoryLister
	repos  storage.RepositoryStore
	log    logr.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger. Per-repository decisions are logged at V(1).
func WithLogger(l logr.Logger) Option {
	return func(s *Syncer) {
		s.log = l
	}
}

// New creates a Syncer.
func New(lister RepositoryLister, repos storage.RepositoryStore, opts ...Option) *Syncer {
	s := &Syncer{
		lister: lister,
		repos:  repos,
		log:    logger.NewLogr(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync fetches every repository of userID under app and upserts it locally.
// Unless force is set, repositories whose stored push time is not older than
// the remote one are skipped. The first error aborts the run; repositories
// written before it stay written.
func (s *Syncer) Sync(ctx context.Context, userID string, app *gitee.Application, force bool) (Stats, error) {
	var stats Stats
	if app == nil {
		return stats, errors.New("application is required")
	}
	log := s.log.WithValues("user_id", userID, "application_id", app.ID, "force", force)

	remote, err := s.lister.ListRepositories(ctx, client.As(userID, app), nil)
	if err != nil {
		return stats, fmt.Errorf("failed to list remote repositories: %w", err)
	}
	log.Info("fetched remote repositories", "count", len(remote))

	stored, err := s.repos.ListRepositories(ctx, userID, app.ID)
	if err != nil {
		return stats, fmt.Errorf("failed to list stored repositories: %w", err)
	}
	existing := make(map[string]*gitee.Repository, len(stored))
	for _, r := range stored {
		existing[r.FullName] = r
	}

	for i := range remote {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		r := &remote[i]
		current, found := existing[r.FullName]
		if shouldSkip(r, current, force) {
			stats.Skipped++
			log.V(1).Info("repository up to date", "repository", r.FullName)
			continue
		}

		model := r.ToModel(userID, app.ID)
		if err := s.repos.SaveRepository(ctx, model); err != nil {
			return stats, fmt.Errorf("failed to save repository %s: %w", r.FullName, err)
		}
		existing[model.FullName] = model

		if found {
			stats.Updated++
		} else {
			stats.Created++
		}
		stats.Processed++
		log.V(1).Info("repository saved", "repository", r.FullName, "created", !found)

		if stats.Processed%progressEvery == 0 {
			log.Info("sync progress", "processed", stats.Processed)
		}
	}

	log.Info("repository sync completed",
		"processed", stats.Processed,
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// shouldSkip reports whether current already reflects the latest push of
// remote. A remote repository without a push time is always written.
func shouldSkip(remote *client.Repository, current *gitee.Repository, force bool) bool {
	if force || current == nil || remote.PushedAt == nil {
		return false
	}
	return !current.PushedAt.Before(*remote.PushedAt)
}
