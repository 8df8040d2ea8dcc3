// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tourze/gitee-oauth/pkg/gitee"
	"github.com/tourze/gitee-oauth/pkg/logger"
)

var _ Storage = (*MemoryStorage)(nil)

// timedEntry wraps a value with its expiry for TTL tracking.
type timedEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryStorage implements Storage with in-memory maps.
// It is safe for concurrent use and intended for single-instance
// deployments, development and tests. Records are copied on the way in and
// out, so callers never share memory with the store.
type MemoryStorage struct {
	mu sync.RWMutex

	// states maps cache key -> callback URL template.
	states map[string]*timedEntry[string]

	// tokens maps "user\x00application" -> token history in insertion order.
	tokens map[string][]*gitee.AccessToken

	// applications maps application ID -> Application.
	applications map[string]*gitee.Application

	// repositories maps "user\x00application" -> full name -> Repository.
	repositories map[string]map[string]*gitee.Repository

	now func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupDone     chan struct{}
	closeOnce       sync.Once
}

// MemoryStorageOption configures a MemoryStorage instance.
type MemoryStorageOption func(*MemoryStorage)

// WithCleanupInterval sets a custom cleanup interval.
func WithCleanupInterval(interval time.Duration) MemoryStorageOption {
	return func(s *MemoryStorage) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithMemoryClock overrides the clock used for TTL checks and creation times.
func WithMemoryClock(now func() time.Time) MemoryStorageOption {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

// NewMemoryStorage creates a new MemoryStorage and starts the background
// cleanup goroutine. Call Close to stop it.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	s := &MemoryStorage{
		states:          make(map[string]*timedEntry[string]),
		tokens:          make(map[string][]*gitee.AccessToken),
		applications:    make(map[string]*gitee.Application),
		repositories:    make(map[string]map[string]*gitee.Repository),
		now:             time.Now,
		cleanupInterval: DefaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Health is a no-op for in-memory storage since it is always available.
func (*MemoryStorage) Health(_ context.Context) error {
	return nil
}

// Close stops the background cleanup goroutine and waits for it to finish.
func (s *MemoryStorage) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
		<-s.cleanupDone
	})
	return nil
}

func (s *MemoryStorage) cleanupLoop() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired collects expired keys under the read lock and deletes them
// under the write lock to keep the write lock short.
func (s *MemoryStorage) cleanupExpired() {
	now := s.now()

	s.mu.RLock()
	var expired []string
	for k, v := range s.states {
		if now.After(v.expiresAt) {
			expired = append(expired, k)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	for _, k := range expired {
		// Re-check: the entry may have been replaced since the read phase.
		if e, ok := s.states[k]; ok && now.After(e.expiresAt) {
			delete(s.states, k)
		}
	}
	s.mu.Unlock()

	logger.Debugw("purged expired oauth states", "count", len(expired))
}

func pairKey(userID, applicationID string) string {
	return userID + "\x00" + applicationID
}

// -----------------------
// StateStore
// -----------------------

// SetState stores value under key for ttl.
func (s *MemoryStorage) SetState(_ context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("%w: state key cannot be empty", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = &timedEntry[string]{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

// GetState returns the live value stored under key.
func (s *MemoryStorage) GetState(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.states[key]
	if !ok || s.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

// DeleteState removes key.
func (s *MemoryStorage) DeleteState(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

// TakeState returns and removes the value under key while holding the write
// lock, so concurrent callers cannot both observe it.
func (s *MemoryStorage) TakeState(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[key]
	if !ok {
		return "", false, nil
	}
	delete(s.states, key)
	if s.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

// -----------------------
// TokenStore
// -----------------------

// SaveToken appends a copy of token to the history of its user and application.
func (s *MemoryStorage) SaveToken(_ context.Context, token *gitee.AccessToken) error {
	if err := prepareToken(token, s.now); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(token.UserID, token.ApplicationID)
	stored := token.Clone()
	// Only the application ID is persisted, as in every other backend.
	stored.Application = nil
	s.tokens[key] = append(s.tokens[key], stored)
	return nil
}

// FindLatestToken returns the newest token for the pair.
func (s *MemoryStorage) FindLatestToken(ctx context.Context, userID, applicationID string) (*gitee.AccessToken, error) {
	tokens, err := s.ListTokens(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no token for user %q", ErrNotFound, userID)
	}
	return tokens[0], nil
}

// ListTokens returns copies of the pair's tokens, newest first. Tokens with
// equal creation times are ordered by most recent insertion.
func (s *MemoryStorage) ListTokens(_ context.Context, userID, applicationID string) ([]*gitee.AccessToken, error) {
	s.mu.RLock()
	history := s.tokens[pairKey(userID, applicationID)]
	out := make([]*gitee.AccessToken, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i].Clone())
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *gitee.AccessToken) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// prepareToken validates a token and fills in its identity before it is stored.
func prepareToken(token *gitee.AccessToken, now func() time.Time) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", ErrInvalidRecord)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: access token cannot be empty", ErrInvalidRecord)
	}
	if token.ApplicationID == "" && token.Application != nil {
		token.ApplicationID = token.Application.ID
	}
	if token.ApplicationID == "" {
		return fmt.Errorf("%w: token must reference an application", ErrInvalidRecord)
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now()
	}
	return nil
}

// -----------------------
// ApplicationStore
// -----------------------

// SaveApplication creates or replaces an application.
func (s *MemoryStorage) SaveApplication(_ context.Context, app *gitee.Application) error {
	if err := prepareApplication(app, s.now); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.applications {
		if id != app.ID && existing.ClientID == app.ClientID {
			return fmt.Errorf("%w: client id %q is registered by application %s", ErrAlreadyExists, app.ClientID, id)
		}
	}
	if existing, ok := s.applications[app.ID]; ok {
		app.CreatedAt = existing.CreatedAt
	}
	s.applications[app.ID] = app.Clone()
	return nil
}

// GetApplication returns the application with the given ID.
func (s *MemoryStorage) GetApplication(_ context.Context, id string) (*gitee.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, fmt.Errorf("%w: application %q", ErrNotFound, id)
	}
	return app.Clone(), nil
}

// GetApplicationByClientID returns the application registered with clientID.
func (s *MemoryStorage) GetApplicationByClientID(_ context.Context, clientID string) (*gitee.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.applications {
		if app.ClientID == clientID {
			return app.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: application with client id %q", ErrNotFound, clientID)
}

// ListApplications returns all applications ordered by name, then ID.
func (s *MemoryStorage) ListApplications(_ context.Context) ([]*gitee.Application, error) {
	s.mu.RLock()
	out := make([]*gitee.Application, 0, len(s.applications))
	for _, app := range s.applications {
		out = append(out, app.Clone())
	}
	s.mu.RUnlock()

	sortApplications(out)
	return out, nil
}

// DeleteApplication removes an application. Its tokens are kept.
func (s *MemoryStorage) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[id]; !ok {
		return fmt.Errorf("%w: application %q", ErrNotFound, id)
	}
	delete(s.applications, id)
	return nil
}

func prepareApplication(app *gitee.Application, now func() time.Time) error {
	if err := app.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	ts := now()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = ts
	}
	app.UpdatedAt = ts
	return nil
}

func sortApplications(apps []*gitee.Application) {
	slices.SortFunc(apps, func(a, b *gitee.Application) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}

// -----------------------
// RepositoryStore
// -----------------------

// SaveRepository inserts or replaces a repository.
func (s *MemoryStorage) SaveRepository(_ context.Context, repo *gitee.Repository) error {
	if err := prepareRepository(repo, s.now); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(repo.UserID, repo.ApplicationID)
	byName, ok := s.repositories[key]
	if !ok {
		byName = make(map[string]*gitee.Repository)
		s.repositories[key] = byName
	}
	if existing, ok := byName[repo.FullName]; ok {
		repo.ID = existing.ID
		repo.CreatedAt = existing.CreatedAt
	}
	stored := *repo
	byName[repo.FullName] = &stored
	return nil
}

// GetRepository returns one repository by its unique key.
func (s *MemoryStorage) GetRepository(_ context.Context, userID, applicationID, fullName string) (*gitee.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	repo, ok := s.repositories[pairKey(userID, applicationID)][fullName]
	if !ok {
		return nil, fmt.Errorf("%w: repository %q", ErrNotFound, fullName)
	}
	out := *repo
	return &out, nil
}

// ListRepositories returns the pair's repositories ordered by full name.
func (s *MemoryStorage) ListRepositories(_ context.Context, userID, applicationID string) ([]*gitee.Repository, error) {
	s.mu.RLock()
	byName := s.repositories[pairKey(userID, applicationID)]
	out := make([]*gitee.Repository, 0, len(byName))
	for _, repo := range byName {
		r := *repo
		out = append(out, &r)
	}
	s.mu.RUnlock()

	sortRepositories(out)
	return out, nil
}

func prepareRepository(repo *gitee.Repository, now func() time.Time) error {
	if repo == nil {
		return fmt.Errorf("%w: repository cannot be nil", ErrInvalidRecord)
	}
	if repo.UserID == "" || repo.ApplicationID == "" || repo.FullName == "" {
		return fmt.Errorf("%w: repository needs user, application and full name", ErrInvalidRecord)
	}
	if repo.ID == "" {
		repo.ID = uuid.NewString()
	}
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = gitee.DefaultBranch
	}
	ts := now()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = ts
	}
	repo.UpdatedAt = ts
	return nil
}

func sortRepositories(repos []*gitee.Repository) {
	slices.SortFunc(repos, func(a, b *gitee.Repository) int {
		return cmp.Compare(a.FullName, b.FullName)
	})
}
