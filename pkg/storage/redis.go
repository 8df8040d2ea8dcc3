// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tourze/gitee-oauth/pkg/gitee"
)

var _ Storage = (*RedisStorage)(nil)

// Key segments under the configured prefix.
const (
	keyTypeToken       = "token"
	keyTypeTokenIndex  = "tokens"
	keyTypeTokenSeq    = "token_seq"
	keyTypeApplication = "app"
	keyTypeClientIndex = "app_client"
	keyTypeAppIndex    = "apps"
	keyTypeRepos       = "repos"
)

// RedisStorage implements Storage on a Redis server or Sentinel deployment,
// so that OAuth state and tokens are shared between service instances.
//
// Tokens are stored as JSON documents with a per-(user, application) sorted
// set scored by creation time. Members carry a monotonically increasing
// sequence so that tokens created within the same microsecond still list
// newest first.
type RedisStorage struct {
	client    redis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

// RedisStorageOption configures a RedisStorage instance.
type RedisStorageOption func(*RedisStorage)

// WithRedisClock overrides the clock used for creation and update times.
func WithRedisClock(now func() time.Time) RedisStorageOption {
	return func(s *RedisStorage) {
		s.now = now
	}
}

// NewRedisStorage creates Redis-backed storage. A Sentinel configuration
// selects a failover client; otherwise a standalone client is used.
// Returns an error if the configuration is invalid or Redis is unreachable.
func NewRedisStorage(ctx context.Context, cfg RedisConfig, opts ...RedisStorageOption) (*RedisStorage, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid redis configuration: %w", err)
	}
	cfg.applyDefaults()

	var client redis.UniversalClient
	if cfg.Sentinel != nil {
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.Sentinel.MasterName,
			SentinelAddrs: cfg.Sentinel.SentinelAddrs,
			DB:            cfg.DB,
			Username:      cfg.Username,
			Password:      cfg.Password,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			DB:           cfg.DB,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStorageWithClient(client, cfg.KeyPrefix, opts...), nil
}

// NewRedisStorageWithClient creates a RedisStorage with a pre-configured client.
// This is useful for testing with miniredis.
func NewRedisStorageWithClient(client redis.UniversalClient, keyPrefix string, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the Redis client connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Health checks Redis connectivity.
func (s *RedisStorage) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// redisKey joins the prefix, a key type and escaped identifier segments.
func (s *RedisStorage) redisKey(keyType string, parts ...string) string {
	var b strings.Builder
	b.WriteString(s.keyPrefix)
	b.WriteString(keyType)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(p))
	}
	return b.String()
}

// -----------------------
// StateStore
// -----------------------

// SetState stores value under the prefixed key with a Redis expiry.
func (s *RedisStorage) SetState(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("%w: state key cannot be empty", ErrInvalidRecord)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state: %w", err)
	}
	return nil
}

// GetState returns the value stored under key.
func (s *RedisStorage) GetState(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get state: %w", err)
	}
	return value, true, nil
}

// DeleteState removes key.
func (s *RedisStorage) DeleteState(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// TakeState reads and deletes key with a single GETDEL.
func (s *RedisStorage) TakeState(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to take state: %w", err)
	}
	return value, true, nil
}

// -----------------------
// TokenStore
// -----------------------

// SaveToken writes the token document and indexes it in one transaction.
func (s *RedisStorage) SaveToken(ctx context.Context, token *gitee.AccessToken) error {
	if err := prepareToken(token, s.now); err != nil {
		return err
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	seq, err := s.client.Incr(ctx, s.redisKey(keyTypeTokenSeq)).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate token sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.redisKey(keyTypeToken, token.ID), data, 0)
	pipe.ZAdd(ctx, s.redisKey(keyTypeTokenIndex, token.UserID, token.ApplicationID), redis.Z{
		Score:  float64(token.CreatedAt.UnixMicro()),
		Member: tokenMember(seq, token.ID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// tokenMember encodes the insertion sequence in fixed-width hex so that
// members with equal scores sort by insertion under ZREVRANGE.
func tokenMember(seq int64, id string) string {
	return fmt.Sprintf("%016x/%s", seq, id)
}

func tokenIDFromMember(member string) string {
	_, id, _ := strings.Cut(member, "/")
	return id
}

// FindLatestToken returns the newest token for the pair.
func (s *RedisStorage) FindLatestToken(ctx context.Context, userID, applicationID string) (*gitee.AccessToken, error) {
	tokens, err := s.listTokens(ctx, userID, applicationID, 0)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no token for user %q", ErrNotFound, userID)
	}
	return tokens[0], nil
}

// ListTokens returns every token for the pair, newest first.
func (s *RedisStorage) ListTokens(ctx context.Context, userID, applicationID string) ([]*gitee.AccessToken, error) {
	return s.listTokens(ctx, userID, applicationID, -1)
}

func (s *RedisStorage) listTokens(ctx context.Context, userID, applicationID string, stop int64) ([]*gitee.AccessToken, error) {
	members, err := s.client.ZRevRange(ctx, s.redisKey(keyTypeTokenIndex, userID, applicationID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	if len(members) == 0 {
		return []*gitee.AccessToken{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.redisKey(keyTypeToken, tokenIDFromMember(m))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	tokens := make([]*gitee.AccessToken, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a document; skip rather than fail the listing.
			continue
		}
		var token gitee.AccessToken
		if err := json.Unmarshal([]byte(raw), &token); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token %s: %w", keys[i], err)
		}
		tokens = append(tokens, &token)
	}
	return tokens, nil
}

// -----------------------
// ApplicationStore
// -----------------------

// SaveApplication creates or replaces an application and maintains the
// client ID index.
func (s *RedisStorage) SaveApplication(ctx context.Context, app *gitee.Application) error {
	if err := prepareApplication(app, s.now); err != nil {
		return err
	}

	clientKey := s.redisKey(keyTypeClientIndex, app.ClientID)
	ownerID, err := s.client.Get(ctx, clientKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to check client id: %w", err)
	}
	if err == nil && ownerID != app.ID {
		return fmt.Errorf("%w: client id %q is registered by application %s", ErrAlreadyExists, app.ClientID, ownerID)
	}

	existing, err := s.GetApplication(ctx, app.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		app.CreatedAt = existing.CreatedAt
	}

	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal application: %w", err)
	}

	pipe := s.client.TxPipeline()
	if existing != nil && existing.ClientID != app.ClientID {
		pipe.Del(ctx, s.redisKey(keyTypeClientIndex, existing.ClientID))
	}
	pipe.Set(ctx, s.redisKey(keyTypeApplication, app.ID), data, 0)
	pipe.Set(ctx, clientKey, app.ID, 0)
	pipe.SAdd(ctx, s.redisKey(keyTypeAppIndex), app.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

// GetApplication returns the application with the given ID.
func (s *RedisStorage) GetApplication(ctx context.Context, id string) (*gitee.Application, error) {
	data, err := s.client.Get(ctx, s.redisKey(keyTypeApplication, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: application %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	var app gitee.Application
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("failed to unmarshal application: %w", err)
	}
	return &app, nil
}

// GetApplicationByClientID resolves the client ID index and loads the application.
func (s *RedisStorage) GetApplicationByClientID(ctx context.Context, clientID string) (*gitee.Application, error) {
	id, err := s.client.Get(ctx, s.redisKey(keyTypeClientIndex, clientID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: application with client id %q", ErrNotFound, clientID)
		}
		return nil, fmt.Errorf("failed to resolve client id: %w", err)
	}
	return s.GetApplication(ctx, id)
}

// ListApplications returns all applications ordered by name, then ID.
func (s *RedisStorage) ListApplications(ctx context.Context) ([]*gitee.Application, error) {
	ids, err := s.client.SMembers(ctx, s.redisKey(keyTypeAppIndex)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	apps := make([]*gitee.Application, 0, len(ids))
	for _, id := range ids {
		app, err := s.GetApplication(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	sortApplications(apps)
	return apps, nil
}

// DeleteApplication removes an application and its index entries.
func (s *RedisStorage) DeleteApplication(ctx context.Context, id string) error {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.redisKey(keyTypeApplication, id))
	pipe.Del(ctx, s.redisKey(keyTypeClientIndex, app.ClientID))
	pipe.SRem(ctx, s.redisKey(keyTypeAppIndex), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

// -----------------------
// RepositoryStore
// -----------------------

// SaveRepository upserts a repository into the pair's hash, keyed by full name.
func (s *RedisStorage) SaveRepository(ctx context.Context, repo *gitee.Repository) error {
	if err := prepareRepository(repo, s.now); err != nil {
		return err
	}

	existing, err := s.GetRepository(ctx, repo.UserID, repo.ApplicationID, repo.FullName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		repo.ID = existing.ID
		repo.CreatedAt = existing.CreatedAt
	}

	data, err := json.Marshal(repo)
	if err != nil {
		return fmt.Errorf("failed to marshal repository: %w", err)
	}

	key := s.redisKey(keyTypeRepos, repo.UserID, repo.ApplicationID)
	if err := s.client.HSet(ctx, key, repo.FullName, data).Err(); err != nil {
		return fmt.Errorf("failed to save repository: %w", err)
	}
	return nil
}

// GetRepository returns one repository by its unique key.
func (s *RedisStorage) GetRepository(ctx context.Context, userID, applicationID, fullName string) (*gitee.Repository, error) {
	data, err := s.client.HGet(ctx, s.redisKey(keyTypeRepos, userID, applicationID), fullName).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: repository %q", ErrNotFound, fullName)
		}
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}

	var repo gitee.Repository
	if err := json.Unmarshal(data, &repo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repository: %w", err)
	}
	return &repo, nil
}

// ListRepositories returns the pair's repositories ordered by full name.
func (s *RedisStorage) ListRepositories(ctx context.Context, userID, applicationID string) ([]*gitee.Repository, error) {
	values, err := s.client.HVals(ctx, s.redisKey(keyTypeRepos, userID, applicationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	repos := make([]*gitee.Repository, 0, len(values))
	for _, v := range values {
		var repo gitee.Repository
		if err := json.Unmarshal([]byte(v), &repo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal repository: %w", err)
		}
		repos = append(repos, &repo)
	}

	sortRepositories(repos)
	return repos, nil
}
