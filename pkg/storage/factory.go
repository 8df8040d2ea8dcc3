// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"

	"github.com/tourze/gitee-oauth/pkg/logger"
)

// New creates the storage backend selected by cfg.
func New(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	switch cfg.Type {
	case TypeRedis:
		logger.Infow("using redis storage",
			"addr", cfg.Redis.Addr,
			"sentinel", cfg.Redis.Sentinel != nil,
			"key_prefix", cfg.Redis.KeyPrefix,
		)
		return NewRedisStorage(ctx, cfg.Redis)
	default:
		logger.Infow("using in-memory storage", "cleanup_interval", cfg.CleanupInterval)
		return NewMemoryStorage(WithCleanupInterval(cfg.CleanupInterval)), nil
	}
}
