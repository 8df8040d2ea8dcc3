// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"time"
)

// Type defines the type of storage backend.
type Type string

const (
	// TypeMemory uses in-memory storage (default).
	TypeMemory Type = "memory"

	// TypeRedis uses a Redis server or Sentinel deployment.
	TypeRedis Type = "redis"

	// DefaultCleanupInterval is how often expired state entries are purged.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultKeyPrefix namespaces every Redis key written by this service.
	DefaultKeyPrefix = "gitee:"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// Config configures the storage backend.
type Config struct {
	// Type specifies the storage backend type. Defaults to memory.
	Type Type `mapstructure:"type" yaml:"type"`

	// CleanupInterval controls the memory backend's expiry sweep.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval,omitempty"`

	// Redis is required when Type is redis.
	Redis RedisConfig `mapstructure:"redis" yaml:"redis,omitempty"`
}

// RedisConfig holds Redis connection configuration. Either Addr or Sentinel
// must be set.
type RedisConfig struct {
	// Addr is the host:port of a standalone Redis server.
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`

	// Sentinel enables failover through Redis Sentinel.
	Sentinel *SentinelConfig `mapstructure:"sentinel" yaml:"sentinel,omitempty"`

	// Username and Password configure ACL authentication. Both are optional.
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	DB int `mapstructure:"db" yaml:"db,omitempty"`

	// KeyPrefix is prepended to every key, e.g. "gitee:prod:".
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s).
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout,omitempty"`
}

// SentinelConfig contains Redis Sentinel configuration.
type SentinelConfig struct {
	MasterName    string   `mapstructure:"master_name" yaml:"master_name"`
	SentinelAddrs []string `mapstructure:"sentinel_addrs" yaml:"sentinel_addrs"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Type:            TypeMemory,
		CleanupInterval: DefaultCleanupInterval,
		Redis: RedisConfig{
			KeyPrefix: DefaultKeyPrefix,
		},
	}
}

// Validate checks that the configuration names a usable backend.
func (c *Config) Validate() error {
	switch c.Type {
	case "", TypeMemory:
		return nil
	case TypeRedis:
		return c.Redis.validate()
	default:
		return fmt.Errorf("unknown storage type %q (must be %q or %q)", c.Type, TypeMemory, TypeRedis)
	}
}

func (c *RedisConfig) validate() error {
	if c.Sentinel != nil {
		if c.Sentinel.MasterName == "" {
			return errors.New("sentinel master name is required")
		}
		if len(c.Sentinel.SentinelAddrs) == 0 {
			return errors.New("at least one sentinel address is required")
		}
	} else if c.Addr == "" {
		return errors.New("redis address or sentinel configuration is required")
	}
	if c.KeyPrefix == "" {
		return errors.New("key prefix is required")
	}
	return nil
}

func (c *RedisConfig) applyDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}
