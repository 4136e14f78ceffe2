// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

// Cache is a two tier byte cache: an in-process LRU backed by an optional redis server. Values are lz4
// compressed before they are stored in either tier.
type Cache struct {
	local  *lru.Cache
	remote *redis.Client
	ttl    time.Duration
}

// NewCache creates a cache holding up to localSize entries in process. If redisURL is non-empty entries are
// also written to redis and expire after ttl.
func NewCache(localSize int, redisURL string, ttl time.Duration) (*Cache, error) {
	local, err := lru.New(localSize)
	if err != nil {
		log.Error().Err(err).Int("LocalSize", localSize).Msg("could not create LRU cache")
		return nil, err
	}

	c := &Cache{
		local: local,
		ttl:   ttl,
	}

	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return nil, err
		}
		c.remote = redis.NewClient(opt)
	}

	return c, nil
}

// NewCacheFromConfig creates a cache configured by the `cache.*` viper keys
func NewCacheFromConfig() (*Cache, error) {
	redisURL := ""
	if viper.GetBool("cache.redis") {
		redisURL = viper.GetString("cache.redis_url")
	}
	return NewCache(viper.GetInt("cache.local_size"), redisURL, time.Duration(viper.GetInt("cache.ttl"))*time.Second)
}

// Set stores val under key in every configured tier
func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	compressed, err := Compress(val)
	if err != nil {
		return err
	}
	c.local.Add(key, compressed)

	if c.remote != nil {
		return c.remote.Set(ctx, key, compressed, c.ttl).Err()
	}
	return nil
}

// Get returns the value stored under key. ErrCacheMiss is returned when neither tier holds the key. Values found
// only in redis are promoted to the local tier.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.local.Get(key); ok {
		return Decompress(v.([]byte))
	}

	if c.remote == nil {
		return nil, ErrCacheMiss
	}

	val, err := c.remote.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		log.Warn().Err(err).Str("Key", key).Msg("redis lookup failed")
		return nil, err
	}

	c.local.Add(key, val)
	return Decompress(val)
}

// Len returns the number of entries in the local tier
func (c *Cache) Len() int {
	return c.local.Len()
}

// Purge empties the local tier
func (c *Cache) Purge() {
	c.local.Purge()
}

// Close releases the redis connection if one is open
func (c *Cache) Close() error {
	if c.remote != nil {
		return c.remote.Close()
	}
	return nil
}

// CacheKey derives a 16-byte blake3 hash of the given parts, hex encoded. Parts are separated so that
// ("ab", "c") and ("a", "bc") produce different keys.
func CacheKey(parts ...string) (string, error) {
	h := blake3.New()

	for _, part := range parts {
		if _, err := h.Write([]byte(part)); err != nil {
			log.Error().Stack().Err(err).Msg("could not write key part to blake3 hasher")
			return "", err
		}
		if _, err := h.Write([]byte{0}); err != nil {
			return "", err
		}
	}

	digest := h.Digest()
	buf := make([]byte, 16)
	n, err := digest.Read(buf)
	if err != nil {
		return "", err
	}
	if n != 16 {
		return "", ErrGenerateHash
	}

	return hex.EncodeToString(buf), nil
}
