// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package recommend

import (
	"fmt"
	"sync"
	"time"
)

// resultCache is a TTL cache for user recommendation results. Entries
// are keyed by user, limit, reason flag, and model version so a new
// model never serves stale lists.
type resultCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(userID, limit int, reasons bool, version int) string {
	return fmt.Sprintf("%d:%d:%t:%d", userID, limit, reasons, version)
}

func (c *resultCache) get(userID, limit int, reasons bool, version int) (*Result, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(userID, limit, reasons, version)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) put(userID, limit int, reasons bool, version int, result *Result) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic cleanup to bound memory between trainings.
	if len(c.entries) > 10000 {
		now := time.Now()
		for k, v := range c.entries {
			if now.After(v.expiresAt) {
				delete(c.entries, k)
			}
		}
	}

	c.entries[cacheKey(userID, limit, reasons, version)] = cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// purge drops all cached entries. Called after training publishes a
// new model version.
func (c *resultCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
