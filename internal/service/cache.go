package service

//
// cache.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is small thread safe cache with per entry expiration time and
// whole cache invalidation. Epoch guard in Put prevent storing values
// resolved before concurrent Clear.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]cacheEntry[V]
	ttl     time.Duration
	epoch   uint64
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		entries: make(map[K]cacheEntry[V]),
		ttl:     ttl,
	}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return *new(V), false
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)

		return *new(V), false
	}

	return entry.value, true
}

// Epoch return current cache generation; generation change on every Clear.
func (c *TTLCache[K, V]) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.epoch
}

// Put store value when cache generation did not change since epoch was
// read; stale values are dropped silently.
func (c *TTLCache[K, V]) Put(key K, value V, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return
	}

	c.entries[key] = cacheEntry[V]{value, time.Now().Add(c.ttl)}
}

// Clear drop all entries and start new generation.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]cacheEntry[V])
	c.epoch++
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
