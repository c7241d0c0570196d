// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vault

// TagCache memoizes tag lookups keyed exactly on (path, revision).
//
// A hit may carry nil tags: "looked up, no tags" is a valid cached
// result and must be distinguishable from "never looked up".
type TagCache interface {
	// Get returns the cached tags for (path, revision) and whether an
	// entry exists.
	Get(path, revision string) ([]string, bool)

	// Put stores the tags for (path, revision). tags may be nil.
	Put(path, revision string, tags []string)
}

// MemoryCache is a process-lifetime in-memory TagCache.
//
// Owned by the single pipeline flow; no locking.
type MemoryCache struct {
	entries map[string][]string
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]string)}
}

// Get implements TagCache.
func (c *MemoryCache) Get(path, revision string) ([]string, bool) {
	tags, ok := c.entries[cacheKey(path, revision)]
	return tags, ok
}

// Put implements TagCache.
func (c *MemoryCache) Put(path, revision string, tags []string) {
	c.entries[cacheKey(path, revision)] = tags
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	return len(c.entries)
}

func cacheKey(path, revision string) string {
	// Paths cannot contain NUL (rejected by validation), so it is a
	// safe separator.
	return revision + "\x00" + path
}

// LayeredCache backs an in-memory cache with a persistent one.
//
// Reads fill the memory layer; writes go to both. The persistent layer
// survives across runs, the memory layer keeps repeat lookups within a
// run off disk.
type LayeredCache struct {
	memory     *MemoryCache
	persistent TagCache
}

// NewLayeredCache combines the two layers. persistent may not be nil.
func NewLayeredCache(memory *MemoryCache, persistent TagCache) *LayeredCache {
	if memory == nil {
		memory = NewMemoryCache()
	}
	return &LayeredCache{memory: memory, persistent: persistent}
}

// Get implements TagCache.
func (c *LayeredCache) Get(path, revision string) ([]string, bool) {
	if tags, ok := c.memory.Get(path, revision); ok {
		return tags, true
	}
	if tags, ok := c.persistent.Get(path, revision); ok {
		c.memory.Put(path, revision, tags)
		return tags, true
	}
	return nil, false
}

// Put implements TagCache.
func (c *LayeredCache) Put(path, revision string, tags []string) {
	c.memory.Put(path, revision, tags)
	c.persistent.Put(path, revision, tags)
}
