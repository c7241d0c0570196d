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

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds configuration for the persistent tag cache.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Required unless
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful
	// for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output. If nil,
	// BadgerDB's logging is disabled.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns production defaults for a cache at path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: false}
}

// InMemoryBadgerConfig returns a configuration for testing.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerCache is a persistent TagCache on BadgerDB.
//
// # Description
//
// Keys are "tags/<revision>/<path>"; revisions are immutable in jj, so
// entries never go stale and carry no TTL. The value encoding keeps nil
// tags (looked up, none found) distinct from present tags.
//
// Cache write failures are logged and swallowed: the cache is an
// optimization, not a source of truth.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type BadgerCache struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadgerCache opens (creating if needed) the persistent tag cache.
//
// The caller must Close() the cache when done.
func OpenBadgerCache(cfg BadgerConfig) (*BadgerCache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open tag cache: %w", err)
	}
	return &BadgerCache{db: db, logger: cfg.Logger}, nil
}

const badgerKeyPrefix = "tags/"

func badgerKey(path, revision string) []byte {
	return []byte(badgerKeyPrefix + revision + "/" + path)
}

// Value encoding: one flag byte, then newline-joined tags.
const (
	flagNoTags   = 0x00
	flagHasTags  = 0x01
	tagSeparator = "\n"
)

func encodeTags(tags []string) []byte {
	if tags == nil {
		return []byte{flagNoTags}
	}
	joined := strings.Join(tags, tagSeparator)
	buf := make([]byte, 0, 1+len(joined))
	buf = append(buf, flagHasTags)
	return append(buf, joined...)
}

func decodeTags(value []byte) []string {
	if len(value) == 0 || value[0] == flagNoTags {
		return nil
	}
	body := string(value[1:])
	if body == "" {
		return []string{}
	}
	return strings.Split(body, tagSeparator)
}

// Get implements TagCache.
func (c *BadgerCache) Get(path, revision string) ([]string, bool) {
	var tags []string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(path, revision))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tags = decodeTags(val)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) && c.logger != nil {
			c.logger.Warn("tag cache read failed", "path", path, "revision", revision, "error", err)
		}
		return nil, false
	}
	return tags, true
}

// Put implements TagCache.
func (c *BadgerCache) Put(path, revision string, tags []string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(path, revision), encodeTags(tags))
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("tag cache write failed", "path", path, "revision", revision, "error", err)
	}
}

// Stats describes the persistent cache's contents.
type Stats struct {
	// Entries is the number of cached (path, revision) results.
	Entries int

	// LSMBytes and VLogBytes are BadgerDB's on-disk sizes.
	LSMBytes  int64
	VLogBytes int64
}

// Stats counts entries and reports on-disk size.
func (c *BadgerCache) Stats() (Stats, error) {
	var s Stats
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			s.Entries++
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("scan tag cache: %w", err)
	}
	s.LSMBytes, s.VLogBytes = c.db.Size()
	return s, nil
}

// Clear drops every cached entry.
func (c *BadgerCache) Clear() error {
	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("clear tag cache: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
