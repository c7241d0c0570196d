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
	"context"
	"log/slog"
	"strings"
)

// taggableSuffix identifies files whose content format supports a
// front-matter block.
const taggableSuffix = ".md"

// ContentReader reads a file's content at a specific revision.
// Satisfied by *jj.Client.
type ContentReader interface {
	FileShow(ctx context.Context, path, revision string) ([]byte, error)
}

// TagResolver resolves the tag set of a path at a revision.
type TagResolver interface {
	// Tags returns the ordered tag list, or nil for non-taggable
	// paths, absent front matter, and recovered lookup failures. A
	// non-nil error is a process-level failure and fatal to the run.
	Tags(ctx context.Context, path, revision string) ([]string, error)
}

// Resolver reads front-matter tags through a ContentReader, memoizing
// every (path, revision) result for the lifetime of a run.
//
// # Description
//
// Non-taggable paths short-circuit to nil without touching the reader
// or the cache. Malformed front matter is a recovered warning: the
// offending path is logged, nil tags are returned, and the failure is
// NOT cached so a later run (or a repaired persistent cache) can retry.
// Reader process failures propagate as fatal.
//
// # Thread Safety
//
// Not safe for concurrent use when backed by a MemoryCache; the
// pipeline is single-flow.
type Resolver struct {
	reader ContentReader
	cache  TagCache
	logger *slog.Logger
}

var _ TagResolver = (*Resolver)(nil)

// NewResolver creates a resolver. cache and logger may not be nil; use
// NewMemoryCache() for a run-scoped cache.
func NewResolver(reader ContentReader, cache TagCache, logger *slog.Logger) *Resolver {
	return &Resolver{reader: reader, cache: cache, logger: logger}
}

// Tags implements TagResolver.
func (r *Resolver) Tags(ctx context.Context, path, revision string) ([]string, error) {
	if !strings.HasSuffix(path, taggableSuffix) {
		return nil, nil
	}

	if tags, ok := r.cache.Get(path, revision); ok {
		return tags, nil
	}

	content, err := r.reader.FileShow(ctx, path, revision)
	if err != nil {
		return nil, err
	}

	tags, err := ParseTags(content)
	if err != nil {
		r.logger.Warn("could not read tags", "path", path, "revision", revision, "error", err)
		return nil, nil
	}

	r.cache.Put(path, revision, tags)
	return tags, nil
}
