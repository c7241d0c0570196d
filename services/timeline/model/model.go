// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the passive data entities shared by the timeline
// pipeline: a single revision (Change), the per-file path transitions it
// contains (FileChange), and the derived virtual-path sets (ChangePathSet).
package model

// FileChange records one file-level transition within a revision.
//
// # Description
//
// Paths are pointers so that "absent" is distinguishable from "empty":
// an add has no old path, a delete has no new path. At least one side is
// always present; use the constructors to preserve that invariant.
//
// Tags are nil until enrichment has run, and stay nil when the
// corresponding path is absent, is not a taggable file, or the lookup
// failed.
type FileChange struct {
	OldPath *string
	NewPath *string
	OldTags []string
	NewTags []string
}

// NewAdd returns a FileChange for a newly created file.
func NewAdd(path string) FileChange {
	return FileChange{NewPath: &path}
}

// NewModify returns a FileChange for an in-place modification.
func NewModify(path string) FileChange {
	old := path
	new_ := path
	return FileChange{OldPath: &old, NewPath: &new_}
}

// NewDelete returns a FileChange for a removed file.
func NewDelete(path string) FileChange {
	return FileChange{OldPath: &path}
}

// NewRename returns a FileChange for a moved file.
func NewRename(oldPath, newPath string) FileChange {
	return FileChange{OldPath: &oldPath, NewPath: &newPath}
}

// Change is one atomic revision in the source history.
//
// # Description
//
// ID is the opaque change identifier from the revision-control tool.
// Timestamp is an ISO-8601 instant (YYYY-MM-DDTHH:MM:SSZ). FileChanges
// keeps the order the tool reported them in.
//
// # Lifecycle
//
// Created by the log parser when a header line is recognized, grown by
// appending FileChanges until the next header, tag-enriched in place by
// the pipeline, immutable afterwards.
type Change struct {
	ID          string
	Author      string
	Timestamp   string
	FileChanges []FileChange
}

// PathSet is a deduplicated, unordered collection of virtual paths for
// one side (old or new) of one change.
type PathSet map[string]struct{}

// NewPathSet returns a PathSet containing the given paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts a path into the set.
func (s PathSet) Add(path string) {
	s[path] = struct{}{}
}

// Contains reports whether the set holds path.
func (s PathSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// ChangePathSet holds the derived virtual paths for both sides of one
// change under a chosen derivation strategy.
type ChangePathSet struct {
	OldPaths PathSet
	NewPaths PathSet
}

// OldPairs returns the (path, tags) pairs for the old side of every file
// change, in file-change order. Absent paths are carried as nil so that
// strategies can tell "no old path" from "empty path".
func (c *Change) OldPairs() []PathTags {
	pairs := make([]PathTags, 0, len(c.FileChanges))
	for _, fc := range c.FileChanges {
		pairs = append(pairs, PathTags{Path: fc.OldPath, Tags: fc.OldTags})
	}
	return pairs
}

// NewPairs returns the (path, tags) pairs for the new side of every file
// change, in file-change order.
func (c *Change) NewPairs() []PathTags {
	pairs := make([]PathTags, 0, len(c.FileChanges))
	for _, fc := range c.FileChanges {
		pairs = append(pairs, PathTags{Path: fc.NewPath, Tags: fc.NewTags})
	}
	return pairs
}

// PathTags is one side of a FileChange as consumed by the derivation
// strategies.
type PathTags struct {
	Path *string
	Tags []string
}
