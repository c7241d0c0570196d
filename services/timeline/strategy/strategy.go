// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package strategy derives the virtual path sets a change occupies in
// the visualization.
//
// Three strategies are pure functions over one side of a change at a
// time. The fourth, conflict-free, needs both sides of the same change
// together plus memory carried across the whole ordered stream; it is
// dispatched through the same Derive entry point but holds state in a
// ConflictMemory owned by the caller.
package strategy

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/wake/services/timeline/model"
)

// Strategy selects how file paths and tags map to virtual paths.
type Strategy string

const (
	// TagsAndFilename emits tag-qualified basenames: "tag/basename".
	// Untagged files keep their real path. The default.
	TagsAndFilename Strategy = "both"

	// TagsOnly collapses each tag to a single node: "tag.md".
	TagsOnly Strategy = "tags"

	// FilepathOnly ignores tags and emits real repository paths.
	FilepathOnly Strategy = "file"

	// ConflictFree emits "tag.md" while unambiguous and falls back to
	// the folder-qualified "tag/basename" form once two distinct files
	// share a tag. Stateful across the change stream.
	ConflictFree Strategy = "conflict-free"
)

// All lists the strategies in the order they should be presented.
func All() []Strategy {
	return []Strategy{TagsAndFilename, TagsOnly, FilepathOnly, ConflictFree}
}

// Parse converts a user-supplied strategy name.
func Parse(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case TagsAndFilename:
		return TagsAndFilename, nil
	case TagsOnly:
		return TagsOnly, nil
	case FilepathOnly:
		return FilepathOnly, nil
	case ConflictFree:
		return ConflictFree, nil
	default:
		return "", fmt.Errorf("unknown path strategy %q (want one of %v)", s, All())
	}
}

// Description returns a one-line summary for help output.
func (s Strategy) Description() string {
	switch s {
	case TagsAndFilename:
		return "group files under their tags, keeping filenames (tag/note.md)"
	case TagsOnly:
		return "collapse every tagged file into one node per tag (tag.md)"
	case FilepathOnly:
		return "use real repository paths, ignoring tags"
	case ConflictFree:
		return "one node per tag until two files collide, then split by filename"
	default:
		return "unknown"
	}
}

// Stateful reports whether the strategy carries memory across changes.
func (s Strategy) Stateful() bool {
	return s == ConflictFree
}

// Engine derives virtual path sets for a stream of changes.
//
// # Description
//
// One Engine serves one chronological run. For the stateless strategies
// it is a thin dispatcher; for ConflictFree it owns the ConflictMemory
// that must persist across the whole ordered stream, so changes must be
// fed in ascending timestamp order.
//
// # Thread Safety
//
// Not safe for concurrent use.
type Engine struct {
	strategy Strategy
	memory   *ConflictMemory
}

// NewEngine creates an engine for the given strategy with fresh state.
func NewEngine(s Strategy) *Engine {
	return &Engine{strategy: s, memory: NewConflictMemory()}
}

// NewEngineWithMemory creates a ConflictFree engine seeded with an
// existing memory snapshot. Intended for tests.
func NewEngineWithMemory(s Strategy, mem *ConflictMemory) *Engine {
	if mem == nil {
		mem = NewConflictMemory()
	}
	return &Engine{strategy: s, memory: mem}
}

// Strategy returns the engine's configured strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Derive computes the old and new virtual path sets for one change.
//
// Both sides are derived with the same strategy. The stateless
// strategies see one side at a time; ConflictFree sees the paired sides
// together and updates the engine's memory as a side effect.
func (e *Engine) Derive(change *model.Change) model.ChangePathSet {
	switch e.strategy {
	case TagsAndFilename:
		return model.ChangePathSet{
			OldPaths: tagsAndFilenamePaths(change.OldPairs()),
			NewPaths: tagsAndFilenamePaths(change.NewPairs()),
		}
	case TagsOnly:
		return model.ChangePathSet{
			OldPaths: tagsOnlyPaths(change.OldPairs()),
			NewPaths: tagsOnlyPaths(change.NewPairs()),
		}
	case FilepathOnly:
		return model.ChangePathSet{
			OldPaths: filepathOnlyPaths(change.OldPairs()),
			NewPaths: filepathOnlyPaths(change.NewPairs()),
		}
	case ConflictFree:
		return e.memory.Derive(change)
	default:
		return model.ChangePathSet{OldPaths: model.NewPathSet(), NewPaths: model.NewPathSet()}
	}
}

// basename returns the substring after the last "/".
func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// tagsAndFilenamePaths emits one "tag/basename" path per tag, or the
// real path for untagged files.
func tagsAndFilenamePaths(pairs []model.PathTags) model.PathSet {
	paths := model.NewPathSet()
	for _, pair := range pairs {
		switch {
		case len(pair.Tags) > 0:
			for _, tag := range pair.Tags {
				paths.Add(tag + "/" + basename(*pair.Path))
			}
		case pair.Path != nil:
			paths.Add(*pair.Path)
		}
	}
	return paths
}

// tagsOnlyPaths emits one "tag.md" path per tag, or the real path for
// untagged files.
func tagsOnlyPaths(pairs []model.PathTags) model.PathSet {
	paths := model.NewPathSet()
	for _, pair := range pairs {
		switch {
		case len(pair.Tags) > 0:
			for _, tag := range pair.Tags {
				paths.Add(tag + ".md")
			}
		case pair.Path != nil:
			paths.Add(*pair.Path)
		}
	}
	return paths
}

// filepathOnlyPaths emits the real path of every present side.
func filepathOnlyPaths(pairs []model.PathTags) model.PathSet {
	paths := model.NewPathSet()
	for _, pair := range pairs {
		if pair.Path != nil {
			paths.Add(*pair.Path)
		}
	}
	return paths
}
