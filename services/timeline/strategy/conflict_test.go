// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package strategy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/wake/services/timeline/model"
)

func changeOf(fcs ...model.FileChange) *model.Change {
	return &model.Change{
		ID: "abc", Author: "alice", Timestamp: "2024-01-01T00:00:00Z",
		FileChanges: fcs,
	}
}

// TestConflictFree_SingleFileStaysCanonical verifies that while only
// one file maps to a canonical tag path, the bare tag.md form is
// emitted across any number of sequential changes.
func TestConflictFree_SingleFileStaysCanonical(t *testing.T) {
	engine := NewEngine(ConflictFree)

	paths := engine.Derive(changeOf(addWithTags("dir/note.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.NewPaths))
	assert.Empty(t, paths.OldPaths)

	for i := 0; i < 5; i++ {
		paths = engine.Derive(changeOf(modifyWithTags("dir/note.md", []string{"x"})))
		assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.NewPaths), "iteration %d", i)
		assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.OldPaths), "iteration %d", i)
	}
}

// TestConflictFree_SameChangeCollision verifies two files sharing a
// tag within one change both get the folder-qualified form.
func TestConflictFree_SameChangeCollision(t *testing.T) {
	engine := NewEngine(ConflictFree)

	paths := engine.Derive(changeOf(
		addWithTags("a/one.md", []string{"x"}),
		addWithTags("b/two.md", []string{"x"}),
	))
	assert.ElementsMatch(t, []string{"x/one.md", "x/two.md"}, pathsOf(paths.NewPaths))
	assert.NotContains(t, paths.NewPaths, "x.md")
}

// TestConflictFree_CrossChangeCollision verifies a later file sharing
// an earlier file's tag triggers disambiguation for both, and that the
// survivor reverts to the canonical form once the other is deleted.
func TestConflictFree_CrossChangeCollision(t *testing.T) {
	engine := NewEngine(ConflictFree)

	// First file owns the tag alone.
	paths := engine.Derive(changeOf(addWithTags("a/one.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.NewPaths))

	// Second file arrives with the same tag: now ambiguous.
	paths = engine.Derive(changeOf(addWithTags("b/two.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x/one.md", "x/two.md"}, pathsOf(paths.NewPaths))

	// Any touch while both are live stays folder-qualified.
	paths = engine.Derive(changeOf(modifyWithTags("a/one.md", []string{"x"})))
	assert.NotContains(t, paths.NewPaths, "x.md")

	// Delete one; the survivor's next change reverts to bare x.md.
	paths = engine.Derive(changeOf(deleteWithTags("a/one.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x/one.md", "x/two.md"}, pathsOf(paths.OldPaths))

	paths = engine.Derive(changeOf(modifyWithTags("b/two.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.NewPaths))
	assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.OldPaths))
}

// TestConflictFree_UntaggedFilesPassThrough verifies untagged paths
// are their own canonical with no alternatives.
func TestConflictFree_UntaggedFilesPassThrough(t *testing.T) {
	engine := NewEngine(ConflictFree)

	paths := engine.Derive(changeOf(model.NewModify("plain/file.md")))
	assert.ElementsMatch(t, []string{"plain/file.md"}, pathsOf(paths.NewPaths))
	assert.ElementsMatch(t, []string{"plain/file.md"}, pathsOf(paths.OldPaths))
}

// TestConflictFree_MemoryDropsDeletedCanonical verifies memory entries
// whose canonical path was deleted and not re-added are removed.
func TestConflictFree_MemoryDropsDeletedCanonical(t *testing.T) {
	engine := NewEngine(ConflictFree)
	mem := engine.memory

	engine.Derive(changeOf(addWithTags("a/one.md", []string{"x"})))
	require.Equal(t, 1, mem.Len())

	engine.Derive(changeOf(deleteWithTags("a/one.md", []string{"x"})))
	assert.Equal(t, 0, mem.Len())
}

// TestConflictFree_RenameReplacesAlternative verifies a rename swaps
// the remembered alternative instead of accumulating both basenames.
func TestConflictFree_RenameReplacesAlternative(t *testing.T) {
	engine := NewEngine(ConflictFree)

	engine.Derive(changeOf(addWithTags("a/old-name.md", []string{"x"})))

	// Rename: old side contributes x/old-name.md, new side x/new-name.md.
	fc := model.NewRename("a/old-name.md", "a/new-name.md")
	fc.OldTags = []string{"x"}
	fc.NewTags = []string{"x"}
	engine.Derive(changeOf(fc))

	snapshot := engine.memory.Snapshot()
	require.Contains(t, snapshot, "x.md")
	assert.ElementsMatch(t, []string{"x/new-name.md"}, snapshot["x.md"])

	// Still one alternative, so still canonical.
	paths := engine.Derive(changeOf(modifyWithTags("a/new-name.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x.md"}, pathsOf(paths.NewPaths))
}

// TestConflictFree_SeededMemory verifies the engine honors a
// pre-populated memory snapshot.
func TestConflictFree_SeededMemory(t *testing.T) {
	mem := NewConflictMemory()
	mem.Seed("x.md", "x/elsewhere.md")
	engine := NewEngineWithMemory(ConflictFree, mem)

	// A new file with the same tag collides with the seeded entry.
	paths := engine.Derive(changeOf(addWithTags("b/here.md", []string{"x"})))
	assert.ElementsMatch(t, []string{"x/elsewhere.md", "x/here.md"}, pathsOf(paths.NewPaths))
}

// TestConflictFree_DecisionDependsOnCountOnly verifies determinism: the
// same sequence always yields the same sets.
func TestConflictFree_DecisionDependsOnCountOnly(t *testing.T) {
	run := func() []string {
		engine := NewEngine(ConflictFree)
		engine.Derive(changeOf(
			addWithTags("a/one.md", []string{"x", "y"}),
			addWithTags("b/two.md", []string{"x"}),
		))
		paths := engine.Derive(changeOf(modifyWithTags("a/one.md", []string{"x", "y"})))
		return pathsOf(paths.NewPaths)
	}

	first := run()
	for i := 0; i < 10; i++ {
		assert.ElementsMatch(t, first, run(), fmt.Sprintf("run %d diverged", i))
	}
	// x is ambiguous (two files), y is not.
	assert.ElementsMatch(t, []string{"x/one.md", "x/two.md", "y.md"}, first)
}
