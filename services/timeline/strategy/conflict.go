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
	"github.com/AleutianAI/wake/services/timeline/model"
)

// ConflictMemory carries the tag→alternative associations of all paths
// still live in the visualization.
//
// # Description
//
// Under the conflict-free strategy every tagged file contributes, per
// tag, a canonical path "tag.md" and a folder-qualified alternative
// "tag/basename". While at most one alternative is associated with a
// canonical path the canonical form is emitted; as soon as two distinct
// files share it, all alternatives are emitted instead. The memory
// always reflects the currently implied alternative set, not a
// cumulative history: canonicals deleted and not re-added are dropped,
// and a modify replaces old-side alternatives with new-side ones.
//
// The disambiguation decision depends only on the count of distinct
// alternatives, so output is deterministic for a given accumulated
// state and input.
//
// # Thread Safety
//
// Not safe for concurrent use. Owned by the single pipeline flow.
type ConflictMemory struct {
	current map[string]model.PathSet
}

// NewConflictMemory returns an empty memory.
func NewConflictMemory() *ConflictMemory {
	return &ConflictMemory{current: make(map[string]model.PathSet)}
}

// Snapshot returns a deep copy of the canonical→alternatives map.
// Intended for tests and diagnostics.
func (m *ConflictMemory) Snapshot() map[string][]string {
	out := make(map[string][]string, len(m.current))
	for canonical, alts := range m.current {
		list := make([]string, 0, len(alts))
		for alt := range alts {
			list = append(list, alt)
		}
		out[canonical] = list
	}
	return out
}

// Seed associates a canonical path with alternatives, as if a prior
// change had introduced them. Intended for tests.
func (m *ConflictMemory) Seed(canonical string, alternatives ...string) {
	m.current[canonical] = model.NewPathSet(alternatives...)
}

// Len returns the number of canonical paths currently tracked.
func (m *ConflictMemory) Len() int {
	return len(m.current)
}

// Derive resolves both sides of one change and updates the memory.
//
// Must be called with changes in ascending timestamp order; the memory
// after the call reflects exactly the alternatives implied by all paths
// still live as of this change.
func (m *ConflictMemory) Derive(change *model.Change) model.ChangePathSet {
	oldAlts := pathAlternatives(change.OldPairs())
	newAlts := pathAlternatives(change.NewPairs())

	result := model.ChangePathSet{
		OldPaths: m.resolve(oldAlts),
		NewPaths: m.resolve(newAlts),
	}

	m.update(oldAlts, newAlts)
	return result
}

// pathAlternatives maps each canonical path implied by one side of a
// change to the alternatives it contributes. Untagged files are their
// own canonical with no alternative.
func pathAlternatives(pairs []model.PathTags) map[string]model.PathSet {
	alternatives := make(map[string]model.PathSet)
	for _, pair := range pairs {
		switch {
		case len(pair.Tags) > 0 && pair.Path != nil:
			for _, tag := range pair.Tags {
				canonical := tag + ".md"
				alternative := tag + "/" + basename(*pair.Path)
				if set, ok := alternatives[canonical]; ok {
					set.Add(alternative)
				} else {
					alternatives[canonical] = model.NewPathSet(alternative)
				}
			}
		case pair.Path != nil:
			alternatives[*pair.Path] = model.NewPathSet()
		}
	}
	return alternatives
}

// resolve picks, per canonical path, either the canonical form or all
// of its alternatives, depending on how many distinct alternatives this
// change and the carried-over memory imply together.
func (m *ConflictMemory) resolve(alts map[string]model.PathSet) model.PathSet {
	paths := model.NewPathSet()
	for canonical, changeAlts := range alts {
		all := model.NewPathSet()
		for alt := range changeAlts {
			all.Add(alt)
		}
		for alt := range m.current[canonical] {
			all.Add(alt)
		}

		if len(all) > 1 {
			for alt := range all {
				paths.Add(alt)
			}
		} else {
			paths.Add(canonical)
		}
	}
	return paths
}

// update folds one change's old/new alternative maps into the memory.
func (m *ConflictMemory) update(oldAlts, newAlts map[string]model.PathSet) {
	updated := make(map[string]model.PathSet, len(m.current))
	for canonical, remembered := range m.current {
		fromOld, inOld := oldAlts[canonical]
		fromNew, inNew := newAlts[canonical]
		switch {
		case inOld && !inNew:
			// Deleted this change; forget it.
		case inNew && !inOld:
			// Re-added; the new alternatives replace whatever was
			// remembered.
			updated[canonical] = copySet(fromNew)
		case inOld && inNew:
			// Modified; alternatives present only on the old side are
			// gone, the new side's apply now.
			merged := copySet(remembered)
			for alt := range fromOld {
				delete(merged, alt)
			}
			for alt := range fromNew {
				merged.Add(alt)
			}
			updated[canonical] = merged
		default:
			// Untouched by this change.
			updated[canonical] = copySet(remembered)
		}
	}
	for canonical, fromNew := range newAlts {
		if _, ok := updated[canonical]; !ok {
			updated[canonical] = copySet(fromNew)
		}
	}
	m.current = updated
}

func copySet(s model.PathSet) model.PathSet {
	out := make(model.PathSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
