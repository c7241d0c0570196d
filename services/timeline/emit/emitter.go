// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package emit computes the add/modify/delete diff between a change's
// derived path sets and writes Gource custom-log records.
package emit

import (
	"fmt"
	"io"
	"sort"

	"github.com/AleutianAI/wake/services/timeline/model"
)

// EventType is the single-letter record type of a Gource custom-log
// line.
type EventType byte

const (
	EventAdded    EventType = 'A'
	EventModified EventType = 'M'
	EventDeleted  EventType = 'D'
)

// Record is one output line: timestamp|author|type|path.
type Record struct {
	Timestamp string
	Author    string
	Type      EventType
	Path      string
}

// String renders the record in the custom-log wire form.
func (r Record) String() string {
	return fmt.Sprintf("%s|%s|%c|%s", r.Timestamp, r.Author, r.Type, r.Path)
}

// Diff partitions old ∪ new into deleted, added, and modified.
//
// modified = new ∩ old, added = new − old, deleted = old − new. The
// three categories cover every path with no overlap.
func Diff(paths model.ChangePathSet) (deleted, added, modified []string) {
	for p := range paths.OldPaths {
		if paths.NewPaths.Contains(p) {
			modified = append(modified, p)
		} else {
			deleted = append(deleted, p)
		}
	}
	for p := range paths.NewPaths {
		if !paths.OldPaths.Contains(p) {
			added = append(added, p)
		}
	}
	return deleted, added, modified
}

// Emitter writes records to an output sink.
//
// # Description
//
// Records are written as soon as each change is derived (streaming, not
// buffered for the whole run), so a crash mid-run still yields a valid
// prefix of output. If the sink exposes a Flush method it is flushed
// after every record.
type Emitter struct {
	w io.Writer
}

type flusher interface {
	Flush() error
}

// NewEmitter creates an emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes the records for one change: deletions first, then adds,
// then modifications. Within a category paths are written in sorted
// order to keep output stable; consumers treat each category as a set.
func (e *Emitter) Emit(change *model.Change, paths model.ChangePathSet) error {
	deleted, added, modified := Diff(paths)
	sort.Strings(deleted)
	sort.Strings(added)
	sort.Strings(modified)

	for _, group := range []struct {
		typ   EventType
		paths []string
	}{
		{EventDeleted, deleted},
		{EventAdded, added},
		{EventModified, modified},
	} {
		for _, path := range group.paths {
			rec := Record{
				Timestamp: change.Timestamp,
				Author:    change.Author,
				Type:      group.typ,
				Path:      path,
			}
			if _, err := fmt.Fprintln(e.w, rec.String()); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
			if f, ok := e.w.(flusher); ok {
				if err := f.Flush(); err != nil {
					return fmt.Errorf("flush output: %w", err)
				}
			}
		}
	}
	return nil
}
