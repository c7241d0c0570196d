// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package timeline sequences the pipeline: parse the revision log,
// enrich each change with front-matter tags, derive virtual paths, and
// emit Gource records.
package timeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/wake/services/timeline/emit"
	"github.com/AleutianAI/wake/services/timeline/jj"
	"github.com/AleutianAI/wake/services/timeline/model"
	"github.com/AleutianAI/wake/services/timeline/parse"
	"github.com/AleutianAI/wake/services/timeline/strategy"
	"github.com/AleutianAI/wake/services/timeline/vault"
)

// LogSource streams raw revision-log text. Satisfied by *jj.Client.
type LogSource interface {
	LogStream(ctx context.Context, opts jj.LogOptions, consume func(io.Reader) error) error
}

// Pipeline owns the process-wide state of one run: the tag cache lives
// behind the resolver, the conflict-alternatives memory behind the
// strategy engine. Both persist across the whole ordered change stream
// and nowhere else.
//
// # Concurrency
//
// Single-threaded and synchronous. The only blocking calls are the two
// external ones (the log subprocess and per-file content reads), made
// one at a time. No locking is needed anywhere.
type Pipeline struct {
	source   LogSource
	resolver vault.TagResolver
	engine   *strategy.Engine
	emitter  *emit.Emitter
	logger   *slog.Logger
}

// NewPipeline wires the pipeline components together.
func NewPipeline(source LogSource, resolver vault.TagResolver, engine *strategy.Engine, emitter *emit.Emitter, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		resolver: resolver,
		engine:   engine,
		emitter:  emitter,
		logger:   logger,
	}
}

// Run executes one full conversion.
//
// # Description
//
// Changes are parsed in stream order (newest-first from jj), then
// processed strictly in ascending timestamp order; equal timestamps
// keep their original emission order so output stays deterministic.
// Each change is emitted as soon as it is derived, so a crash mid-run
// leaves a valid prefix of output.
//
// A change's "old" state is resolved at the immediately preceding
// change of the sorted stream. This assumes a linear history; with
// branching or concurrent histories the old-tag lookups can be wrong.
// Known limitation, deliberately not papered over.
//
// # Outputs
//
//   - int: Number of revisions processed.
//   - error: Fatal parse or subprocess error; output already written
//     remains valid.
func (p *Pipeline) Run(ctx context.Context, opts jj.LogOptions) (int, error) {
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)

	var changes []model.Change
	err := p.source.LogStream(ctx, opts, func(r io.Reader) error {
		var parseErr error
		changes, parseErr = parse.Read(r)
		return parseErr
	})
	if err != nil {
		return 0, err
	}
	log.Info("revision log parsed", "revset", opts.Revset, "revisions", len(changes))

	sortChronological(changes)

	prevChangeID := ""
	for i := range changes {
		change := &changes[i]
		if err := p.enrich(ctx, change, prevChangeID); err != nil {
			return i, err
		}
		paths := p.engine.Derive(change)
		if err := p.emitter.Emit(change, paths); err != nil {
			return i, err
		}
		prevChangeID = change.ID
	}

	log.Info("run complete", "strategy", p.engine.Strategy(), "revisions", len(changes))
	return len(changes), nil
}

// enrich fills a change's tag fields in place.
func (p *Pipeline) enrich(ctx context.Context, change *model.Change, prevChangeID string) error {
	for i := range change.FileChanges {
		fc := &change.FileChanges[i]
		if fc.OldPath != nil && prevChangeID != "" {
			tags, err := p.resolver.Tags(ctx, *fc.OldPath, prevChangeID)
			if err != nil {
				return fmt.Errorf("resolve old tags of %s: %w", *fc.OldPath, err)
			}
			fc.OldTags = tags
		}
		if fc.NewPath != nil {
			tags, err := p.resolver.Tags(ctx, *fc.NewPath, change.ID)
			if err != nil {
				return fmt.Errorf("resolve new tags of %s: %w", *fc.NewPath, err)
			}
			fc.NewTags = tags
		}
	}
	return nil
}

// sortChronological orders changes by ascending timestamp, breaking
// ties by original emission order.
func sortChronological(changes []model.Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		ti := parseTimestamp(changes[i].Timestamp)
		tj := parseTimestamp(changes[j].Timestamp)
		return ti.Before(tj)
	})
}

func parseTimestamp(ts string) time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		// Unparsable timestamps sort first but keep their relative
		// order under the stable sort.
		return time.Time{}
	}
	return t
}
