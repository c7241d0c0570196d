// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRead_AllOperations verifies one change with every operation code.
func TestRead_AllOperations(t *testing.T) {
	log := strings.Join([]string{
		"qkxzlmno alice 2024-03-01 10:15:00 first draft",
		"A notes/new.md",
		"M notes/edited.md",
		"D notes/gone.md",
		"C assets/{img.png => img-copy.png}",
		"R docs/{old => new}.md",
	}, "\n")

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 1)

	change := changes[0]
	assert.Equal(t, "qkxzlmno", change.ID)
	assert.Equal(t, "alice", change.Author)
	assert.Equal(t, "2024-03-01T10:15:00Z", change.Timestamp)
	require.Len(t, change.FileChanges, 5)

	add := change.FileChanges[0]
	assert.Nil(t, add.OldPath)
	require.NotNil(t, add.NewPath)
	assert.Equal(t, "notes/new.md", *add.NewPath)

	mod := change.FileChanges[1]
	require.NotNil(t, mod.OldPath)
	require.NotNil(t, mod.NewPath)
	assert.Equal(t, "notes/edited.md", *mod.OldPath)
	assert.Equal(t, "notes/edited.md", *mod.NewPath)

	del := change.FileChanges[2]
	require.NotNil(t, del.OldPath)
	assert.Equal(t, "notes/gone.md", *del.OldPath)
	assert.Nil(t, del.NewPath)

	// Copy keeps only the destination; the source is discarded.
	cp := change.FileChanges[3]
	assert.Nil(t, cp.OldPath)
	require.NotNil(t, cp.NewPath)
	assert.Equal(t, "assets/img-copy.png", *cp.NewPath)

	ren := change.FileChanges[4]
	require.NotNil(t, ren.OldPath)
	require.NotNil(t, ren.NewPath)
	assert.Equal(t, "docs/old.md", *ren.OldPath)
	assert.Equal(t, "docs/new.md", *ren.NewPath)
}

// TestRead_RenameWithoutSpaces verifies the brace expression matches
// with no spacing around the arrow.
func TestRead_RenameWithoutSpaces(t *testing.T) {
	log := "abc bob 2024-01-01 00:00:00\nR docs/{old=>new}.md\n"

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Len(t, changes[0].FileChanges, 1)

	fc := changes[0].FileChanges[0]
	assert.Equal(t, "docs/old.md", *fc.OldPath)
	assert.Equal(t, "docs/new.md", *fc.NewPath)
}

// TestRead_MalformedRenameIsFatal verifies a rename line without a
// valid brace expression aborts parsing.
func TestRead_MalformedRenameIsFatal(t *testing.T) {
	for _, line := range []string{
		"R docs/plain-path.md",
		"C not-a-brace-expr",
		"R docs/{broken",
	} {
		t.Run(line, func(t *testing.T) {
			log := "abc bob 2024-01-01 00:00:00\n" + line + "\n"
			_, err := Read(strings.NewReader(log))
			require.Error(t, err)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "want *ParseError, got %T", err)
		})
	}
}

// TestRead_UnknownOperationIgnored verifies unknown codes are dropped
// without error.
func TestRead_UnknownOperationIgnored(t *testing.T) {
	log := strings.Join([]string{
		"abc bob 2024-01-01 00:00:00",
		"X strange/line.md",
		"Z another",
		"A kept.md",
	}, "\n")

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Len(t, changes[0].FileChanges, 1)
	assert.Equal(t, "kept.md", *changes[0].FileChanges[0].NewPath)
}

// TestRead_OrphanFileLineIgnored verifies file lines before any header
// are dropped.
func TestRead_OrphanFileLineIgnored(t *testing.T) {
	log := strings.Join([]string{
		"A orphan.md",
		"abc bob 2024-01-01 00:00:00",
		"A kept.md",
	}, "\n")

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Len(t, changes[0].FileChanges, 1)
}

// TestRead_BlankLinesIgnored verifies blank lines anywhere are skipped.
func TestRead_BlankLinesIgnored(t *testing.T) {
	log := "\n\nabc bob 2024-01-01 00:00:00\n\nA one.md\n\nM two.md\n\n"

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Len(t, changes[0].FileChanges, 2)
}

// TestRead_FinalChangeSealedAtEOF verifies a change still open at end
// of stream is emitted.
func TestRead_FinalChangeSealedAtEOF(t *testing.T) {
	log := strings.Join([]string{
		"bbb bob 2024-01-02 00:00:00",
		"A later.md",
		"aaa alice 2024-01-01 00:00:00",
		"A earlier.md",
	}, "\n")

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "aaa", changes[1].ID)
	assert.Len(t, changes[1].FileChanges, 1)
}

// TestRead_PreservesStreamOrder verifies output stays in source order
// (newest-first from jj), not chronological order.
func TestRead_PreservesStreamOrder(t *testing.T) {
	log := strings.Join([]string{
		"ccc carol 2024-06-01 09:00:00",
		"bbb bob 2024-01-15 12:00:00",
		"aaa alice 2023-12-01 08:30:00",
	}, "\n")

	changes, err := Read(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, []string{"ccc", "bbb", "aaa"},
		[]string{changes[0].ID, changes[1].ID, changes[2].ID})
}

// TestParser_HeaderWithTrailingDescription verifies the header match
// anchors on the prefix and tolerates the oneline description.
func TestParser_HeaderWithTrailingDescription(t *testing.T) {
	p := NewParser()
	require.NoError(t, p.Line("xyzw dave 2024-05-05 17:45:12 fix the intro section"))
	changes := p.Finish()
	require.Len(t, changes, 1)
	assert.Equal(t, "xyzw", changes[0].ID)
	assert.Equal(t, "dave", changes[0].Author)
	assert.Equal(t, "2024-05-05T17:45:12Z", changes[0].Timestamp)
}

// TestParser_FinishIsReusable verifies Finish resets parser state.
func TestParser_FinishIsReusable(t *testing.T) {
	p := NewParser()
	require.NoError(t, p.Line("abc bob 2024-01-01 00:00:00"))
	require.Len(t, p.Finish(), 1)
	assert.Empty(t, p.Finish())
}
