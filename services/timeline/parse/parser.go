// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parse turns the oneline+summary output of `jj log` into typed
// Change records.
//
// The grammar is a contract with jj's builtin_log_oneline template plus
// the --summary flag; any change to that template is a compatibility
// break for this parser.
package parse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/AleutianAI/wake/services/timeline/model"
)

// headerRe matches a revision header: change id, author, date, time.
var headerRe = regexp.MustCompile(`^([a-z]+)\s+(\w+)\s+(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}:\d{2})`)

// braceRe matches jj's rename/copy path expression, e.g.
// "docs/{old => new}.md". The spacing around "=>" is template-dependent,
// so it is accepted with or without it.
var braceRe = regexp.MustCompile(`^(.*)\{(.+?)\s*=>\s*(.+?)\}(.*)$`)

// ParseError reports a structurally invalid line in the log stream.
//
// # Description
//
// Raised only for copy/rename lines whose brace expression does not
// match the expected grouped form. The expression's presence is implied
// by the operation code, so its absence is a protocol violation rather
// than a recoverable case. A ParseError aborts the run.
type ParseError struct {
	// Line is the offending input line, trimmed.
	Line string

	// Reason describes what failed to match.
	Reason string
}

// Error returns a formatted parse error message.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse revision log: %s: %q", e.Reason, e.Line)
}

// Parser is a stateful line scanner over a revision-log stream.
//
// # Description
//
// Feed lines via Line (or drive the whole stream with Read); call
// Finish at end of stream to seal a still-open change. Changes are
// returned in stream order, which for jj is newest-first. Downstream
// components re-sort by timestamp where chronological processing is
// required.
//
// # Thread Safety
//
// Not safe for concurrent use. One Parser per stream.
type Parser struct {
	changes []model.Change
	open    *model.Change
}

// NewParser returns an empty parser.
func NewParser() *Parser {
	return &Parser{}
}

// Read consumes an entire log stream and returns the parsed changes in
// stream order.
//
// # Outputs
//
//   - []model.Change: All sealed changes, including one sealed at EOF.
//   - error: A *ParseError for a malformed copy/rename line, or the
//     reader's error.
func Read(r io.Reader) ([]model.Change, error) {
	p := NewParser()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := p.Line(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read revision log: %w", err)
	}
	return p.Finish(), nil
}

// Line consumes a single line of log output.
//
// # Description
//
// A header line seals the currently open change and opens a new one.
// A file-change line appends to the open change; with no open change it
// is ignored. Blank lines are ignored everywhere. Unknown operation
// codes are dropped silently.
//
// # Outputs
//
//   - error: Non-nil only for a copy/rename line whose brace expression
//     fails to match (*ParseError, fatal).
func (p *Parser) Line(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if m := headerRe.FindStringSubmatch(line); m != nil {
		p.seal()
		p.open = &model.Change{
			ID:        m[1],
			Author:    m[2],
			Timestamp: m[3] + "T" + m[4] + "Z",
		}
		return nil
	}

	if p.open == nil {
		return nil
	}
	if len(line) < 3 || line[1] != ' ' {
		return nil
	}

	op := line[0]
	expr := line[2:]

	switch op {
	case 'A':
		p.append(model.NewAdd(expr))
	case 'M':
		p.append(model.NewModify(expr))
	case 'D':
		p.append(model.NewDelete(expr))
	case 'C':
		_, newPath, err := splitRename(expr)
		if err != nil {
			return err
		}
		// The copy source is deliberately discarded; only the
		// destination is tracked.
		p.append(model.NewAdd(newPath))
	case 'R':
		oldPath, newPath, err := splitRename(expr)
		if err != nil {
			return err
		}
		p.append(model.NewRename(oldPath, newPath))
	}
	return nil
}

// Finish seals any open change and returns all parsed changes in stream
// order. The parser is reusable afterwards.
func (p *Parser) Finish() []model.Change {
	p.seal()
	out := p.changes
	p.changes = nil
	return out
}

func (p *Parser) seal() {
	if p.open != nil {
		p.changes = append(p.changes, *p.open)
		p.open = nil
	}
}

func (p *Parser) append(fc model.FileChange) {
	p.open.FileChanges = append(p.open.FileChanges, fc)
}

// splitRename expands "prefix{old => new}suffix" into its old and new
// full paths.
func splitRename(expr string) (oldPath, newPath string, err error) {
	m := braceRe.FindStringSubmatch(expr)
	if m == nil {
		return "", "", &ParseError{Line: expr, Reason: "rename expression does not match {old => new} form"}
	}
	prefix, oldPart, newPart, suffix := m[1], m[2], m[3], m[4]
	return prefix + oldPart + suffix, prefix + newPart + suffix, nil
}
