// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vault resolves the classification tags recorded in a note's
// YAML front matter at a given revision, with memoized lookups.
package vault

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// ParseTags extracts the `tags` key from a note's front-matter block.
//
// # Description
//
// A front-matter block is a leading "---" fence line, a YAML document,
// and a closing "---" (or "...") fence. Content without a block yields
// nil tags and no error. Each tag has any trailing "/" stripped.
//
// # Outputs
//
//   - []string: The ordered tag list, nil if the key is absent or the
//     file has no front matter.
//   - error: Non-nil if the block is unterminated or the YAML inside it
//     is malformed (a recoverable per-file condition for callers).
func ParseTags(content []byte) ([]string, error) {
	block, ok, err := frontMatterBlock(content)
	if err != nil || !ok {
		return nil, err
	}

	var meta struct {
		Tags []string `yaml:"tags"`
	}
	if err := yaml.Unmarshal(block, &meta); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	if meta.Tags == nil {
		return nil, nil
	}

	tags := make([]string, len(meta.Tags))
	for i, tag := range meta.Tags {
		tags[i] = strings.TrimRight(tag, "/")
	}
	return tags, nil
}

// frontMatterBlock returns the YAML document between the fences, or
// ok=false when the content has no front matter at all.
func frontMatterBlock(content []byte) (block []byte, ok bool, err error) {
	// Tolerate a UTF-8 BOM and leading blank lines before the fence.
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	lines := strings.Split(string(content), "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if trimmed == fence {
			start = i
		}
		break
	}
	if start < 0 {
		return nil, false, nil
	}

	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], "\r")
		if trimmed == fence || trimmed == "..." {
			return []byte(strings.Join(lines[start+1:i], "\n")), true, nil
		}
	}
	return nil, false, fmt.Errorf("parse front matter: unterminated block")
}
