// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation guards the inputs that reach the jj subprocess.
package validation

import (
	"fmt"
	"strings"
)

// Limits for validated inputs.
const (
	// MaxPathLength bounds repository-relative file paths.
	MaxPathLength = 4096

	// MaxArgLength bounds a single subprocess argument.
	MaxArgLength = 8192
)

// InputValidator validates file paths and subprocess arguments before
// they are handed to the revision-control tool.
//
// # Description
//
// Paths come out of tool output and back into tool invocations, so the
// checks here are about not letting a hostile repository break out of
// its own working directory: path traversal (including URL-encoded
// variants), null bytes, and oversized inputs.
//
// # Thread Safety
//
// Stateless; safe for concurrent use.
type InputValidator struct{}

// NewInputValidator creates a validator with default limits.
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateFilePath checks a repository-relative file path.
//
// # Outputs
//
//   - error: Non-nil if the path is empty, too long, contains a null
//     byte, or contains a traversal sequence.
func (v *InputValidator) ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path is empty")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("file path exceeds %d bytes", MaxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("file path contains null byte")
	}
	if hasTraversal(path) {
		return fmt.Errorf("file path contains traversal sequence: %q", path)
	}
	return nil
}

// ValidateToolArgs checks a full subprocess argument list.
//
// # Description
//
// Arguments are passed to exec directly (no shell), so metacharacters
// cannot expand, but null bytes and embedded newlines would still
// corrupt the invocation and are rejected.
func (v *InputValidator) ValidateToolArgs(args []string) error {
	for i, arg := range args {
		if len(arg) > MaxArgLength {
			return fmt.Errorf("argument %d exceeds %d bytes", i, MaxArgLength)
		}
		if strings.ContainsRune(arg, 0) {
			return fmt.Errorf("argument %d contains null byte", i)
		}
		if strings.ContainsAny(arg, "\n\r") {
			return fmt.Errorf("argument %d contains newline", i)
		}
	}
	return nil
}

// hasTraversal reports whether the path contains a ".." segment, in
// plain, backslash, or URL-encoded form.
func hasTraversal(path string) bool {
	lowered := strings.ToLower(path)
	// Unfold single and double URL encoding of ".".
	for _, enc := range []string{"%252e", "%2e"} {
		lowered = strings.ReplaceAll(lowered, enc, ".")
	}
	normalized := strings.ReplaceAll(lowered, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
