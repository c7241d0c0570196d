// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jj wraps the Jujutsu command line for the two operations the
// pipeline needs: streaming the revision log and reading a file's
// content at a revision.
package jj

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/AleutianAI/wake/services/timeline/validation"
)

// CommandError wraps a jj invocation failure with stderr context.
//
// # Description
//
// Implements the error interface and supports unwrapping via
// errors.Is/As. A CommandError is fatal to the run: the external tool
// is a single-shot collaborator with no retries.
type CommandError struct {
	// Command is the jj subcommand that failed (e.g. "log").
	Command string

	// ExitCode is the process exit code (-1 if unknown).
	ExitCode int

	// Stderr contains the trimmed standard error output.
	Stderr string

	// Wrapped is the underlying error (may be nil).
	Wrapped error
}

// Error returns a formatted error message.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("jj %s (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("jj %s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("jj %s (exit %d)", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// LogOptions configures a revision-log stream.
type LogOptions struct {
	// Revset is the revision-range expression, passed opaquely to jj.
	Revset string

	// IgnoreWorkingCopy skips snapshotting the working copy.
	IgnoreWorkingCopy bool
}

// Client executes jj commands in a fixed repository directory.
//
// # Description
//
// All operations run `jj` with explicit arguments (no shell) in the
// configured directory, with a per-invocation timeout and stderr
// capture. Adapted invocation shape: oneline log template plus
// --summary for the change stream, `jj file show` for content reads.
//
// # Thread Safety
//
// Safe for concurrent use; the client holds no mutable state.
type Client struct {
	repoPath  string
	timeout   time.Duration
	validator *validation.InputValidator
}

// NewClient creates a jj client rooted at repoPath.
//
// # Inputs
//
//   - repoPath: Absolute path to the repository (the vault root).
//   - timeout: Maximum duration per jj invocation; <= 0 means 30s.
//
// # Outputs
//
//   - *Client: Ready-to-use client.
//   - error: Non-nil if repoPath is not absolute.
func NewClient(repoPath string, timeout time.Duration) (*Client, error) {
	if !filepath.IsAbs(repoPath) {
		return nil, fmt.Errorf("repoPath must be absolute: %s", repoPath)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		repoPath:  repoPath,
		timeout:   timeout,
		validator: validation.NewInputValidator(),
	}, nil
}

// LogStream starts a `jj log` subprocess and hands its stdout to
// consume.
//
// # Description
//
// The template is the tool's builtin oneline form plus --summary and
// --no-graph, which is the grammar the parse package understands. The
// consume callback reads the stream while the process runs; the process
// is waited on afterwards and a nonzero exit is returned as a
// *CommandError when consume succeeded. If consume itself fails, its
// error is returned as-is: the child is stopped and its remaining
// output discarded, never letting a full pipe stall the run or a
// provoked exit status mask the consumer's error.
//
// # Inputs
//
//   - ctx: Context for cancellation; a per-call timeout is layered on.
//   - opts: Revset and working-copy handling.
//   - consume: Reads the raw log stream. Must not retain the reader.
func (c *Client) LogStream(ctx context.Context, opts LogOptions, consume func(io.Reader) error) error {
	args := []string{
		"log",
		"-r", opts.Revset,
		"-T", "builtin_log_oneline",
		"--summary",
		"--no-graph",
	}
	if opts.IgnoreWorkingCopy {
		args = append(args, "--ignore-working-copy")
	}
	if err := c.validator.ValidateToolArgs(args); err != nil {
		return fmt.Errorf("invalid jj argument: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = c.repoPath

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("jj log: open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &CommandError{Command: "log", ExitCode: -1, Wrapped: err}
	}

	consumeErr := consume(stdout)
	if consumeErr != nil {
		// The consumer bailed mid-stream. Stop the child and drain its
		// stdout so Wait cannot stall on a full pipe; the consumer's
		// error is the authoritative one, not the kill it provoked.
		cancel()
		io.Copy(io.Discard, stdout)
		cmd.Wait()
		return consumeErr
	}

	if waitErr := cmd.Wait(); waitErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &CommandError{Command: "log", ExitCode: -1, Wrapped: fmt.Errorf("timeout after %v", c.timeout)}
		}
		return &CommandError{
			Command:  "log",
			ExitCode: exitCode(waitErr),
			Stderr:   strings.TrimSpace(stderr.String()),
			Wrapped:  waitErr,
		}
	}
	return nil
}

// FileShow returns a file's content at a specific revision.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - path: Repository-relative file path, validated before use.
//   - revision: Change id to read the file at.
//
// # Outputs
//
//   - []byte: Raw file content.
//   - error: *CommandError on process failure (fatal per the error
//     taxonomy), validation error on a bad path.
func (c *Client) FileShow(ctx context.Context, path, revision string) ([]byte, error) {
	if err := c.validator.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}
	args := []string{"file", "show", "-r", revision, path, "--ignore-working-copy"}
	if err := c.validator.ValidateToolArgs(args); err != nil {
		return nil, fmt.Errorf("invalid jj argument: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = c.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &CommandError{Command: "file show", ExitCode: -1, Wrapped: fmt.Errorf("timeout after %v", c.timeout)}
		}
		return nil, &CommandError{
			Command:  "file show",
			ExitCode: exitCode(err),
			Stderr:   strings.TrimSpace(stderr.String()),
			Wrapped:  err,
		}
	}
	return stdout.Bytes(), nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
