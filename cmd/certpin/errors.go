// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import "errors"

// Exit codes for the CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFetchFailed indicates a fetch or pinning check failed.
	ExitFetchFailed = 1

	// ExitConfigError indicates a configuration or input validation error.
	ExitConfigError = 2
)

// Sentinel errors for CLI operations.
var (
	// ErrInvalidInput is returned when required input parameters are missing or invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed is returned when a pinned fetch fails.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrFileOperation is returned when a file read or write operation fails.
	ErrFileOperation = errors.New("file operation failed")

	// ErrRecordGeneration is returned when a TLSA record cannot be built.
	ErrRecordGeneration = errors.New("record generation failed")
)

// exitCode maps an error to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrFileOperation):
		return ExitConfigError
	default:
		return ExitFetchFailed
	}
}
