// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the docsync CLI.
//
// This package defines UserError, a type that carries what went wrong, why
// it happened, and how to fix it, together with the exit code the CLI
// terminates with. FromOutcome maps a failed ingestion run onto a UserError
// so that every failing stage category has its own exit code.
//
// # Usage Example
//
//	out := pipeline.Run(ctx, event)
//	if uerr := errors.FromOutcome(out); uerr != nil {
//	    errors.FatalError(uerr, jsonMode)
//	}
//
// # Formatted Output
//
// Format renders colored terminal output:
//
//	Error: Cannot clone repository
//	Cause: retrieve: retrieval error: git clone https://example.com/x.git: repository not found
//	Fix:   Check repository.clone_url in the event and retriever.token in the config
//
// ToJSON returns the same information for --json mode:
//
//	{
//	  "error": "Cannot clone repository",
//	  "cause": "retrieve: retrieval error: ...",
//	  "fix": "Check repository.clone_url ...",
//	  "exit_code": 3
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): the run completed
//   - ExitConfig (1): service configuration or project descriptor errors
//   - ExitDatabase (2): snapshot storage errors
//   - ExitNetwork (3): the repository could not be cloned
//   - ExitInput (4): invalid arguments or push event
//   - ExitWorkspace (5): workspace allocation or sanitizing failed
//   - ExitParse (6): the project's parser failed
//   - ExitInternal (10): bugs
//   - ExitCanceled (130): the run was canceled or timed out
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kraklabs/docsync/pkg/ingestion"
)

// Exit codes for different error categories.
const (
	ExitSuccess   = 0
	ExitConfig    = 1
	ExitDatabase  = 2
	ExitNetwork   = 3
	ExitInput     = 4
	ExitWorkspace = 5
	ExitParse     = 6

	// ExitInternal signals "this is a bug that should be reported".
	ExitInternal = 10

	// ExitCanceled follows the shell convention for SIGINT.
	ExitCanceled = 130
)

// UserError represents an error with structured context for end users.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred.
	Cause string

	// Fix provides an actionable suggestion.
	Fix string

	// ExitCode is the process exit code for this error.
	ExitCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load docsync configuration",
//	    "runs.timeout is not a duration",
//	    "Use a value like 10m in docsync.yaml",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewDatabaseError creates a storage error with exit code ExitDatabase.
func NewDatabaseError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitDatabase, msg, cause, fix, err)
}

// NewNetworkError creates a network error with exit code ExitNetwork.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError creates an input validation error with exit code ExitInput.
// Input errors do not wrap an underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewInternalError creates an internal error with exit code ExitInternal.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// FromOutcome converts a failed or canceled run into a UserError. It returns
// nil for a completed run.
func FromOutcome(out *ingestion.Outcome) *UserError {
	if out == nil {
		return NewInternalError("Run produced no outcome", "", "This is a bug. Please report it", nil)
	}
	if out.OK() {
		return nil
	}

	cause := ""
	if out.Err != nil {
		cause = out.Err.Error()
	}

	switch kind := out.Kind(); {
	case out.Status == ingestion.StatusCanceled || kind == ingestion.ErrCanceled:
		return newUserError(ExitCanceled, "Run canceled", cause,
			"Increase runs.timeout if the repository is large", out.Err)
	case kind == ingestion.ErrWorkspace:
		return newUserError(ExitWorkspace, "Cannot prepare the workspace", cause,
			"Check that workspace_dir is writable and has free space", out.Err)
	case kind == ingestion.ErrRetrieval:
		return newUserError(ExitNetwork, "Cannot clone repository", cause,
			"Check repository.clone_url in the event and retriever.token in the config", out.Err)
	case kind == ingestion.ErrConfig:
		return newUserError(ExitConfig, "Invalid project descriptor", cause,
			"Add "+ingestion.ConfigFileName+" with summary, parser and ignore keys at the repository root", out.Err)
	case kind == ingestion.ErrUnknownParser:
		return newUserError(ExitConfig, "Unknown parser", cause,
			"Set parser in "+ingestion.ConfigFileName+" to one listed by 'docsync version'", out.Err)
	case kind == ingestion.ErrParse:
		return newUserError(ExitParse, "Parser failed", cause,
			"Run with --debug to see which file the parser stopped on", out.Err)
	case kind == ingestion.ErrPersistence:
		return newUserError(ExitDatabase, "Cannot save snapshot", cause,
			"Check that db.path is writable; the previous snapshot is unchanged", out.Err)
	default:
		return newUserError(ExitInternal, "Run failed", cause, "This is a bug. Please report it", out.Err)
	}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns the error for terminal display. Color is disabled by
// noColor or the NO_COLOR environment variable. Empty Cause or Fix lines
// are omitted.
//
// Format temporarily modifies the global color.NoColor state and restores
// it before returning.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// ErrorJSON represents error information in JSON format.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// Print writes err to w and returns the exit code it maps to. A UserError
// is rendered with Format or, in JSON mode, ToJSON; any other error is
// printed plainly and maps to ExitInternal.
func Print(w io.Writer, err error, jsonOutput bool) int {
	if err == nil {
		return ExitSuccess
	}

	var ue *UserError
	if !stderrors.As(err, &ue) {
		ue = &UserError{Message: err.Error(), ExitCode: ExitInternal}
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	} else {
		_, _ = fmt.Fprint(w, ue.Format(false))
	}
	return ue.ExitCode
}

// FatalError prints err to stderr and exits with its code. It does nothing
// for a nil error.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	os.Exit(Print(os.Stderr, err, jsonOutput))
}
