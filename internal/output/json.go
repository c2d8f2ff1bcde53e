// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output provides JSON encoding for machine-readable docsync output.
//
// The CLI uses it for --json mode and the webhook uses it for response
// bodies, so both surfaces share one wire shape for run outcomes and
// errors.
//
// # Usage
//
//	out := pipeline.Run(ctx, event)
//	if err := output.JSONTo(os.Stdout, output.FromOutcome(out)); err != nil {
//	    errors.FatalError(err, true)
//	}
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kraklabs/docsync/pkg/ingestion"
)

// JSONTo writes data as pretty-printed JSON with 2-space indentation.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONCompactTo writes data as single-line JSON.
func JSONCompactTo(w io.Writer, data any) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// ErrorJSON represents an error in JSON format for machine consumption.
type ErrorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSONErrorTo writes err as a compact ErrorJSON object. code is a short
// machine-readable category and may be empty.
func JSONErrorTo(w io.Writer, err error, code string) error {
	if encErr := JSONCompactTo(w, ErrorJSON{Error: err.Error(), Code: code}); encErr != nil {
		return fmt.Errorf("JSON error encoding failed: %w", encErr)
	}
	return nil
}

// OutcomeJSON is the wire form of a run outcome.
type OutcomeJSON struct {
	RunID          string    `json:"run_id"`
	Slug           string    `json:"slug"`
	Status         string    `json:"status"`
	Stage          string    `json:"stage,omitempty"`
	Kind           string    `json:"kind,omitempty"`
	Error          string    `json:"error,omitempty"`
	VCSRemoved     int       `json:"vcs_removed"`
	IgnoredRemoved int       `json:"ignored_removed"`
	Compounds      int       `json:"compounds"`
	StartedAt      time.Time `json:"started_at"`
	ElapsedMS      int64     `json:"elapsed_ms"`
}

// FromOutcome converts a run outcome to its wire form.
func FromOutcome(out *ingestion.Outcome) OutcomeJSON {
	o := OutcomeJSON{
		RunID:          out.RunID,
		Slug:           out.Slug,
		Status:         string(out.Status),
		VCSRemoved:     out.VCSRemoved,
		IgnoredRemoved: out.IgnoredRemoved,
		Compounds:      out.Compounds,
		StartedAt:      out.StartedAt.UTC(),
		ElapsedMS:      out.Elapsed.Milliseconds(),
	}
	if !out.OK() {
		o.Stage = string(out.Stage)
		if kind := out.Kind(); kind != nil {
			o.Kind = kind.Error()
		}
		if out.Err != nil {
			o.Error = out.Err.Error()
		}
	}
	return o
}
