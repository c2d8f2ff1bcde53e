// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kraklabs/docsync/pkg/parser"
)

// Stage names one step of a pipeline run.
type Stage string

const (
	StageWorkspace      Stage = "workspace"
	StageRetrieve       Stage = "retrieve"
	StageSanitizeVCS    Stage = "sanitize_vcs"
	StageConfig         Stage = "config"
	StageSanitizeIgnore Stage = "sanitize_ignore"
	StageParse          Stage = "parse"
	StagePersist        Stage = "persist"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageWorkspace,
	StageRetrieve,
	StageSanitizeVCS,
	StageConfig,
	StageSanitizeIgnore,
	StageParse,
	StagePersist,
}

// Error kinds. Every failed run carries exactly one of them; match with
// errors.Is.
var (
	ErrWorkspace     = errors.New("workspace error")
	ErrRetrieval     = errors.New("retrieval error")
	ErrConfig        = errors.New("config error")
	ErrUnknownParser = parser.ErrUnknownParser
	ErrParse         = errors.New("parse error")
	ErrPersistence   = errors.New("persistence error")
	ErrCanceled      = errors.New("run canceled")
)

// Error is a stage failure. It unwraps to both its kind and its cause.
type Error struct {
	Kind  error
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// stageError classifies err as a failure of stage. Context cancellation wins
// over the stage's own kind so superseded and timed-out runs are reported
// as canceled.
func stageError(ctx context.Context, stage Stage, kind, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = ErrCanceled
	}
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the error kind carried by err, or nil.
func KindOf(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Outcome reports how a run ended. Stage and Err are set unless the run
// completed.
type Outcome struct {
	RunID  string
	Slug   string
	Status Status
	Stage  Stage
	Err    error

	VCSRemoved     int
	IgnoredRemoved int
	Compounds      int

	StartedAt time.Time
	Elapsed   time.Duration
}

// OK reports whether the run completed.
func (o *Outcome) OK() bool {
	return o.Status == StatusCompleted
}

// Kind returns the error kind of a failed run, or nil.
func (o *Outcome) Kind() error {
	return KindOf(o.Err)
}
