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
	"log/slog"
	"time"

	"github.com/kraklabs/docsync/pkg/model"
)

// Store persists one project snapshot. Implementations must replace the
// project's compounds atomically: readers see either the old or the new set.
type Store interface {
	SaveSnapshot(ctx context.Context, project model.Project, compounds []model.Compound) error
}

// Dispatcher runs the parser named by the project descriptor over a tree.
// parser.Registry implements it.
type Dispatcher interface {
	Parse(ctx context.Context, root, parserID string) ([]model.Compound, error)
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Workspaces *WorkspaceManager
	Retriever  Retriever
	Sanitizer  *Sanitizer
	Parsers    Dispatcher
	Store      Store

	// VCSPatterns is the first sanitizer pass. Defaults to DefaultVCSPatterns.
	VCSPatterns []string

	// OnStage, when set, is called as each stage starts.
	OnStage func(Stage)
}

// Pipeline runs one push event through every ingestion stage.
type Pipeline struct {
	workspaces  *WorkspaceManager
	retriever   Retriever
	sanitizer   *Sanitizer
	parsers     Dispatcher
	store       Store
	vcsPatterns []string
	onStage     func(Stage)
	logger      *slog.Logger
}

// NewPipeline validates cfg and creates a pipeline.
func NewPipeline(cfg PipelineConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case cfg.Workspaces == nil:
		return nil, fmt.Errorf("pipeline: workspace manager is required")
	case cfg.Retriever == nil:
		return nil, fmt.Errorf("pipeline: retriever is required")
	case cfg.Parsers == nil:
		return nil, fmt.Errorf("pipeline: parser dispatcher is required")
	case cfg.Store == nil:
		return nil, fmt.Errorf("pipeline: store is required")
	}
	if cfg.Sanitizer == nil {
		cfg.Sanitizer = NewSanitizer(logger)
	}
	if cfg.VCSPatterns == nil {
		cfg.VCSPatterns = DefaultVCSPatterns
	}
	return &Pipeline{
		workspaces:  cfg.Workspaces,
		retriever:   cfg.Retriever,
		sanitizer:   cfg.Sanitizer,
		parsers:     cfg.Parsers,
		store:       cfg.Store,
		vcsPatterns: cfg.VCSPatterns,
		onStage:     cfg.OnStage,
		logger:      logger,
	}, nil
}

// Run executes the stages in order and stops at the first failure. It never
// panics and never returns nil; the workspace is released on every path.
//
// Nothing is persisted unless every earlier stage succeeded.
func (p *Pipeline) Run(ctx context.Context, event model.PushEvent) *Outcome {
	out := &Outcome{
		RunID:     NewRunID(),
		Slug:      event.Slug,
		StartedAt: time.Now(),
	}
	logger := p.logger.With("run_id", out.RunID, "slug", event.Slug)

	logger.Info("pipeline.run.start",
		"destination_type", event.Destination.Type,
		"destination", event.Destination.Name,
		"repository", event.Repository.Name,
		"url", redactURL(event.Repository.CloneURL),
	)

	defer func() {
		out.Elapsed = time.Since(out.StartedAt)
		p.finish(logger, out)
	}()

	if err := event.Validate(); err != nil {
		out.fail(&Error{Kind: ErrRetrieval, Stage: StageRetrieve, Err: err})
		return out
	}

	// Step 1: allocate a run-exclusive workspace
	var ws Workspace
	if err := p.stage(ctx, logger, StageWorkspace, ErrWorkspace, func() error {
		var err error
		ws, err = p.workspaces.Create(event.Repository.Name, out.RunID)
		return err
	}); err != nil {
		out.fail(err)
		return out
	}
	defer p.workspaces.Release(ws)

	// Step 2: clone
	var repoPath string
	if err := p.stage(ctx, logger, StageRetrieve, ErrRetrieval, func() error {
		var err error
		repoPath, err = p.retriever.Clone(ctx, event.Repository.CloneURL, ws.RepoPath)
		return err
	}); err != nil {
		out.fail(err)
		return out
	}

	// Step 3: drop VCS metadata, keeping the descriptor
	if err := p.stage(ctx, logger, StageSanitizeVCS, ErrWorkspace, func() error {
		n, err := p.sanitizer.Clean(ctx, repoPath, p.vcsPatterns, ConfigFileName)
		out.VCSRemoved = n
		recordSanitized("vcs", n)
		return err
	}); err != nil {
		out.fail(err)
		return out
	}

	// Step 4: project descriptor
	var cfg ProjectConfig
	if err := p.stage(ctx, logger, StageConfig, ErrConfig, func() error {
		var err error
		cfg, err = ReadProjectConfig(repoPath)
		return err
	}); err != nil {
		out.fail(err)
		return out
	}

	// Step 5: project ignores
	if err := p.stage(ctx, logger, StageSanitizeIgnore, ErrWorkspace, func() error {
		n, err := p.sanitizer.Clean(ctx, repoPath, cfg.Ignore)
		out.IgnoredRemoved = n
		recordSanitized("ignore", n)
		return err
	}); err != nil {
		out.fail(err)
		return out
	}

	// Step 6: extract compounds
	var compounds []model.Compound
	if err := p.stage(ctx, logger, StageParse, ErrParse, func() error {
		var err error
		compounds, err = p.parsers.Parse(ctx, repoPath, cfg.Parser)
		if errors.Is(err, ErrUnknownParser) {
			return &Error{Kind: ErrUnknownParser, Stage: StageParse, Err: err}
		}
		return err
	}); err != nil {
		out.fail(err)
		return out
	}

	// Step 7: replace the stored snapshot
	if err := p.stage(ctx, logger, StagePersist, ErrPersistence, func() error {
		project := model.NewProject(event, cfg.Summary)
		project.UpdatedAt = time.Now().UTC()
		return p.store.SaveSnapshot(ctx, project, compounds)
	}); err != nil {
		out.fail(err)
		return out
	}

	out.Compounds = len(compounds)
	recordCompounds(len(compounds))
	out.Status = StatusCompleted
	return out
}

// stage runs fn as the named stage: checks cancellation first, times it,
// recovers panics and classifies any error with kind.
func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, stage Stage, kind error, fn func() error) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Kind: ErrCanceled, Stage: stage, Err: ctxErr}
	}

	start := time.Now()
	logger.Info("pipeline.stage.start", "stage", stage)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.stage.panic", "stage", stage, "panic", r)
			err = &Error{Kind: kind, Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
		d := time.Since(start)
		recordStage(stage, d)
		if err != nil {
			err = stageError(ctx, stage, kind, err)
			return
		}
		logger.Info("pipeline.stage.complete", "stage", stage, "duration_ms", d.Milliseconds())
	}()

	if p.onStage != nil {
		p.onStage(stage)
	}
	return fn()
}

// fail records err as the run's terminal error.
func (o *Outcome) fail(err error) {
	o.Err = err
	o.Status = StatusFailed
	var se *Error
	if errors.As(err, &se) {
		o.Stage = se.Stage
		if se.Kind == ErrCanceled {
			o.Status = StatusCanceled
		}
	}
}

func (p *Pipeline) finish(logger *slog.Logger, out *Outcome) {
	if out.OK() {
		logger.Info("pipeline.run.complete",
			"vcs_removed", out.VCSRemoved,
			"ignored_removed", out.IgnoredRemoved,
			"compounds", out.Compounds,
			"elapsed_ms", out.Elapsed.Milliseconds(),
		)
		return
	}
	logger.Error("pipeline.run.failed",
		"status", out.Status,
		"stage", out.Stage,
		"err", out.Err,
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
}
