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

package main

import (
	"context"
	"log/slog"

	"go.uber.org/dig"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/pkg/ingestion"
	"github.com/kraklabs/docsync/pkg/parser"
	"github.com/kraklabs/docsync/pkg/storage"
	"github.com/kraklabs/docsync/pkg/webhook"
)

// buildContainer registers every component provider. Providers run lazily,
// so a command only opens what it asks for.
func (a *app) buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		func() *Config { return a.cfg },
		func() *slog.Logger { return a.logger },
		newWorkspaceManager,
		newRetriever,
		newParserRegistry,
		a.newStore,
		a.newPipeline,
		newSupervisor,
		newWebhookServer,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// invoke runs fn with its dependencies and returns the root cause of any
// construction or invocation failure.
func (a *app) invoke(fn any) error {
	if err := a.container.Invoke(fn); err != nil {
		return dig.RootCause(err)
	}
	return nil
}

func newWorkspaceManager(cfg *Config, logger *slog.Logger) (*ingestion.WorkspaceManager, error) {
	m, err := ingestion.NewWorkspaceManager(cfg.WorkspaceDir, logger)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot create workspace directory",
			err.Error(),
			"Set workspace_dir to a writable directory",
			err,
		)
	}
	return m, nil
}

func newRetriever(cfg *Config, logger *slog.Logger) ingestion.Retriever {
	if cfg.Retriever.Kind == retrieverGit {
		if cfg.Retriever.Token != "" {
			logger.Warn("retriever.token.ignored", "kind", retrieverGit)
		}
		return ingestion.NewGitCLIRetriever(logger)
	}
	return ingestion.NewGoGitRetriever(cfg.Retriever.Token, logger)
}

func newParserRegistry(cfg *Config, logger *slog.Logger) *parser.Registry {
	return parser.NewDefaultRegistry(parser.Options{MaxFileSize: cfg.Parser.MaxFileSize}, logger)
}

func (a *app) newStore(cfg *Config) (*storage.SQLiteStore, error) {
	s, err := storage.NewSQLiteStore(storage.Config{Path: cfg.DB.Path, Driver: cfg.DB.Driver})
	if err != nil {
		return nil, errors.NewDatabaseError(
			"Cannot open database",
			err.Error(),
			"Check that db.path is writable",
			err,
		)
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, errors.NewDatabaseError(
			"Cannot migrate database",
			err.Error(),
			"The database may belong to a newer docsync; point db.path elsewhere",
			err,
		)
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *app) newPipeline(
	cfg *Config,
	workspaces *ingestion.WorkspaceManager,
	retriever ingestion.Retriever,
	parsers *parser.Registry,
	store *storage.SQLiteStore,
	logger *slog.Logger,
) (*ingestion.Pipeline, error) {
	p, err := ingestion.NewPipeline(ingestion.PipelineConfig{
		Workspaces:  workspaces,
		Retriever:   retriever,
		Sanitizer:   ingestion.NewSanitizer(logger),
		Parsers:     parsers,
		Store:       store,
		VCSPatterns: cfg.Sanitizer.VCSPatterns,
		OnStage:     a.onStage,
	}, logger)
	if err != nil {
		return nil, errors.NewInternalError("Cannot build pipeline", err.Error(), "This is a bug. Please report it", err)
	}
	return p, nil
}

func newSupervisor(cfg *Config, pipeline *ingestion.Pipeline, logger *slog.Logger) *ingestion.Supervisor {
	return ingestion.NewSupervisor(pipeline, ingestion.SupervisorConfig{
		MaxConcurrent: cfg.Runs.MaxConcurrent,
		RunTimeout:    cfg.Runs.Timeout,
		Supersede:     cfg.Runs.Supersede,
	}, logger)
}

func newWebhookServer(cfg *Config, sup *ingestion.Supervisor, logger *slog.Logger) *webhook.Server {
	return webhook.NewServer(webhook.Config{Addr: cfg.ListenAddr}, sup, logger)
}
