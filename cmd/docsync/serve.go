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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/pkg/ingestion"
	"github.com/kraklabs/docsync/pkg/webhook"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive push notifications and process them in the background",
		Long: `Start the webhook server. POST /hooks/push accepts a push event and
schedules a run; GET /healthz and GET /metrics serve liveness and
Prometheus metrics.

On SIGINT or SIGTERM the server stops scheduling new runs, waits up to
shutdown_timeout for runs in flight, then exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.invoke(func(sup *ingestion.Supervisor, srv *webhook.Server) error {
				return a.serve(ctx, sup, srv)
			})
		},
	}

	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	a.bindFlags(cmd.Flags(), map[string]string{"listen_addr": "listen"})
	return cmd
}

// serve blocks until ctx is done or the server fails, then drains the
// supervisor and stops the server.
func (a *app) serve(ctx context.Context, sup *ingestion.Supervisor, srv *webhook.Server) error {
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	a.logger.Info("serve.start",
		"addr", srv.Addr(),
		"workspace_dir", a.cfg.WorkspaceDir,
		"db", a.cfg.DB.Path,
		"max_concurrent", a.cfg.Runs.MaxConcurrent,
		"supersede", a.cfg.Runs.Supersede,
	)

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil {
			runErr = errors.NewNetworkError(
				"Cannot start webhook server",
				err.Error(),
				"Check that listen_addr is free, or pass --listen",
				err,
			)
		}
	case <-ctx.Done():
		a.logger.Info("shutdown.signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// The supervisor goes first so late pushes get 503 while runs drain.
	if err := sup.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("supervisor.shutdown.timeout", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("webhook.shutdown.error", "err", err)
	}
	a.logger.Info("serve.stop")
	return runErr
}
