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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/internal/output"
	"github.com/kraklabs/docsync/internal/ui"
	"github.com/kraklabs/docsync/pkg/ingestion"
	"github.com/kraklabs/docsync/pkg/model"
)

func (a *app) runCmd() *cobra.Command {
	var eventPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one push event synchronously",
		Long: `Run the ingestion pipeline once for a push event and print the outcome.

The exit code tells which stage category failed:
  1  invalid project descriptor or unknown parser
  2  snapshot could not be saved
  3  repository could not be cloned
  5  workspace could not be prepared
  6  parser failed
  130  run canceled or timed out`,
		Example: `  docsync run --event push.json
  curl -s https://example.com/push.json | docsync run --event - --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			event, err := readEvent(cmd.InOrStdin(), eventPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if a.cfg.Runs.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, a.cfg.Runs.Timeout)
				defer cancel()
			}

			progress := newStageProgress(a.newProgressConfig())
			a.onStage = progress.hook()

			return a.invoke(func(p *ingestion.Pipeline) error {
				out := p.Run(ctx, event)
				progress.done(out.OK())
				if a.jsonOutput {
					if err := output.JSONTo(a.stdout, output.FromOutcome(out)); err != nil {
						return errors.NewInternalError("Cannot encode outcome", err.Error(), "", err)
					}
				} else {
					ui.PrintOutcome(a.stdout, out)
				}
				if uerr := errors.FromOutcome(out); uerr != nil {
					return uerr
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&eventPath, "event", "e", "", "Push event JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// readEvent decodes and validates a push event from path, or from stdin
// when path is "-".
func readEvent(stdin io.Reader, path string) (model.PushEvent, error) {
	var event model.PushEvent

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return event, errors.NewInputError(
				"Cannot read push event",
				err.Error(),
				"Pass a JSON file with --event, or - to read stdin",
			)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return event, errors.NewInputError(
			"Invalid push event",
			fmt.Sprintf("decode JSON: %v", err),
			`Expected {"type", "slug", "destination": {"type", "name"}, "repository": {"name", "clone_url"}}`,
		)
	}
	if err := event.Validate(); err != nil {
		return event, errors.NewInputError("Invalid push event", err.Error(), "Add the missing field to the event")
	}
	return event, nil
}
