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

// Package ingestion turns repository push notifications into stored
// documentation snapshots.
//
// # Pipeline Overview
//
// Every push event is processed by a Pipeline in seven stages:
//
//  1. workspace: allocate a run-exclusive directory under the workspace dir
//  2. retrieve: clone the default branch into it
//  3. sanitize_vcs: remove version control metadata (the project
//     descriptor is never removed here)
//  4. config: read and validate the .docsync.yml descriptor
//  5. sanitize_ignore: remove the paths the descriptor's ignore list names
//  6. parse: run the descriptor's parser over the remaining tree
//  7. persist: replace the project's stored snapshot in one transaction
//
// The first failing stage ends the run. The workspace is removed on every
// path. A run reports an Outcome instead of returning an error; failures
// carry an *Error whose Kind (ErrWorkspace, ErrRetrieval, ErrConfig,
// ErrUnknownParser, ErrParse, ErrPersistence, ErrCanceled) can be matched
// with errors.Is.
//
// # Project Descriptor
//
// The descriptor lives at the repository root:
//
//	summary: Payment service
//	parser: go
//	ignore:
//	  - vendor/
//	  - "**/*_mock.go"
//
// All three keys are required; ignore may be empty.
//
// # Scheduling
//
// A Supervisor runs pipelines in the background. Pushes for the same
// project run one at a time in arrival order; a push that arrives while
// another is still queued replaces it. With Supersede set, a newer push
// also cancels the run in flight.
//
//	sup := ingestion.NewSupervisor(pipeline, ingestion.SupervisorConfig{
//	    MaxConcurrent: 4,
//	    RunTimeout:    10 * time.Minute,
//	}, logger)
//	_ = sup.Submit(event)
//	defer sup.Shutdown(ctx)
package ingestion
