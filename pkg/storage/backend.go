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

package storage

import (
	"context"
	"errors"

	"github.com/kraklabs/docsync/pkg/model"
)

var (
	// ErrNotFound is returned when a project does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")
)

// Backend is the interface that all snapshot stores implement.
type Backend interface {
	// SaveSnapshot upserts project and replaces its compound set atomically.
	SaveSnapshot(ctx context.Context, project model.Project, compounds []model.Compound) error

	// GetProject returns the stored project header for slug.
	GetProject(ctx context.Context, slug string) (*model.Project, error)

	// ListProjects returns every project with its compound count, by slug.
	ListProjects(ctx context.Context) ([]model.ProjectSummary, error)

	// ListCompounds returns the compounds of slug matching filter.
	ListCompounds(ctx context.Context, slug string, filter CompoundFilter) ([]model.Compound, error)

	// Close releases any resources held by the backend.
	Close() error
}

// CompoundFilter narrows ListCompounds. Zero values match everything.
type CompoundFilter struct {
	Kind  string
	Path  string
	Limit int
}
