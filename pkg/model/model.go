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

// Package model holds the records that flow through a docsync ingestion run:
// the inbound push notification, the persisted project, and the parser
// produced compounds.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Destination identifies where a project logically belongs (for example a
// team or an organization in the documentation browser).
type Destination struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Repository identifies the source repository of a project.
type Repository struct {
	Name     string `json:"name"`
	CloneURL string `json:"clone_url"`
}

// PushEvent is the notification that triggers one ingestion run.
// It is request scoped and never mutated once decoded.
type PushEvent struct {
	Type        string      `json:"type"`
	Slug        string      `json:"slug"`
	Destination Destination `json:"destination"`
	Repository  Repository  `json:"repository"`
}

// Validate reports the first missing field required to run the pipeline.
func (e PushEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.Slug) == "":
		return fmt.Errorf("push event: slug is required")
	case strings.TrimSpace(e.Repository.Name) == "":
		return fmt.Errorf("push event: repository.name is required")
	case strings.TrimSpace(e.Repository.CloneURL) == "":
		return fmt.Errorf("push event: repository.clone_url is required")
	}
	return nil
}

// Project is the persisted snapshot header. It is keyed by Slug and owns
// the compound set written by the same run.
type Project struct {
	Type        string      `json:"type"`
	Slug        string      `json:"slug"`
	Destination Destination `json:"destination"`
	Repository  Repository  `json:"repository"`
	Summary     string      `json:"summary"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewProject builds the project record for an event and the summary read
// from the project descriptor.
func NewProject(e PushEvent, summary string) Project {
	return Project{
		Type:        e.Type,
		Slug:        e.Slug,
		Destination: e.Destination,
		Repository:  e.Repository,
		Summary:     summary,
	}
}

// Compound is one documented code unit extracted by a parser.
//
// Only ID, Kind, Name and Path are indexed by storage; everything else is
// parser-defined and kept verbatim.
type Compound struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Name       string            `json:"name"`
	Parent     string            `json:"parent,omitempty"`
	Language   string            `json:"language"`
	Path       string            `json:"path"`
	StartLine  int               `json:"start_line"`
	EndLine    int               `json:"end_line"`
	Signature  string            `json:"signature,omitempty"`
	Doc        string            `json:"doc,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ProjectSummary is a listing row: a project and the size of its snapshot.
type ProjectSummary struct {
	Project
	CompoundCount int `json:"compound_count"`
}
