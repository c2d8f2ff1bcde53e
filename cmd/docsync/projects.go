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
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/internal/output"
	"github.com/kraklabs/docsync/internal/ui"
	"github.com/kraklabs/docsync/pkg/model"
	"github.com/kraklabs/docsync/pkg/storage"
)

func (a *app) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List stored projects with their compound counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.invoke(func(s *storage.SQLiteStore) error {
				projects, err := s.ListProjects(cmd.Context())
				if err != nil {
					return errors.NewDatabaseError("Cannot list projects", err.Error(), "Check that db.path points to a docsync database", err)
				}
				if a.jsonOutput {
					if projects == nil {
						projects = []model.ProjectSummary{}
					}
					if err := output.JSONTo(a.stdout, projects); err != nil {
						return errors.NewInternalError("Cannot encode projects", err.Error(), "", err)
					}
					return nil
				}
				a.printProjects(projects)
				return nil
			})
		},
	}
}

func (a *app) printProjects(projects []model.ProjectSummary) {
	if len(projects) == 0 {
		ui.Warning(a.stdout, "No projects stored yet. Send a push event with 'docsync run' or 'docsync serve'.")
		return
	}

	table := tablewriter.NewTable(a.stdout,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"Slug", "Type", "Destination", "Repository", "Compounds", "Updated"})
	for _, p := range projects {
		destination := p.Destination.Name
		if p.Destination.Type != "" {
			destination = p.Destination.Type + "/" + p.Destination.Name
		}
		_ = table.Append([]string{
			p.Slug,
			p.Type,
			destination,
			p.Repository.Name,
			strconv.Itoa(p.CompoundCount),
			p.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	_ = table.Render()
}
