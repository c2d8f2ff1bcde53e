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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/internal/output"
	"github.com/kraklabs/docsync/pkg/parser"
)

type versionInfo struct {
	Version string   `json:"version"`
	Commit  string   `json:"commit"`
	Built   string   `json:"built"`
	Parsers []string `json:"parsers"`
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and the registered parsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.invoke(func(reg *parser.Registry) error {
				info := versionInfo{Version: version, Commit: commit, Built: date, Parsers: reg.IDs()}
				if a.jsonOutput {
					if err := output.JSONTo(a.stdout, info); err != nil {
						return errors.NewInternalError("Cannot encode version", err.Error(), "", err)
					}
					return nil
				}
				fmt.Fprintf(a.stdout, "docsync version %s\n", info.Version)
				fmt.Fprintf(a.stdout, "commit: %s\n", info.Commit)
				fmt.Fprintf(a.stdout, "built: %s\n", info.Built)
				fmt.Fprintf(a.stdout, "parsers: %s\n", strings.Join(info.Parsers, ", "))
				return nil
			})
		},
	}
}
