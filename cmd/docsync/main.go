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

// Command docsync keeps code documentation snapshots in sync with source
// repositories.
//
// Usage:
//
//	docsync serve                    Receive push notifications over HTTP
//	docsync run --event push.json    Process one push event and print the outcome
//	docsync projects                 List stored projects
//	docsync version                  Show version and registered parsers
//
// Configuration is read from --config, ./docsync.yaml or
// ~/.config/docsync/config.yaml, and DOCSYNC_* environment variables.
package main

import (
	"os"

	"github.com/kraklabs/docsync/internal/errors"
)

var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := a.execute(os.Args[1:])
	a.close()
	errors.FatalError(err, a.jsonOutput)
}
