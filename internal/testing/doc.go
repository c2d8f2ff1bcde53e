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

// Package testing provides shared test helpers for docsync packages.
//
// Import it under an alias to avoid clashing with the standard library:
//
//	import dstest "github.com/kraklabs/docsync/internal/testing"
//
// # Source Trees
//
// WriteTree materializes a map of slash paths to contents under a directory
// and ListTree returns the regular files below a directory, sorted:
//
//	root := t.TempDir()
//	dstest.WriteTree(t, root, map[string]string{
//	    ".docsync.yml": "summary: Demo\nparser: python\nignore: []\n",
//	    "lib.py":       "def f():\n    pass\n",
//	})
//
// # Git Repositories
//
// InitGitRepo commits a tree into a fresh repository with go-git and returns
// a file:// clone URL. Call InstallFileTransport from TestMain so those URLs
// are served in-process instead of through git-upload-pack:
//
//	func TestMain(m *testing.M) {
//	    dstest.InstallFileTransport()
//	    os.Exit(m.Run())
//	}
//
// # Stores
//
// SetupTestStore opens a migrated SQLite store in a temporary directory and
// closes it when the test ends. SeedSnapshot writes a project with generated
// compounds.
package testing
