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

package ingestion

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

// unsafeNameChars matches characters not allowed in workspace directory names.
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Workspace is a run-exclusive directory tree. RepoPath is where the
// working copy lives; it does not exist until the retriever creates it.
type Workspace struct {
	Root     string
	RepoPath string
}

// WorkspaceManager allocates and reclaims workspaces under a base directory.
type WorkspaceManager struct {
	base   string
	logger *slog.Logger
}

// NewWorkspaceManager creates the base directory if needed.
func NewWorkspaceManager(base string, logger *slog.Logger) (*WorkspaceManager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if base == "" {
		base = filepath.Join(os.TempDir(), "docsync")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return &WorkspaceManager{base: abs, logger: logger}, nil
}

// Base returns the absolute base directory.
func (m *WorkspaceManager) Base() string {
	return m.base
}

// NewRunID returns a lexically sortable, unique run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// Create allocates <base>/<repoName>-<runID>. The directory must not exist
// yet; a collision is an error rather than a shared workspace.
func (m *WorkspaceManager) Create(repoName, runID string) (Workspace, error) {
	name := sanitizeName(repoName) + "-" + sanitizeName(runID)
	root := filepath.Join(m.base, name)

	if err := os.Mkdir(root, 0o750); err != nil {
		return Workspace{}, fmt.Errorf("create workspace %s: %w", root, err)
	}

	m.logger.Debug("workspace.create", "root", root)
	return Workspace{Root: root, RepoPath: filepath.Join(root, "repo")}, nil
}

// Release removes the workspace tree. Failures are logged, never returned.
func (m *WorkspaceManager) Release(ws Workspace) {
	if ws.Root == "" {
		return
	}
	if !m.owns(ws.Root) {
		m.logger.Error("workspace.release.error", "root", ws.Root, "err", "path outside workspace dir")
		return
	}
	if err := os.RemoveAll(ws.Root); err != nil {
		m.logger.Error("workspace.release.error", "root", ws.Root, "err", err)
		return
	}
	m.logger.Debug("workspace.release", "root", ws.Root)
}

// owns reports whether path is strictly below the base directory.
func (m *WorkspaceManager) owns(path string) bool {
	rel, err := filepath.Rel(m.base, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func sanitizeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return "repo"
	}
	return name
}
