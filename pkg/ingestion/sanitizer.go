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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVCSPatterns removes version control metadata in the first
// sanitizer pass.
var DefaultVCSPatterns = []string{
	".git/",
	".gitmodules",
	".gitattributes",
	".hg/",
	".svn/",
	".bzr/",
}

// Sanitizer deletes entries matching exclusion patterns from a working copy.
type Sanitizer struct {
	logger *slog.Logger
}

// NewSanitizer creates a sanitizer.
func NewSanitizer(logger *slog.Logger) *Sanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sanitizer{logger: logger}
}

// Clean removes every entry under root that matches one of patterns and
// returns how many top-level matches were removed. Contents of a removed
// directory are not counted. Entries listed in protect (root-relative) are
// never removed, nor are the directories leading to them.
//
// Running Clean again with the same patterns removes nothing.
func (s *Sanitizer) Clean(ctx context.Context, root string, patterns []string, protect ...string) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", root)
	}

	globs := make([]globPattern, 0, len(patterns))
	for _, raw := range patterns {
		if g, ok := compileGlob(raw); ok {
			globs = append(globs, g)
		}
	}
	if len(globs) == 0 {
		return 0, nil
	}

	protected := make(map[string]bool, len(protect))
	for _, p := range protect {
		protected[filepath.ToSlash(filepath.Clean(p))] = true
	}

	var matched []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if protected[rel] {
			return nil
		}
		for _, g := range globs {
			if g.matches(rel, d.IsDir()) {
				matched = append(matched, rel)
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", root, err)
	}

	for _, rel := range matched {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := removeExcept(root, rel, protected); err != nil {
			return 0, err
		}
		s.logger.Debug("sanitizer.remove", "path", rel)
	}

	s.logger.Debug("sanitizer.clean.complete", "root", root, "patterns", len(globs), "removed", len(matched))
	return len(matched), nil
}

// removeExcept deletes root/rel recursively, sparing protected paths below it.
func removeExcept(root, rel string, protected map[string]bool) error {
	full := filepath.Join(root, filepath.FromSlash(rel))
	if !hasProtectedBelow(rel, protected) {
		if err := os.RemoveAll(full); err != nil {
			return fmt.Errorf("remove %s: %w", rel, err)
		}
		return nil
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	for _, e := range entries {
		child := rel + "/" + e.Name()
		if protected[child] {
			continue
		}
		if err := removeExcept(root, child, protected); err != nil {
			return err
		}
	}
	return nil
}

func hasProtectedBelow(rel string, protected map[string]bool) bool {
	for p := range protected {
		if strings.HasPrefix(p, rel+"/") {
			return true
		}
	}
	return false
}
