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

package parser

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/docsync/pkg/model"
)

// sourceFile is one file handed to a language extractor.
type sourceFile struct {
	Path     string // slash-separated, relative to the tree root
	FullPath string
	Content  []byte
}

// extractFunc turns one file into compounds. A returned error makes the
// caller skip the file unless ctx is done.
type extractFunc func(ctx context.Context, f sourceFile) ([]model.Compound, error)

// walkSources visits every regular file under root whose extension is in
// exts, in lexical order, and collects what extract returns.
//
// Files that cannot be read or extracted are logged and skipped. The walk
// aborts only when ctx is done.
func walkSources(ctx context.Context, root, language string, exts []string, maxFileSize int64, logger *slog.Logger, extract extractFunc) ([]model.Compound, error) {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[ext] = true
	}

	var (
		out     []model.Compound
		files   int
		skipped int
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Warn("parser.walk.error", "parser", language, "path", path, "err", walkErr)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if maxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > maxFileSize {
				skipped++
				logger.Warn("parser.file.too_large", "parser", language, "path", rel, "size", info.Size(), "limit", maxFileSize)
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			skipped++
			logger.Warn("parser.file.read_error", "parser", language, "path", rel, "err", err)
			return nil
		}

		compounds, err := extract(ctx, sourceFile{Path: rel, FullPath: path, Content: content})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			skipped++
			logger.Warn("parser.file.skip", "parser", language, "path", rel, "err", err)
			return nil
		}

		files++
		out = append(out, compounds...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	logger.Info("parser.walk.complete",
		"parser", language,
		"files", files,
		"skipped", skipped,
		"compounds", len(out),
	)
	return out, nil
}
