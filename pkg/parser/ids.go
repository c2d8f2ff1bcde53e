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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// CompoundID generates a deterministic compound ID.
// Strategy: hash(path|kind|name|start_line|end_line).
// NOTE: Signature and doc text are NOT included so IDs stay stable when
// only the documentation of a unit changes.
func CompoundID(filePath, kind, name string, startLine, endLine int) string {
	idStr := fmt.Sprintf("%s|%s|%s|%d|%d", normalizePath(filePath), kind, name, startLine, endLine)
	hash := sha256.Sum256([]byte(idStr))
	return kind + ":" + hex.EncodeToString(hash[:16])
}

// normalizePath normalizes a file path for consistent ID generation:
// forward slashes, no leading "./" or "/", cleaned.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "/")
}
