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
	"path"
	"strings"
)

// globPattern is one compiled exclusion pattern.
//
// Syntax:
//   - * : matches any sequence of non-separator characters
//   - ** : matches any sequence of characters including separators (any depth)
//   - ? : matches any single non-separator character
//   - [abc], [a-z], [!abc], [^abc] : character classes
//
// A pattern without a slash matches at any depth. A pattern with a slash is
// rooted at the tree root. A trailing slash restricts it to directories, and
// dir/** also matches dir itself.
type globPattern struct {
	raw      string
	pattern  string
	dirOnly  bool
	anchored bool
}

// compileGlob normalizes raw. ok is false for blank patterns.
func compileGlob(raw string) (g globPattern, ok bool) {
	p := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if p == "" {
		return globPattern{}, false
	}
	g.raw = raw
	if strings.HasSuffix(p, "/") {
		g.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	p = strings.TrimPrefix(p, "./")
	if strings.HasPrefix(p, "/") {
		g.anchored = true
		p = strings.TrimLeft(p, "/")
	}
	if p == "" {
		return globPattern{}, false
	}
	if strings.Contains(p, "/") {
		g.anchored = true
	}
	g.pattern = p
	return g, true
}

// matches reports whether the root-relative, slash-separated rel matches.
func (g globPattern) matches(rel string, isDir bool) bool {
	if g.dirOnly && !isDir {
		return false
	}

	// Pattern: dir/** - match directory and all contents
	if prefix, ok := strings.CutSuffix(g.pattern, "/**"); ok && rel == prefix {
		return isDir
	}

	if g.anchored {
		return matchGlobPattern(rel, g.pattern)
	}

	// Pattern: *.ext - match any file with extension
	if strings.HasPrefix(g.pattern, "*.") && !strings.ContainsAny(g.pattern[1:], "*?[") {
		return strings.HasSuffix(path.Base(rel), g.pattern[1:])
	}

	// Implicit **/ prefix: try every suffix that starts at a component.
	for i := 0; ; {
		if matchGlobPattern(rel[i:], g.pattern) {
			return true
		}
		next := strings.IndexByte(rel[i:], '/')
		if next < 0 {
			return false
		}
		i += next + 1
	}
}

// matchGlobPattern performs glob pattern matching on a single path.
func matchGlobPattern(path, pattern string) bool {
	return matchGlobRecursive(path, pattern, 0, 0)
}

// matchGlobRecursive is the recursive implementation of glob matching.
func matchGlobRecursive(path, pattern string, pi, pti int) bool {
	for pi < len(path) || pti < len(pattern) {
		if pti >= len(pattern) {
			return false
		}

		// ** matches any sequence including separators
		if pti+1 < len(pattern) && pattern[pti] == '*' && pattern[pti+1] == '*' {
			nextPti := pti + 2
			// Skip trailing / after ** if present
			slash := nextPti < len(pattern) && pattern[nextPti] == '/'
			if slash {
				nextPti++
			}

			// If ** is at the end, it matches everything
			if nextPti >= len(pattern) {
				return true
			}

			// Try matching ** against progressively more of the path. **/
			// resumes only at component boundaries.
			for i := pi; i <= len(path); i++ {
				if slash && i > pi && path[i-1] != '/' {
					continue
				}
				if matchGlobRecursive(path, pattern, i, nextPti) {
					return true
				}
			}
			return false
		}

		// * matches any sequence of non-separator characters
		if pattern[pti] == '*' {
			nextPti := pti + 1
			for i := pi; i <= len(path); i++ {
				if i > pi && path[i-1] == '/' {
					break // * doesn't match across /
				}
				if matchGlobRecursive(path, pattern, i, nextPti) {
					return true
				}
			}
			return false
		}

		if pi >= len(path) {
			return false
		}

		if pattern[pti] == '?' {
			if path[pi] == '/' {
				return false // ? doesn't match /
			}
			pi++
			pti++
			continue
		}

		if pattern[pti] == '[' {
			closeIdx := pti + 1
			if closeIdx < len(pattern) && (pattern[closeIdx] == '!' || pattern[closeIdx] == '^') {
				closeIdx++
			}
			if closeIdx < len(pattern) && pattern[closeIdx] == ']' {
				closeIdx++
			}
			for closeIdx < len(pattern) && pattern[closeIdx] != ']' {
				closeIdx++
			}
			if closeIdx >= len(pattern) {
				// Malformed pattern, treat [ as literal
				if path[pi] != '[' {
					return false
				}
				pi++
				pti++
				continue
			}

			if path[pi] == '/' || !matchCharClass(path[pi], pattern[pti+1:closeIdx]) {
				return false
			}
			pi++
			pti = closeIdx + 1
			continue
		}

		if path[pi] != pattern[pti] {
			return false
		}
		pi++
		pti++
	}

	return true
}

// matchCharClass checks if a character matches a character class.
// Supports: [abc], [a-z], [!abc], [^abc]
func matchCharClass(c byte, class string) bool {
	if len(class) == 0 {
		return false
	}

	negated := false
	idx := 0
	if class[0] == '!' || class[0] == '^' {
		negated = true
		idx = 1
	}

	matched := false
	for idx < len(class) {
		// Range a-z
		if idx+2 < len(class) && class[idx+1] == '-' {
			if c >= class[idx] && c <= class[idx+2] {
				matched = true
			}
			idx += 3
			continue
		}
		if c == class[idx] {
			matched = true
		}
		idx++
	}

	if negated {
		return !matched
	}
	return matched
}
