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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobPattern_Matches(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		isDir   bool
		pattern string
		want    bool
	}{
		// Exact match
		{"exact match", "foo.go", false, "foo.go", true},
		{"exact no match", "foo.go", false, "bar.go", false},

		// * wildcard (single segment)
		{"star prefix", "foo.go", false, "*.go", true},
		{"star ext any depth", "a/b/foo.go", false, "*.go", true},
		{"star suffix", "test_foo", false, "test_*", true},
		{"star middle", "test_foo_bar", false, "test_*_bar", true},
		{"star no match ext", "foo.txt", false, "*.go", false},

		// ** wildcard (any depth)
		{"doublestar prefix any depth", "a/b/c/foo.go", false, "**/*.go", true},
		{"doublestar prefix root", "foo.go", false, "**/*.go", true},
		{"doublestar needs component", "xfoo", false, "**/foo", false},
		{"doublestar without slash", "x/y.log", false, "**.log", true},
		{"doublestar middle", "docs/a/b/c.md", false, "docs/**/*.md", true},
		{"doublestar middle zero dirs", "docs/c.md", false, "docs/**/*.md", true},
		{"doublestar suffix", "node_modules/pkg/index.js", false, "node_modules/**", true},
		{"doublestar suffix matches dir", "node_modules", true, "node_modules/**", true},
		{"doublestar suffix is rooted", "web/node_modules/x.js", false, "node_modules/**", false},

		// ? wildcard (single char)
		{"question single", "foo.go", false, "fo?.go", true},
		{"question no match", "fooo.go", false, "fo?.go", false},
		{"question not slash", "a/b", false, "a?b", false},

		// Character classes
		{"char class match", "foo.go", false, "foo.[gt]o", true},
		{"char class no match", "foo.go", false, "foo.[ab]o", false},
		{"char range match", "file1.go", false, "file[0-9].go", true},
		{"char range no match", "filea.go", false, "file[0-9].go", false},
		{"negated class match", "foo.go", false, "foo.[!ab]o", true},
		{"negated class no match", "foo.ao", false, "foo.[!ab]o", false},
		{"malformed class is literal", "a[b", false, "a[b", true},

		// Pattern without slash can match anywhere
		{"implicit prefix", "src/test.go", false, "test.go", true},
		{"implicit prefix nested", "a/b/c/test.go", false, "test.go", true},
		{"no partial component", "src/mytest.go", false, "test.go", false},

		// Pattern with slash is rooted
		{"rooted match", "docs/a.md", false, "docs/*.md", true},
		{"rooted not nested", "x/docs/a.md", false, "docs/*.md", false},
		{"rooted star stays in segment", "docs/sub/a.md", false, "docs/*.md", false},
		{"leading slash", "build", true, "/build", true},
		{"leading slash rooted", "src/build", true, "/build", false},

		// Trailing slash means directories only
		{"dir pattern dir", ".git", true, ".git/", true},
		{"dir pattern file", ".git", false, ".git/", false},
		{"dir pattern nested", "sub/.git", true, ".git/", true},
		{"tests dir", "tests", true, "tests/", true},
		{"tests file", "tests", false, "tests/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := compileGlob(tt.pattern)
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, tt.want, g.matches(tt.path, tt.isDir), "path=%q pattern=%q", tt.path, tt.pattern)
		})
	}
}

func TestCompileGlob(t *testing.T) {
	_, ok := compileGlob("")
	assert.False(t, ok, "empty pattern")
	_, ok = compileGlob("   ")
	assert.False(t, ok, "blank pattern")
	_, ok = compileGlob("/")
	assert.False(t, ok, "root only")

	g, ok := compileGlob("./vendor/")
	assert.True(t, ok)
	assert.Equal(t, "vendor", g.pattern)
	assert.True(t, g.dirOnly)
	assert.False(t, g.anchored)

	g, _ = compileGlob(`docs\api`)
	assert.Equal(t, "docs/api", g.pattern)
	assert.True(t, g.anchored)
}

func TestMatchCharClass(t *testing.T) {
	assert.True(t, matchCharClass('b', "abc"))
	assert.True(t, matchCharClass('m', "a-z"))
	assert.False(t, matchCharClass('M', "a-z"))
	assert.True(t, matchCharClass('M', "!a-z"))
	assert.True(t, matchCharClass('M', "^a-z"))
	assert.False(t, matchCharClass('a', ""))
}
