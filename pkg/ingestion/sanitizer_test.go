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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dstest "github.com/kraklabs/docsync/internal/testing"
)

func TestSanitizer_TwoPasses(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{
		"a.txt":        "a",
		"b.log":        "b",
		".vcsmeta/x":   "x",
		ConfigFileName: "summary: s\nparser: go\nignore: []\n",
	})
	s := NewSanitizer(nil)

	n, err := s.Clean(context.Background(), root, []string{".vcsmeta/"}, ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{ConfigFileName, "a.txt", "b.log"}, dstest.ListTree(t, root))

	n, err = s.Clean(context.Background(), root, []string{"*.log"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{ConfigFileName, "a.txt"}, dstest.ListTree(t, root))
}

func TestSanitizer_ProtectsDescriptor(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{
		ConfigFileName: "x",
		"other.yml":    "y",
	})

	n, err := NewSanitizer(nil).Clean(context.Background(), root, []string{"*.yml", ConfigFileName}, ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{ConfigFileName}, dstest.ListTree(t, root))
}

func TestSanitizer_DefaultVCSPatterns(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{
		".git/HEAD":            "ref",
		".git/objects/ab/cd":   "obj",
		".gitmodules":          "",
		".gitattributes":       "",
		"vendor/lib/.git":      "gitdir: ../..",
		"src/.svn/entries":     "",
		"src/main.go":          "package main",
		".github/workflow.yml": "on: push",
	})

	n, err := NewSanitizer(nil).Clean(context.Background(), root, DefaultVCSPatterns, ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "counts top-level matches only")
	assert.Equal(t, []string{".github/workflow.yml", "src/main.go", "vendor/lib/.git"}, dstest.ListTree(t, root),
		"a .git file is not a .git directory")
}

func TestSanitizer_UnanchoredPatternMatchesAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{
		"a.log":          "",
		"sub/b.log":      "",
		"sub/keep.txt":   "",
		"deep/x/y/c.log": "",
		"docs/d.log":     "",
		"notes.txt":      "",
	})

	n, err := NewSanitizer(nil).Clean(context.Background(), root, []string{"*.log"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"notes.txt", "sub/keep.txt"}, dstest.ListTree(t, root))

	// A slash anchors the pattern to the root.
	dstest.WriteTree(t, root, map[string]string{
		"docs/e.log":     "",
		"web/docs/f.log": "",
	})
	n, err = NewSanitizer(nil).Clean(context.Background(), root, []string{"docs/*.log"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"notes.txt", "sub/keep.txt", "web/docs/f.log"}, dstest.ListTree(t, root))
}

func TestSanitizer_Idempotent(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{
		"tests/a_test.py": "",
		"lib.py":          "",
		"build/out.bin":   "",
	})
	patterns := []string{"tests/", "build/**"}
	s := NewSanitizer(nil)

	n, err := s.Clean(context.Background(), root, patterns)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Clean(context.Background(), root, patterns)
	require.NoError(t, err)
	assert.Zero(t, n, "second run has nothing left to match")
	assert.Equal(t, []string{"lib.py"}, dstest.ListTree(t, root))
}

func TestSanitizer_ProtectedInsideMatchedDir(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{
		"keep/me.txt":    "",
		"keep/other.txt": "",
		"keep/sub/x.txt": "",
	})

	n, err := NewSanitizer(nil).Clean(context.Background(), root, []string{"keep/"}, "keep/me.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"keep/me.txt"}, dstest.ListTree(t, root))
}

func TestSanitizer_NoPatternsIsNoop(t *testing.T) {
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{"a": ""})

	n, err := NewSanitizer(nil).Clean(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = NewSanitizer(nil).Clean(context.Background(), root, []string{"", "  "})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"a"}, dstest.ListTree(t, root))
}

func TestSanitizer_Errors(t *testing.T) {
	_, err := NewSanitizer(nil).Clean(context.Background(), filepath.Join(t.TempDir(), "missing"), []string{"*"})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewSanitizer(nil).Clean(context.Background(), file, []string{"*"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	dstest.WriteTree(t, root, map[string]string{"a.log": ""})
	_, err = NewSanitizer(nil).Clean(ctx, root, []string{"*.log"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a.log"}, dstest.ListTree(t, root))
}
