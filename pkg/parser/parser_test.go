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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/docsync/pkg/model"
)

// writeTree materializes files (slash paths relative to the root) in a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

// findCompound returns the compound with the given kind and name, or nil.
func findCompound(compounds []model.Compound, kind, name string) *model.Compound {
	for i := range compounds {
		if compounds[i].Kind == kind && compounds[i].Name == name {
			return &compounds[i]
		}
	}
	return nil
}

type stubParser struct {
	id     string
	result []model.Compound
	err    error
	calls  int
}

func (s *stubParser) ID() string { return s.id }

func (s *stubParser) Parse(_ context.Context, _ string) ([]model.Compound, error) {
	s.calls++
	return s.result, s.err
}

func TestRegistry_UnknownParser(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubParser{id: "python"})

	_, err := r.Parse(context.Background(), t.TempDir(), "cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParser))
	assert.Contains(t, err.Error(), "cobol")
	assert.Contains(t, err.Error(), "python", "error should list registered parsers")
}

func TestRegistry_DispatchesByID(t *testing.T) {
	py := &stubParser{id: "python", result: []model.Compound{{ID: "a", Name: "a"}}}
	goP := &stubParser{id: "go"}
	r := NewRegistry(nil)
	r.Register(py)
	r.Register(goP)

	got, err := r.Parse(context.Background(), t.TempDir(), "python")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, py.calls)
	assert.Equal(t, 0, goP.calls)
}

func TestRegistry_EmptyResultIsNotNil(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubParser{id: "go"})

	got, err := r.Parse(context.Background(), t.TempDir(), "go")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRegistry_WrapsParserFailure(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(nil)
	r.Register(&stubParser{id: "go", err: boom})

	_, err := r.Parse(context.Background(), t.TempDir(), "go")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "go", perr.Parser)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrUnknownParser))
}

func TestDefaultRegistry_IDs(t *testing.T) {
	r := NewDefaultRegistry(Options{}, nil)
	assert.Equal(t, []string{"go", "hcl", "javascript", "protobuf", "python", "typescript"}, r.IDs())
}

func TestWalkSources_SkipsLargeFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.py": "def a():\n    pass\n",
		"big.py":   "def b():\n    pass\n# " + strings.Repeat("x", 200) + "\n",
	})

	p := NewPythonParser(Options{MaxFileSize: 100}, nil)
	got, err := p.Parse(context.Background(), root)
	require.NoError(t, err)

	assert.NotNil(t, findCompound(got, "function", "a"))
	assert.Nil(t, findCompound(got, "function", "b"))
}

func TestWalkSources_CanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPythonParser(Options{}, nil).Parse(ctx, root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
