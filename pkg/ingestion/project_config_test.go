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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectConfig(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    ProjectConfig
		wantErr string
	}{
		{
			name: "full",
			doc:  "summary: Demo\nparser: python\nignore:\n  - tests/\n  - \"**/*.pyc\"\n",
			want: ProjectConfig{Summary: "Demo", Parser: "python", Ignore: []string{"tests/", "**/*.pyc"}},
		},
		{
			name: "empty ignore",
			doc:  "summary: Demo\nparser: go\nignore: []\n",
			want: ProjectConfig{Summary: "Demo", Parser: "go", Ignore: []string{}},
		},
		{
			name: "null ignore",
			doc:  "summary: Demo\nparser: go\nignore:\n",
			want: ProjectConfig{Summary: "Demo", Parser: "go", Ignore: []string{}},
		},
		{
			name: "json document",
			doc:  `{"summary": "Demo", "parser": "go", "ignore": ["vendor/"]}`,
			want: ProjectConfig{Summary: "Demo", Parser: "go", Ignore: []string{"vendor/"}},
		},
		{
			name: "unknown keys tolerated",
			doc:  "summary: Demo\nparser: go\nignore: []\nowner: team-a\n",
			want: ProjectConfig{Summary: "Demo", Parser: "go", Ignore: []string{}},
		},
		{
			name: "empty summary allowed",
			doc:  "summary: \"\"\nparser: go\nignore: []\n",
			want: ProjectConfig{Summary: "", Parser: "go", Ignore: []string{}},
		},
		{name: "empty document", doc: "", wantErr: "empty"},
		{name: "malformed", doc: "summary: [\n", wantErr: "malformed"},
		{name: "not a mapping", doc: "- a\n- b\n", wantErr: "mapping"},
		{name: "missing summary", doc: "parser: go\nignore: []\n", wantErr: `"summary"`},
		{name: "missing parser", doc: "summary: s\nignore: []\n", wantErr: `"parser"`},
		{name: "missing ignore", doc: "summary: s\nparser: go\n", wantErr: `"ignore"`},
		{name: "summary not string", doc: "summary: 12\nparser: go\nignore: []\n", wantErr: "summary must be a string"},
		{name: "summary is list", doc: "summary: [a]\nparser: go\nignore: []\n", wantErr: "summary must be a string"},
		{name: "blank parser", doc: "summary: s\nparser: \"  \"\nignore: []\n", wantErr: "parser must be"},
		{name: "parser not string", doc: "summary: s\nparser: true\nignore: []\n", wantErr: "parser must be"},
		{name: "ignore scalar", doc: "summary: s\nparser: go\nignore: vendor/\n", wantErr: "ignore must be a list"},
		{name: "ignore entry not string", doc: "summary: s\nparser: go\nignore: [1]\n", wantErr: "ignore entries"},
		{name: "duplicate key", doc: "summary: s\nsummary: t\nparser: go\nignore: []\n", wantErr: "summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProjectConfig([]byte(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadProjectConfig(t *testing.T) {
	root := t.TempDir()

	_, err := ReadProjectConfig(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("summary: s\nparser: go\n"), 0o644))
	_, err = ReadProjectConfig(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ConfigFileName)

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("summary: s\nparser: go\nignore: [docs/]\n"), 0o644))
	cfg, err := ReadProjectConfig(root)
	require.NoError(t, err)
	assert.Equal(t, ProjectConfig{Summary: "s", Parser: "go", Ignore: []string{"docs/"}}, cfg)
}

func TestReadProjectConfig_RejectsNonRegularFile(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "server.yml")
	require.NoError(t, os.WriteFile(outside, []byte("summary: from-server-file\nparser: go\nignore: []\n"), 0o644))

	root := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, ConfigFileName)))

	cfg, err := ReadProjectConfig(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
	assert.Empty(t, cfg.Summary, "nothing outside the working copy is read")

	dirRoot := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dirRoot, ConfigFileName), 0o755))
	_, err = ReadProjectConfig(dirRoot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}
