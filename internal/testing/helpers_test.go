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

package testing

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/docsync/pkg/storage"
)

func TestMain(m *testing.M) {
	InstallFileTransport()
	os.Exit(m.Run())
}

func TestWriteAndListTree(t *testing.T) {
	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"b.txt":     "b",
		"a/deep/c":  "c",
		".hidden/x": "x",
	})

	assert.Equal(t, []string{".hidden/x", "a/deep/c", "b.txt"}, ListTree(t, root))

	data, err := os.ReadFile(filepath.Join(root, "a", "deep", "c"))
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
}

func TestInitGitRepo(t *testing.T) {
	url := InitGitRepo(t, map[string]string{"README.md": "hi"})
	require.Contains(t, url, "file://")

	dest := filepath.Join(t.TempDir(), "clone")
	_, err := git.PlainClone(dest, false, &git.CloneOptions{URL: url})
	require.NoError(t, err)
	assert.Contains(t, ListTree(t, dest), "README.md")
}

func TestInitGitRepo_GitBinaryCanClone(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	url := InitGitRepo(t, map[string]string{"main.go": "package main\n"})
	dest := filepath.Join(t.TempDir(), "clone")
	out, err := exec.Command("git", "clone", "--quiet", url, dest).CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Contains(t, ListTree(t, dest), "main.go")
}

func TestPushEvent(t *testing.T) {
	ev := PushEvent("demo", "https://example.com/demo.git")
	require.NoError(t, ev.Validate())
	assert.Equal(t, "demo", ev.Repository.Name)
}

func TestSetupTestStoreAndSeed(t *testing.T) {
	s := SetupTestStore(t)
	project := SeedSnapshot(t, s, "demo", 3)

	got, err := s.GetProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, project, *got)

	compounds, err := s.ListCompounds(context.Background(), "demo", storage.CompoundFilter{})
	require.NoError(t, err)
	assert.Len(t, compounds, 3)
}
