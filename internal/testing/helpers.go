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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"

	"github.com/kraklabs/docsync/pkg/model"
	"github.com/kraklabs/docsync/pkg/storage"
)

// WriteTree writes files (slash paths relative to root) under root.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// ListTree returns every regular file under root as sorted slash paths.
func ListTree(t testing.TB, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}

// InstallFileTransport serves file:// git URLs from the go-git in-process
// server. It affects the whole test binary.
func InstallFileTransport() {
	client.InstallProtocol("file", server.DefaultServer)
}

// InitGitRepo commits files into a new repository and returns its file://
// clone URL.
func InitGitRepo(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, files)

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("git add: %v", err)
	}
	_, err = wt.Commit("initial import", &git.CommitOptions{
		Author: &object.Signature{Name: "docsync", Email: "docsync@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}

	return "file://" + filepath.ToSlash(filepath.Join(dir, ".git"))
}

// PushEvent returns a valid push event for slug.
func PushEvent(slug, cloneURL string) model.PushEvent {
	return model.PushEvent{
		Type:        "push",
		Slug:        slug,
		Destination: model.Destination{Type: "team", Name: "docs"},
		Repository:  model.Repository{Name: slug, CloneURL: cloneURL},
	}
}

// SetupTestStore opens a migrated SQLite store that is closed on cleanup.
func SetupTestStore(t testing.TB) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(storage.Config{Path: filepath.Join(t.TempDir(), "docsync.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		t.Fatalf("migrate store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// SeedSnapshot stores a project for slug with n generated function
// compounds and returns it.
func SeedSnapshot(t testing.TB, s storage.Backend, slug string, n int) model.Project {
	t.Helper()
	project := model.NewProject(PushEvent(slug, "https://example.com/"+slug+".git"), "Project "+slug)
	project.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	compounds := make([]model.Compound, n)
	for i := range compounds {
		compounds[i] = model.Compound{
			ID:        fmt.Sprintf("%s-%d", slug, i),
			Kind:      "function",
			Name:      fmt.Sprintf("F%d", i),
			Language:  "go",
			Path:      "main.go",
			StartLine: i*10 + 1,
			EndLine:   i*10 + 5,
		}
	}
	if err := s.SaveSnapshot(context.Background(), project, compounds); err != nil {
		t.Fatalf("seed snapshot %s: %v", slug, err)
	}
	return project
}
