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

package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/kraklabs/docsync/pkg/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Driver names accepted by Config.Driver.
const (
	// DriverModernc is the pure Go driver (modernc.org/sqlite). Default.
	DriverModernc = "sqlite"

	// DriverMattn is the cgo driver (github.com/mattn/go-sqlite3).
	DriverMattn = "sqlite3"
)

// Config configures the SQLite store.
type Config struct {
	// Path is the database file. Parent directories are created.
	// Defaults to ~/.docsync/docsync.db
	Path string

	// Driver is DriverModernc or DriverMattn. Defaults to DriverModernc.
	Driver string
}

// SQLiteStore implements Backend on a single SQLite database.
//
// Writers for the same project are serialized in-process and every snapshot
// is replaced inside one transaction, so readers observe either the old or
// the new compound set.
type SQLiteStore struct {
	db     *sql.DB
	driver string

	mu     sync.RWMutex
	closed bool

	slugMu sync.Mutex
	slugs  map[string]*sync.Mutex
}

// NewSQLiteStore opens (or creates) the database. Call Migrate before use.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverMattn {
		return nil, fmt.Errorf("unknown sqlite driver %q (want %q or %q)", cfg.Driver, DriverModernc, DriverMattn)
	}
	if cfg.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.Path = filepath.Join(homeDir, ".docsync", "docsync.db")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite has a single writer and this avoids
	// "database is locked" between pooled connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &SQLiteStore{
		db:     db,
		driver: cfg.Driver,
		slugs:  make(map[string]*sync.Mutex),
	}, nil
}

// Driver returns the database/sql driver name in use.
func (s *SQLiteStore) Driver() string {
	return s.driver
}

// Migrate runs all embedded SQL migration files in order. Applied files are
// recorded and skipped on later calls.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)",
			name, formatTime(time.Now())); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// lockSlug serializes writers of one project.
func (s *SQLiteStore) lockSlug(slug string) func() {
	s.slugMu.Lock()
	m, ok := s.slugs[slug]
	if !ok {
		m = &sync.Mutex{}
		s.slugs[slug] = m
	}
	s.slugMu.Unlock()

	m.Lock()
	return m.Unlock
}

// SaveSnapshot upserts project and replaces all of its compounds in one
// transaction. On any error nothing is committed.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, project model.Project, compounds []model.Compound) (err error) {
	if strings.TrimSpace(project.Slug) == "" {
		return fmt.Errorf("save snapshot: project slug is required")
	}

	unlock := s.lockSlug(project.Slug)
	defer unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot %s: %w", project.Slug, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (slug, type, destination_type, destination_name, repo_name, clone_url, summary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			type = excluded.type,
			destination_type = excluded.destination_type,
			destination_name = excluded.destination_name,
			repo_name = excluded.repo_name,
			clone_url = excluded.clone_url,
			summary = excluded.summary,
			updated_at = excluded.updated_at`,
		project.Slug, project.Type, project.Destination.Type, project.Destination.Name,
		project.Repository.Name, project.Repository.CloneURL, project.Summary, formatTime(project.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", project.Slug, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM compounds WHERE project_slug = ?", project.Slug); err != nil {
		return fmt.Errorf("clear compounds %s: %w", project.Slug, err)
	}

	if len(compounds) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			"INSERT INTO compounds (project_slug, id, kind, name, path, data) VALUES (?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare compound insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, c := range compounds {
			var data []byte
			data, err = json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encode compound %s: %w", c.ID, err)
			}
			if _, err = stmt.ExecContext(ctx, project.Slug, c.ID, c.Kind, c.Name, c.Path, string(data)); err != nil {
				return fmt.Errorf("insert compound %s: %w", c.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", project.Slug, err)
	}
	return nil
}

const projectColumns = "p.slug, p.type, p.destination_type, p.destination_name, p.repo_name, p.clone_url, p.summary, p.updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner, extra ...any) (*model.Project, error) {
	var (
		p       model.Project
		updated string
	)
	dest := append([]any{
		&p.Slug, &p.Type, &p.Destination.Type, &p.Destination.Name,
		&p.Repository.Name, &p.Repository.CloneURL, &p.Summary, &updated,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	p.UpdatedAt = t
	return &p, nil
}

// GetProject returns the project stored under slug, or an error wrapping
// ErrNotFound.
func (s *SQLiteStore) GetProject(ctx context.Context, slug string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects p WHERE p.slug = ?", slug)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects ordered by slug with compound counts.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+projectColumns+", COUNT(c.id) FROM projects p LEFT JOIN compounds c ON c.project_slug = p.slug GROUP BY p.slug ORDER BY p.slug")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.ProjectSummary{}
	for rows.Next() {
		var count int
		p, err := scanProject(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, model.ProjectSummary{Project: *p, CompoundCount: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// ListCompounds returns slug's compounds ordered by path and ID. An unknown
// slug yields an empty list.
func (s *SQLiteStore) ListCompounds(ctx context.Context, slug string, filter CompoundFilter) ([]model.Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	query := "SELECT data FROM compounds WHERE project_slug = ?"
	args := []any{slug}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.Path != "" {
		query += " AND path = ?"
		args = append(args, filter.Path)
	}
	query += " ORDER BY path, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list compounds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Compound{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan compound: %w", err)
		}
		var c model.Compound
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decode compound: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list compounds: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
