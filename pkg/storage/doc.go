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

// Package storage persists project snapshots for docsync.
//
// A snapshot is one project header plus the complete compound set produced
// by a single ingestion run. Saving a snapshot replaces the previous one for
// the same project slug inside a single transaction; readers never see a mix
// of old and new compounds.
//
// # Available Backends
//
//   - SQLiteStore: an embedded SQLite database, used by the docsync server
//     and CLI
//
// # Quick Start
//
//	store, err := storage.NewSQLiteStore(storage.Config{
//	    Path:   "/var/lib/docsync/docsync.db",
//	    Driver: storage.DriverModernc,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = store.SaveSnapshot(ctx, project, compounds)
//
// # Schema
//
// Migrations are embedded SQL files applied in lexical order and recorded in
// schema_migrations. Compounds are stored with their identifying columns
// (id, kind, name, path) indexed and the full record kept as JSON, so
// parser-specific fields survive without schema changes.
//
// # Drivers
//
// DriverModernc ("sqlite", modernc.org/sqlite) is pure Go and the default.
// DriverMattn ("sqlite3", github.com/mattn/go-sqlite3) requires cgo.
//
// # Thread Safety
//
// SQLiteStore is safe for concurrent use. Writers for the same project are
// serialized in-process; the database itself is opened with a single
// connection, WAL journaling and a busy timeout.
package storage
