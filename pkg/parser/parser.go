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
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/kraklabs/docsync/pkg/model"
)

// ErrUnknownParser is returned by Registry.Parse when no parser is
// registered under the requested identifier.
var ErrUnknownParser = errors.New("unknown parser")

// Parser extracts compounds from a sanitized source tree.
//
// Implementations decide on their own whether a file that cannot be parsed
// is skipped or aborts the call. An empty result is valid.
type Parser interface {
	// ID is the stable key matched against the project descriptor's parser field.
	ID() string

	// Parse walks root and returns every compound found.
	Parse(ctx context.Context, root string) ([]model.Compound, error)
}

// ParseError wraps a failure surfaced by a parser implementation.
type ParseError struct {
	Parser string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser %q: %v", e.Parser, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Registry maps parser identifiers to implementations and dispatches parse
// requests. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		parsers: make(map[string]Parser),
		logger:  logger,
	}
}

// Register adds p under p.ID(). Registering the same identifier twice
// replaces the previous parser.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.ID()] = p
}

// Lookup returns the parser registered under id.
func (r *Registry) Lookup(id string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[id]
	return p, ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parse runs the parser registered under id over root.
//
// It returns an error wrapping ErrUnknownParser when id is not registered,
// or a *ParseError when the parser itself fails.
func (r *Registry) Parse(ctx context.Context, root, id string) ([]model.Compound, error) {
	p, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownParser, id, r.IDs())
	}

	r.logger.Debug("parser.dispatch", "parser", id, "root", root)

	compounds, err := p.Parse(ctx, root)
	if err != nil {
		return nil, &ParseError{Parser: id, Err: err}
	}
	if compounds == nil {
		compounds = []model.Compound{}
	}
	return compounds, nil
}

// Options configures the built-in parsers.
type Options struct {
	// MaxFileSize skips source files larger than this many bytes (0 = no limit).
	MaxFileSize int64
}

// NewDefaultRegistry returns a registry with every built-in parser variant.
func NewDefaultRegistry(opts Options, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewGoParser(opts, logger))
	r.Register(NewPythonParser(opts, logger))
	r.Register(NewTypeScriptParser(opts, logger))
	r.Register(NewJavaScriptParser(opts, logger))
	r.Register(NewProtobufParser(opts, logger))
	r.Register(NewHCLParser(opts, logger))
	return r
}
