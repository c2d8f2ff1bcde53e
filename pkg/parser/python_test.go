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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonService = `"""User management."""

import functools


def cache(fn):
    """Memoize fn."""
    return functools.lru_cache()(fn)


class UserService(Base):
    """Stores users."""

    def __init__(self, db):
        self.db = db

    @cache
    def get(self, user_id: int) -> dict:
        """Return one user."""
        return self.db[user_id]

    async def refresh(self):
        pass


async def fetch(url: str) -> bytes:
    '''Download url.'''
    return b""
`

func TestPythonParser_ModulesClassesFunctions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/users.py":    pythonService,
		"app/__init__.py": "",
	})

	got, err := NewPythonParser(Options{}, nil).Parse(context.Background(), root)
	require.NoError(t, err)

	mod := findCompound(got, "module", "app.users")
	require.NotNil(t, mod, "should emit module compound")
	assert.Equal(t, "User management.", mod.Doc)

	pkg := findCompound(got, "module", "app")
	require.NotNil(t, pkg, "__init__ maps to the package name")

	cache := findCompound(got, "function", "cache")
	require.NotNil(t, cache)
	assert.Equal(t, "def cache(fn)", cache.Signature)
	assert.Equal(t, "Memoize fn.", cache.Doc)
	assert.Equal(t, "app.users", cache.Attributes["module"])

	cls := findCompound(got, "class", "UserService")
	require.NotNil(t, cls)
	assert.Equal(t, "class UserService(Base)", cls.Signature)
	assert.Equal(t, "Stores users.", cls.Doc)

	get := findCompound(got, "method", "UserService.get")
	require.NotNil(t, get, "decorated methods are unwrapped")
	assert.Equal(t, "UserService", get.Parent)
	assert.Equal(t, "def get(self, user_id: int) -> dict", get.Signature)
	assert.Equal(t, "Return one user.", get.Doc)
	assert.Equal(t, "@cache", get.Attributes["decorators"])

	refresh := findCompound(got, "method", "UserService.refresh")
	require.NotNil(t, refresh)
	assert.Equal(t, "async def refresh(self)", refresh.Signature)

	fetch := findCompound(got, "function", "fetch")
	require.NotNil(t, fetch)
	assert.Equal(t, "Download url.", fetch.Doc)

	assert.NotNil(t, findCompound(got, "method", "UserService.__init__"))
}

func TestPythonParser_LineRangesAndIDs(t *testing.T) {
	root := writeTree(t, map[string]string{"m.py": "\n\ndef f():\n    return 1\n"})

	got, err := NewPythonParser(Options{}, nil).Parse(context.Background(), root)
	require.NoError(t, err)

	f := findCompound(got, "function", "f")
	require.NotNil(t, f)
	assert.Equal(t, 3, f.StartLine)
	assert.Equal(t, 4, f.EndLine)
	assert.Equal(t, CompoundID("m.py", "function", "f", 3, 4), f.ID)
	assert.Equal(t, "m.py", f.Path)
}

func TestPythonModuleName(t *testing.T) {
	tests := map[string]string{
		"a.py":            "a",
		"pkg/sub/mod.py":  "pkg.sub.mod",
		"pkg/__init__.py": "pkg",
		"__init__.py":     "__init__",
		"stubs/types.pyi": "stubs.types",
	}
	for in, want := range tests {
		assert.Equal(t, want, pythonModuleName(in), in)
	}
}

func TestUnquotePython(t *testing.T) {
	assert.Equal(t, "hello", unquotePython(`"""hello"""`))
	assert.Equal(t, "hello", unquotePython(`'hello'`))
	assert.Equal(t, "raw", unquotePython(`r"""raw"""`))
	assert.Equal(t, "first\nsecond", unquotePython("\"\"\"\n    first\n    second\n    \"\"\""))
}
