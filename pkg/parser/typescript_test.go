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

const tsUsers = `/** Greets people. */
export function greet(name: string): string {
  return "hi " + name;
}

// plain comment
export const add = (a: number, b: number): number => a + b;

/** A user record. */
export interface User {
  id: string;
}

export type ID = string;

/** Repository of users. */
export class UserRepo {
  /** Finds a user. */
  async find(id: ID): Promise<User> {
    return { id };
  }
}

function internal() {}
`

func TestTypeScriptParser_Declarations(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/users.ts":   tsUsers,
		"src/users.d.ts": "export declare function greet(name: string): string;\n",
		"src/legacy.js":  "function legacy() {}\n",
	})

	got, err := NewTypeScriptParser(Options{}, nil).Parse(context.Background(), root)
	require.NoError(t, err)

	greet := findCompound(got, "function", "greet")
	require.NotNil(t, greet)
	assert.Equal(t, "function greet(name: string): string", greet.Signature)
	assert.Equal(t, "Greets people.", greet.Doc)
	assert.Equal(t, "true", greet.Attributes["exported"])
	assert.Equal(t, "src/users.ts", greet.Path)
	assert.Equal(t, "typescript", greet.Language)

	add := findCompound(got, "function", "add")
	require.NotNil(t, add, "arrow functions bound to const are extracted")
	assert.Empty(t, add.Doc, "only JSDoc comments document")
	assert.Equal(t, "add(a: number, b: number): number", add.Signature)

	user := findCompound(got, "interface", "User")
	require.NotNil(t, user)
	assert.Equal(t, "A user record.", user.Doc)

	id := findCompound(got, "type", "ID")
	require.NotNil(t, id)
	assert.Equal(t, "type ID = string", id.Signature)

	repo := findCompound(got, "class", "UserRepo")
	require.NotNil(t, repo)
	assert.Equal(t, "class UserRepo", repo.Signature)
	assert.Equal(t, "Repository of users.", repo.Doc)

	find := findCompound(got, "method", "UserRepo.find")
	require.NotNil(t, find)
	assert.Equal(t, "UserRepo", find.Parent)
	assert.Equal(t, "Finds a user.", find.Doc)
	assert.Equal(t, "async find(id: ID): Promise<User>", find.Signature)

	internal := findCompound(got, "function", "internal")
	require.NotNil(t, internal)
	assert.Equal(t, "false", internal.Attributes["exported"])

	assert.Nil(t, findCompound(got, "function", "legacy"), "javascript files belong to the javascript parser")
	for _, c := range got {
		assert.NotEqual(t, "src/users.d.ts", c.Path, "declaration files are skipped")
	}
}

func TestJavaScriptParser_Declarations(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/math.js": `/**
 * Doubles x.
 */
function double(x) {
  return x * 2;
}

const square = function (x) { return x * x; };

class Counter {
  /** Adds one. */
  inc() { this.n++; }
}

module.exports = { double, square, Counter };
`,
		"lib/types.ts": "export interface Ignored {}\n",
	})

	got, err := NewJavaScriptParser(Options{}, nil).Parse(context.Background(), root)
	require.NoError(t, err)

	double := findCompound(got, "function", "double")
	require.NotNil(t, double)
	assert.Equal(t, "Doubles x.", double.Doc)
	assert.Equal(t, "function double(x)", double.Signature)
	assert.Equal(t, 4, double.StartLine)
	assert.Equal(t, 6, double.EndLine)

	assert.NotNil(t, findCompound(got, "function", "square"))

	inc := findCompound(got, "method", "Counter.inc")
	require.NotNil(t, inc)
	assert.Equal(t, "Adds one.", inc.Doc)

	assert.Nil(t, findCompound(got, "interface", "Ignored"))
}
