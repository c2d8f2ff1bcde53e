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

const greeterProto = `syntax = "proto3";

package demo.v1;

// Greeter says hello.
service Greeter {
  // SayHello greets.
  rpc SayHello(HelloRequest) returns (HelloReply);
}

// HelloRequest carries a name.
message HelloRequest {
  string name = 1;
}

enum Mood {
  MOOD_UNSPECIFIED = 0;
}
`

func TestProtobufParser(t *testing.T) {
	root := writeTree(t, map[string]string{"proto/greeter.proto": greeterProto})

	got, err := NewProtobufParser(Options{}, nil).Parse(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got, 4)

	svc := findCompound(got, "service", "Greeter")
	require.NotNil(t, svc)
	assert.Equal(t, "Greeter says hello.", svc.Doc)
	assert.Equal(t, 6, svc.StartLine)
	assert.Equal(t, 9, svc.EndLine)
	assert.Equal(t, "demo.v1", svc.Attributes["package"])

	rpc := findCompound(got, "rpc", "Greeter.SayHello")
	require.NotNil(t, rpc)
	assert.Equal(t, "Greeter", rpc.Parent)
	assert.Equal(t, "rpc SayHello(HelloRequest) returns (HelloReply)", rpc.Signature)
	assert.Equal(t, "SayHello greets.", rpc.Doc)

	msg := findCompound(got, "message", "HelloRequest")
	require.NotNil(t, msg)
	assert.Equal(t, "HelloRequest carries a name.", msg.Doc)
	assert.Equal(t, 12, msg.StartLine)
	assert.Equal(t, 14, msg.EndLine)

	enum := findCompound(got, "enum", "Mood")
	require.NotNil(t, enum)
	assert.Empty(t, enum.Doc)
}

func TestParseProtobufContent_SameLineDeclarations(t *testing.T) {
	got := parseProtobufContent("message A { message B {} } message C { message B {} }\n", "x.proto")

	var names []string
	for _, c := range got {
		names = append(names, c.Kind+" "+c.Name+" parent="+c.Parent)
	}
	assert.ElementsMatch(t, []string{
		"message A parent=",
		"message A.B parent=A",
		"message C parent=",
		"message C.B parent=C",
	}, names)

	ids := map[string]bool{}
	for _, c := range got {
		assert.False(t, ids[c.ID], "duplicate id for %s", c.Name)
		ids[c.ID] = true
		assert.Equal(t, 1, c.StartLine)
		assert.Equal(t, 1, c.EndLine)
	}
}

const nestedProto = `package demo;

message Outer {
  // Inner is nested.
  message Inner {
    enum Level { LOW = 0; } // trailing note
  }
  oneof choice {
    string a = 1;
  }
}

/* Watcher streams
   changes. */
service Watcher {
  rpc Watch(Req) returns (stream Resp) {
    option deprecated = true;
  }
  rpc Get(Req) returns (Resp); rpc Put(Req) returns (Resp);
}
`

func TestParseProtobufContent_Nested(t *testing.T) {
	got := parseProtobufContent(nestedProto, "n.proto")
	require.Len(t, got, 7)

	outer := findCompound(got, "message", "Outer")
	require.NotNil(t, outer)
	assert.Equal(t, 3, outer.StartLine)
	assert.Equal(t, 11, outer.EndLine)
	assert.Empty(t, outer.Parent)

	inner := findCompound(got, "message", "Outer.Inner")
	require.NotNil(t, inner)
	assert.Equal(t, "Outer", inner.Parent)
	assert.Equal(t, "message Inner", inner.Signature)
	assert.Equal(t, "Inner is nested.", inner.Doc)
	assert.Equal(t, 5, inner.StartLine)
	assert.Equal(t, 7, inner.EndLine)

	level := findCompound(got, "enum", "Outer.Inner.Level")
	require.NotNil(t, level)
	assert.Equal(t, "Outer.Inner", level.Parent)
	assert.Equal(t, 6, level.StartLine)
	assert.Equal(t, 6, level.EndLine)

	svc := findCompound(got, "service", "Watcher")
	require.NotNil(t, svc)
	assert.Equal(t, "Watcher streams\nchanges.", svc.Doc)
	assert.Equal(t, 15, svc.StartLine)
	assert.Equal(t, 20, svc.EndLine)

	watch := findCompound(got, "rpc", "Watcher.Watch")
	require.NotNil(t, watch)
	assert.Equal(t, "rpc Watch(Req) returns (stream Resp)", watch.Signature)
	assert.Equal(t, 16, watch.StartLine)
	assert.Equal(t, 18, watch.EndLine)

	for _, name := range []string{"Watcher.Get", "Watcher.Put"} {
		rpc := findCompound(got, "rpc", name)
		require.NotNil(t, rpc, name)
		assert.Equal(t, "Watcher", rpc.Parent)
		assert.Equal(t, 19, rpc.StartLine)
	}
	for _, c := range got {
		assert.Equal(t, "demo", c.Attributes["package"], c.Name)
	}
}

func TestExtractRPCSignature(t *testing.T) {
	tests := []struct {
		line, name, sig string
	}{
		{"rpc Get(Req) returns (Resp);", "Get", "rpc Get(Req) returns (Resp)"},
		{"rpc Watch(Req) returns (stream Resp) {", "Watch", "rpc Watch(Req) returns (stream Resp)"},
		{"rpc broken", "", ""},
	}
	for _, tt := range tests {
		name, sig := extractRPCSignature(tt.line)
		assert.Equal(t, tt.name, name, tt.line)
		assert.Equal(t, tt.sig, sig, tt.line)
	}
}
