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
	"log/slog"
	"strings"

	"github.com/kraklabs/docsync/pkg/model"
)

// ProtobufParser extracts services, RPCs, messages and enums from .proto
// files. Line-based: there is no bundled tree-sitter grammar for proto.
type ProtobufParser struct {
	opts   Options
	logger *slog.Logger
}

// NewProtobufParser creates the "protobuf" parser variant.
func NewProtobufParser(opts Options, logger *slog.Logger) *ProtobufParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProtobufParser{opts: opts, logger: logger}
}

// ID implements Parser.
func (p *ProtobufParser) ID() string { return "protobuf" }

// Parse implements Parser.
func (p *ProtobufParser) Parse(ctx context.Context, root string) ([]model.Compound, error) {
	return walkSources(ctx, root, "protobuf", []string{".proto"}, p.opts.MaxFileSize, p.logger,
		func(_ context.Context, f sourceFile) ([]model.Compound, error) {
			return parseProtobufContent(string(f.Content), f.Path), nil
		})
}

// parseProtobufContent scans a .proto file. Comments directly above a
// declaration become its documentation. Nested messages and enums are
// qualified with their enclosing message, rpcs with their service.
func parseProtobufContent(content, filePath string) []model.Compound {
	var (
		out   []model.Compound
		pkg   string
		stack []protoScope
	)
	toks := tokenizeProto(content)

	closeScope := func(sc protoScope, line int) {
		if sc.index < 0 {
			return
		}
		c := &out[sc.index]
		c.EndLine = line
		c.ID = CompoundID(c.Path, c.Kind, c.Name, c.StartLine, c.EndLine)
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.text == "{":
			stack = append(stack, protoScope{index: -1})

		case t.text == "}":
			if n := len(stack); n > 0 {
				closeScope(stack[n-1], t.line)
				stack = stack[:n-1]
			}

		case t.ident && t.text == "package" && len(stack) == 0:
			j := i + 1
			var b strings.Builder
			for ; j < len(toks) && toks[j].text != ";"; j++ {
				b.WriteString(toks[j].text)
			}
			pkg = b.String()
			i = j

		case t.ident && isProtoBlockKeyword(t.text) && i+2 < len(toks) && toks[i+1].ident && toks[i+2].text == "{":
			name, parent := toks[i+1].text, ""
			if t.text != "service" {
				if enc := enclosingMessage(stack); enc != "" {
					parent = enc
					name = enc + "." + name
				}
			}
			out = append(out, protobufCompound(filePath, pkg, t.text, name, parent, t.text+" "+toks[i+1].text, t.doc, t.line, t.line))
			stack = append(stack, protoScope{kind: t.text, name: name, index: len(out) - 1})
			i += 2

		case t.ident && t.text == "rpc" && len(stack) > 0 && stack[len(stack)-1].kind == "service" && i+1 < len(toks):
			j := i + 1
			for j < len(toks) && toks[j].text != ";" && toks[j].text != "{" && toks[j].text != "}" {
				j++
			}
			stop, endLine := len(content), toks[len(toks)-1].line
			if j < len(toks) {
				stop, endLine = toks[j].off, toks[j].line
			}
			rpcName, sig := extractRPCSignature("rpc " + strings.Join(strings.Fields(content[toks[i+1].off:stop]), " "))
			if rpcName == "" {
				i = j - 1
				continue
			}
			service := stack[len(stack)-1].name
			out = append(out, protobufCompound(filePath, pkg, "rpc", service+"."+rpcName, service, sig, t.doc, t.line, endLine))
			if j < len(toks) && toks[j].text == "{" {
				stack = append(stack, protoScope{kind: "rpc", index: len(out) - 1})
				i = j
				continue
			}
			if j < len(toks) && toks[j].text == "}" {
				// Unterminated rpc; let the brace close the service.
				i = j - 1
				continue
			}
			i = j
		}
	}

	if len(toks) > 0 {
		last := toks[len(toks)-1].line
		for n := len(stack) - 1; n >= 0; n-- {
			closeScope(stack[n], last)
		}
	}
	return out
}

// protoScope is one open brace block.
type protoScope struct {
	kind  string // service, message, enum, rpc; empty for other blocks
	name  string // qualified name
	index int    // compound opened by this block, or -1
}

func isProtoBlockKeyword(s string) bool {
	return s == "service" || s == "message" || s == "enum"
}

// enclosingMessage returns the qualified name of the innermost open
// message, or "" at file scope.
func enclosingMessage(stack []protoScope) string {
	for n := len(stack) - 1; n >= 0; n-- {
		switch stack[n].kind {
		case "message":
			return stack[n].name
		case "service", "enum", "rpc":
			return ""
		}
	}
	return ""
}

// protoToken is one lexical token of a .proto file. Comments are not
// emitted; a comment group ending on the line above a token becomes its doc.
type protoToken struct {
	text  string
	ident bool
	line  int
	off   int
	doc   string
}

func tokenizeProto(src string) []protoToken {
	var (
		toks     []protoToken
		group    []string
		groupEnd int
		lastLine int
	)
	line, i := 1, 0

	addComment := func(text string, startLine, endLine int) {
		if startLine == lastLine {
			// trailing comment
			group = nil
			return
		}
		if len(group) > 0 && startLine > groupEnd+1 {
			group = nil
		}
		group = append(group, text)
		groupEnd = endLine
	}
	emit := func(text string, ident bool, off int) {
		t := protoToken{text: text, ident: ident, line: line, off: off}
		if len(group) > 0 && groupEnd == line-1 {
			t.doc = cleanComment(group...)
		}
		group = nil
		lastLine = line
		toks = append(toks, t)
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			addComment(strings.TrimSpace(src[i:i+end]), line, line)
			i += end
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src) - i - 2
			} else {
				end += 2
			}
			text := src[i : i+2+end]
			startLine := line
			line += strings.Count(text, "\n")
			addComment(text, startLine, line)
			i += 2 + end
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(src) {
				j++
			}
			if j > len(src) {
				j = len(src)
			}
			emit(src[i:j], false, i)
			line += strings.Count(src[i:j], "\n")
			i = j
		case isProtoIdentByte(c):
			j := i
			for j < len(src) && isProtoIdentByte(src[j]) {
				j++
			}
			emit(src[i:j], true, i)
			i = j
		default:
			emit(src[i:i+1], false, i)
			i++
		}
	}
	return toks
}

func isProtoIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// extractRPCSignature extracts the RPC name and full signature from a proto rpc line.
func extractRPCSignature(line string) (name, signature string) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "rpc ")
	parenIdx := strings.Index(trimmed, "(")
	if parenIdx == -1 {
		return "", ""
	}

	name = strings.TrimSpace(trimmed[:parenIdx])

	semiIdx := strings.Index(trimmed, ";")
	braceIdx := strings.Index(trimmed, "{")

	endIdx := len(trimmed)
	if semiIdx >= 0 && (braceIdx < 0 || semiIdx < braceIdx) {
		endIdx = semiIdx
	} else if braceIdx >= 0 {
		endIdx = braceIdx
	}

	signature = "rpc " + strings.TrimSpace(trimmed[:endIdx])
	return name, signature
}

func protobufCompound(filePath, pkg, kind, name, parent, signature, doc string, startLine, endLine int) model.Compound {
	c := model.Compound{
		ID:        CompoundID(filePath, kind, name, startLine, endLine),
		Kind:      kind,
		Name:      name,
		Parent:    parent,
		Language:  "protobuf",
		Path:      filePath,
		StartLine: startLine,
		EndLine:   endLine,
		Signature: signature,
		Doc:       doc,
	}
	if pkg != "" {
		c.Attributes = map[string]string{"package": pkg}
	}
	return c
}
