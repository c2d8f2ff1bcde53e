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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/docsync/pkg/model"
)

// ScriptParser extracts functions, classes, methods, interfaces and type
// aliases from TypeScript or JavaScript sources. Only JSDoc (/** */)
// comments are kept as documentation.
//
// The two languages share one implementation; they differ in grammar and
// file extensions. Extracts:
//   - Function declarations (function foo() {})
//   - Arrow functions and function expressions bound to const/let
//   - Classes and their methods
//   - Interfaces and type aliases (TypeScript only)
//   - Exported forms of all of the above
type ScriptParser struct {
	id       string
	language *sitter.Language
	exts     []string
	opts     Options
	logger   *slog.Logger
}

// NewTypeScriptParser creates the "typescript" parser variant.
func NewTypeScriptParser(opts Options, logger *slog.Logger) *ScriptParser {
	return newScriptParser("typescript", typescript.GetLanguage(), []string{".ts", ".mts", ".cts"}, opts, logger)
}

// NewJavaScriptParser creates the "javascript" parser variant.
func NewJavaScriptParser(opts Options, logger *slog.Logger) *ScriptParser {
	return newScriptParser("javascript", javascript.GetLanguage(), []string{".js", ".mjs", ".cjs", ".jsx"}, opts, logger)
}

func newScriptParser(id string, lang *sitter.Language, exts []string, opts Options, logger *slog.Logger) *ScriptParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptParser{id: id, language: lang, exts: exts, opts: opts, logger: logger}
}

// ID implements Parser.
func (p *ScriptParser) ID() string { return p.id }

// Parse implements Parser.
func (p *ScriptParser) Parse(ctx context.Context, root string) ([]model.Compound, error) {
	return walkSources(ctx, root, p.id, p.exts, p.opts.MaxFileSize, p.logger,
		func(ctx context.Context, f sourceFile) ([]model.Compound, error) {
			// Type declaration files only restate what the sources document.
			if strings.HasSuffix(f.Path, ".d.ts") {
				return nil, nil
			}
			return p.extractFile(ctx, f)
		})
}

func (p *ScriptParser) extractFile(ctx context.Context, f sourceFile) ([]model.Compound, error) {
	tree, err := parseTree(ctx, p.language, f.Content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.logger.Warn("parser."+p.id+".syntax_errors", "path", f.Path, "error_count", countErrors(root))
	}

	var out []model.Compound
	for i := 0; i < int(root.NamedChildCount()); i++ {
		outer := root.NamedChild(i)
		node := outer
		exported := false
		if node.Type() == "export_statement" {
			exported = true
			node = node.ChildByFieldName("declaration")
			if node == nil {
				continue
			}
		}
		out = append(out, p.declaration(node, outer, f, exported)...)
	}
	return out, nil
}

// declaration extracts compounds from one top-level statement. outer is the
// node comments are attached to (the export statement when exported).
func (p *ScriptParser) declaration(node, outer *sitter.Node, f sourceFile, exported bool) []model.Compound {
	doc := precedingComments(outer, f.Content, isJSDoc)

	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		name := text(node.ChildByFieldName("name"), f.Content)
		if name == "" {
			return nil
		}
		c := p.compound(f, "function", name, outer, doc, exported)
		c.Signature = collapse(p.functionSignature(node, name, f.Content))
		return []model.Compound{c}

	case "class_declaration", "abstract_class_declaration":
		name := text(node.ChildByFieldName("name"), f.Content)
		if name == "" {
			return nil
		}
		c := p.compound(f, "class", name, outer, doc, exported)
		c.Signature = collapse(classHead(node, f.Content))
		out := []model.Compound{c}
		if body := node.ChildByFieldName("body"); body != nil {
			out = append(out, p.methods(body, name, f)...)
		}
		return out

	case "interface_declaration":
		name := text(node.ChildByFieldName("name"), f.Content)
		c := p.compound(f, "interface", name, outer, doc, exported)
		c.Signature = collapse("interface " + name + text(node.ChildByFieldName("type_parameters"), f.Content))
		return []model.Compound{c}

	case "type_alias_declaration":
		name := text(node.ChildByFieldName("name"), f.Content)
		c := p.compound(f, "type", name, outer, doc, exported)
		c.Signature = collapse("type " + name + text(node.ChildByFieldName("type_parameters"), f.Content) + " = " + text(node.ChildByFieldName("value"), f.Content))
		return []model.Compound{c}

	case "lexical_declaration", "variable_declaration":
		// const foo = () => {} / const foo = function() {}
		var out []model.Compound
		for j := 0; j < int(node.NamedChildCount()); j++ {
			decl := node.NamedChild(j)
			if decl.Type() != "variable_declarator" {
				continue
			}
			value := decl.ChildByFieldName("value")
			if value == nil {
				continue
			}
			switch value.Type() {
			case "arrow_function", "function", "function_expression":
			default:
				continue
			}
			name := text(decl.ChildByFieldName("name"), f.Content)
			c := p.compound(f, "function", name, outer, doc, exported)
			c.Signature = collapse(p.functionSignature(value, name, f.Content))
			out = append(out, c)
		}
		return out
	}
	return nil
}

func (p *ScriptParser) methods(body *sitter.Node, class string, f sourceFile) []model.Compound {
	var out []model.Compound
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() != "method_definition" {
			continue
		}
		name := text(m.ChildByFieldName("name"), f.Content)
		if name == "" {
			continue
		}
		c := p.compound(f, "method", class+"."+name, m, precedingComments(m, f.Content, isJSDoc), false)
		c.Parent = class
		c.Signature = collapse(p.functionSignature(m, name, f.Content))
		delete(c.Attributes, "exported")
		out = append(out, c)
	}
	return out
}

func (p *ScriptParser) compound(f sourceFile, kind, name string, node *sitter.Node, doc string, exported bool) model.Compound {
	c := newCompound(p.id, f.Path, kind, name, node)
	c.Doc = doc
	c.Attributes = map[string]string{"exported": "false"}
	if exported {
		c.Attributes["exported"] = "true"
	}
	return c
}

// functionSignature renders name<T>(params): ret, prefixed with async when
// the declaration is async.
func (p *ScriptParser) functionSignature(node *sitter.Node, name string, content []byte) string {
	var sig strings.Builder
	if first := node.Child(0); first != nil && first.Type() == "async" {
		sig.WriteString("async ")
	}
	switch node.Type() {
	case "function_declaration", "generator_function_declaration", "function", "function_expression":
		sig.WriteString("function ")
	}
	sig.WriteString(name)
	sig.WriteString(text(node.ChildByFieldName("type_parameters"), content))
	params := text(node.ChildByFieldName("parameters"), content)
	if params == "" {
		// Single bare arrow parameter: x => x
		if param := node.ChildByFieldName("parameter"); param != nil {
			params = "(" + param.Content(content) + ")"
		} else {
			params = "()"
		}
	}
	sig.WriteString(params)
	sig.WriteString(text(node.ChildByFieldName("return_type"), content))
	return sig.String()
}

// classHead renders the class line without its body.
func classHead(node *sitter.Node, content []byte) string {
	head := node.Content(content)
	if body := node.ChildByFieldName("body"); body != nil {
		head = string(content[node.StartByte():body.StartByte()])
	}
	return strings.TrimSpace(head)
}

func isJSDoc(raw string) bool {
	return strings.HasPrefix(raw, "/**")
}
