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
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"golang.org/x/mod/modfile"

	"github.com/kraklabs/docsync/pkg/model"
)

// GoParser extracts packages, functions, methods and types from Go sources
// using Tree-sitter. Test files are not documented and are skipped.
type GoParser struct {
	opts   Options
	logger *slog.Logger
}

// NewGoParser creates the "go" parser variant.
func NewGoParser(opts Options, logger *slog.Logger) *GoParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoParser{opts: opts, logger: logger}
}

// ID implements Parser.
func (p *GoParser) ID() string { return "go" }

// Parse implements Parser.
func (p *GoParser) Parse(ctx context.Context, root string) ([]model.Compound, error) {
	modulePath := readModulePath(root)
	if modulePath != "" {
		p.logger.Debug("parser.go.module", "module", modulePath)
	}
	return walkSources(ctx, root, "go", []string{".go"}, p.opts.MaxFileSize, p.logger,
		func(ctx context.Context, f sourceFile) ([]model.Compound, error) {
			if strings.HasSuffix(f.Path, "_test.go") {
				return nil, nil
			}
			return p.extractFile(ctx, f, modulePath)
		})
}

// readModulePath returns the module path declared in root/go.mod, or "".
func readModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// goImportPath derives the import path of the package a file belongs to.
// Without a go.mod the package name is the best available qualifier.
func goImportPath(modulePath, filePath, pkgName string) string {
	if modulePath == "" {
		return pkgName
	}
	dir := path.Dir(filePath)
	if dir == "." {
		return modulePath
	}
	return modulePath + "/" + dir
}

func (p *GoParser) extractFile(ctx context.Context, f sourceFile, modulePath string) ([]model.Compound, error) {
	tree, err := parseTree(ctx, golang.GetLanguage(), f.Content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.logger.Warn("parser.go.syntax_errors", "path", f.Path, "error_count", countErrors(root))
		// Tree-sitter is error tolerant; keep whatever parsed.
	}

	var (
		out        []model.Compound
		importPath string
	)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "package_clause":
			pkgName := text(node.NamedChild(0), f.Content)
			importPath = goImportPath(modulePath, f.Path, pkgName)
			if doc := precedingComments(node, f.Content, nil); doc != "" {
				c := newCompound("go", f.Path, "package", importPath, node)
				c.Signature = "package " + pkgName
				c.Doc = doc
				out = append(out, c)
			}

		case "function_declaration":
			if c, ok := p.function(node, f, importPath); ok {
				out = append(out, c)
			}

		case "method_declaration":
			if c, ok := p.method(node, f, importPath); ok {
				out = append(out, c)
			}

		case "type_declaration":
			out = append(out, p.types(node, f, importPath)...)
		}
	}
	return out, nil
}

// function handles: func Foo(), func Foo[T any]() (T, error)
func (p *GoParser) function(node *sitter.Node, f sourceFile, importPath string) (model.Compound, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.Compound{}, false
	}
	name := text(nameNode, f.Content)

	var sig strings.Builder
	sig.WriteString("func ")
	sig.WriteString(name)
	sig.WriteString(text(node.ChildByFieldName("type_parameters"), f.Content))
	sig.WriteString(text(node.ChildByFieldName("parameters"), f.Content))
	if result := text(node.ChildByFieldName("result"), f.Content); result != "" {
		sig.WriteString(" ")
		sig.WriteString(result)
	}

	c := newCompound("go", f.Path, "function", name, node)
	c.Signature = collapse(sig.String())
	c.Doc = precedingComments(node, f.Content, nil)
	c.Attributes = goAttributes(importPath, name)
	return c, true
}

// method handles: func (s *Server) Start(ctx context.Context) error
func (p *GoParser) method(node *sitter.Node, f sourceFile, importPath string) (model.Compound, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.Compound{}, false
	}
	name := text(nameNode, f.Content)
	receiver := node.ChildByFieldName("receiver")
	recvType := receiverTypeName(receiver, f.Content)

	var sig strings.Builder
	sig.WriteString("func ")
	sig.WriteString(text(receiver, f.Content))
	sig.WriteString(" ")
	sig.WriteString(name)
	sig.WriteString(text(node.ChildByFieldName("parameters"), f.Content))
	if result := text(node.ChildByFieldName("result"), f.Content); result != "" {
		sig.WriteString(" ")
		sig.WriteString(result)
	}

	fullName := name
	if recvType != "" {
		fullName = recvType + "." + name
	}

	c := newCompound("go", f.Path, "method", fullName, node)
	c.Parent = recvType
	c.Signature = collapse(sig.String())
	c.Doc = precedingComments(node, f.Content, nil)
	c.Attributes = goAttributes(importPath, name)
	return c, true
}

// receiverTypeName finds the base type name in a receiver list, stripping
// pointers and type arguments: (s *Server[T]) -> Server.
func receiverTypeName(receiver *sitter.Node, content []byte) string {
	if receiver == nil {
		return ""
	}
	var find func(n *sitter.Node) string
	find = func(n *sitter.Node) string {
		if n.Type() == "type_identifier" {
			return n.Content(content)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if name := find(n.NamedChild(i)); name != "" {
				return name
			}
		}
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		decl := receiver.NamedChild(i)
		if typ := decl.ChildByFieldName("type"); typ != nil {
			return find(typ)
		}
	}
	return ""
}

// types handles both `type Foo struct{}` and grouped `type ( ... )` blocks.
func (p *GoParser) types(decl *sitter.Node, f sourceFile, importPath string) []model.Compound {
	var specs []*sitter.Node
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Type() == "type_spec" || child.Type() == "type_alias" {
			specs = append(specs, child)
		}
	}

	var out []model.Compound
	for _, spec := range specs {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := text(nameNode, f.Content)
		typeNode := spec.ChildByFieldName("type")

		kind := "type"
		if typeNode != nil {
			switch typeNode.Type() {
			case "struct_type":
				kind = "struct"
			case "interface_type":
				kind = "interface"
			}
		}

		// A lone spec is documented above the `type` keyword, grouped ones
		// inside the parentheses.
		doc := precedingComments(spec, f.Content, nil)
		if doc == "" && len(specs) == 1 {
			doc = precedingComments(decl, f.Content, nil)
		}

		node := spec
		if len(specs) == 1 {
			node = decl
		}
		c := newCompound("go", f.Path, kind, name, node)
		c.Signature = "type " + name + " " + goTypeHead(typeNode, f.Content)
		c.Signature = strings.TrimSpace(c.Signature)
		c.Doc = doc
		c.Attributes = goAttributes(importPath, name)
		out = append(out, c)
	}
	return out
}

// goTypeHead shortens composite type bodies for signatures.
func goTypeHead(typeNode *sitter.Node, content []byte) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "struct_type":
		return "struct"
	case "interface_type":
		return "interface"
	}
	return collapse(typeNode.Content(content))
}

func goAttributes(importPath, name string) map[string]string {
	attrs := map[string]string{"exported": "false"}
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(r) {
		attrs["exported"] = "true"
	}
	if importPath != "" {
		attrs["package"] = importPath
	}
	return attrs
}
