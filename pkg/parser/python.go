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
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/docsync/pkg/model"
)

// PythonParser extracts modules, classes, functions and methods with their
// docstrings.
type PythonParser struct {
	opts   Options
	logger *slog.Logger
}

// NewPythonParser creates the "python" parser variant.
func NewPythonParser(opts Options, logger *slog.Logger) *PythonParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &PythonParser{opts: opts, logger: logger}
}

// ID implements Parser.
func (p *PythonParser) ID() string { return "python" }

// Parse implements Parser.
func (p *PythonParser) Parse(ctx context.Context, root string) ([]model.Compound, error) {
	return walkSources(ctx, root, "python", []string{".py", ".pyi"}, p.opts.MaxFileSize, p.logger, p.extractFile)
}

// pythonModuleName maps pkg/sub/mod.py to pkg.sub.mod and pkg/__init__.py to pkg.
func pythonModuleName(filePath string) string {
	name := strings.TrimSuffix(strings.TrimSuffix(filePath, ".py"), ".pyi")
	name = strings.ReplaceAll(name, "/", ".")
	if name == "__init__" {
		return name
	}
	return strings.TrimSuffix(name, ".__init__")
}

func (p *PythonParser) extractFile(ctx context.Context, f sourceFile) ([]model.Compound, error) {
	tree, err := parseTree(ctx, python.GetLanguage(), f.Content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.logger.Warn("parser.python.syntax_errors", "path", f.Path, "error_count", countErrors(root))
	}

	moduleName := pythonModuleName(f.Path)
	mod := newCompound("python", f.Path, "module", moduleName, root)
	mod.Doc = docstring(root, f.Content)
	out := []model.Compound{mod}

	p.collect(root, f, moduleName, "", &out)
	return out, nil
}

// collect walks a block (module or class body) and appends every definition.
// class is the enclosing class name, "" at module level.
func (p *PythonParser) collect(block *sitter.Node, f sourceFile, moduleName, class string, out *[]model.Compound) {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		node := block.NamedChild(i)
		outer := node
		var decorators []string
		if node.Type() == "decorated_definition" {
			for j := 0; j < int(node.NamedChildCount()); j++ {
				if d := node.NamedChild(j); d.Type() == "decorator" {
					decorators = append(decorators, collapse(d.Content(f.Content)))
				}
			}
			node = node.ChildByFieldName("definition")
			if node == nil {
				continue
			}
		}

		switch node.Type() {
		case "function_definition":
			*out = append(*out, p.function(node, outer, f, moduleName, class, decorators))

		case "class_definition":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := text(nameNode, f.Content)
			if class != "" {
				name = class + "." + name
			}
			c := newCompound("python", f.Path, "class", name, outer)
			c.Parent = class
			c.Signature = collapse("class " + text(nameNode, f.Content) + text(node.ChildByFieldName("superclasses"), f.Content))
			c.Doc = docstring(node.ChildByFieldName("body"), f.Content)
			c.Attributes = pythonAttributes(moduleName, decorators)
			*out = append(*out, c)

			if body := node.ChildByFieldName("body"); body != nil {
				p.collect(body, f, moduleName, name, out)
			}
		}
	}
}

func (p *PythonParser) function(node, outer *sitter.Node, f sourceFile, moduleName, class string, decorators []string) model.Compound {
	name := text(node.ChildByFieldName("name"), f.Content)
	kind := "function"
	fullName := name
	if class != "" {
		kind = "method"
		fullName = class + "." + name
	}

	keyword := "def "
	if first := node.Child(0); first != nil && first.Type() == "async" {
		keyword = "async def "
	}
	sig := keyword + name + text(node.ChildByFieldName("parameters"), f.Content)
	if ret := text(node.ChildByFieldName("return_type"), f.Content); ret != "" {
		sig += " -> " + ret
	}

	c := newCompound("python", f.Path, kind, fullName, outer)
	c.Parent = class
	c.Signature = collapse(sig)
	c.Doc = docstring(node.ChildByFieldName("body"), f.Content)
	c.Attributes = pythonAttributes(moduleName, decorators)
	return c
}

func pythonAttributes(moduleName string, decorators []string) map[string]string {
	attrs := map[string]string{"module": moduleName}
	if len(decorators) > 0 {
		attrs["decorators"] = strings.Join(decorators, " ")
	}
	return attrs
}

// docstring returns the leading string literal of a module or block.
func docstring(block *sitter.Node, content []byte) string {
	if block == nil || block.NamedChildCount() == 0 {
		return ""
	}
	first := block.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	lit := first.NamedChild(0)
	if lit.Type() != "string" {
		return ""
	}
	return unquotePython(lit.Content(content))
}

// unquotePython strips string prefixes and quotes and dedents the body.
func unquotePython(s string) string {
	s = strings.TrimLeft(s, "rRuUbBfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
