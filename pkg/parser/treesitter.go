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
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/docsync/pkg/model"
)

// parseTree parses content with a fresh tree-sitter parser.
// sitter.Parser is not safe for concurrent use, so one is created per file.
func parseTree(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

// countErrors counts ERROR and MISSING nodes below node.
func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" || node.IsMissing() {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

// text returns the source text of node, or "" for a nil node.
func text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(content)
}

// lines returns the 1-based start and end line of node.
func lines(node *sitter.Node) (int, int) {
	return int(node.StartPoint().Row) + 1, int(node.EndPoint().Row) + 1
}

// precedingComments collects the comment siblings directly above node, with
// no blank line in between. accept filters which comment nodes count (nil
// accepts all).
func precedingComments(node *sitter.Node, content []byte, accept func(string) bool) string {
	var collected []string
	row := node.StartPoint().Row
	for prev := node.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		if prev.EndPoint().Row+1 != row {
			break
		}
		raw := prev.Content(content)
		if accept != nil && !accept(raw) {
			break
		}
		collected = append([]string{raw}, collected...)
		row = prev.StartPoint().Row
	}
	return cleanComment(collected...)
}

// cleanComment strips comment markers and joins the remaining text.
func cleanComment(raw ...string) string {
	var out []string
	for _, block := range raw {
		block = strings.TrimSpace(block)
		block = strings.TrimPrefix(block, "/**")
		block = strings.TrimPrefix(block, "/*")
		block = strings.TrimSuffix(block, "*/")
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "//"):
				line = strings.TrimPrefix(line, "//")
			case strings.HasPrefix(line, "#"):
				line = strings.TrimPrefix(line, "#")
			case strings.HasPrefix(line, "*"):
				line = strings.TrimPrefix(line, "*")
			}
			out = append(out, strings.TrimRight(strings.TrimPrefix(line, " "), " \t"))
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// newCompound fills the identity fields of a compound from its node.
func newCompound(language, filePath, kind, name string, node *sitter.Node) model.Compound {
	start, end := lines(node)
	return model.Compound{
		ID:        CompoundID(filePath, kind, name, start, end),
		Kind:      kind,
		Name:      name,
		Language:  language,
		Path:      filePath,
		StartLine: start,
		EndLine:   end,
	}
}

// collapse squeezes whitespace runs so multi-line signatures read on one line.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
