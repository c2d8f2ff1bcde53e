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
	"log/slog"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/kraklabs/docsync/pkg/model"
)

// HCLParser extracts top-level blocks (resource, variable, module, output,
// ...) from HCL and Terraform files. A string `description` attribute is
// used as documentation, falling back to the comment above the block.
type HCLParser struct {
	opts   Options
	logger *slog.Logger
}

// NewHCLParser creates the "hcl" parser variant.
func NewHCLParser(opts Options, logger *slog.Logger) *HCLParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &HCLParser{opts: opts, logger: logger}
}

// ID implements Parser.
func (p *HCLParser) ID() string { return "hcl" }

// Parse implements Parser.
func (p *HCLParser) Parse(ctx context.Context, root string) ([]model.Compound, error) {
	return walkSources(ctx, root, "hcl", []string{".hcl", ".tf"}, p.opts.MaxFileSize, p.logger,
		func(_ context.Context, f sourceFile) ([]model.Compound, error) {
			return parseHCLContent(f.Content, f.Path)
		})
}

func parseHCLContent(content []byte, filePath string) ([]model.Compound, error) {
	file, diags := hclparse.NewParser().ParseHCL(content, filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %s", diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, nil
	}

	lines := strings.Split(string(content), "\n")
	out := make([]model.Compound, 0, len(body.Blocks))
	for _, block := range body.Blocks {
		name := block.Type
		if len(block.Labels) > 0 {
			name = strings.Join(block.Labels, ".")
		}

		head := block.Type
		for _, label := range block.Labels {
			head += fmt.Sprintf(" %q", label)
		}

		start, end := block.Range().Start.Line, block.Range().End.Line
		doc := hclDescription(block)
		if doc == "" {
			doc = hclComment(lines, start)
		}

		attrs := map[string]string{}
		for attrName := range block.Body.Attributes {
			if attrName == "source" || attrName == "type" || attrName == "version" {
				if v := hclString(block.Body.Attributes[attrName]); v != "" {
					attrs[attrName] = v
				}
			}
		}
		if len(attrs) == 0 {
			attrs = nil
		}

		out = append(out, model.Compound{
			ID:         CompoundID(filePath, block.Type, name, start, end),
			Kind:       block.Type,
			Name:       name,
			Language:   "hcl",
			Path:       filePath,
			StartLine:  start,
			EndLine:    end,
			Signature:  head,
			Doc:        doc,
			Attributes: attrs,
		})
	}
	return out, nil
}

func hclDescription(block *hclsyntax.Block) string {
	attr, ok := block.Body.Attributes["description"]
	if !ok {
		return ""
	}
	return hclString(attr)
}

// hclString evaluates attr as a constant string; anything else yields "".
func hclString(attr *hclsyntax.Attribute) string {
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
		return ""
	}
	return strings.TrimSpace(val.AsString())
}

// hclComment collects the #, // or /* */ comment lines directly above line
// (1-based).
func hclComment(lines []string, line int) string {
	var collected []string
	for i := line - 2; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "//") &&
			!strings.HasPrefix(trimmed, "/*") && !strings.HasPrefix(trimmed, "*") {
			break
		}
		collected = append([]string{trimmed}, collected...)
	}
	return cleanComment(strings.Join(collected, "\n"))
}
