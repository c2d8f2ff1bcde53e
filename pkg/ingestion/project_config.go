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

package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project descriptor read from the repository root.
const ConfigFileName = ".docsync.yml"

// ProjectConfig is the validated project descriptor.
type ProjectConfig struct {
	Summary string   `yaml:"summary" json:"summary"`
	Parser  string   `yaml:"parser" json:"parser"`
	Ignore  []string `yaml:"ignore" json:"ignore"`
}

// ReadProjectConfig loads and validates repoPath/.docsync.yml. The
// descriptor must be a regular file; symlinks are rejected so the read
// stays inside the working copy.
func ReadProjectConfig(repoPath string) (ProjectConfig, error) {
	path := filepath.Join(repoPath, ConfigFileName)
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectConfig{}, fmt.Errorf("project descriptor %s not found", ConfigFileName)
		}
		return ProjectConfig{}, fmt.Errorf("stat %s: %w", ConfigFileName, err)
	}
	if !info.Mode().IsRegular() {
		return ProjectConfig{}, fmt.Errorf("project descriptor %s is not a regular file (%s)", ConfigFileName, info.Mode().Type())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}
	cfg, err := ParseProjectConfig(data)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("%s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// ParseProjectConfig validates a descriptor document. summary, parser and
// ignore are all required; ignore may be an empty list or null. JSON is
// accepted since it is valid YAML.
func ParseProjectConfig(data []byte) (ProjectConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ProjectConfig{}, fmt.Errorf("malformed descriptor: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return ProjectConfig{}, fmt.Errorf("descriptor is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return ProjectConfig{}, fmt.Errorf("descriptor must be a mapping (line %d)", root.Line)
	}

	fields := make(map[string]*yaml.Node, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if _, dup := fields[key]; dup {
			return ProjectConfig{}, fmt.Errorf("duplicate key %q (line %d)", key, root.Content[i].Line)
		}
		fields[key] = root.Content[i+1]
	}

	var cfg ProjectConfig

	summary, ok := fields["summary"]
	if !ok {
		return ProjectConfig{}, fmt.Errorf("missing required key %q", "summary")
	}
	if !isStringScalar(summary) {
		return ProjectConfig{}, fmt.Errorf("summary must be a string (line %d)", summary.Line)
	}
	cfg.Summary = summary.Value

	parserNode, ok := fields["parser"]
	if !ok {
		return ProjectConfig{}, fmt.Errorf("missing required key %q", "parser")
	}
	if !isStringScalar(parserNode) || strings.TrimSpace(parserNode.Value) == "" {
		return ProjectConfig{}, fmt.Errorf("parser must be a non-empty string (line %d)", parserNode.Line)
	}
	cfg.Parser = strings.TrimSpace(parserNode.Value)

	ignore, ok := fields["ignore"]
	if !ok {
		return ProjectConfig{}, fmt.Errorf("missing required key %q", "ignore")
	}
	cfg.Ignore = []string{}
	switch {
	case ignore.Kind == yaml.ScalarNode && ignore.ShortTag() == "!!null":
	case ignore.Kind == yaml.SequenceNode:
		for _, item := range ignore.Content {
			if !isStringScalar(item) {
				return ProjectConfig{}, fmt.Errorf("ignore entries must be strings (line %d)", item.Line)
			}
			cfg.Ignore = append(cfg.Ignore, item.Value)
		}
	default:
		return ProjectConfig{}, fmt.Errorf("ignore must be a list of patterns (line %d)", ignore.Line)
	}

	return cfg, nil
}

func isStringScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}
