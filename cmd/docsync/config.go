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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/pkg/ingestion"
	"github.com/kraklabs/docsync/pkg/storage"
)

// Config is the service configuration.
type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	WorkspaceDir    string        `mapstructure:"workspace_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	DB struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"db"`

	Retriever struct {
		Kind  string `mapstructure:"kind"`
		Token string `mapstructure:"token"`
	} `mapstructure:"retriever"`

	Sanitizer struct {
		VCSPatterns []string `mapstructure:"vcs_patterns"`
	} `mapstructure:"sanitizer"`

	Parser struct {
		MaxFileSize int64 `mapstructure:"max_file_size"`
	} `mapstructure:"parser"`

	Runs struct {
		MaxConcurrent int64         `mapstructure:"max_concurrent"`
		Timeout       time.Duration `mapstructure:"timeout"`
		Supersede     bool          `mapstructure:"supersede"`
	} `mapstructure:"runs"`

	Log struct {
		Format string `mapstructure:"format"`
		Debug  bool   `mapstructure:"debug"`
	} `mapstructure:"log"`
}

// Retriever kinds.
const (
	retrieverGoGit = "gogit"
	retrieverGit   = "git"
)

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("workspace_dir", filepath.Join(os.TempDir(), "docsync"))
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("db.driver", storage.DriverModernc)
	v.SetDefault("db.path", filepath.Join(home, ".docsync", "docsync.db"))
	v.SetDefault("retriever.kind", retrieverGoGit)
	v.SetDefault("retriever.token", "")
	v.SetDefault("sanitizer.vcs_patterns", ingestion.DefaultVCSPatterns)
	v.SetDefault("parser.max_file_size", 1<<20)
	v.SetDefault("runs.max_concurrent", 0)
	v.SetDefault("runs.timeout", 10*time.Minute)
	v.SetDefault("runs.supersede", false)
	v.SetDefault("log.format", "text")
	v.SetDefault("log.debug", false)
}

// configCandidates are tried in order when --config is not given.
func configCandidates() []string {
	paths := []string{"docsync.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "docsync", "config.yaml"))
	}
	return paths
}

// loadConfig reads the config file (explicit or discovered), environment
// variables and bound flags into a validated Config.
func loadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("DOCSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		for _, candidate := range configCandidates() {
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError(
				"Cannot read configuration file",
				err.Error(),
				"Check that "+cfgFile+" exists and is valid YAML",
				err,
			)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration",
			err.Error(),
			"Check value types in the configuration file and DOCSYNC_* variables",
			err,
		)
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration",
			err.Error(),
			"Fix the value in the configuration file or the matching DOCSYNC_* variable",
			err,
		)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Retriever.Kind != retrieverGoGit && c.Retriever.Kind != retrieverGit:
		return fmt.Errorf("retriever.kind must be %q or %q, got %q", retrieverGoGit, retrieverGit, c.Retriever.Kind)
	case c.DB.Driver != storage.DriverModernc && c.DB.Driver != storage.DriverMattn:
		return fmt.Errorf("db.driver must be %q or %q, got %q", storage.DriverModernc, storage.DriverMattn, c.DB.Driver)
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	case strings.TrimSpace(c.WorkspaceDir) == "":
		return fmt.Errorf("workspace_dir is required")
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown_timeout must be positive")
	case c.Runs.Timeout < 0:
		return fmt.Errorf("runs.timeout must not be negative")
	case c.Runs.MaxConcurrent < 0:
		return fmt.Errorf("runs.max_concurrent must not be negative")
	case c.Parser.MaxFileSize < 0:
		return fmt.Errorf("parser.max_file_size must not be negative")
	}
	return nil
}
