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
	"bytes"
	"os"
	"testing"

	"github.com/kraklabs/docsync/pkg/ingestion"
)

func TestNewProgressConfig(t *testing.T) {
	debugCfg := &Config{}
	debugCfg.Log.Debug = true

	tests := []struct {
		name            string
		app             *app
		expectedEnabled bool
		expectedNoColor bool
	}{
		{
			name:            "buffer stderr - not a TTY",
			app:             &app{stderr: &bytes.Buffer{}, cfg: &Config{}},
			expectedEnabled: false,
		},
		{
			name:            "os.Stderr in tests - not a TTY",
			app:             &app{stderr: os.Stderr, cfg: &Config{}},
			expectedEnabled: false,
		},
		{
			name:            "JSON output disables progress",
			app:             &app{stderr: os.Stderr, jsonOutput: true, cfg: &Config{}},
			expectedEnabled: false,
		},
		{
			name:            "debug logging disables progress",
			app:             &app{stderr: os.Stderr, cfg: debugCfg},
			expectedEnabled: false,
		},
		{
			name:            "noColor flag propagates to config",
			app:             &app{stderr: &bytes.Buffer{}, noColor: true},
			expectedEnabled: false,
			expectedNoColor: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.app.newProgressConfig()
			if cfg.Enabled != tt.expectedEnabled {
				t.Errorf("newProgressConfig().Enabled = %v, want %v", cfg.Enabled, tt.expectedEnabled)
			}
			if cfg.NoColor != tt.expectedNoColor {
				t.Errorf("newProgressConfig().NoColor = %v, want %v", cfg.NoColor, tt.expectedNoColor)
			}
			if cfg.Writer != tt.app.stderr {
				t.Error("newProgressConfig().Writer should be the app's stderr")
			}
		})
	}
}

func TestNewProgressBar(t *testing.T) {
	t.Run("disabled returns nil", func(t *testing.T) {
		bar := NewProgressBar(ProgressConfig{Enabled: false}, 7, "Test")
		if bar != nil {
			t.Error("NewProgressBar() should return nil when disabled")
		}
	})

	t.Run("enabled renders to writer", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}, 7, "Test")
		if bar == nil {
			t.Fatal("NewProgressBar() should return non-nil when enabled")
		}
		_ = bar.Set(3)
		_ = bar.Finish()
	})
}

func TestStageProgress_Disabled(t *testing.T) {
	p := newStageProgress(ProgressConfig{Enabled: false})
	if p.hook() != nil {
		t.Error("hook() should be nil when progress is disabled")
	}
	// Must not panic.
	p.done(true)
	p.done(false)
}

func TestStageProgress_Enabled(t *testing.T) {
	var buf bytes.Buffer
	p := newStageProgress(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true})
	hook := p.hook()
	if hook == nil {
		t.Fatal("hook() should be non-nil when progress is enabled")
	}
	for _, s := range ingestion.Stages {
		hook(s)
	}
	p.done(true)
}

func TestStageIndex(t *testing.T) {
	for i, s := range ingestion.Stages {
		if got := stageIndex(s); got != i {
			t.Errorf("stageIndex(%q) = %d, want %d", s, got, i)
		}
	}
	if got := stageIndex(ingestion.Stage("unknown")); got != 0 {
		t.Errorf("stageIndex(unknown) = %d, want 0", got)
	}
}
