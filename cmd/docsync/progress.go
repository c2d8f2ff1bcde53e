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
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/docsync/pkg/ingestion"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled is false for --json, --debug, or when stderr is not a TTY.
	Enabled bool

	// Writer is where progress output goes (the CLI's stderr).
	Writer io.Writer

	// NoColor disables colored output in progress bars.
	NoColor bool
}

// newProgressConfig decides on progress output from the global flags and
// the stderr stream.
func (a *app) newProgressConfig() ProgressConfig {
	debug := a.cfg != nil && a.cfg.Log.Debug
	return ProgressConfig{
		Enabled: !a.jsonOutput && !debug && isTerminal(a.stderr),
		Writer:  a.stderr,
		NoColor: a.noColor,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewProgressBar creates a progress bar with consistent styling.
// Returns nil if progress is disabled.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// stageProgress tracks a pipeline run on a bar with one step per stage.
// A nil bar makes every method a no-op.
type stageProgress struct {
	bar *progressbar.ProgressBar
}

func newStageProgress(cfg ProgressConfig) *stageProgress {
	return &stageProgress{bar: NewProgressBar(cfg, int64(len(ingestion.Stages)), "starting")}
}

// hook returns the pipeline stage callback, or nil when progress is off.
func (p *stageProgress) hook() func(ingestion.Stage) {
	if p.bar == nil {
		return nil
	}
	return func(stage ingestion.Stage) {
		p.bar.Describe(string(stage))
		_ = p.bar.Set(stageIndex(stage))
	}
}

// done fills the bar on success and clears it either way.
func (p *stageProgress) done(ok bool) {
	if p.bar == nil {
		return
	}
	if ok {
		_ = p.bar.Finish()
		return
	}
	_ = p.bar.Clear()
}

func stageIndex(stage ingestion.Stage) int {
	for i, s := range ingestion.Stages {
		if s == stage {
			return i
		}
	}
	return 0
}
