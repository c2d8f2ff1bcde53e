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

// Package ui renders human-readable docsync output.
//
// Colors respect the --no-color flag and the NO_COLOR environment variable,
// and are disabled automatically when output is not a TTY.
//
// Color usage guidelines:
//   - Red: failed runs
//   - Yellow: canceled runs, warnings
//   - Green: completed runs
//   - Cyan: counts
//   - Bold: headers, labels
//   - Dim: identifiers, paths
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/kraklabs/docsync/pkg/ingestion"
)

// Pre-configured color instances. They respect the global color.NoColor
// setting when called.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
// Call it once flags are parsed.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Warning writes a yellow warning line.
func Warning(w io.Writer, msg string) {
	_, _ = Yellow.Fprintln(w, "⚠ "+msg)
}

// Label returns a bold-formatted label string for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for less important text.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value.
func CountText(count int) string {
	return Cyan.Sprint(count)
}

// StatusText returns the run status colored by how the run ended.
func StatusText(s ingestion.Status) string {
	switch s {
	case ingestion.StatusCompleted:
		return Green.Sprint(string(s))
	case ingestion.StatusFailed:
		return Red.Sprint(string(s))
	case ingestion.StatusCanceled:
		return Yellow.Sprint(string(s))
	default:
		return string(s)
	}
}

func statusSymbol(s ingestion.Status) string {
	switch s {
	case ingestion.StatusCompleted:
		return Green.Sprint("✓")
	case ingestion.StatusFailed:
		return Red.Sprint("✗")
	default:
		return Yellow.Sprint("⚠")
	}
}

// PrintOutcome writes a run summary:
//
//	✓ demo completed in 412ms
//	  Run:        01JB...
//	  Compounds:  3
//	  Removed:    1 vcs, 1 ignored
//
// Failed and canceled runs name the stage they stopped at instead of the
// counts.
func PrintOutcome(w io.Writer, out *ingestion.Outcome) {
	headline := fmt.Sprintf("%s %s %s in %s", statusSymbol(out.Status), Label(out.Slug), StatusText(out.Status), out.Elapsed.Round(time.Millisecond))
	if !out.OK() && out.Stage != "" {
		headline = fmt.Sprintf("%s %s %s at %s", statusSymbol(out.Status), Label(out.Slug), StatusText(out.Status), out.Stage)
	}
	_, _ = fmt.Fprintln(w, headline)
	_, _ = fmt.Fprintf(w, "  %-11s %s\n", "Run:", DimText(out.RunID))

	if out.OK() {
		_, _ = fmt.Fprintf(w, "  %-11s %s\n", "Compounds:", CountText(out.Compounds))
		_, _ = fmt.Fprintf(w, "  %-11s %s vcs, %s ignored\n", "Removed:", CountText(out.VCSRemoved), CountText(out.IgnoredRemoved))
		return
	}
	if out.Err != nil {
		_, _ = fmt.Fprintf(w, "  %-11s %v\n", "Error:", out.Err)
	}
}
