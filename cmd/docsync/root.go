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
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/dig"

	"github.com/kraklabs/docsync/internal/errors"
	"github.com/kraklabs/docsync/internal/ui"
	"github.com/kraklabs/docsync/pkg/ingestion"
)

// app holds the state shared by every command of one CLI invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	cfgFile string

	jsonOutput bool
	noColor    bool

	cfg       *Config
	logger    *slog.Logger
	container *dig.Container
	closers   []func() error

	// onStage is handed to the pipeline when the container builds it.
	onStage func(ingestion.Stage)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docsync",
		Short: "Keep code documentation in sync with source repositories",
		Long: `docsync receives repository push notifications, clones the pushed
repository, strips version control metadata and ignored paths, runs the
parser named by the repository's .docsync.yml and stores the extracted
documentation snapshot.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default ./docsync.yaml or ~/.config/docsync/config.yaml)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Output as JSON")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("db", "", "SQLite database path")
	a.bindFlags(flags, map[string]string{
		"log.debug":  "debug",
		"log.format": "log-format",
		"db.path":    "db",
	})

	root.AddCommand(
		a.serveCmd(),
		a.runCmd(),
		a.projectsCmd(),
		a.versionCmd(),
	)
	return root
}

// bindFlags binds config keys to flags so an explicitly set flag wins over
// the config file and environment.
func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}
}

// init loads configuration and builds the dependency container. It runs
// once flags are parsed.
func (a *app) init() error {
	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	ui.InitColors(a.noColor)
	a.logger = newLogger(a.stderr, cfg.Log.Format, cfg.Log.Debug)
	slog.SetDefault(a.logger)

	container, err := a.buildContainer()
	if err != nil {
		return errors.NewInternalError("Cannot wire components", err.Error(), "This is a bug. Please report it", err)
	}
	a.container = container
	return nil
}

// execute runs the CLI with args. Every returned error is a *UserError.
func (a *app) execute(args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	if err == nil {
		return nil
	}
	var ue *errors.UserError
	if stderrors.As(err, &ue) {
		return ue
	}
	// Anything not produced by a command is a usage error from cobra.
	return errors.NewInputError(err.Error(), "", "Run 'docsync --help' for usage")
}

// close releases resources opened by providers, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close.error", "err", err)
		}
	}
	a.closers = nil
}
