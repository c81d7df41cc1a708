// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/variantrc/cmd/variantrc/commands"
	"github.com/walteh/variantrc/cmd/variantrc/opts"
	"github.com/walteh/variantrc/pkg/report"
)

// newRootCmd wires the shared flags and every subcommand.
func newRootCmd() *cobra.Command {
	o := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "variantrc",
		Short: "Batch-edit parameterized documents and all of their variants",
		Long: `variantrc runs a profile of operations against a document: purging unused
parameters, adding shared ones, assigning and mapping values per variant.
Operations that need each variant are batched so every variant is activated
once per batch.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(cmd.ErrOrStderr(), o.Debug)
			ctx := logger.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			o.Console = report.New(cmd.OutOrStdout())
			return o.Load(ctx)
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewRunCmd(o),
		commands.NewPreviewCmd(o),
		commands.NewCatalogCmd(o),
	)
	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ProfilePath, "profile", "p", ".variantrc.yaml", "profile file path")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()
}
