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

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/variantrc/cmd/variantrc/opts"
	"github.com/walteh/variantrc/pkg/document/memory"
	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/operations"
	"github.com/walteh/variantrc/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates a new run command
func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	var (
		documentPath string
		outPath      string
		asJSON       bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the profile's operation queue against a document",
		Long: `Run loads the document, builds the queue from the profile and processes it.
It will:
1. Prefetch the catalog when the profile has one
2. Run each batch, activating every variant once per variant batch
3. Print one log per operation and a summary
4. Save the document unless --dry-run is set

The command fails when any operation failed fatally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := memory.Load(ctx, documentPath)
			if err != nil {
				return errors.Errorf("loading document: %w", err)
			}

			if o.Catalog != nil {
				if err := o.Catalog.Prefetch(ctx); err != nil {
					return err
				}
			}

			q, err := operations.BuildQueue(ctx, o.Profile, o.Deps())
			if err != nil {
				return errors.Errorf("building queue: %w", err)
			}

			proc := operation.NewProcessor(operation.ProcessorOptions{Commit: o.Profile.Commit()})
			res, err := proc.Process(ctx, doc, q, o.Profile.Mode())
			if err != nil {
				return errors.Errorf("processing document: %w", err)
			}

			if asJSON {
				if err := report.JSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				o.Console.Header(o.Profile.Name + " → " + doc.Name())
				o.Console.Logs(ctx, res.Logs)
				if err := o.Console.Summary(res); err != nil {
					return err
				}
			}

			if !dryRun {
				dest := outPath
				if dest == "" {
					dest = documentPath
				}
				if err := doc.Save(ctx, dest); err != nil {
					return errors.Errorf("saving document: %w", err)
				}
			}

			return res.Err()
		},
	}

	cmd.Flags().StringVar(&documentPath, "document", "", "document file to process")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the processed document here instead of in place")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not save the document")
	_ = cmd.MarkFlagRequired("document")

	return cmd
}
