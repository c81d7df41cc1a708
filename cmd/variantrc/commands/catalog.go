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
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/variantrc/cmd/variantrc/opts"
	"gitlab.com/tozd/go/errors"
)

// NewCatalogCmd creates a new catalog command
func NewCatalogCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the shared parameter catalog",
		Long: `Catalog prefetches the profile's catalog and lists its definitions.
It fails when a parameter named by add_shared_parameters is missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if o.Catalog == nil {
				return errors.Errorf("profile %q has no catalog block", o.Profile.Name)
			}

			if err := o.Catalog.Prefetch(ctx, o.SharedNames()...); err != nil {
				return err
			}
			defs, err := o.Catalog.Definitions(ctx)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"Name", "Kind", "Unit", "Group", "Per Variant"}}
			for _, d := range defs {
				data = append(data, []string{d.Name, d.Kind.String(), d.Unit, d.Group, fmt.Sprint(d.PerVariant)})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering catalog: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	return cmd
}
