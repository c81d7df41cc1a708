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
	"github.com/walteh/variantrc/pkg/operations"
	"gitlab.com/tozd/go/errors"
)

// NewPreviewCmd creates a new preview command
func NewPreviewCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the queue the profile would run",
		Long: `Preview builds the queue and prints each operation with its scope and batch.
Nothing is executed and no document is touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := operations.BuildQueue(cmd.Context(), o.Profile, o.Deps())
			if err != nil {
				return errors.Errorf("building queue: %w", err)
			}
			o.Console.Header("preview of " + o.Profile.Name)
			return o.Console.Metadata(q.Metadata())
		},
	}

	return cmd
}
