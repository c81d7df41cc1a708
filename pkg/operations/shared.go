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

package operations

import (
	"context"

	"github.com/walteh/variantrc/pkg/config"
	"github.com/walteh/variantrc/pkg/document"
	"github.com/walteh/variantrc/pkg/operation"
)

// ➕ addSharedParameters adds catalog definitions to the document.
type addSharedParameters struct {
	operation.BaseOperation
	catalog  Lookup
	settings config.AddSharedParametersSettings
}

func NewAddSharedParameters(opts operation.Options, catalog Lookup, settings config.AddSharedParametersSettings) operation.Operation {
	opts.Scope = operation.ScopeDocument
	if opts.Description == "" {
		opts.Description = "Add shared parameters from the catalog"
	}
	return &addSharedParameters{BaseOperation: operation.NewBaseOperation(opts), catalog: catalog, settings: settings}
}

func (o *addSharedParameters) Execute(ctx context.Context, target operation.Target) (*operation.Log, error) {
	log := o.NewLog()
	for _, name := range o.settings.Parameters {
		if _, ok := target.Document.Parameter(name); ok {
			log.Success(name, "already present")
			continue
		}

		def, err := o.catalog.Lookup(ctx, name)
		if err != nil {
			log.Fail(name, err)
			continue
		}

		p := def.Parameter()
		if o.settings.Group != "" {
			p.Group = o.settings.Group
		}
		if o.settings.PerVariant {
			p.Scope = document.ScopePerVariant
		}
		if err := target.Document.AddParameter(ctx, p); err != nil {
			log.Fail(name, err)
			continue
		}
		log.Success(name, "added as "+p.Scope.String())
	}
	return log, nil
}
