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

	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/text"
)

// ✏️ renameParameters rewrites parameter names with text rules.
type renameParameters struct {
	operation.BaseOperation
	replacer text.TextReplacer
	rules    []text.ReplacementRule
}

func NewRenameParameters(opts operation.Options, replacer text.TextReplacer, rules []text.ReplacementRule) operation.Operation {
	opts.Scope = operation.ScopeDocument
	if opts.Description == "" {
		opts.Description = "Rename parameters by text rules"
	}
	return &renameParameters{BaseOperation: operation.NewBaseOperation(opts), replacer: replacer, rules: rules}
}

func (o *renameParameters) Execute(ctx context.Context, target operation.Target) (*operation.Log, error) {
	log := o.NewLog()
	for _, p := range target.Document.Parameters() {
		res, err := o.replacer.Replace(ctx, p.Name, o.rules)
		if err != nil {
			return nil, err
		}
		if !res.WasModified || res.Modified == p.Name {
			continue
		}
		if err := target.Document.RenameParameter(ctx, p.Name, res.Modified); err != nil {
			log.Fail(p.Name, err)
			continue
		}
		log.Success(p.Name, "renamed to "+res.Modified)
	}
	return log, nil
}
