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

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/purge"
)

// 🧮 clearFormulas drops formulas so the parameters become editable.
type clearFormulas struct {
	operation.BaseOperation
	patterns []string
	exclude  purge.Filter
}

func NewClearFormulas(opts operation.Options, patterns []string, exclude purge.Filter) operation.Operation {
	opts.Scope = operation.ScopeDocument
	if opts.Description == "" {
		opts.Description = "Remove formulas from matching parameters"
	}
	return &clearFormulas{BaseOperation: operation.NewBaseOperation(opts), patterns: patterns, exclude: exclude}
}

func (o *clearFormulas) Execute(ctx context.Context, target operation.Target) (*operation.Log, error) {
	log := o.NewLog()
	for _, p := range target.Document.Parameters() {
		if p.Formula == "" || o.exclude.Excludes(p.Name) || !o.matches(p.Name) {
			continue
		}
		if err := target.Document.SetFormula(ctx, p.Name, ""); err != nil {
			log.Fail(p.Name, err)
			continue
		}
		log.Success(p.Name, "formula cleared")
	}
	return log, nil
}

func (o *clearFormulas) matches(name string) bool {
	for _, pattern := range o.patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
