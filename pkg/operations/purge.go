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

	"github.com/walteh/variantrc/pkg/document"
	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/purge"
)

// 🧹 purgeOperation deletes unused items of one kind until nothing more can go.
type purgeOperation struct {
	operation.BaseOperation
	kind   document.ItemKind
	filter purge.Filter
}

func NewPurgeParameters(opts operation.Options, filter purge.Filter) operation.Operation {
	opts.Scope = operation.ScopeDocument
	if opts.Description == "" {
		opts.Description = "Delete parameters nothing references"
	}
	return &purgeOperation{BaseOperation: operation.NewBaseOperation(opts), kind: document.KindParameter, filter: filter}
}

func NewPurgeNested(opts operation.Options, filter purge.Filter) operation.Operation {
	opts.Scope = operation.ScopeDocument
	if opts.Description == "" {
		opts.Description = "Delete nested objects with no placed instances"
	}
	return &purgeOperation{BaseOperation: operation.NewBaseOperation(opts), kind: document.KindNestedObject, filter: filter}
}

func (o *purgeOperation) Execute(ctx context.Context, target operation.Target) (*operation.Log, error) {
	res, err := purge.Run(ctx, target.Document, o.kind, o.filter)
	if err != nil {
		return nil, err
	}

	log := o.NewLog()
	for _, item := range res.Deleted {
		log.Success(item.Name, "deleted")
	}
	for _, f := range res.Failed {
		log.Fail(f.Item.Name, f.Err)
	}
	return log, nil
}
