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
	"slices"

	"github.com/walteh/variantrc/pkg/config"
	"github.com/walteh/variantrc/pkg/document"
	"github.com/walteh/variantrc/pkg/mapping"
	"github.com/walteh/variantrc/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// 📝 setValues writes configured raw values into the active variant.
type setValues struct {
	operation.BaseOperation
	registry    *mapping.Registry
	policy      string
	assignments []config.Assignment
}

func NewSetValues(opts operation.Options, registry *mapping.Registry, policy string, assignments []config.Assignment) operation.Operation {
	opts.Scope = operation.ScopeVariant
	if opts.Description == "" {
		opts.Description = "Set parameter values per variant"
	}
	return &setValues{BaseOperation: operation.NewBaseOperation(opts), registry: registry, policy: policy, assignments: assignments}
}

func (o *setValues) Execute(ctx context.Context, target operation.Target) (*operation.Log, error) {
	if target.Variant == nil {
		return nil, errors.Errorf("%s needs an active variant", o.Name())
	}
	doc, variant := target.Document, target.Variant.Name

	log := o.NewLog()
	for _, a := range o.assignments {
		if len(a.Variants) > 0 && !slices.Contains(a.Variants, variant) {
			continue
		}
		p, ok := doc.Parameter(a.Parameter)
		if !ok {
			log.Fail(a.Parameter, errors.Errorf("parameter %q: %w", a.Parameter, document.ErrNotFound))
			continue
		}

		c := mapping.FromValue(document.String(a.Value), p, func(v document.Value) error {
			return doc.SetValue(ctx, variant, p.Name, v)
		})
		v, err := o.registry.Map(o.policy, c)
		if err != nil {
			log.Fail(a.Parameter, err)
			continue
		}
		log.Success(a.Parameter, "set to "+v.Text())
	}
	return log, nil
}

// 🔀 mapParameters copies one parameter's value into another in the active variant.
type mapParameters struct {
	operation.BaseOperation
	registry *mapping.Registry
	policy   string
	mappings []config.Mapping
}

func NewMapParameters(opts operation.Options, registry *mapping.Registry, policy string, mappings []config.Mapping) operation.Operation {
	opts.Scope = operation.ScopeVariant
	if opts.Description == "" {
		opts.Description = "Copy parameter values between parameters"
	}
	return &mapParameters{BaseOperation: operation.NewBaseOperation(opts), registry: registry, policy: policy, mappings: mappings}
}

func (o *mapParameters) Execute(ctx context.Context, target operation.Target) (*operation.Log, error) {
	if target.Variant == nil {
		return nil, errors.Errorf("%s needs an active variant", o.Name())
	}
	doc, variant := target.Document, target.Variant.Name

	log := o.NewLog()
	for _, m := range o.mappings {
		item := m.Source + " -> " + m.Target
		src, ok := doc.Parameter(m.Source)
		if !ok {
			log.Fail(item, errors.Errorf("source %q: %w", m.Source, document.ErrNotFound))
			continue
		}
		dst, ok := doc.Parameter(m.Target)
		if !ok {
			log.Fail(item, errors.Errorf("target %q: %w", m.Target, document.ErrNotFound))
			continue
		}
		value, err := doc.Value(variant, src.Name)
		if err != nil {
			log.Fail(item, err)
			continue
		}

		c := mapping.FromParameter(src, value, dst, func(v document.Value) error {
			return doc.SetValue(ctx, variant, dst.Name, v)
		})
		v, err := o.registry.Map(o.policy, c)
		if err != nil {
			log.Fail(item, err)
			continue
		}
		log.Success(item, "mapped "+v.Text())
	}
	return log, nil
}
