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

// Package operations holds the built-in operations and builds queues from profiles.
package operations

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/catalog"
	"github.com/walteh/variantrc/pkg/config"
	"github.com/walteh/variantrc/pkg/mapping"
	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

var ErrMissingSettings = errors.Base("operation settings missing from profile")

// Lookup resolves shared parameter definitions.
type Lookup interface {
	Lookup(ctx context.Context, name string) (catalog.Definition, error)
}

var _ Lookup = (*catalog.Catalog)(nil)

// Deps are the collaborators built-in operations need.
type Deps struct {
	// Registry defaults to mapping.DefaultRegistry().
	Registry *mapping.Registry
	// Catalog is required only by add_shared_parameters.
	Catalog Lookup
	// Replacer defaults to text.NewSimpleTextReplacer().
	Replacer text.TextReplacer
}

// 🏗️ BuildQueue turns the profile's queue into operations, in order. Any
// queue entry without a settings block, an unknown type or an unknown
// mapping policy fails the whole build before anything runs.
func BuildQueue(ctx context.Context, profile *config.Profile, deps Deps) (*operation.Queue, error) {
	if deps.Registry == nil {
		deps.Registry = mapping.DefaultRegistry()
	}
	if deps.Replacer == nil {
		deps.Replacer = text.NewSimpleTextReplacer()
	}

	logger := zerolog.Ctx(ctx)
	q := operation.NewQueue()
	seen := map[string]int{}

	for i, kind := range profile.Queue {
		if !slices.Contains(config.SettingsKinds(), kind) {
			return nil, errors.Errorf("queue entry %d: unknown operation type %q (options: %v): %w", i, kind, config.SettingsKinds(), ErrMissingSettings)
		}
		settings, ok := profile.Settings(kind)
		if !ok {
			return nil, errors.Errorf("queue entry %d: profile %q has no %s block: %w", i, profile.Name, kind, ErrMissingSettings)
		}

		seen[kind]++
		name := kind
		if n := seen[kind]; n > 1 {
			name = fmt.Sprintf("%s#%d", kind, n)
		}
		opts := operation.Options{Name: name, Enabled: settings.IsEnabled()}

		op, err := build(kind, opts, profile, settings, deps)
		if err != nil {
			return nil, errors.Errorf("queue entry %d (%s): %w", i, kind, err)
		}
		if !q.Add(op) {
			logger.Debug().Str("operation", name).Msg("operation disabled")
		}
	}
	return q, nil
}

func build(kind string, opts operation.Options, profile *config.Profile, settings config.Settings, deps Deps) (operation.Operation, error) {
	switch s := settings.(type) {
	case *config.PurgeSettings:
		if kind == config.KindPurgeNested {
			return NewPurgeNested(opts, s.Filter()), nil
		}
		return NewPurgeParameters(opts, s.Filter()), nil
	case *config.RenameSettings:
		return NewRenameParameters(opts, deps.Replacer, s.Rules), nil
	case *config.AddSharedParametersSettings:
		if deps.Catalog == nil {
			return nil, errors.Errorf("no catalog configured: %w", ErrMissingSettings)
		}
		return NewAddSharedParameters(opts, deps.Catalog, *s), nil
	case *config.SetValuesSettings:
		policy := pickPolicy(s.Policy, profile.Policy)
		if _, err := deps.Registry.Resolve(policy, mapping.ShapeValue); err != nil {
			return nil, err
		}
		return NewSetValues(opts, deps.Registry, policy, s.Assignments), nil
	case *config.MapParametersSettings:
		policy := pickPolicy(s.Policy, profile.Policy)
		if _, err := deps.Registry.Resolve(policy, mapping.ShapeParameter); err != nil {
			return nil, err
		}
		return NewMapParameters(opts, deps.Registry, policy, s.Mappings), nil
	case *config.ClearFormulasSettings:
		return NewClearFormulas(opts, s.Parameters, s.Filter()), nil
	}
	return nil, errors.Errorf("no builder for %T", settings)
}

func pickPolicy(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return config.DefaultPolicy
}
