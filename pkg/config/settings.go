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

package config

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/variantrc/pkg/purge"
	"github.com/walteh/variantrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// Operation type names, as they appear in a profile's queue.
const (
	KindPurgeParameters     = "purge_parameters"
	KindPurgeNested         = "purge_nested"
	KindRenameParameters    = "rename_parameters"
	KindAddSharedParameters = "add_shared_parameters"
	KindSetValues           = "set_values"
	KindMapParameters       = "map_parameters"
	KindClearFormulas       = "clear_formulas"
)

// SettingsKinds lists every operation type a profile can configure.
func SettingsKinds() []string {
	return []string{
		KindPurgeParameters,
		KindPurgeNested,
		KindRenameParameters,
		KindAddSharedParameters,
		KindSetValues,
		KindMapParameters,
		KindClearFormulas,
	}
}

// ⚙️ Settings is the part every settings block shares.
type Settings interface {
	IsEnabled() bool
	Validate() error
}

// Settings returns the block for kind, if the profile has one.
func (p *Profile) Settings(kind string) (Settings, bool) {
	var s Settings
	switch kind {
	case KindPurgeParameters:
		if p.PurgeParameters != nil {
			s = p.PurgeParameters
		}
	case KindPurgeNested:
		if p.PurgeNested != nil {
			s = p.PurgeNested
		}
	case KindRenameParameters:
		if p.RenameParameters != nil {
			s = p.RenameParameters
		}
	case KindAddSharedParameters:
		if p.AddSharedParameters != nil {
			s = p.AddSharedParameters
		}
	case KindSetValues:
		if p.SetValues != nil {
			s = p.SetValues
		}
	case KindMapParameters:
		if p.MapParameters != nil {
			s = p.MapParameters
		}
	case KindClearFormulas:
		if p.ClearFormulas != nil {
			s = p.ClearFormulas
		}
	}
	return s, s != nil
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// 🧹 PurgeSettings configures purge_parameters and purge_nested.
type PurgeSettings struct {
	Enabled *bool         `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Exclude *purge.Filter `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,block"`
}

func (s *PurgeSettings) IsEnabled() bool { return enabled(s.Enabled) }
func (s *PurgeSettings) Validate() error { return s.Filter().Validate() }

// Filter returns the exclusion filter, empty when none is configured.
func (s *PurgeSettings) Filter() purge.Filter { return filter(s.Exclude) }

func filter(f *purge.Filter) purge.Filter {
	if f == nil {
		return purge.Filter{}
	}
	return *f
}

// ✏️ RenameSettings configures rename_parameters.
type RenameSettings struct {
	Enabled *bool                  `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Rules   []text.ReplacementRule `json:"rules" yaml:"rules" hcl:"rule,block"`
}

func (s *RenameSettings) IsEnabled() bool { return enabled(s.Enabled) }

func (s *RenameSettings) Validate() error {
	if len(s.Rules) == 0 {
		return errors.Errorf("at least one rule is required")
	}
	return text.NewSimpleTextReplacer().ValidateRules(s.Rules)
}

// ➕ AddSharedParametersSettings configures add_shared_parameters.
type AddSharedParametersSettings struct {
	Enabled    *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Parameters []string `json:"parameters" yaml:"parameters" hcl:"parameters"`
	// Group overrides the catalog group of every added parameter.
	Group string `json:"group,omitempty" yaml:"group,omitempty" hcl:"group,optional"`
	// PerVariant adds the parameters with one value per variant instead of a shared one.
	PerVariant bool `json:"per_variant,omitempty" yaml:"per_variant,omitempty" hcl:"per_variant,optional"`
}

func (s *AddSharedParametersSettings) IsEnabled() bool { return enabled(s.Enabled) }

func (s *AddSharedParametersSettings) Validate() error {
	if len(s.Parameters) == 0 {
		return errors.Errorf("at least one parameter is required")
	}
	return nil
}

// 📝 Assignment writes one raw value.
type Assignment struct {
	Parameter string `json:"parameter" yaml:"parameter" hcl:"parameter"`
	Value     string `json:"value" yaml:"value" hcl:"value"`
	// Variants limits the assignment; empty means every variant.
	Variants []string `json:"variants,omitempty" yaml:"variants,omitempty" hcl:"variants,optional"`
}

// SetValuesSettings configures set_values.
type SetValuesSettings struct {
	Enabled     *bool        `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Policy      string       `json:"policy,omitempty" yaml:"policy,omitempty" hcl:"policy,optional"`
	Assignments []Assignment `json:"assignments" yaml:"assignments" hcl:"assignment,block"`
}

func (s *SetValuesSettings) IsEnabled() bool { return enabled(s.Enabled) }

func (s *SetValuesSettings) Validate() error {
	if len(s.Assignments) == 0 {
		return errors.Errorf("at least one assignment is required")
	}
	for i, a := range s.Assignments {
		if a.Parameter == "" {
			return errors.Errorf("assignment %d: parameter is required", i)
		}
	}
	return nil
}

// 🔀 Mapping copies one parameter's value into another.
type Mapping struct {
	Source string `json:"source" yaml:"source" hcl:"source"`
	Target string `json:"target" yaml:"target" hcl:"target"`
}

// MapParametersSettings configures map_parameters.
type MapParametersSettings struct {
	Enabled  *bool     `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Policy   string    `json:"policy,omitempty" yaml:"policy,omitempty" hcl:"policy,optional"`
	Mappings []Mapping `json:"mappings" yaml:"mappings" hcl:"mapping,block"`
}

func (s *MapParametersSettings) IsEnabled() bool { return enabled(s.Enabled) }

func (s *MapParametersSettings) Validate() error {
	if len(s.Mappings) == 0 {
		return errors.Errorf("at least one mapping is required")
	}
	for i, m := range s.Mappings {
		if m.Source == "" || m.Target == "" {
			return errors.Errorf("mapping %d: source and target are required", i)
		}
		if m.Source == m.Target {
			return errors.Errorf("mapping %d: source and target are both %q", i, m.Source)
		}
	}
	return nil
}

// 🧮 ClearFormulasSettings configures clear_formulas.
type ClearFormulasSettings struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	// Parameters are doublestar patterns of parameter names to clear.
	Parameters []string      `json:"parameters" yaml:"parameters" hcl:"parameters"`
	Exclude    *purge.Filter `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,block"`
}

func (s *ClearFormulasSettings) IsEnabled() bool { return enabled(s.Enabled) }

func (s *ClearFormulasSettings) Validate() error {
	if len(s.Parameters) == 0 {
		return errors.Errorf("at least one parameter pattern is required")
	}
	for _, p := range s.Parameters {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("parameter pattern %q is not valid", p)
		}
	}
	return s.Filter().Validate()
}

func (s *ClearFormulasSettings) Filter() purge.Filter { return filter(s.Exclude) }
