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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultPolicy      = "lenient"
	DefaultTransaction = "per-batch"
)

// 🔌 Parser is the interface for profile parsers
type Parser interface {
	// 📝 Parse parses the profile from bytes
	Parse(ctx context.Context, data []byte, filename string) (*Profile, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Profile is one named set of operation settings plus the order to run them in.
type Profile struct {
	Name            string   `json:"name" yaml:"name" hcl:"name"`
	Policy          string   `json:"policy,omitempty" yaml:"policy,omitempty" hcl:"policy,optional"`
	Transaction     string   `json:"transaction,omitempty" yaml:"transaction,omitempty" hcl:"transaction,optional"`
	RollbackOnFatal bool     `json:"rollback_on_fatal,omitempty" yaml:"rollback_on_fatal,omitempty" hcl:"rollback_on_fatal,optional"`
	Queue           []string `json:"queue" yaml:"queue" hcl:"queue"`

	Catalog *CatalogSettings `json:"catalog,omitempty" yaml:"catalog,omitempty" hcl:"catalog,block"`

	PurgeParameters     *PurgeSettings               `json:"purge_parameters,omitempty" yaml:"purge_parameters,omitempty" hcl:"purge_parameters,block"`
	PurgeNested         *PurgeSettings               `json:"purge_nested,omitempty" yaml:"purge_nested,omitempty" hcl:"purge_nested,block"`
	RenameParameters    *RenameSettings              `json:"rename_parameters,omitempty" yaml:"rename_parameters,omitempty" hcl:"rename_parameters,block"`
	AddSharedParameters *AddSharedParametersSettings `json:"add_shared_parameters,omitempty" yaml:"add_shared_parameters,omitempty" hcl:"add_shared_parameters,block"`
	SetValues           *SetValuesSettings           `json:"set_values,omitempty" yaml:"set_values,omitempty" hcl:"set_values,block"`
	MapParameters       *MapParametersSettings       `json:"map_parameters,omitempty" yaml:"map_parameters,omitempty" hcl:"map_parameters,block"`
	ClearFormulas       *ClearFormulasSettings       `json:"clear_formulas,omitempty" yaml:"clear_formulas,omitempty" hcl:"clear_formulas,block"`

	location string
}

// 🎯 Load reads, parses, defaults and validates the profile at path
func Load(ctx context.Context, path string) (*Profile, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading profile")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading profile: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file %q (supported: .yaml, .yml, .json, .hcl)", path)
	}

	profile, err := p.Parse(ctx, data, path)
	if err != nil {
		return nil, errors.Errorf("parsing profile: %w", err)
	}
	profile.location = path

	if err := profile.Validate(); err != nil {
		return nil, errors.Errorf("validating profile %q: %w", path, err)
	}

	logger.Debug().Str("profile", profile.Name).Strs("queue", profile.Queue).Msg("profile loaded")
	return profile, nil
}

// 🔍 Validate applies defaults and checks required fields
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Errorf("name is required")
	}
	if p.Policy == "" {
		p.Policy = DefaultPolicy
	}
	if p.Transaction == "" {
		p.Transaction = DefaultTransaction
	}
	if _, err := parseMode(p.Transaction); err != nil {
		return err
	}
	if len(p.Queue) == 0 {
		return errors.Errorf("queue must name at least one operation")
	}

	if p.Catalog != nil {
		if err := p.Catalog.Validate(); err != nil {
			return errors.Errorf("catalog: %w", err)
		}
	}

	for _, kind := range SettingsKinds() {
		s, ok := p.Settings(kind)
		if !ok {
			continue
		}
		if err := s.Validate(); err != nil {
			return errors.Errorf("%s: %w", kind, err)
		}
	}
	return nil
}

// Mode returns the processor transaction mode.
func (p *Profile) Mode() operation.Mode {
	m, _ := parseMode(p.Transaction)
	return m
}

// Commit returns the commit policy implied by rollback_on_fatal.
func (p *Profile) Commit() operation.CommitPolicy {
	if p.RollbackOnFatal {
		return operation.CommitUnlessFatal
	}
	return operation.CommitAlways
}

// Location is the path the profile was loaded from, if any.
func (p *Profile) Location() string {
	return p.location
}

// ResolvePath makes rel relative to the profile's directory.
func (p *Profile) ResolvePath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) || p.location == "" {
		return rel
	}
	return filepath.Join(filepath.Dir(p.location), rel)
}

// 📝 String returns a one-line summary
func (p *Profile) String() string {
	return fmt.Sprintf("%s [%s, %s] %s", p.Name, p.Policy, p.Transaction, strings.Join(p.Queue, " -> "))
}

func parseMode(s string) (operation.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per-batch", "per_batch", "batch":
		return operation.ModePerBatch, nil
	case "single":
		return operation.ModeSingle, nil
	}
	return operation.ModePerBatch, errors.Errorf("unknown transaction mode %q (options: per-batch, single)", s)
}

// 📖 CatalogSettings points at the shared parameter catalog.
type CatalogSettings struct {
	File        string                 `json:"file,omitempty" yaml:"file,omitempty" hcl:"file,optional"`
	GitHub      *GitHubCatalogSettings `json:"github,omitempty" yaml:"github,omitempty" hcl:"github,block"`
	MaxAge      string                 `json:"max_age,omitempty" yaml:"max_age,omitempty" hcl:"max_age,optional"`
	Concurrency int                    `json:"concurrency,omitempty" yaml:"concurrency,omitempty" hcl:"concurrency,optional"`
}

type GitHubCatalogSettings struct {
	Owner string `json:"owner" yaml:"owner" hcl:"owner"`
	Repo  string `json:"repo" yaml:"repo" hcl:"repo"`
	Path  string `json:"path" yaml:"path" hcl:"path"`
	Ref   string `json:"ref,omitempty" yaml:"ref,omitempty" hcl:"ref,optional"`
	// TokenEnv names the environment variable holding the API token.
	TokenEnv string `json:"token_env,omitempty" yaml:"token_env,omitempty" hcl:"token_env,optional"`
}

func (c *CatalogSettings) Validate() error {
	if (c.File == "") == (c.GitHub == nil) {
		return errors.Errorf("exactly one of file or github is required")
	}
	if c.GitHub != nil {
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" || c.GitHub.Path == "" {
			return errors.Errorf("github.owner, github.repo and github.path are required")
		}
		if c.GitHub.Ref == "" {
			c.GitHub.Ref = "main"
		}
	}
	if _, err := c.MaxAgeDuration(); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative")
	}
	return nil
}

// MaxAgeDuration parses max_age; zero means entries never expire by age.
func (c *CatalogSettings) MaxAgeDuration() (time.Duration, error) {
	if c.MaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil {
		return 0, errors.Errorf("max_age %q: %w", c.MaxAge, err)
	}
	return d, nil
}
