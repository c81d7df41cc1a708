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

package opts

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/catalog"
	"github.com/walteh/variantrc/pkg/config"
	"github.com/walteh/variantrc/pkg/operations"
	"github.com/walteh/variantrc/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ProfilePath string
	Debug       bool

	Profile *config.Profile
	// Catalog is nil when the profile has no catalog block.
	Catalog *catalog.Catalog
	Console *report.Console
}

// Load reads the profile and builds the catalog it points at.
func (o *RootOpts) Load(ctx context.Context) error {
	profile, err := config.Load(ctx, o.ProfilePath)
	if err != nil {
		return errors.Errorf("loading profile: %w", err)
	}
	o.Profile = profile

	cat, err := NewCatalog(ctx, profile, os.Getenv)
	if err != nil {
		return errors.Errorf("creating catalog: %w", err)
	}
	o.Catalog = cat
	return nil
}

// Deps returns the operation dependencies for the loaded profile.
func (o *RootOpts) Deps() operations.Deps {
	var deps operations.Deps
	if o.Catalog != nil {
		deps.Catalog = o.Catalog
	}
	return deps
}

// SharedNames lists the catalog names the profile will ask for.
func (o *RootOpts) SharedNames() []string {
	if s := o.Profile.AddSharedParameters; s != nil && s.IsEnabled() {
		return s.Parameters
	}
	return nil
}

// NewCatalog builds the catalog of profile, or nil when it declares none.
// Tokens for GitHub sources are read through getenv.
func NewCatalog(ctx context.Context, profile *config.Profile, getenv func(string) string) (*catalog.Catalog, error) {
	settings := profile.Catalog
	if settings == nil {
		return nil, nil
	}

	maxAge, err := settings.MaxAgeDuration()
	if err != nil {
		return nil, err
	}

	var src catalog.Source
	switch {
	case settings.File != "":
		src = &catalog.FileSource{Path: profile.ResolvePath(settings.File)}
	case settings.GitHub != nil:
		gh := settings.GitHub
		token := ""
		if gh.TokenEnv != "" {
			token = getenv(gh.TokenEnv)
			if token == "" {
				zerolog.Ctx(ctx).Warn().Str("env", gh.TokenEnv).Msg("catalog token variable is empty, using anonymous access")
			}
		}
		src = catalog.NewGitHubSource(catalog.NewGitHubClient(token), gh.Owner, gh.Repo, gh.Path, gh.Ref)
	default:
		return nil, errors.Errorf("catalog has no source")
	}

	cache := catalog.NewCache(catalog.CacheOptions{
		MaxAge:    maxAge,
		Validator: catalog.FingerprintValidator(src),
	})
	return catalog.New(catalog.Options{Cache: cache, Concurrency: settings.Concurrency}, src), nil
}
