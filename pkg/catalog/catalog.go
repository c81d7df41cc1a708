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

package catalog

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.Base("catalog definition not found")

// 📖 Definition is a shared parameter as published in a catalog.
type Definition struct {
	ID         string               `yaml:"id,omitempty" json:"id,omitempty"`
	Name       string               `yaml:"name" json:"name"`
	Kind       document.StorageKind `yaml:"kind" json:"kind"`
	Spec       string               `yaml:"spec,omitempty" json:"spec,omitempty"`
	Unit       string               `yaml:"unit,omitempty" json:"unit,omitempty"`
	Group      string               `yaml:"group,omitempty" json:"group,omitempty"`
	PerVariant bool                 `yaml:"per_variant,omitempty" json:"per_variant,omitempty"`
}

// Parameter converts the definition into a document parameter.
func (d Definition) Parameter() document.Parameter {
	scope := document.ScopeShared
	if d.PerVariant {
		scope = document.ScopePerVariant
	}
	return document.Parameter{
		Name:  d.Name,
		Kind:  d.Kind,
		Spec:  d.Spec,
		Unit:  d.Unit,
		Group: d.Group,
		Scope: scope,
	}
}

// Snapshot is everything one fetch of a source returned.
type Snapshot struct {
	Definitions []Definition
	// Fingerprint identifies the fetched content, e.g. a blob SHA.
	Fingerprint string
}

// 🔌 Source is where definitions come from.
type Source interface {
	// Key identifies the source in the cache.
	Key() string
	Fetch(ctx context.Context) (*Snapshot, error)
}

type catalogFile struct {
	Definitions []Definition `yaml:"definitions"`
}

// Decode parses a YAML catalog document.
func Decode(data []byte) ([]Definition, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing catalog: %w", err)
	}
	seen := map[string]bool{}
	for i, d := range f.Definitions {
		if d.Name == "" {
			return nil, errors.Errorf("definition %d: name is required", i)
		}
		if seen[d.Name] {
			return nil, errors.Errorf("definition %q: %w", d.Name, document.ErrExists)
		}
		seen[d.Name] = true
	}
	return f.Definitions, nil
}

// 🗂️ Catalog resolves definitions across sources, first source wins.
type Catalog struct {
	sources     []Source
	cache       *Cache
	concurrency int
}

type Options struct {
	// Cache is shared by every catalog it is passed to. Nil means a fresh
	// cache with no expiry.
	Cache *Cache
	// Concurrency bounds Prefetch. Zero means one fetch per source at once.
	Concurrency int
}

func New(opts Options, sources ...Source) *Catalog {
	c := &Catalog{
		sources:     slices.Clone(sources),
		cache:       opts.Cache,
		concurrency: opts.Concurrency,
	}
	if c.cache == nil {
		c.cache = NewCache(CacheOptions{})
	}
	if c.concurrency <= 0 {
		c.concurrency = len(sources)
	}
	return c
}

// Lookup returns the definition named name from the first source that has it.
func (c *Catalog) Lookup(ctx context.Context, name string) (Definition, error) {
	for _, src := range c.sources {
		defs, err := c.load(ctx, src)
		if err != nil {
			return Definition{}, err
		}
		if d, ok := defs[name]; ok {
			return d, nil
		}
	}
	return Definition{}, errors.Errorf("looking up %q in %d sources: %w", name, len(c.sources), ErrNotFound)
}

// Prefetch loads every source concurrently and checks that names resolve.
// Run it before building the queue so operations never wait on the network.
func (c *Catalog) Prefetch(ctx context.Context, names ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.concurrency, 1))
	for _, src := range c.sources {
		g.Go(func() error {
			_, err := c.fetchInto(gctx, src)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Errorf("prefetching catalog: %w", err)
	}

	var missing []string
	for _, name := range names {
		if _, err := c.Lookup(ctx, name); err != nil {
			if errors.Is(err, ErrNotFound) {
				missing = append(missing, name)
				continue
			}
			return err
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing %s: %w", strings.Join(missing, ", "), ErrNotFound)
	}
	return nil
}

// Definitions lists every definition, first source wins on name clashes.
func (c *Catalog) Definitions(ctx context.Context) ([]Definition, error) {
	var out []Definition
	seen := map[string]bool{}
	for _, src := range c.sources {
		defs, err := c.load(ctx, src)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(defs))
		for n := range defs {
			names = append(names, n)
		}
		slices.Sort(names)
		for _, n := range names {
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, defs[n])
		}
	}
	return out, nil
}

// Invalidate drops every cached entry of this catalog's sources.
func (c *Catalog) Invalidate() {
	for _, src := range c.sources {
		c.cache.Invalidate(src.Key())
	}
}

func (c *Catalog) load(ctx context.Context, src Source) (map[string]Definition, error) {
	if e, ok := c.cache.Get(ctx, src.Key()); ok {
		return e.Definitions, nil
	}
	return c.fetchInto(ctx, src)
}

func (c *Catalog) fetchInto(ctx context.Context, src Source) (map[string]Definition, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("source", src.Key()).Msg("fetching catalog")

	snap, err := src.Fetch(ctx)
	if err != nil {
		return nil, errors.Errorf("fetching %s: %w", src.Key(), err)
	}

	defs := make(map[string]Definition, len(snap.Definitions))
	for _, d := range snap.Definitions {
		if _, dup := defs[d.Name]; !dup {
			defs[d.Name] = d
		}
	}

	c.cache.Put(src.Key(), defs, snap.Fingerprint)

	logger.Debug().Str("source", src.Key()).Int("definitions", len(defs)).Str("fingerprint", snap.Fingerprint).Msg("catalog cached")
	return defs, nil
}
