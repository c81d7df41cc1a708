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
	"context"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one cached source.
type Entry struct {
	Definitions map[string]Definition
	Fingerprint string
	Stored      time.Time
}

// Validator reports whether a cached entry still matches its source.
type Validator func(ctx context.Context, key string, e Entry) bool

type CacheOptions struct {
	// MaxAge expires entries; zero keeps them until invalidated.
	MaxAge time.Duration
	// Validator is consulted on every hit; nil accepts every entry.
	Validator Validator
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// 💾 Cache holds fetched catalogs. It is an explicit object so that callers
// decide its lifetime and sharing.
type Cache struct {
	maxAge    time.Duration
	validator Validator
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

func NewCache(opts CacheOptions) *Cache {
	c := &Cache{
		maxAge:    opts.MaxAge,
		validator: opts.Validator,
		now:       opts.Clock,
		entries:   map[string]Entry{},
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Get returns a live entry. Expired or rejected entries are evicted.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return Entry{}, false
	}

	if c.maxAge > 0 && c.now().Sub(e.Stored) > c.maxAge {
		zerolog.Ctx(ctx).Debug().Str("source", key).Msg("catalog cache entry expired")
		c.Invalidate(key)
		return Entry{}, false
	}
	if c.validator != nil && !c.validator(ctx, key, e) {
		zerolog.Ctx(ctx).Debug().Str("source", key).Str("fingerprint", e.Fingerprint).Msg("catalog cache entry rejected")
		c.Invalidate(key)
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) Put(key string, defs map[string]Definition, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Definitions: maps.Clone(defs), Fingerprint: fingerprint, Stored: c.now()}
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fingerprinter is a source that can report its current fingerprint without
// a full fetch.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// FingerprintValidator rejects entries whose source now reports a different
// fingerprint. Sources that cannot report one are trusted.
func FingerprintValidator(sources ...Source) Validator {
	byKey := map[string]Fingerprinter{}
	for _, s := range sources {
		if f, ok := s.(Fingerprinter); ok {
			byKey[s.Key()] = f
		}
	}
	return func(ctx context.Context, key string, e Entry) bool {
		f, ok := byKey[key]
		if !ok {
			return true
		}
		current, err := f.Fingerprint(ctx)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("source", key).Msg("fingerprint check failed")
			return false
		}
		return current == e.Fingerprint
	}
}
