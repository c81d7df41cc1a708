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

// Package purge deletes every item that is safe to delete, repeating until
// a pass makes no progress.
package purge

import (
	"context"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// ErrStillPresent marks an item the target reported as deleted but still lists.
var ErrStillPresent = errors.Base("item still present after delete")

// 🛡️ Filter names items that must never be deleted.
type Filter struct {
	Names      []string `yaml:"names,omitempty" json:"names,omitempty" hcl:"names,optional"`
	Prefixes   []string `yaml:"prefixes,omitempty" json:"prefixes,omitempty" hcl:"prefixes,optional"`
	Substrings []string `yaml:"substrings,omitempty" json:"substrings,omitempty" hcl:"substrings,optional"`
	Globs      []string `yaml:"globs,omitempty" json:"globs,omitempty" hcl:"globs,optional"`
}

func (f Filter) Validate() error {
	for _, g := range f.Globs {
		if !doublestar.ValidatePattern(g) {
			return errors.Errorf("exclusion glob %q is not a valid pattern", g)
		}
	}
	return nil
}

// Excludes reports whether name is protected.
func (f Filter) Excludes(name string) bool {
	if slices.Contains(f.Names, name) {
		return true
	}
	for _, p := range f.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range f.Substrings {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	for _, g := range f.Globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}
	return false
}

// Target is the part of a document a purge needs.
type Target interface {
	Items(kind document.ItemKind) []document.Item
	Dependents(item document.Item) []string
	DeleteItem(ctx context.Context, item document.Item) error
}

var _ Target = document.Document(nil)

// Failure is an eligible item that could not be deleted.
type Failure struct {
	Item document.Item
	Err  error
}

// 🧹 Result summarizes a purge.
type Result struct {
	// Passes includes the final pass that deleted nothing.
	Passes  int
	Deleted []document.Item
	// Failed holds items that were eligible at some point, failed to delete,
	// and were still present when the purge stopped.
	Failed []Failure
}

// Run deletes every item of kind that the filter does not protect and that
// nothing depends on, then repeats while the previous pass deleted something.
// A failed deletion never blocks its siblings. Running it again on its own
// output deletes nothing.
func Run(ctx context.Context, target Target, kind document.ItemKind, filter Filter) (*Result, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	res := &Result{}
	lastErr := map[document.Item]error{}

	for {
		res.Passes++
		before := len(target.Items(kind))
		var deleted []document.Item
		for _, item := range eligible(target, kind, filter) {
			if err := target.DeleteItem(ctx, item); err != nil {
				logger.Debug().Str("item", item.String()).Err(err).Int("pass", res.Passes).Msg("purge candidate not deleted")
				lastErr[item] = err
				continue
			}
			delete(lastErr, item)
			deleted = append(deleted, item)
		}

		remaining := target.Items(kind)
		for _, item := range deleted {
			if slices.Contains(remaining, item) {
				lastErr[item] = errors.Errorf("deleting %s: %w", item, ErrStillPresent)
				continue
			}
			res.Deleted = append(res.Deleted, item)
		}
		logger.Debug().Int("pass", res.Passes).Int("deleted", before-len(remaining)).Str("kind", kind.String()).Msg("purge pass complete")

		// the item count must shrink every pass or the purge cannot terminate
		if len(deleted) == 0 || len(remaining) >= before {
			break
		}
	}

	for _, item := range target.Items(kind) {
		if err, ok := lastErr[item]; ok {
			res.Failed = append(res.Failed, Failure{Item: item, Err: err})
		}
	}
	return res, nil
}

// eligible is computed once per pass, so items freed by a deletion wait for
// the next pass.
func eligible(target Target, kind document.ItemKind, filter Filter) []document.Item {
	var out []document.Item
	for _, item := range target.Items(kind) {
		if filter.Excludes(item.Name) {
			continue
		}
		if deps := target.Dependents(item); len(deps) > 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}
