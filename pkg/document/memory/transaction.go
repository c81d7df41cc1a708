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

package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

var ErrTransactionOpen = errors.Base("transaction already open")

type transaction struct {
	doc      *Document
	label    string
	snapshot state
	active   int
	done     bool
}

// Begin opens a snapshot transaction. Only one may be open at a time.
func (d *Document) Begin(ctx context.Context, label string) (document.Transaction, error) {
	if d.txn != nil {
		return nil, errors.Errorf("beginning %q while %q is open: %w", label, d.txn.label, ErrTransactionOpen)
	}
	d.txn = &transaction{
		doc:      d,
		label:    label,
		snapshot: d.state.clone(),
		active:   d.active,
	}
	d.history = append(d.history, "begin:"+label)
	zerolog.Ctx(ctx).Trace().Str("transaction", label).Msg("transaction opened")
	return d.txn, nil
}

func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return errors.Errorf("committing %q: transaction already closed", t.label)
	}
	t.done = true
	t.doc.txn = nil
	t.doc.history = append(t.doc.history, "commit:"+t.label)
	zerolog.Ctx(ctx).Trace().Str("transaction", t.label).Msg("transaction committed")
	return nil
}

// Rollback restores parameters and values. The active variant is restored
// too, without counting as an activation.
func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return errors.Errorf("rolling back %q: transaction already closed", t.label)
	}
	t.done = true
	t.doc.state = t.snapshot
	t.doc.active = t.active
	t.doc.txn = nil
	t.doc.history = append(t.doc.history, "rollback:"+t.label)
	zerolog.Ctx(ctx).Trace().Str("transaction", t.label).Msg("transaction rolled back")
	return nil
}

func (s state) clone() state {
	out := state{
		params:      make([]document.Parameter, len(s.params)),
		shared:      maps.Clone(s.shared),
		values:      make(map[string]map[string]document.Value, len(s.values)),
		nested:      make([]NestedObject, len(s.nested)),
		constraints: slices.Clone(s.constraints),
	}
	for i, p := range s.params {
		out.params[i] = cloneParameter(p)
	}
	for k, v := range s.values {
		out.values[k] = maps.Clone(v)
	}
	for i, n := range s.nested {
		n.Associations = slices.Clone(n.Associations)
		n.Children = slices.Clone(n.Children)
		out.nested[i] = n
	}
	return out
}
