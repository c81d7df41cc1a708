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
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

var _ document.Document = (*Document)(nil)

// 🪆 NestedObject is a sub-object loaded into the document. Associations name
// document parameters that drive its own parameters.
type NestedObject struct {
	Name         string   `yaml:"name" json:"name"`
	Instances    int      `yaml:"instances,omitempty" json:"instances,omitempty"`
	Associations []string `yaml:"associations,omitempty" json:"associations,omitempty"`
	Children     []string `yaml:"children,omitempty" json:"children,omitempty"`
}

// 📏 Constraint is a geometric constraint labelled by a parameter.
type Constraint struct {
	Name      string `yaml:"name" json:"name"`
	Parameter string `yaml:"parameter" json:"parameter"`
}

type state struct {
	params      []document.Parameter
	shared      map[string]document.Value
	values      map[string]map[string]document.Value
	nested      []NestedObject
	constraints []Constraint
}

// 🧠 Document is an in-memory host document.
type Document struct {
	name     string
	variants []string
	active   int
	state

	activations int
	txn         *transaction
	history     []string
}

// New creates a document with the given variants. The first variant starts active.
func New(name string, variants ...string) (*Document, error) {
	if len(variants) == 0 {
		return nil, errors.Errorf("document %q: at least one variant is required", name)
	}
	seen := map[string]bool{}
	for _, v := range variants {
		if v == "" {
			return nil, errors.Errorf("document %q: variant name is required", name)
		}
		if seen[v] {
			return nil, errors.Errorf("document %q: variant %q: %w", name, v, document.ErrExists)
		}
		seen[v] = true
	}

	d := &Document{
		name:     name,
		variants: slices.Clone(variants),
		state: state{
			shared: map[string]document.Value{},
			values: map[string]map[string]document.Value{},
		},
	}
	for _, v := range variants {
		d.values[v] = map[string]document.Value{}
	}
	return d, nil
}

func (d *Document) Name() string { return d.name }

func (d *Document) Variants() []document.Variant {
	out := make([]document.Variant, len(d.variants))
	for i, v := range d.variants {
		out[i] = document.Variant{Name: v}
	}
	return out
}

func (d *Document) ActiveVariant() document.Variant {
	return document.Variant{Name: d.variants[d.active]}
}

// Activate switches the active variant. Every call counts as an activation,
// including re-activating the current one, since the host pays for both.
func (d *Document) Activate(ctx context.Context, name string) error {
	idx := slices.Index(d.variants, name)
	if idx < 0 {
		return errors.Errorf("activating variant %q: %w", name, document.ErrNotFound)
	}
	d.active = idx
	d.activations++
	zerolog.Ctx(ctx).Trace().Str("variant", name).Int("activations", d.activations).Msg("variant activated")
	return nil
}

// Activations returns how many times Activate succeeded.
func (d *Document) Activations() int { return d.activations }

// History returns the transaction events ("begin:x", "commit:x", "rollback:x") in order.
func (d *Document) History() []string { return slices.Clone(d.history) }

func (d *Document) Parameters() []document.Parameter {
	out := make([]document.Parameter, len(d.params))
	for i, p := range d.params {
		out[i] = cloneParameter(p)
	}
	return out
}

func (d *Document) Parameter(name string) (document.Parameter, bool) {
	idx := d.paramIndex(name)
	if idx < 0 {
		return document.Parameter{}, false
	}
	return cloneParameter(d.params[idx]), true
}

func (d *Document) paramIndex(name string) int {
	return slices.IndexFunc(d.params, func(p document.Parameter) bool { return p.Name == name })
}

func (d *Document) AddParameter(ctx context.Context, def document.Parameter) error {
	if strings.TrimSpace(def.Name) == "" {
		return errors.Errorf("adding parameter: name is required")
	}
	if d.paramIndex(def.Name) >= 0 {
		return errors.Errorf("adding parameter %q: %w", def.Name, document.ErrExists)
	}
	d.params = append(d.params, cloneParameter(def))
	zerolog.Ctx(ctx).Trace().Str("parameter", def.Name).Msg("parameter added")
	return nil
}

// DeleteParameter removes a parameter. Like the host, it refuses while
// anything still depends on it.
func (d *Document) DeleteParameter(ctx context.Context, name string) error {
	idx := d.paramIndex(name)
	if idx < 0 {
		return errors.Errorf("deleting parameter %q: %w", name, document.ErrNotFound)
	}
	if deps := d.Dependents(document.Item{Name: name, Kind: document.KindParameter}); len(deps) > 0 {
		return errors.Errorf("deleting parameter %q: still used by %s", name, strings.Join(deps, ", "))
	}
	d.params = slices.Delete(d.params, idx, idx+1)
	delete(d.shared, name)
	for _, vals := range d.values {
		delete(vals, name)
	}
	zerolog.Ctx(ctx).Trace().Str("parameter", name).Msg("parameter deleted")
	return nil
}

func (d *Document) RenameParameter(ctx context.Context, from, to string) error {
	idx := d.paramIndex(from)
	if idx < 0 {
		return errors.Errorf("renaming parameter %q: %w", from, document.ErrNotFound)
	}
	if strings.TrimSpace(to) == "" {
		return errors.Errorf("renaming parameter %q: new name is required", from)
	}
	if from == to {
		return nil
	}
	if d.paramIndex(to) >= 0 {
		return errors.Errorf("renaming parameter %q to %q: %w", from, to, document.ErrExists)
	}

	d.params[idx].Name = to
	for i := range d.params {
		d.params[i].Formula = replaceMention(d.params[i].Formula, from, to)
		for j, ref := range d.params[i].References {
			if ref == from {
				d.params[i].References[j] = to
			}
		}
	}
	for i := range d.constraints {
		if d.constraints[i].Parameter == from {
			d.constraints[i].Parameter = to
		}
	}
	for i := range d.nested {
		for j, a := range d.nested[i].Associations {
			if a == from {
				d.nested[i].Associations[j] = to
			}
		}
	}
	if v, ok := d.shared[from]; ok {
		d.shared[to] = v
		delete(d.shared, from)
	}
	for _, vals := range d.values {
		if v, ok := vals[from]; ok {
			vals[to] = v
			delete(vals, from)
		}
	}
	zerolog.Ctx(ctx).Trace().Str("from", from).Str("to", to).Msg("parameter renamed")
	return nil
}

func (d *Document) SetFormula(ctx context.Context, name, formula string) error {
	idx := d.paramIndex(name)
	if idx < 0 {
		return errors.Errorf("setting formula on %q: %w", name, document.ErrNotFound)
	}
	if mentions(formula, name) {
		return errors.Errorf("setting formula on %q: formula references itself", name)
	}
	d.params[idx].Formula = formula
	return nil
}

func (d *Document) Value(variant, name string) (document.Value, error) {
	p, ok := d.Parameter(name)
	if !ok {
		return document.Value{}, errors.Errorf("reading %q: %w", name, document.ErrNotFound)
	}
	if p.Scope == document.ScopeShared {
		if v, ok := d.shared[name]; ok {
			return v, nil
		}
		return document.Value{Kind: p.Kind}, nil
	}
	vals, ok := d.values[variant]
	if !ok {
		return document.Value{}, errors.Errorf("reading %q: variant %q: %w", name, variant, document.ErrNotFound)
	}
	if v, ok := vals[name]; ok {
		return v, nil
	}
	return document.Value{Kind: p.Kind}, nil
}

func (d *Document) SetValue(ctx context.Context, variant, name string, v document.Value) error {
	p, ok := d.Parameter(name)
	if !ok {
		return errors.Errorf("setting %q: %w", name, document.ErrNotFound)
	}
	if p.IsReadOnly() {
		return errors.Errorf("setting %q: %w", name, document.ErrReadOnly)
	}
	if p.Kind != v.Kind {
		return errors.Errorf("setting %q: value is %s, parameter is %s: %w", name, v.Kind, p.Kind, document.ErrKind)
	}
	if _, ok := d.values[variant]; !ok {
		return errors.Errorf("setting %q: variant %q: %w", name, variant, document.ErrNotFound)
	}
	if d.variants[d.active] != variant {
		return errors.Errorf("setting %q on %q: %w", name, variant, document.ErrNotActive)
	}

	v.Display = ""
	if p.Scope == document.ScopeShared {
		d.shared[name] = v
	} else {
		d.values[variant][name] = v
	}
	zerolog.Ctx(ctx).Trace().Str("variant", variant).Str("parameter", name).Str("value", v.Text()).Msg("value set")
	return nil
}

func (d *Document) Items(kind document.ItemKind) []document.Item {
	var out []document.Item
	switch kind {
	case document.KindParameter:
		for _, p := range d.params {
			out = append(out, document.Item{Name: p.Name, Kind: kind})
		}
	case document.KindNestedObject:
		for _, n := range d.nested {
			out = append(out, document.Item{Name: n.Name, Kind: kind})
		}
	case document.KindConstraint:
		for _, c := range d.constraints {
			out = append(out, document.Item{Name: c.Name, Kind: kind})
		}
	}
	return out
}

// Dependents lists everything that keeps item alive.
func (d *Document) Dependents(item document.Item) []string {
	var deps []string
	switch item.Kind {
	case document.KindParameter:
		for _, p := range d.params {
			if p.Name == item.Name {
				continue
			}
			if mentions(p.Formula, item.Name) || slices.Contains(p.References, item.Name) {
				deps = append(deps, "parameter "+p.Name)
			}
		}
		for _, c := range d.constraints {
			if c.Parameter == item.Name {
				deps = append(deps, "constraint "+c.Name)
			}
		}
		for _, n := range d.nested {
			if slices.Contains(n.Associations, item.Name) {
				deps = append(deps, "nested object "+n.Name)
			}
		}
	case document.KindNestedObject:
		if !item.Capabilities().IsContainer {
			break
		}
		for _, n := range d.nested {
			if n.Name != item.Name {
				continue
			}
			for i := 1; i <= n.Instances; i++ {
				deps = append(deps, fmt.Sprintf("instance %d of %s", i, n.Name))
			}
		}
	}
	return deps
}

func (d *Document) DeleteItem(ctx context.Context, item document.Item) error {
	switch item.Kind {
	case document.KindParameter:
		return d.DeleteParameter(ctx, item.Name)
	case document.KindNestedObject:
		idx := slices.IndexFunc(d.nested, func(n NestedObject) bool { return n.Name == item.Name })
		if idx < 0 {
			return errors.Errorf("deleting %s: %w", item, document.ErrNotFound)
		}
		if deps := d.Dependents(item); len(deps) > 0 {
			return errors.Errorf("deleting %s: still used by %s", item, strings.Join(deps, ", "))
		}
		d.removeNested(ctx, item, map[string]bool{})
		return nil
	case document.KindConstraint:
		idx := slices.IndexFunc(d.constraints, func(c Constraint) bool { return c.Name == item.Name })
		if idx < 0 {
			return errors.Errorf("deleting %s: %w", item, document.ErrNotFound)
		}
		d.constraints = slices.Delete(d.constraints, idx, idx+1)
		return nil
	}
	return errors.Errorf("deleting %s: unsupported item kind", item)
}

// removeNested deletes a nested object. Kinds that have children take the
// nested objects they name with them, however many instances those have.
func (d *Document) removeNested(ctx context.Context, item document.Item, seen map[string]bool) {
	if seen[item.Name] {
		return
	}
	seen[item.Name] = true

	idx := slices.IndexFunc(d.nested, func(n NestedObject) bool { return n.Name == item.Name })
	if idx < 0 {
		return
	}
	removed := d.nested[idx]
	d.nested = slices.Delete(d.nested, idx, idx+1)

	if !item.Capabilities().HasChildren {
		return
	}
	for _, child := range removed.Children {
		zerolog.Ctx(ctx).Trace().Str("container", item.Name).Str("child", child).Msg("removing child with container")
		d.removeNested(ctx, document.Item{Name: child, Kind: document.KindNestedObject}, seen)
	}
}

// AddNestedObject loads a nested object into the document.
func (d *Document) AddNestedObject(n NestedObject) error {
	if slices.ContainsFunc(d.nested, func(o NestedObject) bool { return o.Name == n.Name }) {
		return errors.Errorf("adding nested object %q: %w", n.Name, document.ErrExists)
	}
	n.Associations = slices.Clone(n.Associations)
	n.Children = slices.Clone(n.Children)
	d.nested = append(d.nested, n)
	return nil
}

// AddConstraint labels a geometric constraint with a parameter.
func (d *Document) AddConstraint(c Constraint) error {
	if slices.ContainsFunc(d.constraints, func(o Constraint) bool { return o.Name == c.Name }) {
		return errors.Errorf("adding constraint %q: %w", c.Name, document.ErrExists)
	}
	d.constraints = append(d.constraints, c)
	return nil
}

func cloneParameter(p document.Parameter) document.Parameter {
	p.References = slices.Clone(p.References)
	return p
}

func isIdent(r byte) bool {
	return r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// mentionAt returns the offsets of name in formula where it is not part of a
// longer identifier.
func mentionAt(formula, name string) []int {
	if name == "" {
		return nil
	}
	var out []int
	for start := 0; start <= len(formula)-len(name); {
		i := strings.Index(formula[start:], name)
		if i < 0 {
			break
		}
		i += start
		end := i + len(name)
		before := i == 0 || !isIdent(formula[i-1])
		after := end == len(formula) || !isIdent(formula[end])
		if before && after {
			out = append(out, i)
		}
		start = i + 1
	}
	return out
}

func mentions(formula, name string) bool {
	return len(mentionAt(formula, name)) > 0
}

func replaceMention(formula, from, to string) string {
	idx := mentionAt(formula, from)
	if len(idx) == 0 {
		return formula
	}
	var b strings.Builder
	last := 0
	for _, i := range idx {
		if i < last {
			continue
		}
		b.WriteString(formula[last:i])
		b.WriteString(to)
		last = i + len(from)
	}
	b.WriteString(formula[last:])
	return b.String()
}
