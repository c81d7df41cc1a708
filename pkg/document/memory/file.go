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
	"bytes"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ErrValueScope marks a value written where its parameter's scope never reads it.
var ErrValueScope = errors.Base("value does not match parameter scope")

// 📄 documentFile is the on-disk YAML layout of a document.
type documentFile struct {
	Name        string          `yaml:"name"`
	Active      string          `yaml:"active,omitempty"`
	Variants    []variantFile   `yaml:"variants"`
	Parameters  []parameterFile `yaml:"parameters,omitempty"`
	Nested      []NestedObject  `yaml:"nested,omitempty"`
	Constraints []Constraint    `yaml:"constraints,omitempty"`
}

type variantFile struct {
	Name   string            `yaml:"name"`
	Values map[string]string `yaml:"values,omitempty"`
}

type parameterFile struct {
	Name       string               `yaml:"name"`
	Kind       document.StorageKind `yaml:"kind"`
	Spec       string               `yaml:"spec,omitempty"`
	Unit       string               `yaml:"unit,omitempty"`
	Formula    string               `yaml:"formula,omitempty"`
	PerVariant bool                 `yaml:"per_variant,omitempty"`
	Group      string               `yaml:"group,omitempty"`
	References []string             `yaml:"references,omitempty"`
	Value      string               `yaml:"value,omitempty"`
}

// Load reads a document from a YAML file.
func Load(ctx context.Context, path string) (*Document, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading document")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading document file: %w", err)
	}
	return Decode(ctx, data)
}

// Decode parses a YAML document.
func Decode(ctx context.Context, data []byte) (*Document, error) {
	var f documentFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Errorf("parsing document YAML: %w", err)
	}

	names := make([]string, len(f.Variants))
	for i, v := range f.Variants {
		names[i] = v.Name
	}
	d, err := New(f.Name, names...)
	if err != nil {
		return nil, err
	}

	for _, pf := range f.Parameters {
		p := document.Parameter{
			Name:       pf.Name,
			Kind:       pf.Kind,
			Spec:       pf.Spec,
			Unit:       pf.Unit,
			Formula:    pf.Formula,
			Group:      pf.Group,
			References: pf.References,
		}
		if pf.PerVariant {
			p.Scope = document.ScopePerVariant
		}
		if err := d.AddParameter(ctx, p); err != nil {
			return nil, err
		}
		if pf.Value != "" {
			if p.Scope != document.ScopeShared {
				return nil, errors.Errorf("parameter %q is per variant, set its values under variants: %w", p.Name, ErrValueScope)
			}
			v, err := parseValue(p.Kind, pf.Value)
			if err != nil {
				return nil, errors.Errorf("parameter %q: %w", p.Name, err)
			}
			d.shared[p.Name] = v
		}
	}

	for _, vf := range f.Variants {
		for name, raw := range vf.Values {
			p, ok := d.Parameter(name)
			if !ok {
				return nil, errors.Errorf("variant %q: value for %q: %w", vf.Name, name, document.ErrNotFound)
			}
			if p.Scope != document.ScopePerVariant {
				return nil, errors.Errorf("variant %q: %q is shared, set it with value: %w", vf.Name, name, ErrValueScope)
			}
			v, err := parseValue(p.Kind, raw)
			if err != nil {
				return nil, errors.Errorf("variant %q: parameter %q: %w", vf.Name, name, err)
			}
			d.values[vf.Name][name] = v
		}
	}

	for _, n := range f.Nested {
		if err := d.AddNestedObject(n); err != nil {
			return nil, err
		}
	}
	for _, c := range f.Constraints {
		if err := d.AddConstraint(c); err != nil {
			return nil, err
		}
	}

	if f.Active != "" {
		idx := -1
		for i, n := range names {
			if n == f.Active {
				idx = i
			}
		}
		if idx < 0 {
			return nil, errors.Errorf("active variant %q: %w", f.Active, document.ErrNotFound)
		}
		d.active = idx
	}
	return d, nil
}

// Save writes the document to path as YAML.
func (d *Document) Save(ctx context.Context, path string) error {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("saving document")

	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Errorf("writing document file: %w", err)
	}
	return nil
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	f := documentFile{
		Name:        d.name,
		Active:      d.variants[d.active],
		Nested:      d.nested,
		Constraints: d.constraints,
	}
	for _, p := range d.params {
		pf := parameterFile{
			Name:       p.Name,
			Kind:       p.Kind,
			Spec:       p.Spec,
			Unit:       p.Unit,
			Formula:    p.Formula,
			PerVariant: p.Scope == document.ScopePerVariant,
			Group:      p.Group,
			References: p.References,
		}
		if v, ok := d.shared[p.Name]; ok && p.Scope == document.ScopeShared {
			pf.Value = v.Text()
		}
		f.Parameters = append(f.Parameters, pf)
	}
	for _, name := range d.variants {
		vf := variantFile{Name: name}
		if vals := d.values[name]; len(vals) > 0 {
			vf.Values = make(map[string]string, len(vals))
			for k, v := range vals {
				vf.Values[k] = v.Text()
			}
		}
		f.Variants = append(f.Variants, vf)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return nil, errors.Errorf("encoding document YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("encoding document YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func parseValue(kind document.StorageKind, raw string) (document.Value, error) {
	switch kind {
	case document.KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return document.Value{}, errors.Errorf("parsing double %q: %w", raw, err)
		}
		return document.Double(f), nil
	case document.KindInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return document.Value{}, errors.Errorf("parsing integer %q: %w", raw, err)
		}
		return document.Integer(i), nil
	case document.KindReference:
		i, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
		if err != nil {
			return document.Value{}, errors.Errorf("parsing reference %q: %w", raw, err)
		}
		return document.Reference(i), nil
	default:
		return document.String(raw), nil
	}
}
