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

package mapping

import (
	"slices"
	"strings"

	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 📚 Policy names one strategy per call shape.
type Policy struct {
	Name      string
	Parameter Strategy
	Value     Strategy
}

// Registry resolves policies by case-insensitive name.
type Registry struct {
	policies map[string]Policy
}

func NewRegistry() *Registry {
	return &Registry{policies: map[string]Policy{}}
}

// DefaultRegistry holds the built-in policies. Raw values cannot be judged by
// Strict (it accepts them optimistically), so the value-shape chains put it last.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Policy{
		{
			Name:      "strict",
			Parameter: Strict{},
			Value:     Strict{},
		},
		{
			Name:      "storage",
			Parameter: Chain(Strict{}, StorageTypeCoercion{}),
			Value:     Chain(StorageTypeCoercion{}, Strict{}),
		},
		{
			Name:      "domain",
			Parameter: Chain(Strict{}, DomainUnitCoercion{}),
			Value:     Chain(DomainUnitCoercion{}, Strict{}),
		},
		{
			Name:      "lenient",
			Parameter: Chain(Strict{}, DomainUnitCoercion{}, StorageTypeCoercion{}),
			Value:     Chain(DomainUnitCoercion{}, StorageTypeCoercion{}, Strict{}),
		},
	} {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(p Policy) error {
	key := strings.ToLower(strings.TrimSpace(p.Name))
	if key == "" {
		return errors.Errorf("registering policy: name is required")
	}
	if p.Parameter == nil || p.Value == nil {
		return errors.Errorf("registering policy %q: both call shapes need a strategy", p.Name)
	}
	if _, ok := r.policies[key]; ok {
		return errors.Errorf("registering policy %q: already registered", p.Name)
	}
	r.policies[key] = p
	return nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p.Name)
	}
	slices.Sort(out)
	return out
}

// Resolve returns the strategy registered under name for shape.
func (r *Registry) Resolve(name string, shape Shape) (Strategy, error) {
	p, ok := r.policies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Errorf("policy %q (options: %s): %w", name, strings.Join(r.Names(), ", "), ErrUnknownPolicy)
	}
	if shape == ShapeValue {
		return p.Value, nil
	}
	return p.Parameter, nil
}

// Map resolves policy for the context's shape and runs it. When no strategy
// applies nothing is written.
func (r *Registry) Map(policy string, c *Context) (document.Value, error) {
	s, err := r.Resolve(policy, c.Shape())
	if err != nil {
		return document.Value{}, err
	}
	if !s.CanMap(c) {
		src, srcRep := c.describeSource()
		return document.Value{}, errors.Errorf("mapping %s (%s) to %q (%s) with policy %q: %w",
			src, srcRep, c.Target.Name, c.TargetRep, policy, ErrNoStrategy)
	}
	return s.Map(c)
}
