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
	"strings"

	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrNoStrategy    = errors.Base("no mapping strategy applies")
	ErrUnknownPolicy = errors.Base("unknown mapping policy")
	ErrNotNumeric    = errors.Base("value is not numeric")
	ErrOutOfRange    = errors.Base("value is out of range")
)

// 🔬 Representation is what a parameter declares about its values.
type Representation struct {
	Kind document.StorageKind
	Spec string
	Unit string
}

// RepresentationOf reads the representation a parameter declares.
func RepresentationOf(p document.Parameter) Representation {
	return Representation{Kind: p.Kind, Spec: p.Spec, Unit: p.Unit}
}

func (r Representation) String() string {
	var extra []string
	if r.Spec != "" {
		extra = append(extra, r.Spec)
	}
	if r.Unit != "" {
		extra = append(extra, r.Unit)
	}
	if len(extra) == 0 {
		return r.Kind.String()
	}
	return r.Kind.String() + "[" + strings.Join(extra, " ") + "]"
}

// Shape distinguishes the two ways a mapping can be requested.
type Shape int

const (
	// ShapeParameter maps one parameter's value onto another parameter.
	ShapeParameter Shape = iota
	// ShapeValue maps a raw value with no declared representation.
	ShapeValue
)

func (s Shape) String() string {
	if s == ShapeValue {
		return "value"
	}
	return "parameter"
}

// 📦 Context carries one mapping request. It lives for a single CanMap/Map pair.
type Context struct {
	SourceName string
	Value      document.Value

	// Source is nil when mapping from a raw value.
	Source *Representation

	Target    document.Parameter
	TargetRep Representation

	// Assign performs the write. A nil Assign makes Map a dry run.
	Assign func(document.Value) error
}

// FromParameter builds a parameter-to-parameter context.
func FromParameter(source document.Parameter, value document.Value, target document.Parameter, assign func(document.Value) error) *Context {
	rep := RepresentationOf(source)
	return &Context{
		SourceName: source.Name,
		Value:      value,
		Source:     &rep,
		Target:     target,
		TargetRep:  RepresentationOf(target),
		Assign:     assign,
	}
}

// FromValue builds a raw-value-to-parameter context.
func FromValue(value document.Value, target document.Parameter, assign func(document.Value) error) *Context {
	return &Context{
		Value:     value,
		Target:    target,
		TargetRep: RepresentationOf(target),
		Assign:    assign,
	}
}

func (c *Context) Shape() Shape {
	if c.Source == nil {
		return ShapeValue
	}
	return ShapeParameter
}

// SourceKind is the declared storage kind, or the raw value's own kind.
func (c *Context) SourceKind() document.StorageKind {
	if c.Source != nil {
		return c.Source.Kind
	}
	return c.Value.Kind
}

func (c *Context) describeSource() (string, string) {
	if c.Source == nil {
		return "raw value " + quote(c.Value.Text()), "raw " + c.Value.Kind.String()
	}
	return quote(c.SourceName), c.Source.String()
}

func (c *Context) assign(v document.Value) (document.Value, error) {
	if c.Assign == nil {
		return v, nil
	}
	if err := c.Assign(v); err != nil {
		return document.Value{}, errors.Errorf("assigning %q: %w", c.Target.Name, err)
	}
	return v, nil
}

func quote(s string) string {
	return "\"" + s + "\""
}

// 🔌 Strategy decides whether and how a value can be converted onto a target.
// CanMap has no side effects. Map may still fail after CanMap reported true.
type Strategy interface {
	Name() string
	CanMap(c *Context) bool
	Map(c *Context) (document.Value, error)
}
