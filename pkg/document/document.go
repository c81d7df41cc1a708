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

package document

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

var (
	ErrNotFound  = errors.Base("not found")
	ErrExists    = errors.Base("already exists")
	ErrNotActive = errors.Base("variant is not active")
	ErrReadOnly  = errors.Base("parameter is read-only")
	ErrKind      = errors.Base("storage kind mismatch")
)

// 📐 ParameterScope says whether a parameter holds one value for the whole
// document or one value per variant.
type ParameterScope int

const (
	ScopeShared ParameterScope = iota
	ScopePerVariant
)

func (s ParameterScope) String() string {
	if s == ScopePerVariant {
		return "per-variant"
	}
	return "shared"
}

// 📋 Parameter is a parameter definition. Names are unique within a document.
type Parameter struct {
	Name    string
	Kind    StorageKind
	Spec    string // semantic data type, e.g. "electrical:voltage"
	Unit    string // display unit symbol, e.g. "V" or "mm"
	Formula string
	Scope   ParameterScope
	Group   string

	// References lists other parameters this one reads outside of a formula.
	References []string
}

// IsReadOnly reports whether the value is derived from a formula.
func (p Parameter) IsReadOnly() bool {
	return p.Formula != ""
}

// 🧬 Variant is one named configuration of the document.
type Variant struct {
	Name string
}

// Transaction is a host-side undo scope.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// 📄 Document is the adapter boundary to the host. It is the only type that
// knows the host keeps a mutable "active variant" cursor: value reads and
// writes always name their variant explicitly and writes against a variant
// that is not active fail with ErrNotActive.
type Document interface {
	Name() string

	// Variants returns variants in the document's native order.
	Variants() []Variant
	ActiveVariant() Variant
	Activate(ctx context.Context, name string) error

	Parameters() []Parameter
	Parameter(name string) (Parameter, bool)
	AddParameter(ctx context.Context, def Parameter) error
	DeleteParameter(ctx context.Context, name string) error
	RenameParameter(ctx context.Context, from, to string) error
	SetFormula(ctx context.Context, name, formula string) error

	Value(variant, name string) (Value, error)
	SetValue(ctx context.Context, variant, name string, v Value) error

	Items(kind ItemKind) []Item
	Dependents(item Item) []string
	DeleteItem(ctx context.Context, item Item) error

	Begin(ctx context.Context, label string) (Transaction, error)
}
