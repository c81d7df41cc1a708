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

package operation

import (
	"context"

	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// DocumentContext is the context label of entries produced by document-scoped operations.
const DocumentContext = "document"

// 🎯 Scope says how often an operation runs.
type Scope int

const (
	// ScopeDocument operations run once against the whole document.
	ScopeDocument Scope = iota
	// ScopeVariant operations run once per variant, with that variant active.
	ScopeVariant
)

func (s Scope) String() string {
	if s == ScopeVariant {
		return "variant"
	}
	return "document"
}

func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(b []byte) error {
	switch string(b) {
	case "document":
		*s = ScopeDocument
	case "variant":
		*s = ScopeVariant
	default:
		return errors.Errorf("unknown scope %q", string(b))
	}
	return nil
}

// 🎯 Target is what an operation executes against. Variant is nil for
// document-scoped operations; for variant-scoped ones it names the variant
// the processor has already activated.
type Target struct {
	Document document.Document
	Variant  *document.Variant
}

// Context returns the label entries produced against this target carry.
func (t Target) Context() string {
	if t.Variant == nil {
		return DocumentContext
	}
	return t.Variant.Name
}

// 🔌 Operation is one configured unit of work.
//
// Execute reports per-item problems as failed entries on the returned Log.
// A returned error (or a panic) means the operation itself broke; the
// processor records it as fatal and moves on.
type Operation interface {
	Name() string
	Description() string
	Scope() Scope
	Enabled() bool
	Execute(ctx context.Context, target Target) (*Log, error)
}

// Options describes an operation's identity.
type Options struct {
	Name        string
	Description string
	Scope       Scope
	Enabled     bool
}

// 🏗️ BaseOperation carries the identity half of Operation for embedding.
type BaseOperation struct {
	name        string
	description string
	scope       Scope
	enabled     bool
}

func NewBaseOperation(opts Options) BaseOperation {
	return BaseOperation{
		name:        opts.Name,
		description: opts.Description,
		scope:       opts.Scope,
		enabled:     opts.Enabled,
	}
}

func (b BaseOperation) Name() string        { return b.name }
func (b BaseOperation) Description() string { return b.description }
func (b BaseOperation) Scope() Scope        { return b.scope }
func (b BaseOperation) Enabled() bool       { return b.enabled }

// NewLog starts an empty log named after the operation.
func (b BaseOperation) NewLog() *Log {
	return NewLog(b.name)
}

// ExecuteFunc is the body of a Func operation.
type ExecuteFunc func(ctx context.Context, target Target) (*Log, error)

type funcOperation struct {
	BaseOperation
	fn ExecuteFunc
}

// Func builds an operation from a plain function.
func Func(opts Options, fn ExecuteFunc) Operation {
	return &funcOperation{
		BaseOperation: NewBaseOperation(opts),
		fn:            fn,
	}
}

func (f *funcOperation) Execute(ctx context.Context, target Target) (*Log, error) {
	return f.fn(ctx, target)
}
