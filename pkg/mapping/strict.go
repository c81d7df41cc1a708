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
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 🔒 Strict maps only between identical representations.
type Strict struct{}

func (Strict) Name() string { return "strict" }

// CanMap is optimistic for raw values since nothing about them is declared;
// Map rejects them if the kinds turn out to differ.
func (Strict) CanMap(c *Context) bool {
	if c.Source == nil {
		return true
	}
	return *c.Source == c.TargetRep
}

func (Strict) Map(c *Context) (document.Value, error) {
	if c.Value.Kind != c.TargetRep.Kind {
		return document.Value{}, errors.Errorf("strict mapping of %s into %s: %w", c.Value.Kind, c.TargetRep.Kind, document.ErrKind)
	}
	return c.assign(c.Value)
}
