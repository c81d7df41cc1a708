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

// ⛓️ Chained tries strategies in order.
type Chained struct {
	Strategies []Strategy
}

func Chain(strategies ...Strategy) *Chained {
	return &Chained{Strategies: strategies}
}

func (c *Chained) Name() string {
	names := make([]string, len(c.Strategies))
	for i, s := range c.Strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (c *Chained) CanMap(ctx *Context) bool {
	_, ok := c.pick(ctx)
	return ok
}

// Map commits to the first member whose CanMap is true. If that member's Map
// fails the error is returned as is; later members are not tried.
func (c *Chained) Map(ctx *Context) (document.Value, error) {
	s, ok := c.pick(ctx)
	if !ok {
		return document.Value{}, errors.Errorf("chain %s: %w", c.Name(), ErrNoStrategy)
	}
	return s.Map(ctx)
}

func (c *Chained) pick(ctx *Context) (Strategy, bool) {
	for _, s := range c.Strategies {
		if s.CanMap(ctx) {
			return s, true
		}
	}
	return nil, false
}
