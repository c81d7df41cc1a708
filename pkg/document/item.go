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

// 🏷️ ItemKind is the closed set of deletable document items.
type ItemKind int

const (
	KindParameter ItemKind = iota
	KindNestedObject
	KindConstraint
)

func (k ItemKind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindNestedObject:
		return "nested object"
	case KindConstraint:
		return "constraint"
	default:
		return "unknown"
	}
}

// Capability describes how an item kind behaves structurally.
type Capability struct {
	HasChildren bool
	IsContainer bool
}

var capabilities = map[ItemKind]Capability{
	KindParameter:    {},
	KindNestedObject: {HasChildren: true, IsContainer: true},
	KindConstraint:   {},
}

// Capabilities resolves the capability set for kind. Unknown kinds have none.
func Capabilities(kind ItemKind) Capability {
	return capabilities[kind]
}

// Item identifies one deletable thing in a document.
type Item struct {
	Name string
	Kind ItemKind
}

func (i Item) Capabilities() Capability {
	return Capabilities(i.Kind)
}

func (i Item) String() string {
	return i.Kind.String() + " " + i.Name
}
