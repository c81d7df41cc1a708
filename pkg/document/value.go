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
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🗃️ StorageKind is how the host stores a parameter value.
type StorageKind int

const (
	KindDouble StorageKind = iota
	KindInteger
	KindString
	KindReference
)

func (k StorageKind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// ParseStorageKind accepts the names produced by String plus a few common aliases.
func ParseStorageKind(s string) (StorageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "double", "real", "number", "float":
		return KindDouble, nil
	case "integer", "int":
		return KindInteger, nil
	case "string", "text":
		return KindString, nil
	case "reference", "ref", "elementid":
		return KindReference, nil
	}
	return 0, errors.Errorf("unknown storage kind %q", s)
}

func (k StorageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *StorageKind) UnmarshalText(b []byte) error {
	v, err := ParseStorageKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// 💎 Value is a tagged union over the four storage kinds. Display carries the
// host's formatted rendition ("230 V", "1'-6\"") when one is known.
type Value struct {
	Kind    StorageKind
	Double  float64
	Integer int64
	String  string
	Ref     int64
	Display string
}

func Double(v float64) Value   { return Value{Kind: KindDouble, Double: v} }
func Integer(v int64) Value    { return Value{Kind: KindInteger, Integer: v} }
func String(v string) Value    { return Value{Kind: KindString, String: v} }
func Reference(id int64) Value { return Value{Kind: KindReference, Ref: id} }

// WithDisplay returns a copy of v carrying a formatted display string.
func (v Value) WithDisplay(display string) Value {
	v.Display = display
	return v
}

// Text renders the raw value, ignoring Display.
func (v Value) Text() string {
	switch v.Kind {
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case KindString:
		return v.String
	case KindReference:
		return "#" + strconv.FormatInt(v.Ref, 10)
	default:
		return ""
	}
}

func (v Value) IsZero() bool {
	return v == Value{Kind: v.Kind}
}
