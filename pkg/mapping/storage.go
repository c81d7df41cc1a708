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

type conversion struct {
	from, to document.StorageKind
}

// 🗺️ conversions lists the cross-kind pairs StorageTypeCoercion accepts.
// needsNumber marks pairs that also require a numeric substring.
var conversions = map[conversion]bool{
	{document.KindInteger, document.KindString}: false,
	{document.KindInteger, document.KindDouble}: false,
	{document.KindDouble, document.KindString}:  false,
	{document.KindDouble, document.KindInteger}: false,
	{document.KindString, document.KindInteger}: true,
	{document.KindString, document.KindDouble}:  true,
}

// 🔄 StorageTypeCoercion converts between compatible storage kinds.
type StorageTypeCoercion struct{}

func (StorageTypeCoercion) Name() string { return "storage" }

func (StorageTypeCoercion) CanMap(c *Context) bool {
	from, to := c.SourceKind(), c.TargetRep.Kind
	if from == to {
		return true
	}
	needsNumber, ok := conversions[conversion{from, to}]
	if !ok {
		return false
	}
	if needsNumber {
		_, ok := ExtractNumber(c.Value.String)
		return ok
	}
	return true
}

func (s StorageTypeCoercion) Map(c *Context) (document.Value, error) {
	v, err := s.convert(c.Value, c.TargetRep.Kind)
	if err != nil {
		return document.Value{}, err
	}
	return c.assign(v)
}

func (StorageTypeCoercion) convert(v document.Value, to document.StorageKind) (document.Value, error) {
	if v.Kind == to {
		return v, nil
	}
	switch to {
	case document.KindString:
		if v.Kind == document.KindReference {
			break
		}
		if v.Display != "" {
			return document.String(v.Display), nil
		}
		return document.String(v.Text()), nil
	case document.KindInteger:
		i, err := extractInteger(v)
		if err != nil {
			return document.Value{}, errors.Errorf("converting %q to integer: %w", v.Text(), err)
		}
		return document.Integer(i), nil
	case document.KindDouble:
		if f, ok := extractDouble(v); ok {
			return document.Double(f), nil
		}
		return document.Value{}, errors.Errorf("converting %q to double: %w", v.Text(), ErrNotNumeric)
	}
	return document.Value{}, errors.Errorf("converting %s to %s: %w", v.Kind, to, document.ErrKind)
}
