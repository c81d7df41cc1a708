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
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 📏 UnitFamily is a physical quantity family. Factors are relative to a
// common base; Internal names the unit the host stores values in.
type UnitFamily struct {
	Name     string
	Spec     string
	Internal string
	Factors  map[string]float64

	// Standard values are preferred over other numbers found in text.
	Standard []float64
}

// Families are matched against a parameter's Spec by suffix, so both
// "electrical:voltage" and "autodesk.spec.aec.electrical:voltage" resolve.
var Families = []UnitFamily{
	{
		Name:     "voltage",
		Spec:     "electrical:voltage",
		Internal: "V",
		Factors:  map[string]float64{"mV": 0.001, "V": 1, "kV": 1000},
		Standard: []float64{120, 208, 240, 277, 480, 600, 110, 220, 230, 380, 400, 690},
	},
	{
		Name:     "current",
		Spec:     "electrical:current",
		Internal: "A",
		Factors:  map[string]float64{"mA": 0.001, "A": 1, "kA": 1000},
		Standard: []float64{15, 20, 25, 30, 35, 40, 45, 50, 60, 70, 80, 90, 100, 110, 125, 150, 175, 200, 225, 250, 300, 350, 400},
	},
	{
		Name:     "apparent power",
		Spec:     "electrical:apparentpower",
		Internal: "VA",
		Factors:  map[string]float64{"VA": 1, "kVA": 1000, "MVA": 1e6},
	},
	{
		Name:     "length",
		Spec:     "length",
		Internal: "ft",
		Factors:  map[string]float64{"mm": 0.001, "cm": 0.01, "m": 1, "in": 0.0254, "\"": 0.0254, "ft": 0.3048, "'": 0.3048},
	},
}

// FamilyFor returns the unit family a spec belongs to.
func FamilyFor(spec string) (UnitFamily, bool) {
	if spec == "" {
		return UnitFamily{}, false
	}
	for _, f := range Families {
		if spec == f.Spec || strings.HasSuffix(spec, "."+f.Spec) || strings.HasSuffix(spec, ":"+f.Spec) {
			return f, true
		}
	}
	return UnitFamily{}, false
}

// Parse reads a quantity out of free text. Standard values win over the
// first number; a unit written right after the number is honored,
// otherwise fallback is assumed.
func (f UnitFamily) Parse(text, fallback string) (float64, string, bool) {
	toks := numericTokens(text)
	if len(toks) == 0 {
		return 0, "", false
	}
	chosen := toks[0]
	for _, tok := range toks {
		if slices.Contains(f.Standard, math.Abs(tok.value)) {
			chosen = tok
			break
		}
	}
	unit := f.unitAfter(text[chosen.end:])
	if unit == "" {
		unit = fallback
	}
	return chosen.value, unit, true
}

func (f UnitFamily) unitAfter(rest string) string {
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '"' && r != '\''
	})
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return ""
	}
	if _, ok := f.Factors[rest]; ok {
		return rest
	}
	// longest case-insensitive prefix, so "kv" and "Vac" both resolve
	best := ""
	for symbol := range f.Factors {
		if len(symbol) > len(best) && len(symbol) <= len(rest) && strings.EqualFold(rest[:len(symbol)], symbol) {
			best = symbol
		}
	}
	return best
}

// Convert moves v from unit to the family's internal unit.
func (f UnitFamily) Convert(v float64, unit string) (float64, error) {
	from, ok := f.Factors[unit]
	if !ok {
		return 0, errors.Errorf("unit %q is not a %s unit", unit, f.Name)
	}
	return v * from / f.Factors[f.Internal], nil
}

// ⚡ DomainUnitCoercion handles parameters tagged with a known unit family.
type DomainUnitCoercion struct{}

func (DomainUnitCoercion) Name() string { return "domain" }

func (d DomainUnitCoercion) CanMap(c *Context) bool {
	fam, ok := FamilyFor(c.TargetRep.Spec)
	if !ok {
		return false
	}
	if c.TargetRep.Kind != document.KindDouble && c.TargetRep.Kind != document.KindInteger {
		return false
	}
	switch c.SourceKind() {
	case document.KindString:
		_, _, ok := fam.Parse(c.Value.String, "")
		return ok
	case document.KindDouble, document.KindInteger:
		return true
	}
	return false
}

func (d DomainUnitCoercion) Map(c *Context) (document.Value, error) {
	fam, ok := FamilyFor(c.TargetRep.Spec)
	if !ok {
		return document.Value{}, errors.Errorf("target %q has no unit family: %w", c.Target.Name, ErrNoStrategy)
	}
	internal, err := d.internalValue(fam, c)
	if err != nil {
		return document.Value{}, err
	}
	if c.TargetRep.Kind == document.KindInteger {
		i, ok := toInt64(internal)
		if !ok {
			return document.Value{}, errors.Errorf("%s value %g for %q: %w", fam.Name, internal, c.Target.Name, ErrOutOfRange)
		}
		return c.assign(document.Integer(i))
	}
	return c.assign(document.Double(internal))
}

func (d DomainUnitCoercion) internalValue(fam UnitFamily, c *Context) (float64, error) {
	display := c.TargetRep.Unit
	if _, ok := fam.Factors[display]; !ok {
		display = fam.Internal
	}

	switch c.Value.Kind {
	case document.KindString:
		v, unit, ok := fam.Parse(c.Value.String, display)
		if !ok {
			return 0, errors.Errorf("reading %s from %q: %w", fam.Name, c.Value.String, ErrNotNumeric)
		}
		return fam.Convert(v, unit)
	case document.KindDouble, document.KindInteger:
		n, _ := extractDouble(c.Value)
		if c.Source != nil {
			// values of the same family are already stored internally
			if src, ok := FamilyFor(c.Source.Spec); ok && src.Name == fam.Name {
				return n, nil
			}
		}
		return fam.Convert(n, display)
	}
	return 0, errors.Errorf("reading %s from %s: %w", fam.Name, c.Value.Kind, document.ErrKind)
}
