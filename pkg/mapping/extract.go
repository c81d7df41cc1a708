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
	"regexp"
	"strconv"

	"github.com/walteh/variantrc/pkg/document"
)

var numericPattern = regexp.MustCompile(`[-+]?(?:\d+(?:\.\d+)?|\.\d+)(?:[eE][-+]?\d+)?`)

// numericToken is one numeric substring and where it ends in the text.
type numericToken struct {
	value float64
	end   int
}

func numericTokens(s string) []numericToken {
	var out []numericToken
	for _, loc := range numericPattern.FindAllStringIndex(s, -1) {
		f, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
		if err != nil {
			continue
		}
		out = append(out, numericToken{value: f, end: loc[1]})
	}
	return out
}

// ExtractNumber returns the first numeric substring of s.
func ExtractNumber(s string) (float64, bool) {
	toks := numericTokens(s)
	if len(toks) == 0 {
		return 0, false
	}
	return toks[0].value, true
}

// extractDouble reads a floating point number out of any non-reference value.
func extractDouble(v document.Value) (float64, bool) {
	switch v.Kind {
	case document.KindDouble:
		return v.Double, true
	case document.KindInteger:
		return float64(v.Integer), true
	case document.KindString:
		return ExtractNumber(v.String)
	}
	return 0, false
}

// toInt64 rounds f to the nearest integer, rejecting NaN, infinities and
// anything an int64 cannot hold.
func toInt64(f float64) (int64, bool) {
	r := math.Round(f)
	if math.IsNaN(r) || r < math.MinInt64 || r >= math.MaxInt64 {
		return 0, false
	}
	return int64(r), true
}

// extractInteger prefers the formatted display string when the host supplied
// one, since it is already rounded the way the user sees it.
func extractInteger(v document.Value) (int64, error) {
	f, ok := 0.0, false
	if v.Display != "" {
		f, ok = ExtractNumber(v.Display)
	}
	if !ok {
		switch v.Kind {
		case document.KindInteger:
			return v.Integer, nil
		case document.KindDouble:
			f, ok = v.Double, true
		case document.KindString:
			f, ok = ExtractNumber(v.String)
		}
	}
	if !ok {
		return 0, ErrNotNumeric
	}
	i, ok := toInt64(f)
	if !ok {
		return 0, ErrOutOfRange
	}
	return i, nil
}
