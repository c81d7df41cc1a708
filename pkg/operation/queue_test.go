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

package operation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/variantrc/pkg/operation"
)

func noop(name string, scope operation.Scope, enabled bool) operation.Operation {
	return operation.Func(operation.Options{Name: name, Description: "does " + name, Scope: scope, Enabled: enabled}, func(context.Context, operation.Target) (*operation.Log, error) {
		panic("metadata must not execute " + name)
	})
}

// queueOf builds a queue from a pattern like "DVVD", one operation per letter.
func queueOf(pattern string) *operation.Queue {
	q := operation.NewQueue()
	for i, r := range pattern {
		scope := operation.ScopeDocument
		if r == 'V' {
			scope = operation.ScopeVariant
		}
		q.Add(noop(string(rune('a'+i)), scope, true))
	}
	return q
}

func TestBatches(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{pattern: "", want: nil},
		{pattern: "D", want: []string{"D"}},
		{pattern: "V", want: []string{"V"}},
		{pattern: "DVVD", want: []string{"D", "VV", "D"}},
		{pattern: "VVVDDV", want: []string{"VVV", "DD", "V"}},
		{pattern: "DVDVD", want: []string{"D", "V", "D", "V", "D"}},
	}
	for _, tt := range tests {
		t.Run("pattern_"+tt.pattern, func(t *testing.T) {
			batches := queueOf(tt.pattern).Batches()

			var got []string
			var flat []string
			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				letter := "D"
				if b.Merged() {
					letter = "V"
				}
				got = append(got, strings.Repeat(letter, len(b.Operations)))
				for _, op := range b.Operations {
					assert.Equal(t, b.Scope, op.Scope(), "batches are uniform")
					flat = append(flat, op.Name())
				}
				if i > 0 {
					assert.NotEqual(t, batches[i-1].Scope, b.Scope, "adjacent batches differ in scope")
				}
			}

			assert.Equal(t, tt.want, got)

			var order []string
			for _, op := range queueOf(tt.pattern).Operations() {
				order = append(order, op.Name())
			}
			assert.Equal(t, order, flat, "concatenated batches equal the queue")
		})
	}
}

func TestQueueSkipsDisabled(t *testing.T) {
	q := operation.NewQueue(
		noop("on", operation.ScopeDocument, true),
		noop("off", operation.ScopeVariant, false),
		nil,
	)
	assert.Equal(t, 1, q.Len())
	assert.False(t, q.Add(noop("also off", operation.ScopeDocument, false)))
	assert.True(t, q.Add(noop("again", operation.ScopeDocument, true)))

	batches := q.Batches()
	require.Len(t, batches, 1, "the disabled variant op does not split the document run")
	assert.Len(t, batches[0].Operations, 2)
}

func TestMetadata(t *testing.T) {
	q := operation.NewQueue(
		noop("purge", operation.ScopeDocument, true),
		noop("set", operation.ScopeVariant, true),
		noop("map", operation.ScopeVariant, true),
	)

	want := []operation.Metadata{
		{Name: "purge", Description: "does purge", Scope: operation.ScopeDocument, Batch: 0},
		{Name: "set", Description: "does set", Scope: operation.ScopeVariant, Batch: 1},
		{Name: "map", Description: "does map", Scope: operation.ScopeVariant, Batch: 1},
	}
	if diff := cmp.Diff(want, q.Metadata()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeText(t *testing.T) {
	var s operation.Scope
	require.NoError(t, s.UnmarshalText([]byte("variant")))
	assert.Equal(t, operation.ScopeVariant, s)

	b, err := operation.ScopeDocument.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "document", string(b))

	require.Error(t, s.UnmarshalText([]byte("global")))
}
