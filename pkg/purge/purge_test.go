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

package purge_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/variantrc/pkg/document"
	"github.com/walteh/variantrc/pkg/document/memory"
	"github.com/walteh/variantrc/pkg/purge"
	"gitlab.com/tozd/go/errors"
)

func setup(t *testing.T, params ...document.Parameter) (context.Context, *memory.Document) {
	t.Helper()
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	doc, err := memory.New("purge", "default")
	require.NoError(t, err)
	for _, p := range params {
		require.NoError(t, doc.AddParameter(ctx, p))
	}
	return ctx, doc
}

func itemNames(items []document.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestRunReachesFixedPoint(t *testing.T) {
	// A reads B, so B stays alive until A is gone; C is protected.
	ctx, doc := setup(t,
		document.Parameter{Name: "A", Kind: document.KindDouble, Formula: "B * 2"},
		document.Parameter{Name: "B", Kind: document.KindDouble},
		document.Parameter{Name: "C", Kind: document.KindDouble},
	)

	res, err := purge.Run(ctx, doc, document.KindParameter, purge.Filter{Names: []string{"C"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, itemNames(res.Deleted))
	assert.Equal(t, 3, res.Passes)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{"C"}, itemNames(doc.Items(document.KindParameter)))

	again, err := purge.Run(ctx, doc, document.KindParameter, purge.Filter{Names: []string{"C"}})
	require.NoError(t, err)
	assert.Empty(t, again.Deleted, "a second run is a no-op")
	assert.Equal(t, 1, again.Passes)
}

func TestRunChain(t *testing.T) {
	ctx, doc := setup(t,
		document.Parameter{Name: "Top", Kind: document.KindDouble, Formula: "Mid + 1"},
		document.Parameter{Name: "Mid", Kind: document.KindDouble, Formula: "Low + 1"},
		document.Parameter{Name: "Low", Kind: document.KindDouble},
		document.Parameter{Name: "Label", Kind: document.KindString},
	)
	require.NoError(t, doc.AddConstraint(memory.Constraint{Name: "Dim1", Parameter: "Label"}))

	res, err := purge.Run(ctx, doc, document.KindParameter, purge.Filter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Top", "Mid", "Low"}, itemNames(res.Deleted))
	assert.Equal(t, 4, res.Passes)
	assert.Equal(t, []string{"Label"}, itemNames(doc.Items(document.KindParameter)), "constraint keeps the label")
}

func TestFilterExcludes(t *testing.T) {
	f := purge.Filter{
		Names:      []string{"Keep"},
		Prefixes:   []string{"IFC_"},
		Substrings: []string{"Shared"},
		Globs:      []string{"Door*Width"},
	}
	tests := []struct {
		name string
		want bool
	}{
		{name: "Keep", want: true},
		{name: "Keeper", want: false},
		{name: "IFC_Export", want: true},
		{name: "My Shared Value", want: true},
		{name: "Door Panel Width", want: true},
		{name: "Window Width", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Excludes(tt.name))
		})
	}

	require.Error(t, purge.Filter{Globs: []string{"[bad"}}.Validate())
}

// flaky refuses to delete some items without reporting dependents.
type flaky struct {
	*memory.Document
	refuse map[string]bool
}

func (f *flaky) DeleteItem(ctx context.Context, item document.Item) error {
	if f.refuse[item.Name] {
		return errors.New("host refused")
	}
	return f.Document.DeleteItem(ctx, item)
}

func TestRunFailureDoesNotBlockSiblings(t *testing.T) {
	ctx, doc := setup(t,
		document.Parameter{Name: "Stuck", Kind: document.KindDouble},
		document.Parameter{Name: "Free", Kind: document.KindDouble},
		document.Parameter{Name: "AlsoFree", Kind: document.KindDouble},
	)
	target := &flaky{Document: doc, refuse: map[string]bool{"Stuck": true}}

	res, err := purge.Run(ctx, target, document.KindParameter, purge.Filter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Free", "AlsoFree"}, itemNames(res.Deleted))
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "Stuck", res.Failed[0].Item.Name)
	assert.ErrorContains(t, res.Failed[0].Err, "host refused")
	assert.Equal(t, 2, res.Passes)
}

// forgetful reports success for some deletions without removing the item.
type forgetful struct {
	*memory.Document
	keep map[string]bool
}

func (f *forgetful) DeleteItem(ctx context.Context, item document.Item) error {
	if f.keep[item.Name] {
		return nil
	}
	return f.Document.DeleteItem(ctx, item)
}

func TestRunStopsWhenTargetDoesNotShrink(t *testing.T) {
	tests := []struct {
		name        string
		keep        []string
		wantDeleted []string
		wantFailed  []string
		wantPasses  int
	}{
		{name: "nothing_removed", keep: []string{"Ghost", "Shade"}, wantDeleted: nil, wantFailed: []string{"Ghost", "Shade"}, wantPasses: 1},
		{name: "partial_progress", keep: []string{"Ghost"}, wantDeleted: []string{"Shade"}, wantFailed: []string{"Ghost"}, wantPasses: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, doc := setup(t,
				document.Parameter{Name: "Ghost", Kind: document.KindDouble},
				document.Parameter{Name: "Shade", Kind: document.KindDouble},
			)
			keep := map[string]bool{}
			for _, k := range tt.keep {
				keep[k] = true
			}

			res, err := purge.Run(ctx, &forgetful{Document: doc, keep: keep}, document.KindParameter, purge.Filter{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantDeleted, nilIfEmpty(itemNames(res.Deleted)))
			var failed []string
			for _, f := range res.Failed {
				assert.ErrorIs(t, f.Err, purge.ErrStillPresent)
				failed = append(failed, f.Item.Name)
			}
			assert.Equal(t, tt.wantFailed, failed)
			assert.Equal(t, tt.wantPasses, res.Passes)
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestRunNestedObjects(t *testing.T) {
	ctx, doc := setup(t)
	require.NoError(t, doc.AddNestedObject(memory.NestedObject{Name: "Hinge", Instances: 2}))
	require.NoError(t, doc.AddNestedObject(memory.NestedObject{Name: "Handle"}))
	require.NoError(t, doc.AddNestedObject(memory.NestedObject{Name: "Lock", Children: []string{"Cylinder"}}))

	res, err := purge.Run(ctx, doc, document.KindNestedObject, purge.Filter{Prefixes: []string{"Lo"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Handle"}, itemNames(res.Deleted))
	assert.Equal(t, []string{"Hinge", "Lock"}, itemNames(doc.Items(document.KindNestedObject)))
}

func TestRunRejectsBadFilter(t *testing.T) {
	ctx, doc := setup(t)
	_, err := purge.Run(ctx, doc, document.KindParameter, purge.Filter{Globs: []string{"[x"}})
	require.Error(t, err)
}
