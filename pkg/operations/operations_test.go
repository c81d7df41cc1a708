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

package operations_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/variantrc/pkg/catalog"
	"github.com/walteh/variantrc/pkg/config"
	"github.com/walteh/variantrc/pkg/document"
	"github.com/walteh/variantrc/pkg/document/memory"
	"github.com/walteh/variantrc/pkg/mapping"
	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/operations"
	"github.com/walteh/variantrc/pkg/purge"
	"github.com/walteh/variantrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// staticCatalog serves definitions from a map.
type staticCatalog map[string]catalog.Definition

func (s staticCatalog) Lookup(_ context.Context, name string) (catalog.Definition, error) {
	d, ok := s[name]
	if !ok {
		return catalog.Definition{}, errors.Errorf("%q: %w", name, catalog.ErrNotFound)
	}
	return d, nil
}

func panelDoc(t *testing.T, ctx context.Context) *memory.Document {
	t.Helper()
	doc, err := memory.New("panel", "100A", "200A", "400A")
	require.NoError(t, err)
	for _, p := range []document.Parameter{
		{Name: "Voltage", Kind: document.KindDouble, Spec: "electrical:voltage", Unit: "V", Scope: document.ScopePerVariant},
		{Name: "Rating", Kind: document.KindDouble, Scope: document.ScopePerVariant},
		{Name: "Rating Label", Kind: document.KindString, Scope: document.ScopePerVariant},
		{Name: "Poles", Kind: document.KindInteger, Scope: document.ScopePerVariant},
		{Name: "Old_Width", Kind: document.KindDouble},
		{Name: "Depth", Kind: document.KindDouble, Formula: "Old_Width / 2"},
		{Name: "Unused", Kind: document.KindString},
		{Name: "IFC_GUID", Kind: document.KindString},
	} {
		require.NoError(t, doc.AddParameter(ctx, p))
	}
	return doc
}

func bools(b bool) *bool { return &b }

func TestBuildQueue(t *testing.T) {
	ctx := testContext(t)

	tests := []struct {
		name      string
		profile   *config.Profile
		deps      operations.Deps
		wantErr   error
		wantNames []string
	}{
		{
			name:    "unknown_type",
			profile: &config.Profile{Name: "p", Policy: "lenient", Queue: []string{"teleport"}},
			wantErr: operations.ErrMissingSettings,
		},
		{
			name:    "missing_block",
			profile: &config.Profile{Name: "p", Policy: "lenient", Queue: []string{config.KindSetValues}},
			wantErr: operations.ErrMissingSettings,
		},
		{
			name: "unknown_policy",
			profile: &config.Profile{Name: "p", Policy: "lenient", Queue: []string{config.KindMapParameters}, MapParameters: &config.MapParametersSettings{
				Policy:   "fuzzy",
				Mappings: []config.Mapping{{Source: "A", Target: "B"}},
			}},
			wantErr: mapping.ErrUnknownPolicy,
		},
		{
			name: "shared_parameters_without_catalog",
			profile: &config.Profile{Name: "p", Policy: "lenient", Queue: []string{config.KindAddSharedParameters}, AddSharedParameters: &config.AddSharedParametersSettings{
				Parameters: []string{"Voltage"},
			}},
			wantErr: operations.ErrMissingSettings,
		},
		{
			name: "disabled_and_repeated",
			profile: &config.Profile{
				Name:            "p",
				Policy:          "LENIENT",
				Queue:           []string{config.KindPurgeParameters, config.KindClearFormulas, config.KindPurgeParameters},
				PurgeParameters: &config.PurgeSettings{},
				ClearFormulas:   &config.ClearFormulasSettings{Enabled: bools(false), Parameters: []string{"*"}},
			},
			wantNames: []string{"purge_parameters", "purge_parameters#2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := operations.BuildQueue(ctx, tt.profile, tt.deps)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, op := range q.Operations() {
				names = append(names, op.Name())
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestProfileEndToEnd(t *testing.T) {
	ctx := testContext(t)
	doc := panelDoc(t, ctx)

	profile := &config.Profile{
		Name:   "panels",
		Policy: "lenient",
		Queue: []string{
			config.KindClearFormulas,
			config.KindPurgeParameters,
			config.KindAddSharedParameters,
			config.KindSetValues,
			config.KindMapParameters,
			config.KindRenameParameters,
		},
		ClearFormulas:   &config.ClearFormulasSettings{Parameters: []string{"Dep*"}},
		PurgeParameters: &config.PurgeSettings{Exclude: &purge.Filter{Prefixes: []string{"IFC_"}, Names: []string{"Voltage", "Rating", "Rating Label", "Poles", "Old_Width"}}},
		AddSharedParameters: &config.AddSharedParametersSettings{
			Parameters: []string{"Frequency", "Missing"},
			Group:      "Electrical",
		},
		SetValues: &config.SetValuesSettings{Assignments: []config.Assignment{
			{Parameter: "Voltage", Value: "3PH 4W 480Y/277V"},
			{Parameter: "Rating", Value: "100A", Variants: []string{"100A"}},
			{Parameter: "Rating", Value: "200A", Variants: []string{"200A"}},
			{Parameter: "Rating", Value: "N/A", Variants: []string{"400A"}},
			{Parameter: "Poles", Value: "3 pole"},
		}},
		MapParameters: &config.MapParametersSettings{Mappings: []config.Mapping{
			{Source: "Rating", Target: "Rating Label"},
		}},
		RenameParameters: &config.RenameSettings{Rules: []text.ReplacementRule{
			{FromText: "Old_", ToText: "", NameFilterGlob: "Old_*"},
		}},
	}
	require.NoError(t, profile.Validate())

	q, err := operations.BuildQueue(ctx, profile, operations.Deps{Catalog: staticCatalog{
		"Frequency": {Name: "Frequency", Kind: document.KindDouble, Unit: "Hz"},
	}})
	require.NoError(t, err)

	batches := q.Batches()
	require.Len(t, batches, 3)
	assert.True(t, batches[1].Merged())

	res, err := operation.NewProcessor(operation.ProcessorOptions{}).Process(ctx, doc, q, profile.Mode())
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, 3, doc.Activations())

	byName := map[string]*operation.Log{}
	for _, l := range res.Logs {
		byName[l.Operation] = l
	}

	// clear_formulas frees Depth, so the purge can take it and Unused
	assert.Equal(t, 1, byName[config.KindClearFormulas].Successes())
	assert.Equal(t, 2, byName[config.KindPurgeParameters].Successes())
	_, ok := doc.Parameter("Depth")
	assert.False(t, ok)
	_, ok = doc.Parameter("IFC_GUID")
	assert.True(t, ok)

	shared := byName[config.KindAddSharedParameters]
	assert.Equal(t, 1, shared.Successes())
	assert.Equal(t, 1, shared.Failures())
	freq, ok := doc.Parameter("Frequency")
	require.True(t, ok)
	assert.Equal(t, "Electrical", freq.Group)

	set := byName[config.KindSetValues]
	assert.Equal(t, 1, set.Failures(), "N/A cannot become a rating")
	for _, v := range []string{"100A", "200A", "400A"} {
		got, err := doc.Value(v, "Voltage")
		require.NoError(t, err)
		assert.Equal(t, 480.0, got.Double, v)

		poles, err := doc.Value(v, "Poles")
		require.NoError(t, err)
		assert.Equal(t, int64(3), poles.Integer, v)
	}
	r, err := doc.Value("200A", "Rating")
	require.NoError(t, err)
	assert.Equal(t, 200.0, r.Double)

	label, err := doc.Value("100A", "Rating Label")
	require.NoError(t, err)
	assert.Equal(t, "100", label.String)
	assert.Equal(t, 3, byName[config.KindMapParameters].Successes(), "unset ratings still map as zero")

	_, ok = doc.Parameter("Width")
	assert.True(t, ok, "renamed")
}

func TestRenameConflictIsItemFailure(t *testing.T) {
	ctx := testContext(t)
	doc, err := memory.New("d", "only")
	require.NoError(t, err)
	require.NoError(t, doc.AddParameter(ctx, document.Parameter{Name: "Breite", Kind: document.KindDouble}))
	require.NoError(t, doc.AddParameter(ctx, document.Parameter{Name: "Width", Kind: document.KindDouble}))
	require.NoError(t, doc.AddParameter(ctx, document.Parameter{Name: "Hoehe", Kind: document.KindDouble}))

	op := operations.NewRenameParameters(operation.Options{Name: "rename", Enabled: true}, text.NewSimpleTextReplacer(), []text.ReplacementRule{
		{FromText: "Breite", ToText: "Width"},
		{FromText: "Hoehe", ToText: "Height"},
	})
	log, err := op.Execute(ctx, operation.Target{Document: doc})
	require.NoError(t, err)

	require.Len(t, log.Entries, 2)
	assert.Equal(t, "Breite", log.Entries[0].Item)
	require.ErrorIs(t, log.Entries[0].Err, document.ErrExists)
	assert.Equal(t, "renamed to Height", log.Entries[1].Message)
}

func TestVariantOperationsNeedVariant(t *testing.T) {
	ctx := testContext(t)
	doc, err := memory.New("d", "only")
	require.NoError(t, err)

	op := operations.NewSetValues(operation.Options{Name: "set", Enabled: true}, mapping.DefaultRegistry(), "strict", nil)
	assert.Equal(t, operation.ScopeVariant, op.Scope())

	_, err = op.Execute(ctx, operation.Target{Document: doc})
	require.Error(t, err, "a missing variant is a breakdown, not an item failure")
}

func TestSetValuesStrictPolicyRejects(t *testing.T) {
	ctx := testContext(t)
	doc, err := memory.New("d", "only")
	require.NoError(t, err)
	require.NoError(t, doc.AddParameter(ctx, document.Parameter{Name: "Rating", Kind: document.KindDouble}))

	op := operations.NewSetValues(operation.Options{Name: "set", Enabled: true}, mapping.DefaultRegistry(), "strict", []config.Assignment{
		{Parameter: "Rating", Value: "100"},
		{Parameter: "Ghost", Value: "1"},
	})
	only := doc.ActiveVariant()
	log, err := op.Execute(ctx, operation.Target{Document: doc, Variant: &only})
	require.NoError(t, err)

	require.Len(t, log.Entries, 2)
	require.ErrorIs(t, log.Entries[0].Err, document.ErrKind)
	require.ErrorIs(t, log.Entries[1].Err, document.ErrNotFound)
}
