package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func newPanel(t *testing.T) *Document {
	t.Helper()
	ctx := testContext(t)
	d, err := New("Panel", "A", "B", "C")
	require.NoError(t, err)
	require.NoError(t, d.AddParameter(ctx, document.Parameter{Name: "Width", Kind: document.KindDouble, Scope: document.ScopePerVariant}))
	require.NoError(t, d.AddParameter(ctx, document.Parameter{Name: "Height", Kind: document.KindDouble, Scope: document.ScopePerVariant}))
	require.NoError(t, d.AddParameter(ctx, document.Parameter{Name: "Area", Kind: document.KindDouble, Scope: document.ScopePerVariant, Formula: "Width * Height"}))
	require.NoError(t, d.AddParameter(ctx, document.Parameter{Name: "Maker", Kind: document.KindString}))
	return d
}

func TestNewRequiresVariants(t *testing.T) {
	_, err := New("Empty")
	require.Error(t, err)

	_, err = New("Dup", "A", "A")
	require.ErrorIs(t, err, document.ErrExists)
}

func TestSetValueRequiresActiveVariant(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)

	require.NoError(t, d.SetValue(ctx, "A", "Width", document.Double(2)))

	err := d.SetValue(ctx, "B", "Width", document.Double(3))
	require.ErrorIs(t, err, document.ErrNotActive)

	require.NoError(t, d.Activate(ctx, "B"))
	require.NoError(t, d.SetValue(ctx, "B", "Width", document.Double(3)))

	a, err := d.Value("A", "Width")
	require.NoError(t, err)
	b, err := d.Value("B", "Width")
	require.NoError(t, err)
	assert.Equal(t, 2.0, a.Double)
	assert.Equal(t, 3.0, b.Double)
	assert.Equal(t, 1, d.Activations())
}

func TestSetValueRejections(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)

	tests := []struct {
		name    string
		param   string
		value   document.Value
		wantErr error
	}{
		{name: "formula_is_read_only", param: "Area", value: document.Double(1), wantErr: document.ErrReadOnly},
		{name: "kind_mismatch", param: "Width", value: document.String("wide"), wantErr: document.ErrKind},
		{name: "unknown_parameter", param: "Depth", value: document.Double(1), wantErr: document.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.SetValue(ctx, "A", tt.param, tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSharedValueVisibleFromEveryVariant(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)

	require.NoError(t, d.SetValue(ctx, "A", "Maker", document.String("ACME")))
	for _, v := range []string{"A", "B", "C"} {
		got, err := d.Value(v, "Maker")
		require.NoError(t, err)
		assert.Equal(t, "ACME", got.String)
	}
}

func TestDependents(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)
	require.NoError(t, d.AddConstraint(Constraint{Name: "EQ", Parameter: "Height"}))
	require.NoError(t, d.AddNestedObject(NestedObject{Name: "Breaker", Associations: []string{"Maker"}}))

	assert.Equal(t, []string{"parameter Area"}, d.Dependents(document.Item{Name: "Width", Kind: document.KindParameter}))
	assert.Equal(t, []string{"parameter Area", "constraint EQ"}, d.Dependents(document.Item{Name: "Height", Kind: document.KindParameter}))
	assert.Equal(t, []string{"nested object Breaker"}, d.Dependents(document.Item{Name: "Maker", Kind: document.KindParameter}))
	assert.Empty(t, d.Dependents(document.Item{Name: "Area", Kind: document.KindParameter}))

	err := d.DeleteParameter(ctx, "Width")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still used by parameter Area")

	require.NoError(t, d.DeleteParameter(ctx, "Area"))
	require.NoError(t, d.DeleteParameter(ctx, "Width"))
}

func TestMentionsRespectsIdentifierBoundaries(t *testing.T) {
	assert.True(t, mentions("Width * 2", "Width"))
	assert.False(t, mentions("Widths * 2", "Width"))
	assert.False(t, mentions("Total_Width", "Width"))
	assert.True(t, mentions("if(Load > 10, Load, 0)", "Load"))
	assert.Equal(t, "W2 + (W2)", replaceMention("Width + (Width)", "Width", "W2"))
}

func TestRenameParameterUpdatesReferences(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)
	require.NoError(t, d.SetValue(ctx, "A", "Width", document.Double(4)))

	require.NoError(t, d.RenameParameter(ctx, "Width", "Panel Width"))

	area, ok := d.Parameter("Area")
	require.True(t, ok)
	assert.Equal(t, "Panel Width * Height", area.Formula)

	v, err := d.Value("A", "Panel Width")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.Double)

	err = d.RenameParameter(ctx, "Height", "Panel Width")
	require.ErrorIs(t, err, document.ErrExists)
}

func TestDeleteNestedObject(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)
	require.NoError(t, d.AddNestedObject(NestedObject{Name: "Placed", Instances: 2}))
	require.NoError(t, d.AddNestedObject(NestedObject{Name: "Unused", Children: []string{"Inner"}}))

	item := document.Item{Name: "Placed", Kind: document.KindNestedObject}
	assert.Len(t, d.Dependents(item), 2)
	require.Error(t, d.DeleteItem(ctx, item))

	require.NoError(t, d.DeleteItem(ctx, document.Item{Name: "Unused", Kind: document.KindNestedObject}))
	assert.Equal(t, []document.Item{item}, d.Items(document.KindNestedObject))
}

func TestDeleteContainerRemovesChildren(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)
	for _, n := range []NestedObject{
		{Name: "Lock", Children: []string{"Cylinder", "Keyway"}},
		{Name: "Cylinder", Instances: 1, Children: []string{"Pin", "Lock"}},
		{Name: "Pin", Instances: 5},
		{Name: "Spare"},
	} {
		require.NoError(t, d.AddNestedObject(n))
	}

	require.True(t, document.Capabilities(document.KindNestedObject).HasChildren)
	require.NoError(t, d.DeleteItem(ctx, document.Item{Name: "Lock", Kind: document.KindNestedObject}))

	assert.Equal(t, []document.Item{{Name: "Spare", Kind: document.KindNestedObject}}, d.Items(document.KindNestedObject),
		"children go with their container, including nested ones and those with instances")
}

func TestTransactionRollback(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)

	txn, err := d.Begin(ctx, "batch 1")
	require.NoError(t, err)

	_, err = d.Begin(ctx, "batch 2")
	require.ErrorIs(t, err, ErrTransactionOpen)

	require.NoError(t, d.Activate(ctx, "C"))
	require.NoError(t, d.SetValue(ctx, "C", "Width", document.Double(9)))
	require.NoError(t, d.DeleteParameter(ctx, "Maker"))
	require.NoError(t, txn.Rollback(ctx))

	_, ok := d.Parameter("Maker")
	assert.True(t, ok)
	v, err := d.Value("C", "Width")
	require.NoError(t, err)
	assert.Zero(t, v.Double)
	assert.Equal(t, "A", d.ActiveVariant().Name)
	assert.Equal(t, []string{"begin:batch 1", "rollback:batch 1"}, d.History())

	require.Error(t, txn.Commit(ctx))
}

func TestFileRoundTrip(t *testing.T) {
	ctx := testContext(t)
	d := newPanel(t)
	require.NoError(t, d.SetValue(ctx, "A", "Width", document.Double(1.5)))
	require.NoError(t, d.SetValue(ctx, "A", "Maker", document.String("ACME")))
	require.NoError(t, d.AddConstraint(Constraint{Name: "EQ", Parameter: "Height"}))
	require.NoError(t, d.Activate(ctx, "B"))

	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, d.Save(ctx, path))

	loaded, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Panel", loaded.Name())
	assert.Equal(t, "B", loaded.ActiveVariant().Name)
	assert.Equal(t, d.Parameters(), loaded.Parameters())

	w, err := loaded.Value("A", "Width")
	require.NoError(t, err)
	assert.Equal(t, 1.5, w.Double)
	m, err := loaded.Value("C", "Maker")
	require.NoError(t, err)
	assert.Equal(t, "ACME", m.String)
	assert.Equal(t, []document.Item{{Name: "EQ", Kind: document.KindConstraint}}, loaded.Items(document.KindConstraint))
}

func TestDecodeRejectsUnknownValues(t *testing.T) {
	_, err := Decode(testContext(t), []byte(`
name: Bad
variants:
  - name: A
    values:
      Missing: "1"
`))
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestDecodeRejectsValuesOutsideTheirScope(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "shared_value_on_per_variant_parameter",
			yaml: `
name: Bad
variants:
  - name: A
parameters:
  - name: Width
    kind: double
    per_variant: true
    value: "2"
`,
		},
		{
			name: "variant_value_on_shared_parameter",
			yaml: `
name: Bad
variants:
  - name: A
    values:
      Maker: ACME
parameters:
  - name: Maker
    kind: string
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(testContext(t), []byte(tt.yaml))
			require.ErrorIs(t, err, ErrValueScope)
		})
	}
}
