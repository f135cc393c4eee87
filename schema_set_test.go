package sdojsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaSetLookups(t *testing.T) {
	thing := &SchemaFragment{Kind: KindClass, Name: "Thing", ID: "https://example.org/schema/Thing.jsd", Class: &ClassSpec{}}
	name := &SchemaFragment{Kind: KindProperty, Name: "name", ID: "https://example.org/schema/name.prop.jsd", Property: &PropertySpec{}}
	text := &SchemaFragment{Kind: KindDatatype, Name: "Text", Datatype: &DatatypeSpec{Primitive: "string"}}
	meta := &MetaSchema{ID: "https://example.org/meta/type.jsd"}

	set, err := NewSchemaSet([]*SchemaFragment{text, thing, name}, []*MetaSchema{meta})
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []*SchemaFragment{thing}, set.OfKind(KindClass))
	assert.Equal(t, []*SchemaFragment{text, thing, name}, set.Fragments())

	got, ok := set.Lookup("name")
	require.True(t, ok)
	assert.Same(t, name, got)

	got, ok = set.LookupID("https://example.org/schema/Thing.jsd#")
	require.True(t, ok)
	assert.Same(t, thing, got)

	m, ok := set.LookupMeta("https://example.org/meta/type.jsd#")
	require.True(t, ok)
	assert.Same(t, meta, m)

	_, ok = set.Lookup("Person")
	assert.False(t, ok)
}

func TestSchemaSetIsolatedFromCaller(t *testing.T) {
	thing := &SchemaFragment{Kind: KindClass, Name: "Thing", Class: &ClassSpec{}}
	input := []*SchemaFragment{thing}
	set, err := NewSchemaSet(input, nil)
	require.NoError(t, err)

	input[0] = &SchemaFragment{Kind: KindClass, Name: "Other", Class: &ClassSpec{}}
	out := set.Fragments()
	out[0] = nil

	assert.Same(t, thing, set.Fragments()[0])
}

func TestSchemaSetDuplicateName(t *testing.T) {
	a := &SchemaFragment{Kind: KindClass, Name: "Thing", Path: "a/Thing.jsd", Class: &ClassSpec{}}
	b := &SchemaFragment{Kind: KindProperty, Name: "Thing", Path: "b/Thing.prop.jsd", Property: &PropertySpec{}}

	_, err := NewSchemaSet([]*SchemaFragment{a, b}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Contains(t, err.Error(), "a/Thing.jsd")
}
