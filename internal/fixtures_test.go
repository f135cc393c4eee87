package internal

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/vocab"
)

const fixtureBase = "https://example.org/schema/"

func datatypeJSD(name, primitive string) string {
	return fmt.Sprintf(`{"$schema":%q,"$id":%q,"title":%q,"description":"The %s datatype.","type":%q}`,
		sdojsd.DatatypeSchemaURI, fixtureBase+name+".jsd", sdojsd.VocabularyBase+name, name, primitive)
}

// classJSD renders a class fragment; an empty super makes it a root.
func classJSD(name, super string, members ...string) string {
	first := `{"type":"object"}`
	if super != "" {
		first = fmt.Sprintf(`{"$ref":%q}`, super+".jsd")
	}
	props := make([]string, 0, len(members))
	for _, m := range members {
		props = append(props, fmt.Sprintf(`%q:{"$ref":%q}`, m, m+".prop.jsd"))
	}
	return fmt.Sprintf(`{"$schema":%q,"$id":%q,"title":%q,"description":"A %s.","type":"object","allOf":[%s,{"properties":{%s}}]}`,
		sdojsd.ClassSchemaURI, fixtureBase+name+".jsd", sdojsd.VocabularyBase+name, name, first, strings.Join(props, ","))
}

func propertyJSD(name, super string, list bool, rangeTypes ...string) string {
	first := "true"
	if super != "" {
		first = fmt.Sprintf(`{"$ref":%q}`, super+".prop.jsd")
	}
	value := `{"$ref":"#/definitions/ExpectedType"}`
	if list {
		value += `,{"type":"array","items":{"$ref":"#/definitions/ExpectedType"}}`
	}
	refs := make([]string, 0, len(rangeTypes))
	for _, r := range rangeTypes {
		refs = append(refs, fmt.Sprintf(`{"$ref":%q}`, r+".jsd"))
	}
	return fmt.Sprintf(`{"$schema":%q,"$id":%q,"title":%q,"description":"The %s of the item.","allOf":[%s,{"anyOf":[%s]}],"definitions":{"ExpectedType":{"anyOf":[%s]}}}`,
		sdojsd.PropertySchemaURI, fixtureBase+name+".prop.jsd", sdojsd.VocabularyBase+name, name, first, value, strings.Join(refs, ","))
}

// fixtureFS places fragments under schema/, keyed by file name.
func fixtureFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys["schema/"+name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

// placeScenario is the Thing, Place, address, PostalAddress vocabulary.
func placeScenario() map[string]string {
	return map[string]string{
		"Text.jsd":               datatypeJSD("Text", "string"),
		"Thing.jsd":              classJSD("Thing", "", "name"),
		"StructuredValue.jsd":    classJSD("StructuredValue", "Thing"),
		"ContactPoint.jsd":       classJSD("ContactPoint", "StructuredValue"),
		"PostalAddress.jsd":      classJSD("PostalAddress", "ContactPoint", "streetAddress"),
		"Place.jsd":              classJSD("Place", "Thing", "address"),
		"name.prop.jsd":          propertyJSD("name", "", false, "Text"),
		"streetAddress.prop.jsd": propertyJSD("streetAddress", "", false, "Text"),
		"address.prop.jsd":       propertyJSD("address", "", false, "Text", "PostalAddress"),
	}
}

func loadFixture(t *testing.T, files map[string]string) *sdojsd.SchemaSet {
	t.Helper()
	set, err := LoadSchemaSet(context.Background(), fixtureFS(files), "schema", "", ".jsd")
	require.NoError(t, err)
	return set
}

func derivedFixture(t *testing.T, files map[string]string) *sdojsd.Graph {
	t.Helper()
	g, err := BuildGraph(loadFixture(t, files))
	require.NoError(t, err)
	Derive(g)
	return g
}

func loadVocab(t *testing.T) *sdojsd.SchemaSet {
	t.Helper()
	set, err := LoadSchemaSet(context.Background(), vocab.FS, vocab.SchemaDir, vocab.MetaDir, ".jsd")
	require.NoError(t, err)
	return set
}
