package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/vocab"
)

func TestValidateFragmentsEmbeddedVocabulary(t *testing.T) {
	assert.NoError(t, ValidateFragments(context.Background(), loadVocab(t)))
}

func TestValidateFragmentsReportsEveryFailure(t *testing.T) {
	fsys := fstest.MapFS{}
	for _, name := range []string{"type.jsd", "member.jsd"} {
		data, err := vocab.FS.ReadFile("meta/" + name)
		require.NoError(t, err)
		fsys["meta/"+name] = &fstest.MapFile{Data: data}
	}
	add := func(name, data string) {
		fsys["schema/"+name] = &fstest.MapFile{Data: []byte(data)}
	}
	add("Text.jsd", datatypeJSD("Text", "string"))
	add("Thing.jsd", classJSD("Thing", "", "name"))
	add("name.prop.jsd", propertyJSD("name", "", false, "Text"))
	// an empty description and a non-https $id
	add("Place.jsd", strings.Replace(classJSD("Place", "Thing"), `"description":"A Place."`, `"description":""`, 1))
	add("url.prop.jsd", strings.Replace(propertyJSD("url", "", false, "Text"), fixtureBase, "http://example.org/schema/", 1))

	set, err := LoadSchemaSet(context.Background(), fsys, "schema", "meta", ".jsd")
	require.NoError(t, err)

	err = ValidateFragments(context.Background(), set)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	failures := joined.Unwrap()
	require.Len(t, failures, 2)

	var place, url *sdojsd.ValidationError
	require.True(t, errors.As(failures[0], &place))
	require.True(t, errors.As(failures[1], &url))
	assert.Equal(t, "Place", place.DocumentID)
	assert.Equal(t, "type", place.TypeName)
	assert.Equal(t, "schema/Place.jsd", place.Path)
	assert.Equal(t, "url", url.DocumentID)
	assert.Equal(t, "member", url.TypeName)
}

func TestValidateFragmentsWithoutMetaSchemata(t *testing.T) {
	set := loadFixture(t, placeScenario())
	assert.NoError(t, ValidateFragments(context.Background(), set))
}
