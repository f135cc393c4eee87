package factory

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/vocab"
)

// copyVocab writes the embedded vocabulary to disk and returns a config
// pointing at it.
func copyVocab(t *testing.T) *sdojsd.Config {
	t.Helper()
	root := t.TempDir()
	err := fs.WalkDir(vocab.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(root, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := vocab.FS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)

	config := sdojsd.DefaultConfig()
	config.Schema.UseEmbedded = false
	config.Schema.Directory = filepath.Join(root, vocab.SchemaDir)
	config.Schema.MetaDirectory = filepath.Join(root, vocab.MetaDir)
	return config
}

func TestBuildEmbedded(t *testing.T) {
	config := sdojsd.DefaultConfig()
	config.Output.Directory = t.TempDir()

	result, err := Build(context.Background(), config)
	require.NoError(t, err)
	assert.NotEmpty(t, result.JSONLD)
	assert.Contains(t, result.TypeScript, "export interface Thing extends JSONLDObject {")

	written, err := WriteArtifacts(result, config)
	require.NoError(t, err)
	require.Len(t, written, 4)
	for _, path := range written {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestBuildFromDiskMatchesEmbedded(t *testing.T) {
	ctx := context.Background()
	embedded, err := Build(ctx, sdojsd.DefaultConfig())
	require.NoError(t, err)

	onDisk, err := Build(ctx, copyVocab(t))
	require.NoError(t, err)

	assert.Equal(t, string(embedded.JSONLD), string(onDisk.JSONLD))
	assert.Equal(t, embedded.TypeScript, onDisk.TypeScript)
	assert.NotEqual(t, embedded.ID, onDisk.ID)
}

func TestLoadSchemaSetWithoutMetaDirectory(t *testing.T) {
	config := copyVocab(t)
	config.Schema.MetaDirectory = ""

	set, err := LoadSchemaSet(context.Background(), config)
	require.NoError(t, err)
	assert.Empty(t, set.MetaSchemata())
	assert.Equal(t, 35, set.Len())
}

func TestLoadSchemaSetMissingDirectory(t *testing.T) {
	config := sdojsd.DefaultConfig()
	config.Schema.UseEmbedded = false
	config.Schema.Directory = filepath.Join(t.TempDir(), "absent")

	_, err := LoadSchemaSet(context.Background(), config)
	var loadErr *sdojsd.LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestNewValidator(t *testing.T) {
	ctx := context.Background()
	config := sdojsd.DefaultConfig()
	set, err := LoadSchemaSet(ctx, config)
	require.NoError(t, err)

	validator, err := NewValidator(set, config, nil)
	require.NoError(t, err)
	assert.NoError(t, validator.Validate(ctx, map[string]any{"@type": "Person", "name": "Ada"}, ""))
	assert.Error(t, validator.Validate(ctx, map[string]any{"@type": "Person", "name": 1}, ""))

	config.Validation.RootType = "Unicorn"
	_, err = NewValidator(set, config, nil)
	assert.ErrorIs(t, err, sdojsd.ErrNoRootClass)
}

func TestNewPublisherRequiresBucket(t *testing.T) {
	_, err := NewPublisher(context.Background(), sdojsd.DefaultConfig())
	var cfgErr *sdojsd.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "publish.bucket", cfgErr.Field)
}

func TestNewWatcher(t *testing.T) {
	_, err := NewWatcher(sdojsd.DefaultConfig())
	var cfgErr *sdojsd.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "schema.useEmbedded", cfgErr.Field)

	w, err := NewWatcher(copyVocab(t))
	require.NoError(t, err)
	assert.NotNil(t, w)
	assert.Nil(t, w.Last())
}
