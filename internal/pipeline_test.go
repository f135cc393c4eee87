package internal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
)

type stageRecorder struct {
	mu     sync.Mutex
	stages []string
}

func (r *stageRecorder) observe(ctx context.Context, stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func TestPipelineBuildEmbeddedVocabulary(t *testing.T) {
	rec := &stageRecorder{}
	RegisterStageObserver(rec.observe)
	t.Cleanup(func() { RegisterStageObserver(nil) })

	result, err := NewPipeline(sdojsd.DefaultConfig()).Build(context.Background(), loadVocab(t))
	require.NoError(t, err)

	assert.Equal(t, []string{StageCheck, StageBuild, StageDerive, StageJSONLD, StageTypeScript, StageJSDoc}, rec.stages)

	assert.NotEqual(t, [16]byte{}, [16]byte(result.ID))
	assert.Len(t, result.Graph.Datatypes, 8)
	assert.Len(t, result.Graph.Classes, 8)

	var doc sdojsd.JSONLDDocument
	require.NoError(t, json.Unmarshal(result.JSONLD, &doc))
	assert.Len(t, doc.Graph, result.Graph.Len())
	assert.Contains(t, string(result.JSONLD), "\n\t\"@graph\"")

	assert.Contains(t, result.TypeScript, "export interface Person extends Thing {")
	assert.Contains(t, result.TypeScript, "export type author_type = Organization|Person|(Organization|Person)[]\n")
	assert.Contains(t, result.JSDoc, " * @typedef {(Organization|Person|Array<(Organization|Person)>)} author\n")

	person, ok := result.Graph.Class("Person")
	require.True(t, ok)
	assert.True(t, sdojsd.Contains(person.ValueOfProperties, "author"))
}

func TestPipelineBuildStopsOnConstructionError(t *testing.T) {
	files := placeScenario()
	files["Place.jsd"] = classJSD("Place", "Thing", "geo")

	cfg := sdojsd.DefaultConfig()
	cfg.Validation.CheckFragments = false
	result, err := NewPipeline(cfg).Build(context.Background(), loadFixture(t, files))
	assert.Nil(t, result)
	assert.ErrorAs(t, err, new(*sdojsd.UnresolvedReferenceError))
	assert.True(t, sdojsd.IsConstructionError(err))
}

func TestPipelineBuildStopsOnFragmentCheck(t *testing.T) {
	set := loadVocab(t)
	frags := set.Fragments()
	for i, f := range frags {
		if f.Name == "Place" {
			broken := *f
			broken.Raw = json.RawMessage(strings.Replace(string(f.Raw), `"description"`, `"summary"`, 1))
			frags[i] = &broken
		}
	}
	broken, err := sdojsd.NewSchemaSet(frags, set.MetaSchemata())
	require.NoError(t, err)

	_, err = NewPipeline(sdojsd.DefaultConfig()).Build(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fragment self-validation failed")
	assert.ErrorAs(t, err, new(*sdojsd.ValidationError))
}

func TestWriteArtifacts(t *testing.T) {
	cfg := sdojsd.DefaultConfig()
	cfg.Validation.CheckFragments = false
	result, err := NewPipeline(cfg).Build(context.Background(), loadFixture(t, placeScenario()))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "dist")
	written, err := WriteArtifacts(dir, result, cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "schemaorg.jsonld"),
		filepath.Join(dir, "schemaorg.d.ts"),
		filepath.Join(dir, "schemaorg.typedef.js"),
		filepath.Join(dir, "manifest.json"),
	}, written)

	ts, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Equal(t, result.TypeScript, string(ts))

	data, err := os.ReadFile(written[3])
	require.NoError(t, err)
	var manifest sdojsd.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, result.ID, manifest.BuildID)
	assert.Equal(t, 5, manifest.Classes)
	require.Len(t, manifest.Files, 3)
	assert.Equal(t, len(result.JSONLD), manifest.Files[0].Size)
}

func TestEmitStageDefaultsToNoop(t *testing.T) {
	RegisterStageObserver(nil)
	assert.NotPanics(t, func() { EmitStage(context.Background(), StageLoad, time.Now()) })

	var got time.Duration
	RegisterStageObserver(func(ctx context.Context, stage string, d time.Duration) { got = d })
	t.Cleanup(func() { RegisterStageObserver(nil) })
	EmitStage(context.Background(), StageLoad, time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, got, time.Second)
}
