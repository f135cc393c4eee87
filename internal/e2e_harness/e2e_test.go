//go:build integration

package e2e_harness

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/factory"
	"github.com/lychee-technology/sdojsd/internal"
)

func TestE2ECatalogAndPublish(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	if err := h.StartPostgres(ctx); err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer h.StopPostgres(ctx)

	if err := h.StartS3(ctx); err != nil {
		t.Fatalf("start rustfs: %v", err)
	}
	defer h.StopS3(ctx)

	cfg := h.Config("vocab-e2e")
	result, err := factory.Build(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, factory.CheckCatalog(ctx, cfg))

	// catalog round trip
	store, closeFn, err := factory.NewCatalogStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Save(ctx, result.ID, result.Graph))
	// saving twice replaces the build's rows
	require.NoError(t, store.Save(ctx, result.ID, result.Graph))

	want := result.Graph.Len()
	n, err := CountCatalogRows(ctx, h.PGDB, cfg.Catalog.TableName, result.ID)
	require.NoError(t, err)
	assert.Equal(t, want, n)

	nodes, err := store.Nodes(ctx, result.ID)
	require.NoError(t, err)
	require.Len(t, nodes, want)
	assert.Equal(t, "sdo:Boolean", nodes[0].NodeID)

	var thing map[string]any
	for _, node := range nodes {
		if node.NodeID == "sdo:Thing" {
			require.NoError(t, json.Unmarshal(node.Document, &thing))
		}
	}
	require.NotNil(t, thing, "Thing stored")
	assert.Equal(t, sdojsd.LDTypeClass, thing["@type"])

	// publish round trip
	publisher, err := factory.NewPublisher(ctx, cfg)
	require.NoError(t, err)
	keys, err := publisher.Publish(ctx, result)
	require.NoError(t, err)
	require.Len(t, keys, 8)
	require.NoError(t, factory.CheckPublisher(ctx, cfg))

	data, contentType, err := FetchObject(ctx, cfg.Publish, "schemaorg/latest/"+cfg.Output.TypeScriptFile)
	require.NoError(t, err)
	assert.Equal(t, result.TypeScript, string(data))
	assert.Equal(t, "application/typescript", contentType)

	manifestData, _, err := FetchObject(ctx, cfg.Publish, "schemaorg/"+result.ID.String()+"/"+cfg.Output.ManifestFile)
	require.NoError(t, err)
	var manifest sdojsd.Manifest
	require.NoError(t, json.Unmarshal(manifestData, &manifest))
	assert.Equal(t, result.ID, manifest.BuildID)

	// parquet export next to the published artifacts
	exporter, err := internal.NewParquetExporter(cfg.Export, nil)
	require.NoError(t, err)
	defer exporter.Close()

	dest := filepath.Join(t.TempDir(), cfg.Export.ParquetFile)
	rows, err := exporter.Export(ctx, result.Graph, dest)
	require.NoError(t, err)
	assert.Equal(t, want, rows)

	key := "schemaorg/" + result.ID.String() + "/" + cfg.Export.ParquetFile
	require.NoError(t, UploadFile(ctx, cfg.Publish, key, dest))
	uploaded, _, err := FetchObject(ctx, cfg.Publish, key)
	require.NoError(t, err)
	local, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, len(local), len(uploaded))
}
