package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/sdojsd"
)

func TestExportRows(t *testing.T) {
	files := placeScenario()
	files["legalName.prop.jsd"] = propertyJSD("legalName", "name", false, "Text")
	rows := exportRows(derivedFixture(t, files))
	require.Len(t, rows, 10)

	byID := make(map[string]exportRow, len(rows))
	for _, r := range rows {
		byID[r.nodeID] = r
	}
	assert.Equal(t, sdojsd.LDTypeDatatype, rows[0].nodeType)
	assert.False(t, byID["sdo:Thing"].superclass.Valid)
	assert.Equal(t, "Thing", byID["sdo:Place"].superclass.String)
	assert.Equal(t, "Text|PostalAddress", byID["sdo:address"].rangeNames.String)
	assert.Equal(t, "name", byID["sdo:legalName"].superclass.String)
	assert.False(t, byID["sdo:Place"].rangeNames.Valid)
}

func TestParquetExporterExport(t *testing.T) {
	exporter, err := NewParquetExporter(sdojsd.ExportConfig{}, nil)
	require.NoError(t, err)
	defer exporter.Close()

	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "it's vocabulary.parquet")
	n, err := exporter.Export(ctx, derivedFixture(t, placeScenario()), dest)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	source := fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(dest, "'", "''"))
	var count int
	query := "SELECT count(*) FROM " + source
	require.NoError(t, exporter.DB.QueryRowContext(ctx, query).Scan(&count))
	assert.Equal(t, 9, count)

	var superclass string
	require.NoError(t, exporter.DB.QueryRowContext(ctx,
		"SELECT superclass FROM "+source+" WHERE label = 'PostalAddress'").Scan(&superclass))
	assert.Equal(t, "ContactPoint", superclass)

	// a second export replaces the table instead of appending
	n, err = exporter.Export(ctx, smallGraph(t), dest)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, exporter.DB.QueryRowContext(ctx, query).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestParquetExporterAppliesPragmas(t *testing.T) {
	exporter, err := NewParquetExporter(sdojsd.ExportConfig{MemoryLimitMB: 256, Threads: 2}, nil)
	require.NoError(t, err)
	defer exporter.Close()

	var threads int
	require.NoError(t, exporter.DB.QueryRow("SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, 2, threads)
}
