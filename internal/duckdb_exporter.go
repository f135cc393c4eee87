package internal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

const vocabularyTable = "vocabulary"

// ParquetExporter writes a vocabulary graph to Parquet through DuckDB.
type ParquetExporter struct {
	DB     *sql.DB
	Logger *zap.Logger
}

// NewParquetExporter opens DuckDB at cfg.DuckDBPath; an empty path is in-memory.
func NewParquetExporter(cfg sdojsd.ExportConfig, logger *zap.Logger) (*ParquetExporter, error) {
	if logger == nil {
		logger = zap.L()
	}
	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	// resource pragmas are best effort
	if cfg.MemoryLimitMB > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA memory_limit='%dMB';", cfg.MemoryLimitMB)); err != nil {
			logger.Warn("duckdb: set memory_limit failed", zap.Error(err), zap.Int("memoryLimitMB", cfg.MemoryLimitMB))
		}
	}
	if cfg.Threads > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA threads=%d;", cfg.Threads)); err != nil {
			logger.Warn("duckdb: set threads failed", zap.Error(err), zap.Int("threads", cfg.Threads))
		}
	}
	return &ParquetExporter{DB: db, Logger: logger}, nil
}

// Close releases the DuckDB handle.
func (e *ParquetExporter) Close() error {
	return e.DB.Close()
}

// Export loads every node of graph into the vocabulary table and copies the
// table to dest as ZSTD-compressed Parquet. It returns the number of rows written.
func (e *ParquetExporter) Export(ctx context.Context, graph *sdojsd.Graph, dest string) (int, error) {
	ddl := fmt.Sprintf(`CREATE OR REPLACE TABLE %s (
	node_id VARCHAR,
	node_type VARCHAR,
	label VARCHAR,
	comment VARCHAR,
	superclass VARCHAR,
	"range" VARCHAR
)`, vocabularyTable)
	if _, err := e.DB.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("duckdb create table: %w", err)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?)", vocabularyTable))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("duckdb prepare: %w", err)
	}
	defer stmt.Close()

	rows := exportRows(graph)
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.nodeID, r.nodeType, r.label, r.comment, r.superclass, r.rangeNames); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("duckdb insert %s: %w", r.nodeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("duckdb commit: %w", err)
	}

	destEsc := strings.ReplaceAll(dest, "'", "''")
	copySQL := fmt.Sprintf("COPY %s TO '%s' (FORMAT PARQUET, COMPRESSION 'ZSTD');", vocabularyTable, destEsc)
	if _, err := e.DB.ExecContext(ctx, copySQL); err != nil {
		return 0, fmt.Errorf("duckdb copy exec: %w", err)
	}
	e.Logger.Sugar().Infow("vocabulary exported", "dest", dest, "rows", len(rows))
	return len(rows), nil
}

type exportRow struct {
	nodeID     string
	nodeType   string
	label      string
	comment    string
	superclass sql.NullString
	rangeNames sql.NullString
}

// exportRows flattens graph; superclass holds the superproperty for
// properties, and range is the "|"-joined range of a property.
func exportRows(graph *sdojsd.Graph) []exportRow {
	rows := make([]exportRow, 0, graph.Len())
	for _, d := range graph.Datatypes {
		rows = append(rows, exportRow{nodeID: d.ID, nodeType: sdojsd.LDTypeDatatype, label: d.Label, comment: d.Comment})
	}
	for _, c := range graph.Classes {
		r := exportRow{nodeID: c.ID, nodeType: sdojsd.LDTypeClass, label: c.Label, comment: c.Comment}
		if c.Superclass != nil {
			r.superclass = sql.NullString{String: c.Superclass.Name(), Valid: true}
		}
		rows = append(rows, r)
	}
	for _, p := range graph.Properties {
		r := exportRow{nodeID: p.ID, nodeType: sdojsd.LDTypeProperty, label: p.Label, comment: p.Comment}
		if p.Superproperty != nil {
			r.superclass = sql.NullString{String: p.Superproperty.Name(), Valid: true}
		}
		names := make([]string, 0, len(p.Range))
		for _, ref := range p.Range {
			names = append(names, ref.Name())
		}
		r.rangeNames = sql.NullString{String: strings.Join(names, "|"), Valid: true}
		rows = append(rows, r)
	}
	return rows
}
