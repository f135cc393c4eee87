package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type catalogPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PostgresCatalogStore keeps one row per vocabulary node and build.
type PostgresCatalogStore struct {
	pool  catalogPool
	table string
}

var _ sdojsd.CatalogStore = (*PostgresCatalogStore)(nil)

// NewPostgresCatalogStore creates a catalog store writing to table.
func NewPostgresCatalogStore(pool catalogPool, table string) (*PostgresCatalogStore, error) {
	if !identifierPattern.MatchString(table) {
		return nil, &sdojsd.ConfigError{Field: "catalog.tableName", Message: fmt.Sprintf("%q is not a valid identifier", table)}
	}
	return &PostgresCatalogStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the catalog table when it does not exist.
func (s *PostgresCatalogStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	build_id UUID NOT NULL,
	seq INTEGER NOT NULL,
	node_id TEXT NOT NULL,
	node_type TEXT NOT NULL,
	label TEXT NOT NULL,
	comment TEXT NOT NULL,
	document JSONB NOT NULL,
	PRIMARY KEY (build_id, node_id)
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create catalog table %s: %w", s.table, err)
	}
	return nil
}

// Save replaces the rows of buildID with the nodes of graph, in graph order.
func (s *PostgresCatalogStore) Save(ctx context.Context, buildID uuid.UUID, graph *sdojsd.Graph) error {
	nodes, err := catalogNodes(buildID, graph)
	if err != nil {
		return err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE build_id = $1", s.table), buildID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to clear build %s: %w", buildID, err)
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (build_id, seq, node_id, node_type, label, comment, document) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		s.table)
	for i, n := range nodes {
		if _, err := tx.Exec(ctx, insert, buildID, i, n.NodeID, n.NodeType, n.Label, n.Comment, []byte(n.Document)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to insert node %s: %w", n.NodeID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit build %s: %w", buildID, err)
	}
	zap.S().Infow("catalog saved", "buildId", buildID, "nodes", len(nodes), "table", s.table)
	return nil
}

// Nodes returns the stored nodes of buildID in the order they were saved.
func (s *PostgresCatalogStore) Nodes(ctx context.Context, buildID uuid.UUID) ([]sdojsd.CatalogNode, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT node_id, node_type, label, comment, document FROM %s WHERE build_id = $1 ORDER BY seq", s.table),
		buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query build %s: %w", buildID, err)
	}
	defer rows.Close()

	var out []sdojsd.CatalogNode
	for rows.Next() {
		n := sdojsd.CatalogNode{BuildID: buildID}
		var doc []byte
		if err := rows.Scan(&n.NodeID, &n.NodeType, &n.Label, &n.Comment, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		n.Document = json.RawMessage(doc)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}
	return out, nil
}

// catalogNodes flattens graph into rows carrying each node's JSON-LD form.
func catalogNodes(buildID uuid.UUID, graph *sdojsd.Graph) ([]sdojsd.CatalogNode, error) {
	out := make([]sdojsd.CatalogNode, 0, graph.Len())
	add := func(id, typ, label, comment string, ld any) error {
		doc, err := json.Marshal(ld)
		if err != nil {
			return fmt.Errorf("failed to marshal node %s: %w", id, err)
		}
		out = append(out, sdojsd.CatalogNode{
			BuildID: buildID, NodeID: id, NodeType: typ, Label: label, Comment: comment, Document: doc,
		})
		return nil
	}
	for _, d := range graph.Datatypes {
		if err := add(d.ID, sdojsd.LDTypeDatatype, d.Label, d.Comment, DatatypeLD(d)); err != nil {
			return nil, err
		}
	}
	for _, c := range graph.Classes {
		if err := add(c.ID, sdojsd.LDTypeClass, c.Label, c.Comment, ClassLD(c)); err != nil {
			return nil, err
		}
	}
	for _, p := range graph.Properties {
		if err := add(p.ID, sdojsd.LDTypeProperty, p.Label, p.Comment, PropertyLD(p)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NewCatalogPool opens a connection pool for the catalog. With UseIAM the
// password is replaced by a DSQL auth token for the configured region.
func NewCatalogPool(ctx context.Context, cfg sdojsd.CatalogConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Database, cfg.SSLMode)
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog connection config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.Timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	password := cfg.Password
	if cfg.UseIAM {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("generate dsql auth token: %w", err)
		}
		password = token
		zap.S().Infow("generated IAM auth token for catalog connection (dsql)", "host", cfg.Host)
	}
	poolCfg.ConnConfig.Password = password

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog pool: %w", err)
	}
	return pool, nil
}
