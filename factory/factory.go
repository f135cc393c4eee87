package factory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/internal"
	"github.com/lychee-technology/sdojsd/vocab"
)

// LoadSchemaSet loads the fragments named by config: the embedded reference
// vocabulary when config.Schema.UseEmbedded is set, otherwise the configured
// directories on disk.
//
// Usage:
//
//	config := sdojsd.DefaultConfig()
//	set, err := factory.LoadSchemaSet(ctx, config)
//	if err != nil {
//	    // handle error
//	}
func LoadSchemaSet(ctx context.Context, config *sdojsd.Config) (*sdojsd.SchemaSet, error) {
	fsys, schemaDir, metaDir, err := schemaSource(config.Schema)
	if err != nil {
		return nil, err
	}
	return internal.NewSchemaLoader(fsys, config.Schema).Load(ctx, schemaDir, metaDir)
}

// NewValidator builds a validation engine over set. logger may be nil.
func NewValidator(set *sdojsd.SchemaSet, config *sdojsd.Config, logger *zap.Logger) (sdojsd.DocumentValidator, error) {
	return internal.NewEngine(set,
		internal.WithRootType(config.Validation.RootType),
		internal.WithLogger(logger),
	)
}

// Build loads the fragments and runs the whole pipeline.
func Build(ctx context.Context, config *sdojsd.Config) (*sdojsd.BuildResult, error) {
	set, err := LoadSchemaSet(ctx, config)
	if err != nil {
		return nil, err
	}
	return internal.NewPipeline(config).Build(ctx, set)
}

// WriteArtifacts writes result into config.Output.Directory.
func WriteArtifacts(result *sdojsd.BuildResult, config *sdojsd.Config) ([]string, error) {
	return internal.WriteArtifacts(config.Output.Directory, result, config.Output)
}

// NewCatalogStore connects to the catalog database and makes sure its table
// exists. The returned close function releases the pool.
func NewCatalogStore(ctx context.Context, config *sdojsd.Config) (sdojsd.CatalogStore, func(), error) {
	pool, err := internal.NewCatalogPool(ctx, config.Catalog)
	if err != nil {
		return nil, nil, err
	}
	store, err := internal.NewPostgresCatalogStore(pool, config.Catalog.TableName)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// NewPublisher creates the S3 artifact publisher.
func NewPublisher(ctx context.Context, config *sdojsd.Config) (sdojsd.ArtifactPublisher, error) {
	if config.Publish.Bucket == "" {
		return nil, &sdojsd.ConfigError{Field: "publish.bucket", Message: "must not be empty"}
	}
	if err := internal.ValidatePublishCredentials(config.Publish); err != nil {
		return nil, err
	}
	return internal.NewS3Publisher(ctx, config.Publish, config.Output)
}

// CheckCatalog opens a short-lived pool and pings the catalog database.
func CheckCatalog(ctx context.Context, config *sdojsd.Config) error {
	pool, err := internal.NewCatalogPool(ctx, config.Catalog)
	if err != nil {
		return err
	}
	defer pool.Close()
	return internal.CatalogHealthCheck(ctx, pool, config.Catalog.Timeout)
}

// CheckPublisher probes the custom endpoint, when one is set, and the bucket.
func CheckPublisher(ctx context.Context, config *sdojsd.Config) error {
	if config.Publish.Endpoint != "" {
		if err := internal.EndpointHealthCheck(ctx, config.Publish.Endpoint, 0); err != nil {
			zap.S().Warnw("s3 endpoint probe failed", "endpoint", config.Publish.Endpoint, "error", err)
		}
	}
	if config.Publish.Bucket == "" {
		return &sdojsd.ConfigError{Field: "publish.bucket", Message: "must not be empty"}
	}
	if err := internal.ValidatePublishCredentials(config.Publish); err != nil {
		return err
	}
	publisher, err := internal.NewS3Publisher(ctx, config.Publish, config.Output)
	if err != nil {
		return err
	}
	return publisher.Ping(ctx)
}

// NewWatcher watches the on-disk fragment directories and rebuilds on change.
func NewWatcher(config *sdojsd.Config) (*internal.Watcher, error) {
	if config.Schema.UseEmbedded {
		return nil, &sdojsd.ConfigError{Field: "schema.useEmbedded", Message: "watch mode needs on-disk schema directories"}
	}
	rebuild := func(ctx context.Context) (*sdojsd.BuildResult, error) {
		return Build(ctx, config)
	}
	return internal.NewWatcher(
		[]string{config.Schema.Directory, config.Schema.MetaDirectory},
		config.Schema.Extension,
		config.Watch.Debounce,
		rebuild,
	)
}

// schemaSource picks the filesystem and the two directories inside it.
func schemaSource(cfg sdojsd.SchemaConfig) (fs.FS, string, string, error) {
	if cfg.UseEmbedded {
		return vocab.FS, vocab.SchemaDir, vocab.MetaDir, nil
	}
	schemaAbs, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to resolve schema directory: %w", err)
	}
	root := filepath.VolumeName(schemaAbs) + string(filepath.Separator)
	rel := func(abs string) string {
		return filepath.ToSlash(strings.TrimPrefix(abs, root))
	}

	metaDir := ""
	if cfg.MetaDirectory != "" {
		metaAbs, err := filepath.Abs(cfg.MetaDirectory)
		if err != nil {
			return nil, "", "", fmt.Errorf("failed to resolve meta-schema directory: %w", err)
		}
		metaDir = rel(metaAbs)
	}
	return os.DirFS(root), rel(schemaAbs), metaDir, nil
}
