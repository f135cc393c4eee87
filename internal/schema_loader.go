package internal

import (
	"context"
	"io/fs"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lychee-technology/sdojsd"
)

const defaultReadConcurrency = 8

// SchemaLoader reads fragment and meta-schema files from a filesystem.
type SchemaLoader struct {
	fsys        fs.FS
	extension   string
	concurrency int
}

// NewSchemaLoader creates a loader over fsys using the extension and read
// concurrency from cfg.
func NewSchemaLoader(fsys fs.FS, cfg sdojsd.SchemaConfig) *SchemaLoader {
	l := &SchemaLoader{fsys: fsys, extension: cfg.Extension, concurrency: cfg.ReadConcurrency}
	if l.extension == "" {
		l.extension = ".jsd"
	}
	if l.concurrency <= 0 {
		l.concurrency = defaultReadConcurrency
	}
	return l
}

// LoadSchemaSet reads fragments from schemaDir and meta-schemata from metaDir
// (skipped when empty) with the default read concurrency.
func LoadSchemaSet(ctx context.Context, fsys fs.FS, schemaDir, metaDir, ext string) (*sdojsd.SchemaSet, error) {
	return NewSchemaLoader(fsys, sdojsd.SchemaConfig{Extension: ext}).Load(ctx, schemaDir, metaDir)
}

// Load reads both directories and assembles an immutable SchemaSet. Files are
// read concurrently; fragment order is always file-name order. Any file that
// fails to read or parse aborts the load.
func (l *SchemaLoader) Load(ctx context.Context, schemaDir, metaDir string) (*sdojsd.SchemaSet, error) {
	fragmentFiles, err := l.list(schemaDir)
	if err != nil {
		return nil, err
	}
	fragments := make([]*sdojsd.SchemaFragment, len(fragmentFiles))
	if err := l.readAll(ctx, fragmentFiles, func(i int, name string, data []byte) error {
		frag, err := sdojsd.ParseFragment(name, data)
		if err != nil {
			return err
		}
		fragments[i] = frag
		return nil
	}); err != nil {
		return nil, err
	}

	var meta []*sdojsd.MetaSchema
	if metaDir != "" {
		metaFiles, err := l.list(metaDir)
		if err != nil {
			return nil, err
		}
		meta = make([]*sdojsd.MetaSchema, len(metaFiles))
		if err := l.readAll(ctx, metaFiles, func(i int, name string, data []byte) error {
			m, err := sdojsd.ParseMetaSchema(name, data)
			if err != nil {
				return err
			}
			meta[i] = m
			return nil
		}); err != nil {
			return nil, err
		}
	}

	set, err := sdojsd.NewSchemaSet(fragments, meta)
	if err != nil {
		return nil, err
	}
	zap.S().Debugw("schema set loaded", "fragments", set.Len(), "metaSchemata", len(meta), "dir", schemaDir)
	return set, nil
}

// list returns the matching files of dir in lexical order.
func (l *SchemaLoader) list(dir string) ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, sdojsd.NewLoadError(dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != l.extension {
			continue
		}
		files = append(files, path.Join(dir, entry.Name()))
	}
	return files, nil
}

func (l *SchemaLoader) readAll(ctx context.Context, files []string, handle func(i int, name string, data []byte) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(l.fsys, name)
			if err != nil {
				return sdojsd.NewLoadError(name, err)
			}
			return handle(i, name, data)
		})
	}
	return g.Wait()
}
