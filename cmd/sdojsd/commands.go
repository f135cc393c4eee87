package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/factory"
	"github.com/lychee-technology/sdojsd/internal"
)

var (
	validateType string
	outputDir    string
	exportDest   string
	catalogBuild string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the vocabulary and write its artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputDir != "" {
			cfg.Output.Directory = outputDir
		}
		result, err := factory.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		written, err := factory.WriteArtifacts(result, cfg)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate JSON-LD documents against the vocabulary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		set, err := factory.LoadSchemaSet(ctx, cfg)
		if err != nil {
			return err
		}
		validator, err := factory.NewValidator(set, cfg, logger)
		if err != nil {
			return err
		}

		inputs := make([]internal.BatchInput, 0, len(args))
		for _, path := range args {
			inputs = append(inputs, internal.BatchInput{Path: path, TypeName: validateType})
		}
		results := internal.ValidateBatch(ctx, validator, inputs, cfg.Validation.DocumentConcurrency)
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.Input.Path, r.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", r.Input.Path)
		}
		if failed := internal.Failed(results); len(failed) > 0 {
			return fmt.Errorf("%d of %d documents failed validation", len(failed), len(results))
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check every fragment against its meta-schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := factory.LoadSchemaSet(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := internal.ValidateFragments(cmd.Context(), set); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d fragments ok\n", set.Len())
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build the vocabulary and upload its artifacts to S3",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		result, err := factory.Build(ctx, cfg)
		if err != nil {
			return err
		}
		publisher, err := factory.NewPublisher(ctx, cfg)
		if err != nil {
			return err
		}
		keys, err := publisher.Publish(ctx, result)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", cfg.Publish.Bucket, key)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build the vocabulary and export its nodes to Parquet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		result, err := factory.Build(ctx, cfg)
		if err != nil {
			return err
		}
		exporter, err := internal.NewParquetExporter(cfg.Export, logger)
		if err != nil {
			return err
		}
		defer exporter.Close()

		dest := exportDest
		if dest == "" {
			dest = filepath.Join(cfg.Output.Directory, cfg.Export.ParquetFile)
		}
		n, err := exporter.Export(ctx, result.Graph, dest)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", n, dest)
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Store built vocabularies in Postgres",
}

var catalogSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Build the vocabulary and save its nodes to the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		result, err := factory.Build(ctx, cfg)
		if err != nil {
			return err
		}
		store, closeFn, err := factory.NewCatalogStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := store.Save(ctx, result.ID, result.Graph); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.ID.String())
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the nodes stored for a build",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		buildID, err := uuid.Parse(catalogBuild)
		if err != nil {
			return fmt.Errorf("invalid --build: %w", err)
		}
		store, closeFn, err := factory.NewCatalogStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		nodes, err := store.Nodes(ctx, buildID)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", n.NodeType, n.NodeID)
		}
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the enabled catalog and publish targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var failed int
		report := func(name string, err error) {
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", name, err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", name)
		}
		if cfg.Catalog.Enabled {
			report("catalog", factory.CheckCatalog(ctx, cfg))
		}
		if cfg.Publish.Enabled {
			report("publish", factory.CheckPublisher(ctx, cfg))
		}
		if failed > 0 {
			return fmt.Errorf("%d targets unreachable", failed)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the artifacts whenever a fragment changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher, err := factory.NewWatcher(cfg)
		if err != nil {
			return err
		}
		watcher.OnBuild(func(result *sdojsd.BuildResult) error {
			_, err := factory.WriteArtifacts(result, cfg)
			return err
		})
		err = watcher.Run(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	buildCmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory (overrides output.directory)")
	validateCmd.Flags().StringVarP(&validateType, "type", "t", "", "validate against this type instead of @type")
	exportCmd.Flags().StringVar(&exportDest, "dest", "", "Parquet file to write")
	catalogShowCmd.Flags().StringVar(&catalogBuild, "build", "", "build id")
	_ = catalogShowCmd.MarkFlagRequired("build")

	catalogCmd.AddCommand(catalogSaveCmd, catalogShowCmd)
}
