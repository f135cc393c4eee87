package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

// Pipeline builds every artifact from a SchemaSet: graph, derived fields and
// the rendered outputs.
type Pipeline struct {
	output         sdojsd.OutputConfig
	checkFragments bool
}

// NewPipeline creates a pipeline from cfg.
func NewPipeline(cfg *sdojsd.Config) *Pipeline {
	return &Pipeline{output: cfg.Output, checkFragments: cfg.Validation.CheckFragments}
}

// Build runs the stages in order. Any construction error aborts the build.
func (p *Pipeline) Build(ctx context.Context, set *sdojsd.SchemaSet) (*sdojsd.BuildResult, error) {
	if p.checkFragments {
		start := time.Now()
		if err := ValidateFragments(ctx, set); err != nil {
			return nil, fmt.Errorf("fragment self-validation failed: %w", err)
		}
		EmitStage(ctx, StageCheck, start)
	}

	start := time.Now()
	graph, err := BuildGraph(set)
	if err != nil {
		return nil, err
	}
	EmitStage(ctx, StageBuild, start)

	start = time.Now()
	Derive(graph)
	EmitStage(ctx, StageDerive, start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	jsonld, err := RenderJSONLD(graph, p.output.Indent)
	if err != nil {
		return nil, err
	}
	EmitStage(ctx, StageJSONLD, start)

	start = time.Now()
	ts := RenderTypeScript(graph, TypeScriptOptionsFrom(p.output))
	EmitStage(ctx, StageTypeScript, start)

	start = time.Now()
	jsdoc := RenderJSDoc(graph)
	EmitStage(ctx, StageJSDoc, start)

	result := &sdojsd.BuildResult{
		ID:         uuid.New(),
		Graph:      graph,
		JSONLD:     jsonld,
		TypeScript: ts,
		JSDoc:      jsdoc,
	}
	zap.S().Infow("vocabulary built", "buildId", result.ID, "nodes", graph.Len())
	return result, nil
}

// WriteArtifacts writes the rendered outputs and the manifest into dir and
// returns the written paths.
func WriteArtifacts(dir string, result *sdojsd.BuildResult, out sdojsd.OutputConfig) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	var written []string
	for _, a := range result.Artifacts(out) {
		target := filepath.Join(dir, a.Name)
		if err := os.WriteFile(target, a.Data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target, err)
		}
		written = append(written, target)
	}

	manifest, err := json.MarshalIndent(result.Manifest(out), "", "  ")
	if err != nil {
		return written, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	target := filepath.Join(dir, out.ManifestFile)
	if err := os.WriteFile(target, append(manifest, '\n'), 0o644); err != nil {
		return written, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return append(written, target), nil
}
