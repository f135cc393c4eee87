package internal

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lychee-technology/sdojsd"
)

// BatchInput is one document to validate. Exactly one of Path and Document is
// used; Path wins when both are set.
type BatchInput struct {
	Path     string
	Document any
	TypeName string
}

// BatchResult pairs an input with its outcome. Err is nil on success.
type BatchResult struct {
	Input BatchInput
	Err   error
}

// ValidateBatch validates inputs concurrently. A failing document never stops
// the others; results are returned in input order.
func ValidateBatch(ctx context.Context, validator sdojsd.DocumentValidator, inputs []BatchInput, concurrency int) []BatchResult {
	results := make([]BatchResult, len(inputs))
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			var err error
			if in.Path != "" {
				err = validator.ValidateFile(ctx, in.Path, in.TypeName)
			} else {
				err = validator.Validate(ctx, in.Document, in.TypeName)
			}
			results[i] = BatchResult{Input: in, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	zap.S().Debugw("batch validation completed", "documents", len(inputs), "failed", len(Failed(results)))
	return results
}

// Failed returns the results that carry an error.
func Failed(results []BatchResult) []BatchResult {
	var out []BatchResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
