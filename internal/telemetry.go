package internal

import (
	"context"
	"sync"
	"time"
)

// telemetry.go
// Stage timing hooks for the build pipeline. By default the observer is a
// no-op; the CLI registers one that logs and tests register a recorder.

// StageObserver receives the duration of one pipeline stage.
type StageObserver func(ctx context.Context, stage string, d time.Duration)

// Pipeline stage names.
const (
	StageLoad       = "load"
	StageCheck      = "check"
	StageBuild      = "build"
	StageDerive     = "derive"
	StageJSONLD     = "render_jsonld"
	StageTypeScript = "render_typescript"
	StageJSDoc      = "render_jsdoc"
)

var (
	teleMu   sync.Mutex
	teleImpl StageObserver = func(ctx context.Context, stage string, d time.Duration) {}
)

// RegisterStageObserver installs fn as the stage observer. nil restores the no-op.
func RegisterStageObserver(fn StageObserver) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, stage string, d time.Duration) {}
		return
	}
	teleImpl = fn
}

// EmitStage reports the time elapsed since start for stage.
func EmitStage(ctx context.Context, stage string, start time.Time) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, stage, time.Since(start))
}
