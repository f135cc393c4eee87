package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

// RebuildFunc reloads the fragments and runs the pipeline.
type RebuildFunc func(ctx context.Context) (*sdojsd.BuildResult, error)

// BuildCallback is called after every successful rebuild.
type BuildCallback func(*sdojsd.BuildResult) error

// Watcher rebuilds the vocabulary when fragment files change. Rapid changes are
// debounced into one rebuild. A failed rebuild keeps the previous result.
type Watcher struct {
	watcher        *fsnotify.Watcher
	extension      string
	debouncePeriod time.Duration
	rebuild        RebuildFunc

	// held for a whole reload so rebuilds never overlap
	reloadMu sync.Mutex

	mu            sync.Mutex
	debounceTimer *time.Timer
	callbacks     []BuildCallback
	last          *sdojsd.BuildResult
}

// NewWatcher watches dirs for files with the given extension.
func NewWatcher(dirs []string, extension string, debounce time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	return newWatcher(fw, extension, debounce, rebuild), nil
}

func newWatcher(fw *fsnotify.Watcher, extension string, debounce time.Duration, rebuild RebuildFunc) *Watcher {
	return &Watcher{
		watcher:        fw,
		extension:      extension,
		debouncePeriod: debounce,
		rebuild:        rebuild,
	}
}

// OnBuild registers a callback for successful rebuilds.
func (w *Watcher) OnBuild(callback BuildCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Last returns the most recent successful build, or nil.
func (w *Watcher) Last() *sdojsd.BuildResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run builds once, then rebuilds on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.reload(ctx)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.mu.Unlock()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			zap.S().Infow("watcher detected change", "file", event.Name, "op", event.Op.String())
			w.scheduleReload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			zap.S().Warnw("watcher error", "error", err)
		}
	}
}

// relevant reports whether event touches a fragment file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != w.extension {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}

func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() { w.reload(ctx) })
}

func (w *Watcher) reload(ctx context.Context) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	result, err := w.rebuild(ctx)
	if err != nil {
		zap.S().Errorw("rebuild failed, keeping previous build", "error", err)
		return
	}

	w.mu.Lock()
	w.last = result
	callbacks := make([]BuildCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(result); err != nil {
			zap.S().Warnw("build callback error", "buildId", result.ID, "error", err)
		}
	}
}
