package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/baseballyama/blog/internal/content"
)

// Watch rebuilds the site whenever something under opts.PostsDir changes.
// The caller is expected to have run the initial build. Rebuilds never overlap:
// events that arrive while a build runs collapse into a single follow-up build.
// Build failures are logged and watching continues. Watch returns nil once ctx
// is done.
func (e *Exporter) Watch(ctx context.Context, opts Options) error {
	if err := os.MkdirAll(opts.PostsDir, 0o755); err != nil { //nolint:gosec // standard directory permissions
		return fmt.Errorf("ensure posts directory: %w", err)
	}
	root, err := filepath.Abs(opts.PostsDir)
	if err != nil {
		return fmt.Errorf("resolve posts directory: %w", err)
	}
	w, err := content.NewWatcher(ctx, root, e.logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	events := w.Subscribe(ctx)
	e.logger.Info("watching for changes", slog.String("dir", root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			e.forget(root, evt)
			e.drain(root, events)
			e.logger.Info("change detected, rebuilding", slog.String("path", evt.Path), slog.String("op", evt.Op))
			if _, err := e.Export(ctx, opts); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				e.logger.Error("rebuild failed", slog.Any("err", err))
			}
		}
	}
}

// drain consumes events already queued so a burst triggers one build.
func (e *Exporter) drain(root string, events <-chan content.Event) {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			e.forget(root, evt)
		default:
			return
		}
	}
}

// forget drops the cached rendering of a post that was removed or renamed away.
func (e *Exporter) forget(root string, evt content.Event) {
	if !evt.Removed() {
		return
	}
	path := filepath.Join(root, filepath.FromSlash(evt.Path))
	if e.renderer.Invalidate(path) {
		e.logger.Debug("dropped cached render", slog.String("path", path))
	}
}
