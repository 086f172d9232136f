package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the reloaded file every time the file at path is
// written, until ctx is done. The directory is watched rather than the file
// so that editors replacing the file are followed. A file that fails to load
// is logged and skipped; fn keeps the last good configuration.
//
// A typical use applies new batch limits to a live connector:
//
//	go config.Watch(ctx, path, func(f *config.File) {
//	    conn.SetConfig(f.Config())
//	})
func Watch(ctx context.Context, path string, fn func(*File)) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			f, err := Load(path)
			if err != nil {
				slog.WarnContext(ctx, "config: reload failed", "path", path, "error", err)
				continue
			}
			slog.DebugContext(ctx, "config: reloaded", "path", path)
			fn(f)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "config: watch error", "path", path, "error", err)
		}
	}
}
