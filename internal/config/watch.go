package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchTargets monitors the targets file at path and calls onChange with the
// newly parsed target list each time the file is written. It runs until ctx
// is cancelled.
//
// If a reload fails, the error is logged and the previous target list stays
// active — WatchTargets does not call onChange.
func WatchTargets(ctx context.Context, path string, onChange func(*Targets)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("targets: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			targets, err := LoadTargets(path)
			if err != nil {
				slog.Error("targets: reload failed — keeping previous list",
					"path", path, "err", err)
				continue
			}

			slog.Info("targets: reloaded", "path", path, "count", targets.Len())
			onChange(targets)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("targets: watcher error", "err", err)
		}
	}
}
