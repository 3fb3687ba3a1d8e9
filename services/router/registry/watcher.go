// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// Capability File Hot Reload
// =============================================================================

// Watch reloads the registry's capability set whenever the given YAML
// file changes. It blocks until ctx is cancelled, so run it in its own
// goroutine. A file that fails to load is logged and skipped; the
// previous capability set stays active.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	r.logger.Info("watching capability file for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			capabilities, err := LoadCapabilities(path)
			if err != nil {
				r.logger.Warn("capability file changed but failed to load, keeping previous set",
					slog.String("path", path),
					slog.Any("error", err),
				)
				continue
			}
			r.Replace(capabilities)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("capability file watcher error", "error", err)
		}
	}
}
