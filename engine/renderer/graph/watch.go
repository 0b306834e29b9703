package graph

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the description at path whenever it changes on disk and hands the result to
// fn. The parent directory is watched rather than the file so editors that save by renaming
// a temporary file are still seen. Watch blocks until ctx is done.
//
// fn runs on the watching goroutine. A renderer applies the nodes with Build between
// frames, never from inside fn while a frame is executing.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the description file
//   - fn: receives the reloaded nodes, or the load error
//
// Returns:
//   - error: an error if the watcher could not be set up, or ctx.Err() once cancelled
func Watch(ctx context.Context, path string, fn func([]NodeDescriptor, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("graph: watch %q: %w", path, err)
	}
	if _, err := FormatFromPath(abs); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("graph: watch %q: %w", path, err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("graph: watch %q: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			common.Logger().Debug("graph description changed", "path", abs, "op", event.Op.String())
			fn(LoadDescription(abs))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			common.Logger().Warn("graph description watch error", "path", abs, "err", err)
		}
	}
}
