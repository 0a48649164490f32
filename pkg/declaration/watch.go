package declaration

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// DefaultDebounce coalesces editor write bursts into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads the declaration whenever the file changes, invoking onChange
// with each reload result until the context is cancelled. The watch is on
// the containing directory so atomic rename-into-place saves are seen.
func (l *Loader) Watch(ctx context.Context, file string, debounce time.Duration, onChange func(*File, error)) error {
	path := l.Resolve(file)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return engine.NewInternalError("failed to create file watcher", err).
			WithCode(engine.ErrCodeInternal)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return engine.NewConfigError(
			fmt.Sprintf("failed to watch %q", filepath.Dir(path)), err).
			WithCode(engine.ErrCodeMissingPath)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	l.logger.Info().Str("file", path).Msg("Watching declaration for changes")
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn().Err(err).Msg("Declaration watch error")

		case <-timer.C:
			f, loadErr := l.Load(file)
			onChange(f, loadErr)
		}
	}
}
