// Package watch re-runs an action whenever a clip file is saved.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses the burst of events an editor produces when
// it saves a file.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors one file and calls OnChange after it settles.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	log      zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	busy   bool
	queued bool

	// pending counts armed timers and running actions.
	pending sync.WaitGroup
}

// New returns a watcher for path. onChange never runs concurrently with
// itself; a change seen while it runs schedules exactly one more call.
func New(path string, debounce time.Duration, log zerolog.Logger, onChange func(ctx context.Context)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		log:      log,
	}
}

// Run watches the file's directory until ctx is done. Editors often
// replace a file instead of writing it in place, so the directory is
// watched and events are filtered by name. Run does not return while an
// action is still running.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info().Str("path", w.path).Msg("watching clip")

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug().Str("op", event.Op.String()).Msg("clip changed")
			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.fire(ctx)
	})
}

func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if w.busy {
		w.queued = true
		w.mu.Unlock()
		return
	}
	w.busy = true
	w.mu.Unlock()

	for {
		if ctx.Err() != nil {
			break
		}
		w.onChange(ctx)

		w.mu.Lock()
		if !w.queued {
			w.busy = false
			w.mu.Unlock()
			return
		}
		w.queued = false
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// drain disarms the timer and waits for an action already in progress.
func (w *Watcher) drain() {
	w.mu.Lock()
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.timer = nil
	w.mu.Unlock()

	w.pending.Wait()
}
