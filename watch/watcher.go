package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceWatcher fires a Trigger once files stop changing in the source
// directory. Only the directory itself is watched; the source is flat.
type SourceWatcher struct {
	dir      string
	trigger  *Trigger
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *slog.Logger
}

// NewSourceWatcher creates a watcher for dir with the given quiet period.
func NewSourceWatcher(dir string, quiet time.Duration, trigger *Trigger, logger *slog.Logger) (*SourceWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &SourceWatcher{
		dir:      dir,
		trigger:  trigger,
		watcher:  w,
		debounce: NewDebouncer(quiet),
		logger:   logger.With("component", "watch.source"),
	}, nil
}

// Watch blocks until ctx is cancelled, firing the trigger after each burst
// of file activity. The fsnotify watcher is closed on return.
func (sw *SourceWatcher) Watch(ctx context.Context) error {
	defer sw.watcher.Close()
	defer sw.debounce.Stop()

	if err := sw.watcher.Add(sw.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", sw.dir, err)
	}
	sw.logger.Info("source watcher started", "path", sw.dir, "debounce", sw.debounce.interval)

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("source watcher stopped")
			return nil

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !shouldProcessEvent(event) {
				continue
			}
			sw.logger.Debug("source change detected", "path", event.Name, "op", event.Op.String())
			sw.debounce.Trigger(func() {
				sw.trigger.Fire(ctx, "watch")
			})

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			sw.logger.Error("source watcher error", "error", err)
		}
	}
}

// shouldProcessEvent keeps creations and writes of visible files. In-flight
// copies and other dot files are ignored, as are removals and chmods, which
// never bring new work.
func shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return !strings.HasPrefix(filepath.Base(event.Name), ".")
}

// Debouncer calls the most recent callback once no new event has arrived for
// the interval.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger records an event and restarts the quiet period.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		if d.stopped {
			cb = nil
		}
		d.callback = nil
		d.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
}

// Stop cancels any pending callback. It is safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
