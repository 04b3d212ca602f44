// Package watcher re-imports a records file when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/listenupapp/tagcurator/internal/logger"
)

// Handler is called once a change to the watched file has settled.
type Handler func(ctx context.Context, path string) error

// Options configures the file watcher behavior.
type Options struct {
	// SettleDelay is how long the file must stay quiet before Handler runs.
	SettleDelay time.Duration
}

func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
}

// Watcher watches a single file through its parent directory, so editors
// that replace the file by renaming over it are still seen.
type Watcher struct {
	path    string
	handler Handler
	logger  *logger.Logger
	opts    Options
	watcher *fsnotify.Watcher

	timer   *time.Timer
	settled chan struct{}
}

// New creates a watcher for path. Call Run to start it.
func New(path string, handler Handler, log *logger.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		handler: handler,
		logger:  log,
		opts:    opts,
		watcher: fw,
		settled: make(chan struct{}, 1),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run processes file events until ctx is done. Handler calls run on this
// goroutine, one at a time; a failing call is logged and watching goes on.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimer()

	w.logger.Info("Watching records file", "path", w.path, "settle_delay", w.opts.SettleDelay)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watcher error", "path", w.path)
		case <-w.settled:
			if err := w.handler(ctx, w.path); err != nil {
				w.logger.WithError(err).Error("Failed to import changed records file", "path", w.path)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	w.logger.Debug("Records file changed", "path", w.path, "op", event.Op.String())

	// Restart the settle window on every write.
	w.stopTimer()
	w.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		select {
		case w.settled <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
	}
}
