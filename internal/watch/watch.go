// Package watch triggers dashboard refreshes when a local export file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors and exporters.
const DefaultDebounce = 500 * time.Millisecond

// ErrFileRemoved is reported through OnError when the watched file disappears.
var ErrFileRemoved = errors.New("watched file was removed")

// Options configures File.
type Options struct {
	Debounce time.Duration
	OnChange func()
	OnError  func(error)
}

// File watches path until ctx is canceled, calling OnChange once per burst of
// writes. The parent directory is watched so atomic replace-by-rename is seen.
func File(ctx context.Context, path string, opts Options) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.OnChange == nil {
		opts.OnChange = func() {}
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	d := newDebouncer(opts.Debounce)
	defer d.cancel()

	target := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				opts.OnError(ErrFileRemoved)
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				d.trigger(opts.OnChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			opts.OnError(err)
		}
	}
}

// debouncer runs the last triggered fn once no trigger arrived for delay.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
