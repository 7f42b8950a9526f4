// Package watch reports when a preference file has been rewritten.
//
// Preference daemons usually replace a plist by writing a temporary file and
// renaming it over the existing file, so the parent directory is watched rather
// than the file itself.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval bounds how long cancellation and the settle window
	// can go unnoticed.
	DefaultPollInterval = 500 * time.Millisecond
)

// Stabilizer blocks until a file has been rewritten by another process.
type Stabilizer interface {
	WaitStable(ctx context.Context, path string) error
}

// StabilizerFunc adapts a function to Stabilizer.
type StabilizerFunc func(ctx context.Context, path string) error

func (f StabilizerFunc) WaitStable(ctx context.Context, path string) error { return f(ctx, path) }

// Immediate reports every file as stable at once. Used in tests and for
// offline diffs.
var Immediate = StabilizerFunc(func(ctx context.Context, _ string) error { return ctx.Err() })

// FSWatcher is the fsnotify-backed Stabilizer.
type FSWatcher struct {
	// PollInterval is the granularity of cancellation and settle checks.
	PollInterval time.Duration
	// Settle requires this long without further matching events before the
	// file counts as stable. Zero returns on the first matching event.
	Settle time.Duration
	Logger *zap.Logger
}

// NewFSWatcher creates a watcher with the default poll interval.
func NewFSWatcher(logger *zap.Logger) *FSWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSWatcher{PollInterval: DefaultPollInterval, Logger: logger}
}

// isRewrite reports whether ev replaced or modified the file named base.
// A rename onto base arrives as Create.
func isRewrite(ev fsnotify.Event, base string) bool {
	if filepath.Base(ev.Name) != base {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)
}

// WaitStable blocks until path is created, written or renamed into place,
// or ctx is done.
func (w *FSWatcher) WaitStable(ctx context.Context, path string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger().Debug("waiting for change", zap.String("dir", dir), zap.String("file", base))

	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastEvent time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher for %s closed", dir)
			}
			if !isRewrite(ev, base) {
				continue
			}
			w.logger().Debug("change detected", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
			if w.Settle <= 0 {
				return nil
			}
			lastEvent = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher for %s closed", dir)
			}
			w.logger().Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			if !lastEvent.IsZero() && now.Sub(lastEvent) >= w.Settle {
				return nil
			}
		}
	}
}

func (w *FSWatcher) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
