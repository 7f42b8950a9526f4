package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// EventKind is a simplified filesystem event type.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
	EventMoved    EventKind = "moved"
)

// Event is one change inside a watched directory.
type Event struct {
	Kind EventKind
	Path string
}

func kindOf(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated, true
	case op.Has(fsnotify.Write):
		return EventModified, true
	case op.Has(fsnotify.Remove):
		return EventDeleted, true
	case op.Has(fsnotify.Rename):
		return EventMoved, true
	}
	return "", false
}

// Dir calls fn for every create, write, remove and rename in dir until ctx
// is done or fn returns an error. It is used to find which domain file a
// settings panel touches.
func Dir(ctx context.Context, dir string, fn func(Event) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			kind, ok := kindOf(ev.Op)
			if !ok {
				continue
			}
			if err := fn(Event{Kind: kind, Path: filepath.Clean(ev.Name)}); err != nil {
				return err
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
}
