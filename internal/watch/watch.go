// Package watch exposes the file-change data contract that a watch-mode
// CLI or editor integration would consume to know when to re-run a
// .hone file. It only emits change events — looping, debouncing, and
// re-invoking the executor is watch-mode-loop behavior and lives outside
// this core.
package watch

import (
	"github.com/fsnotify/fsnotify"
)

// EventKind classifies a filesystem change relevant to a watched .hone
// file.
type EventKind int

const (
	EventModified EventKind = iota
	EventCreated
	EventRemoved
	EventRenamed
)

// Event is one filesystem change surfaced to a consumer.
type Event struct {
	Path string
	Kind EventKind
}

// Watcher wraps an fsnotify.Watcher and translates its raw events into
// the EventKind vocabulary consumers of this package expect.
type Watcher struct {
	inner  *fsnotify.Watcher
	events chan Event
	errors chan error
}

// New creates a Watcher with no paths registered yet.
func New() (*Watcher, error) {
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		inner:  inner,
		events: make(chan Event),
		errors: make(chan error),
	}

	go w.pump()
	return w, nil
}

// Add registers a file or directory for change notification.
func (w *Watcher) Add(path string) error {
	return w.inner.Add(path)
}

// Events returns the channel of translated filesystem events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of errors from the underlying watcher.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops watching and releases the underlying OS resources.
func (w *Watcher) Close() error {
	return w.inner.Close()
}

func (w *Watcher) pump() {
	for {
		select {
		case event, ok := <-w.inner.Events:
			if !ok {
				close(w.events)
				return
			}
			w.events <- Event{Path: event.Name, Kind: translate(event.Op)}
		case err, ok := <-w.inner.Errors:
			if !ok {
				close(w.errors)
				return
			}
			w.errors <- err
		}
	}
}

func translate(op fsnotify.Op) EventKind {
	switch {
	case op&fsnotify.Create != 0:
		return EventCreated
	case op&fsnotify.Remove != 0:
		return EventRemoved
	case op&fsnotify.Rename != 0:
		return EventRenamed
	default:
		return EventModified
	}
}
