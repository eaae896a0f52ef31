package search

import (
	"context"
	"sync"
	"time"

	"github.com/vinizap/studydock/domain"
)

const DefaultDelay = 300 * time.Millisecond

type NoteSource interface {
	List() []domain.Note
}

type FolderSource interface {
	List() []domain.Folder
}

// Index keeps a raw query and a debounced copy of it. Results are derived
// from the sources on every read using the debounced query.
type Index struct {
	notes   NoteSource
	folders FolderSource
	delay   time.Duration

	mu        sync.Mutex
	query     string
	debounced string
	searching bool
	// idle is closed whenever searching is false.
	idle  chan struct{}
	timer *time.Timer
	// gen invalidates timers that fire after being superseded.
	gen uint64
}

// NewIndex returns an Index over the given sources. A non-positive delay
// means DefaultDelay.
func NewIndex(notes NoteSource, folders FolderSource, delay time.Duration) *Index {
	if delay <= 0 {
		delay = DefaultDelay
	}
	idle := make(chan struct{})
	close(idle)
	return &Index{notes: notes, folders: folders, delay: delay, idle: idle}
}

// SetQuery records q and restarts the debounce timer. Setting the current
// query again does nothing.
func (x *Index) SetQuery(q string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if q == x.query {
		return
	}
	x.query = q
	if !x.searching {
		x.searching = true
		x.idle = make(chan struct{})
	}
	x.stopLocked()
	gen := x.gen
	x.timer = time.AfterFunc(x.delay, func() { x.settle(gen, q) })
}

func (x *Index) settle(gen uint64, q string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if gen != x.gen {
		return
	}
	x.debounced = q
	x.timer = nil
	x.settleLocked()
}

func (x *Index) settleLocked() {
	if x.searching {
		x.searching = false
		close(x.idle)
	}
}

// stopLocked cancels any pending timer. Must be called with mu held.
func (x *Index) stopLocked() {
	if x.timer != nil {
		x.timer.Stop()
		x.timer = nil
	}
	x.gen++
}

// Clear resets both queries and the in-progress flag immediately.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.stopLocked()
	x.query = ""
	x.debounced = ""
	x.settleLocked()
}

// Wait blocks until no query change is pending.
func (x *Index) Wait(ctx context.Context) error {
	x.mu.Lock()
	idle := x.idle
	x.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (x *Index) Query() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.query
}

func (x *Index) DebouncedQuery() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.debounced
}

// Searching is true while a query change waits for the debounce delay.
func (x *Index) Searching() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.searching
}

func (x *Index) Notes() []domain.Note {
	return FilterNotes(x.notes.List(), x.DebouncedQuery())
}

func (x *Index) Folders() []domain.Folder {
	return FilterFolders(x.folders.List(), x.DebouncedQuery())
}

func (x *Index) HasResults() bool {
	return len(x.Notes()) > 0 || len(x.Folders()) > 0
}

func (x *Index) Results() Results {
	return Run(x.notes.List(), x.folders.List(), x.DebouncedQuery())
}
