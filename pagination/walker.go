// Package pagination walks cursor-paginated backend endpoints for infinite
// scroll views.
package pagination

import (
	"context"
	"sync"

	"inkline/models"
)

type State int

const (
	Idle State = iota
	Loading
	HasMore
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case HasMore:
		return "has_more"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FetchFunc loads the page that starts at cursor. The zero cursor asks for
// the first page.
type FetchFunc[T any, P comparable] func(ctx context.Context, params P, cursor models.Cursor) (models.CursorPage[T], error)

// Walker accumulates pages from a FetchFunc for one set of query params.
// Pages are assumed disjoint and appended in order.
//
// At most one LoadNext is in flight per walker generation. Reset and
// SetParams start a new generation; results of older generations are dropped.
type Walker[T any, P comparable] struct {
	mu     sync.Mutex
	fetch  FetchFunc[T, P]
	params P
	state  State
	cursor models.Cursor
	items  []T
	gen    uint64
}

func New[T any, P comparable](fetch FetchFunc[T, P], params P) *Walker[T, P] {
	return &Walker[T, P]{fetch: fetch, params: params}
}

// LoadNext fetches the next page and returns the items it added. It is a
// no-op while a load is in flight or once the walk is exhausted. On error
// the walker returns to the state it was in and keeps what it has.
func (w *Walker[T, P]) LoadNext(ctx context.Context) ([]T, error) {
	w.mu.Lock()
	if w.state == Loading || w.state == Exhausted {
		w.mu.Unlock()
		return nil, nil
	}
	resting := w.state
	w.state = Loading
	params, cursor, gen := w.params, w.cursor, w.gen
	w.mu.Unlock()

	page, err := w.fetch(ctx, params, cursor)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return nil, nil
	}
	if err != nil {
		w.state = resting
		return nil, err
	}
	w.items = append(w.items, page.Data...)
	w.cursor = page.NextCursor
	if page.NextCursor.IsZero() {
		w.state = Exhausted
	} else {
		w.state = HasMore
	}
	return page.Data, nil
}

// Reset discards accumulated items and the cursor; the next load starts
// from the first page.
func (w *Walker[T, P]) Reset() {
	w.mu.Lock()
	w.resetLocked()
	w.mu.Unlock()
}

func (w *Walker[T, P]) resetLocked() {
	w.gen++
	w.state = Idle
	w.cursor = models.Cursor{}
	w.items = nil
}

// SetParams switches the walker to new query params. A change restarts the
// walk; it reports whether a restart happened.
func (w *Walker[T, P]) SetParams(p P) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p == w.params {
		return false
	}
	w.params = p
	w.resetLocked()
	return true
}

func (w *Walker[T, P]) Params() P {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.params
}

func (w *Walker[T, P]) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Items returns a copy of everything accumulated so far.
func (w *Walker[T, P]) Items() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}

// HasMore reports whether another page may exist.
func (w *Walker[T, P]) HasMore() bool {
	s := w.State()
	return s == Idle || s == HasMore
}
