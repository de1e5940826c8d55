package session

import (
	"context"
	"fmt"
	"strings"

	"inkline/backend"
	"inkline/models"
	"inkline/pagination"
	"inkline/querycache"
)

// FeedView is what a notes list shows: the walked pages so far and whether
// more can be loaded.
type FeedView struct {
	Query   string           `json:"q"`
	UserID  models.ID        `json:"user_id,omitempty"`
	State   pagination.State `json:"state"`
	HasMore bool             `json:"has_more"`
	Notes   []NoteView       `json:"notes"`
}

func feedKey(p backend.FeedParams, cursor models.Cursor) querycache.Key {
	return querycache.K(querycache.RootFeed, p.Query, p.UserID.String(), cursor.QueryValue())
}

func userNotesKey(p backend.FeedParams, cursor models.Cursor) querycache.Key {
	return querycache.K(querycache.RootUserNotes, p.UserID.String(), p.Query, cursor.QueryValue())
}

func (s *Session) fetchFeedPage(ctx context.Context, p backend.FeedParams, cursor models.Cursor) (models.CursorPage[models.Note], error) {
	return querycache.Fetch(ctx, s.cache, feedKey(p, cursor), func(ctx context.Context) (models.CursorPage[models.Note], error) {
		return s.api.Feed(ctx, p, cursor)
	})
}

func (s *Session) fetchUserNotesPage(ctx context.Context, p backend.FeedParams, cursor models.Cursor) (models.CursorPage[models.Note], error) {
	return querycache.Fetch(ctx, s.cache, userNotesKey(p, cursor), func(ctx context.Context) (models.CursorPage[models.Note], error) {
		return s.api.Feed(ctx, p, cursor)
	})
}

// pagesInvalidated restarts the walker whose pages were invalidated.
func (s *Session) pagesInvalidated(k querycache.Key) {
	switch k.Root() {
	case querycache.RootFeed:
		s.feed.Reset()
	case querycache.RootUserNotes:
		if len(k) < 2 {
			return
		}
		id, err := models.ParseID(k[1])
		if err != nil {
			return
		}
		s.mu.RLock()
		w := s.userNotes[id]
		s.mu.RUnlock()
		if w != nil {
			w.Reset()
		}
	}
}

// Feed shows the public feed for the given filters, loading the first page
// if the filters changed, nothing is loaded yet or the loaded pages went
// stale.
func (s *Session) Feed(ctx context.Context, q string, userID models.ID) (*FeedView, error) {
	p := backend.FeedParams{Query: strings.TrimSpace(q), UserID: userID, Limit: FeedPageSize}
	s.mount(s.feed, p, feedKey(p, models.Cursor{}))
	return s.walk(ctx, s.feed, false)
}

// FeedNext loads the next feed page. It is a no-op while a page is loading
// or once the feed is exhausted.
func (s *Session) FeedNext(ctx context.Context) (*FeedView, error) {
	return s.walk(ctx, s.feed, true)
}

func (s *Session) userNotesWalker(id models.ID) *noteWalker {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.userNotes[id]
	if !ok {
		w = pagination.New(s.fetchUserNotesPage, backend.FeedParams{UserID: id, Limit: FeedPageSize})
		s.userNotes[id] = w
	}
	return w
}

// UserNotes walks another user's notes, as shown on their profile.
func (s *Session) UserNotes(ctx context.Context, id models.ID, q string) (*FeedView, error) {
	if _, err := s.requireViewer(); err != nil {
		return nil, err
	}
	w := s.userNotesWalker(id)
	p := backend.FeedParams{UserID: id, Query: strings.TrimSpace(q), Limit: FeedPageSize}
	s.mount(w, p, userNotesKey(p, models.Cursor{}))
	return forbidden(id)(s.walk(ctx, w, false))
}

func (s *Session) UserNotesNext(ctx context.Context, id models.ID) (*FeedView, error) {
	if _, err := s.requireViewer(); err != nil {
		return nil, err
	}
	return forbidden(id)(s.walk(ctx, s.userNotesWalker(id), true))
}

// forbidden maps a backend refusal of user id's notes onto ErrForbidden.
func forbidden(id models.ID) func(*FeedView, error) (*FeedView, error) {
	return func(v *FeedView, err error) (*FeedView, error) {
		if backend.IsKind(err, backend.Forbidden) {
			return nil, fmt.Errorf("notes of user %s: %w", id, ErrForbidden)
		}
		return v, err
	}
}

// mount points w at p. A walk whose first page is no longer fresh starts
// over, so a reopened list shows what the backend holds now.
func (s *Session) mount(w *noteWalker, p backend.FeedParams, first querycache.Key) {
	if w.SetParams(p) {
		return
	}
	if !s.cache.Fresh(first) {
		w.Reset()
	}
}

// walk loads a page when asked to, or when nothing has been loaded yet, and
// renders the walker.
func (s *Session) walk(ctx context.Context, w *noteWalker, next bool) (*FeedView, error) {
	if next || w.State() == pagination.Idle {
		if _, err := w.LoadNext(ctx); err != nil {
			return nil, s.observe(err)
		}
	}
	p := w.Params()
	return &FeedView{
		Query:   p.Query,
		UserID:  p.UserID,
		State:   w.State(),
		HasMore: w.HasMore(),
		Notes:   s.noteViews(ctx, w.Items()),
	}, nil
}
