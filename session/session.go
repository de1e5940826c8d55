// Package session holds one browser session's application context: the
// viewer, the named query caches, the pagination walkers and the per-entity
// busy flags. Every action that changes backend state goes through here so
// the matching caches are invalidated.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"inkline/backend"
	"inkline/models"
	"inkline/pagination"
	"inkline/querycache"
	"inkline/validation"
)

// FeedPageSize is the page size requested from /feed/public.
const FeedPageSize = 20

// StaleTimes is how long each result set is served without a refetch. Lists
// other users can change are refetched on every read; the viewer identity
// only changes through this session.
var StaleTimes = map[string]time.Duration{
	querycache.RootMe:             5 * time.Minute,
	querycache.RootProfileSummary: 0,
	querycache.RootMyNotes:        0,
	querycache.RootFeed:           0,
	querycache.RootUserNotes:      0,
	querycache.RootFriendships:    0,
	querycache.RootUserSearch:     0,
	querycache.RootUser:           0,
}

// Backend is the part of the REST client a session uses.
type Backend interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, in models.Credentials) (*models.User, error)
	Signup(ctx context.Context, in models.SignupInput) (*models.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, in models.ProfileInput) (*models.User, error)
	ProfileSummary(ctx context.Context) (*models.ProfileSummary, error)

	MyNotes(ctx context.Context, viewer *models.User) ([]models.Note, error)
	CreateNote(ctx context.Context, in models.NoteInput, viewer *models.User) (*models.Note, error)
	UpdateNote(ctx context.Context, id models.ID, in models.NoteInput, viewer *models.User) (*models.Note, error)
	DeleteNote(ctx context.Context, id models.ID) error
	Feed(ctx context.Context, p backend.FeedParams, cursor models.Cursor) (models.CursorPage[models.Note], error)

	User(ctx context.Context, id models.ID) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.SearchResult, error)
	Friendships(ctx context.Context) ([]models.Friendship, error)
	CreateFriendship(ctx context.Context, receiverID models.ID) (*models.Friendship, error)
	BlockUser(ctx context.Context, receiverID models.ID) (*models.Friendship, error)
	ActFriendship(ctx context.Context, id models.ID, op backend.Op) (*models.Friendship, error)
	DeleteFriendship(ctx context.Context, id models.ID) error

	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	ClearCookies()
}

type noteWalker = pagination.Walker[models.Note, backend.FeedParams]

type Session struct {
	ID string

	api   Backend
	cache *querycache.Coordinator
	busy  *Busy
	log   *slog.Logger

	mu        sync.RWMutex
	viewer    *models.User
	feed      *noteWalker
	userNotes map[models.ID]*noteWalker
	search    *querycache.Slot[SearchResult]
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithCache(c *querycache.Coordinator) Option {
	return func(s *Session) { s.cache = c }
}

func New(id string, api Backend, opts ...Option) *Session {
	s := &Session{
		ID:        id,
		api:       api,
		busy:      NewBusy(),
		log:       slog.Default(),
		userNotes: make(map[models.ID]*noteWalker),
		search:    querycache.NewSlot[SearchResult]("user-search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = querycache.New(querycache.WithLogger(s.log), querycache.WithStaleTimes(StaleTimes))
	}
	s.log = s.log.With("session", id)
	s.feed = pagination.New(s.fetchFeedPage, backend.FeedParams{Limit: FeedPageSize})
	s.cache.Subscribe(querycache.Roots(querycache.RootFeed, querycache.RootUserNotes), s.pagesInvalidated)
	return s
}

func (s *Session) Cache() *querycache.Coordinator { return s.cache }

func (s *Session) Busy() *Busy { return s.busy }

// Viewer returns the signed-in user, or nil for an anonymous session.
func (s *Session) Viewer() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewer
}

func (s *Session) requireViewer() (*models.User, error) {
	if v := s.Viewer(); v != nil {
		return v, nil
	}
	return nil, ErrAnonymous
}

func (s *Session) setViewer(u *models.User) {
	s.mu.Lock()
	s.viewer = u
	s.mu.Unlock()
}

// Bootstrap resolves the viewer from the backend session. A 401 leaves the
// session anonymous.
func (s *Session) Bootstrap(ctx context.Context) (*models.User, error) {
	u, err := querycache.Fetch(ctx, s.cache, querycache.K(querycache.RootMe), s.api.Me)
	if err != nil {
		return s.Viewer(), err
	}
	s.setViewer(u)
	return u, nil
}

func (s *Session) Login(ctx context.Context, in models.Credentials) (*models.User, error) {
	if err := validation.Credentials(&in); err != nil {
		return nil, err
	}
	u, err := s.api.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	s.signedIn(u)
	return u, nil
}

func (s *Session) Signup(ctx context.Context, in models.SignupInput) (*models.User, error) {
	if err := validation.Signup(&in); err != nil {
		return nil, err
	}
	u, err := s.api.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	s.signedIn(u)
	return u, nil
}

func (s *Session) signedIn(u *models.User) {
	s.resetViews()
	s.setViewer(u)
	s.cache.Set(querycache.K(querycache.RootMe), u)
	s.log.Info("viewer signed in", "user_id", u.ID)
}

// Logout ends the backend session. Local state is cleared even when the
// backend call fails; the error is returned for logging only.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.api.ClearCookies()
	s.resetViews()
	s.setViewer(nil)
	s.cache.Set(querycache.K(querycache.RootMe), (*models.User)(nil))
	if err != nil && !backend.IsKind(err, backend.AuthRequired) {
		s.log.Warn("backend logout failed", "error", err)
		return err
	}
	return nil
}

// resetViews drops every cache and walker of the previous viewer.
func (s *Session) resetViews() {
	s.cache.Apply(querycache.AuthChanged)
	s.mu.Lock()
	s.feed.Reset()
	s.userNotes = make(map[models.ID]*noteWalker)
	s.mu.Unlock()
	s.search.Clear()
}

// UpdateProfile saves the profile form and re-derives the viewer. Only the
// viewer identity entry is invalidated.
func (s *Session) UpdateProfile(ctx context.Context, in models.ProfileInput) (*models.User, error) {
	if _, err := s.requireViewer(); err != nil {
		return nil, err
	}
	if err := validation.Profile(&in); err != nil {
		return nil, err
	}
	updated, err := s.api.UpdateProfile(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Apply(querycache.ProfileUpdated)
	if updated != nil {
		s.cache.Set(querycache.K(querycache.RootMe), updated)
		s.setViewer(updated)
		return updated, nil
	}
	return s.Bootstrap(ctx)
}

// ProfileSummary is always refetched when asked for.
func (s *Session) ProfileSummary(ctx context.Context) (*models.ProfileSummary, error) {
	if _, err := s.requireViewer(); err != nil {
		return nil, err
	}
	key := querycache.K(querycache.RootProfileSummary)
	s.cache.InvalidateKeys(key)
	return querycache.Fetch(ctx, s.cache, key, s.api.ProfileSummary)
}

// Refresh marks every entry under the given roots stale on behalf of a view
// that asked for it. Mounted views observing those roots are notified.
func (s *Session) Refresh(roots ...string) []querycache.Key {
	if len(roots) == 0 {
		return nil
	}
	return s.cache.Invalidate(querycache.Roots(roots...))
}

// Credentials returns the backend cookies so the session can be resumed.
func (s *Session) Credentials() []*http.Cookie {
	return s.api.Cookies()
}

// observe drops the viewer when the backend says its session is gone, so
// the browser falls back to the anonymous views.
func (s *Session) observe(err error) error {
	var be *backend.Error
	if errors.As(err, &be) && be.Kind == backend.AuthRequired && s.Viewer() != nil {
		s.log.Info("backend session expired")
		s.resetViews()
		s.setViewer(nil)
		s.cache.Set(querycache.K(querycache.RootMe), (*models.User)(nil))
	}
	return err
}
