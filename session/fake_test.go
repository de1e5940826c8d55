package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"inkline/backend"
	"inkline/models"
)

// fakeBackend records calls and serves canned data. Calls named in gates
// block until the gate is closed; started receives the call name first.
type fakeBackend struct {
	mu sync.Mutex

	me          *models.User
	loginUser   *models.User
	friendships []models.Friendship
	myNotes     []models.Note
	pages       map[string]models.CursorPage[models.Note]
	hits        map[string][]models.SearchResult
	users       map[models.ID]*models.User

	errs    map[string]error
	gates   map[string]chan struct{}
	started chan string

	cookies []*http.Cookie
	calls   []string
}

func newFake() *fakeBackend {
	return &fakeBackend{
		pages:   map[string]models.CursorPage[models.Note]{},
		hits:    map[string][]models.SearchResult{},
		users:   map[models.ID]*models.User{},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func (f *fakeBackend) record(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate := f.gates[name]
	err := f.errs[name]
	f.mu.Unlock()
	if gate != nil {
		f.started <- name
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeBackend) gate(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[name] = ch
	return ch
}

func (f *fakeBackend) fail(name string, err error) {
	f.mu.Lock()
	f.errs[name] = err
	f.mu.Unlock()
}

func (f *fakeBackend) setFriendships(rows []models.Friendship) {
	f.mu.Lock()
	f.friendships = rows
	f.mu.Unlock()
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Me(ctx context.Context) (*models.User, error) {
	if err := f.record(ctx, "me"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.me, nil
}

func (f *fakeBackend) Login(ctx context.Context, in models.Credentials) (*models.User, error) {
	if err := f.record(ctx, "login"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookies = []*http.Cookie{{Name: "_session", Value: "s1", Path: "/"}}
	f.me = f.loginUser
	return f.loginUser, nil
}

func (f *fakeBackend) Signup(ctx context.Context, in models.SignupInput) (*models.User, error) {
	if err := f.record(ctx, "signup"); err != nil {
		return nil, err
	}
	return &models.User{ID: 99, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	return f.record(ctx, "logout")
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, in models.ProfileInput) (*models.User, error) {
	if err := f.record(ctx, "update_profile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *f.me
	u.FirstName, u.LastName, u.Email = in.FirstName, in.LastName, in.Email
	f.me = &u
	return nil, nil
}

func (f *fakeBackend) ProfileSummary(ctx context.Context) (*models.ProfileSummary, error) {
	if err := f.record(ctx, "summary"); err != nil {
		return nil, err
	}
	return &models.ProfileSummary{NotesCount: 3, FriendsCount: 1}, nil
}

func (f *fakeBackend) MyNotes(ctx context.Context, viewer *models.User) ([]models.Note, error) {
	if err := f.record(ctx, "my_notes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Note(nil), f.myNotes...), nil
}

func (f *fakeBackend) CreateNote(ctx context.Context, in models.NoteInput, viewer *models.User) (*models.Note, error) {
	if err := f.record(ctx, "create_note"); err != nil {
		return nil, err
	}
	return &models.Note{ID: 50, Title: in.Title, Body: in.Body, Public: in.Public, Author: viewer.ToSummary()}, nil
}

func (f *fakeBackend) UpdateNote(ctx context.Context, id models.ID, in models.NoteInput, viewer *models.User) (*models.Note, error) {
	if err := f.record(ctx, "update_note"); err != nil {
		return nil, err
	}
	return &models.Note{ID: id, Title: in.Title, Body: in.Body, Public: in.Public, Author: viewer.ToSummary()}, nil
}

func (f *fakeBackend) DeleteNote(ctx context.Context, id models.ID) error {
	return f.record(ctx, "delete_note")
}

func (f *fakeBackend) Feed(ctx context.Context, p backend.FeedParams, cursor models.Cursor) (models.CursorPage[models.Note], error) {
	if err := f.record(ctx, "feed"); err != nil {
		return models.CursorPage[models.Note]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[fmt.Sprintf("%s|%s|%s", p.Query, p.UserID, cursor.QueryValue())], nil
}

func (f *fakeBackend) User(ctx context.Context, id models.ID) (*models.User, error) {
	if err := f.record(ctx, "user"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeBackend) SearchUsers(ctx context.Context, q string) ([]models.SearchResult, error) {
	if err := f.record(ctx, "search:"+q); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[q], nil
}

func (f *fakeBackend) Friendships(ctx context.Context) ([]models.Friendship, error) {
	if err := f.record(ctx, "friendships"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Friendship(nil), f.friendships...), nil
}

func (f *fakeBackend) CreateFriendship(ctx context.Context, receiverID models.ID) (*models.Friendship, error) {
	if err := f.record(ctx, fmt.Sprintf("create_friendship:%s", receiverID)); err != nil {
		return nil, err
	}
	return &models.Friendship{ID: 77, SenderID: 1, ReceiverID: receiverID, Status: models.FriendshipPending}, nil
}

func (f *fakeBackend) BlockUser(ctx context.Context, receiverID models.ID) (*models.Friendship, error) {
	if err := f.record(ctx, fmt.Sprintf("block_user:%s", receiverID)); err != nil {
		return nil, err
	}
	return &models.Friendship{ID: 78, SenderID: 1, ReceiverID: receiverID, Status: models.FriendshipBlocked}, nil
}

func (f *fakeBackend) ActFriendship(ctx context.Context, id models.ID, op backend.Op) (*models.Friendship, error) {
	if err := f.record(ctx, fmt.Sprintf("%s:%s", op, id)); err != nil {
		return nil, err
	}
	return &models.Friendship{ID: id}, nil
}

func (f *fakeBackend) DeleteFriendship(ctx context.Context, id models.ID) error {
	return f.record(ctx, fmt.Sprintf("delete_friendship:%s", id))
}

func (f *fakeBackend) Cookies() []*http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cookies
}

func (f *fakeBackend) SetCookies(cookies []*http.Cookie) {
	f.mu.Lock()
	f.cookies = cookies
	f.mu.Unlock()
}

func (f *fakeBackend) ClearCookies() {
	f.mu.Lock()
	f.cookies = nil
	f.mu.Unlock()
}
