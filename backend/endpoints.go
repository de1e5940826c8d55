package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"inkline/models"
)

// Me returns the authenticated user, or nil when the backend answers 401.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/me", nil, nil)
	if IsKind(err, AuthRequired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

func decodeUser(data []byte) (*models.User, error) {
	u, err := models.DecodeUser(data)
	if err != nil {
		return nil, unexpectedShape("user", err)
	}
	return u, nil
}

func (c *Client) Login(ctx context.Context, in models.Credentials) (*models.User, error) {
	data, err := c.do(ctx, http.MethodPost, "/login", nil, map[string]any{"user": in})
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

func (c *Client) Signup(ctx context.Context, in models.SignupInput) (*models.User, error) {
	data, err := c.do(ctx, http.MethodPost, "/signup", nil, map[string]any{"user": in})
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/logout", nil, nil)
	return err
}

// UpdateProfile returns the updated user when the backend echoes it, nil
// otherwise.
func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileInput) (*models.User, error) {
	user := map[string]any{
		"first_name":       in.FirstName,
		"last_name":        in.LastName,
		"email":            in.Email,
		"current_password": in.CurrentPassword,
	}
	if in.ChangePassword {
		user["password"] = in.Password
		user["password_confirmation"] = in.PasswordConfirmation
	}
	data, err := c.do(ctx, http.MethodPatch, "/profile/update", nil, map[string]any{"user": user})
	if err != nil || data == nil {
		return nil, err
	}
	u, decodeErr := models.DecodeUser(data)
	if decodeErr != nil {
		return nil, nil
	}
	return u, nil
}

func (c *Client) ProfileSummary(ctx context.Context) (*models.ProfileSummary, error) {
	data, err := c.do(ctx, http.MethodGet, "/me/summary", nil, nil)
	if err != nil {
		return nil, err
	}
	s, err := models.DecodeProfileSummary(data)
	if err != nil {
		return nil, unexpectedShape("summary", err)
	}
	return s, nil
}

// MyNotes lists the viewer's notes; they are attributed to viewer.
func (c *Client) MyNotes(ctx context.Context, viewer *models.User) ([]models.Note, error) {
	data, err := c.do(ctx, http.MethodGet, "/notes", nil, nil)
	if err != nil {
		return nil, err
	}
	page, err := models.DecodeNotePage(data, viewer)
	if err != nil {
		return nil, unexpectedShape("notes", err)
	}
	return page.Data, nil
}

func (c *Client) Note(ctx context.Context, id models.ID, viewer *models.User) (*models.Note, error) {
	data, err := c.do(ctx, http.MethodGet, "/notes/"+id.String(), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeNote(data, viewer)
}

func decodeNote(data []byte, viewer *models.User) (*models.Note, error) {
	if data == nil {
		return nil, nil
	}
	n, err := models.DecodeNote(data, viewer)
	if err != nil {
		return nil, unexpectedShape("note", err)
	}
	return n, nil
}

func notePayload(in models.NoteInput) map[string]any {
	return map[string]any{"note": map[string]any{
		"title":      in.Title,
		"body":       in.Body,
		"public":     in.Public,
		"categories": in.Categories,
	}}
}

func (c *Client) CreateNote(ctx context.Context, in models.NoteInput, viewer *models.User) (*models.Note, error) {
	data, err := c.do(ctx, http.MethodPost, "/notes", nil, notePayload(in))
	if err != nil {
		return nil, err
	}
	return decodeNote(data, viewer)
}

func (c *Client) UpdateNote(ctx context.Context, id models.ID, in models.NoteInput, viewer *models.User) (*models.Note, error) {
	data, err := c.do(ctx, http.MethodPatch, "/notes/"+id.String(), nil, notePayload(in))
	if err != nil {
		return nil, err
	}
	return decodeNote(data, viewer)
}

func (c *Client) DeleteNote(ctx context.Context, id models.ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/notes/"+id.String(), nil, nil)
	return err
}

// FeedParams narrows the public feed. The zero value is the whole feed.
type FeedParams struct {
	Query  string
	UserID models.ID
	Limit  int
}

// Feed fetches one page of public notes starting at cursor.
func (c *Client) Feed(ctx context.Context, p FeedParams, cursor models.Cursor) (models.CursorPage[models.Note], error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if !cursor.IsZero() {
		q.Set("before", cursor.QueryValue())
	}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if p.UserID != 0 {
		q.Set("user_id", p.UserID.String())
	}
	data, err := c.do(ctx, http.MethodGet, "/feed/public", q, nil)
	if err != nil {
		return models.CursorPage[models.Note]{}, err
	}
	page, err := models.DecodeNotePage(data, nil)
	if err != nil {
		return models.CursorPage[models.Note]{}, unexpectedShape("feed", err)
	}
	return page, nil
}

func (c *Client) User(ctx context.Context, id models.ID) (*models.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/users/"+id.String(), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.SearchResult, error) {
	data, err := c.do(ctx, http.MethodGet, "/users/search", url.Values{"q": {query}}, nil)
	if err != nil {
		return nil, err
	}
	rows, err := models.DecodeUserSearch(data)
	if err != nil {
		return nil, unexpectedShape("user search", err)
	}
	return rows, nil
}

func (c *Client) Friendships(ctx context.Context) ([]models.Friendship, error) {
	data, err := c.do(ctx, http.MethodGet, "/friendships", nil, nil)
	if err != nil {
		return nil, err
	}
	rows, err := models.DecodeFriendships(data)
	if err != nil {
		return nil, unexpectedShape("friendships", err)
	}
	return rows, nil
}

func decodeFriendship(data []byte) (*models.Friendship, error) {
	if data == nil {
		return nil, nil
	}
	f, err := models.DecodeFriendship(data)
	if err != nil {
		return nil, unexpectedShape("friendship", err)
	}
	return f, nil
}

// CreateFriendship sends a friend request to receiverID.
func (c *Client) CreateFriendship(ctx context.Context, receiverID models.ID) (*models.Friendship, error) {
	data, err := c.do(ctx, http.MethodPost, "/friendships", nil, map[string]any{"receiver_id": receiverID})
	if err != nil {
		return nil, err
	}
	return decodeFriendship(data)
}

// BlockUser blocks a user the viewer has no friendship record with.
func (c *Client) BlockUser(ctx context.Context, receiverID models.ID) (*models.Friendship, error) {
	data, err := c.do(ctx, http.MethodPost, "/friendships", nil, map[string]any{"receiver_id": receiverID, "op": OpBlock})
	if err != nil {
		return nil, err
	}
	return decodeFriendship(data)
}

// Op is a friendship transition understood by PATCH /friendships/:id.
type Op string

const (
	OpAccept  Op = "accept"
	OpReject  Op = "reject"
	OpBlock   Op = "block"
	OpUnblock Op = "unblock"
)

func (c *Client) ActFriendship(ctx context.Context, id models.ID, op Op) (*models.Friendship, error) {
	data, err := c.do(ctx, http.MethodPatch, "/friendships/"+id.String(), nil, map[string]any{"op": op})
	if err != nil {
		return nil, err
	}
	return decodeFriendship(data)
}

func (c *Client) DeleteFriendship(ctx context.Context, id models.ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/friendships/"+id.String(), nil, nil)
	return err
}
