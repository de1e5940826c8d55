package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkline/models"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newServer(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			require.NoError(t, json.Unmarshal(b, &rec.body))
		}
		calls = append(calls, rec)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestMeUnauthenticatedIsNil(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"You need to sign in"}`)
	})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "_session", Value: "abc", Path: "/"})
			writeJSON(w, http.StatusOK, `{"data":{"id":"7","type":"user","attributes":{"first_name":"Al","last_name":"Ng","email":"al@example.com"}}}`)
		case "/me":
			if ck, err := r.Cookie("_session"); err != nil || ck.Value != "abc" {
				writeJSON(w, http.StatusUnauthorized, `{}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"id":7,"first_name":"Al","last_name":"Ng"}`)
		}
	})
	ctx := context.Background()

	u, err := c.Login(ctx, models.Credentials{Email: "al@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.ID(7), u.ID)
	assert.Equal(t, "Al Ng", u.FullName())

	login := (*calls)[0]
	assert.Equal(t, http.MethodPost, login.method)
	assert.Equal(t, map[string]any{"email": "al@example.com", "password": "password1"}, login.body["user"])

	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, models.ID(7), me.ID)
	require.Len(t, c.Cookies(), 1)

	c.ClearCookies()
	assert.Empty(t, c.Cookies())
}

func TestFeedSendsCursorAndFilters(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"id":3,"title":"t","body":"b","public":true,"author":{"id":5,"first_name":"Bo","last_name":"Li"}}],"meta":{"next_cursor":"c2"}}`)
	})

	page, err := c.Feed(context.Background(), FeedParams{Query: "go", UserID: 5, Limit: 20}, models.NewCursor("c1"))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.ID(5), page.Data[0].AuthorID())
	assert.Equal(t, []models.Category{}, page.Data[0].Categories)
	assert.Equal(t, "c2", page.NextCursor.QueryValue())

	got := (*calls)[0]
	assert.Equal(t, "/feed/public", got.path)
	assert.Equal(t, "before=c1&limit=20&q=go&user_id=5", got.query)
}

func TestFeedFirstPageOmitsBefore(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[],"next_cursor":null}`)
	})

	page, err := c.Feed(context.Background(), FeedParams{Limit: 20}, models.Cursor{})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.True(t, page.NextCursor.IsZero())
	assert.Equal(t, "limit=20", (*calls)[0].query)
}

func TestMyNotesAttributedToViewer(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"id":1,"title":"mine","public":false,"categories":[{"name":"go"}]}]}`)
	})
	viewer := &models.User{ID: 7, FirstName: "Al", LastName: "Ng"}

	notes, err := c.MyNotes(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.ID(7), notes[0].AuthorID())
	assert.Equal(t, "go", notes[0].Categories[0].Name)
}

func TestFriendshipCalls(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"id":"9","attributes":{"status":"pending","sender_id":1,"receiver_id":2}}}`)
	})
	ctx := context.Background()

	f, err := c.CreateFriendship(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ID(9), f.ID)
	assert.Equal(t, models.FriendshipPending, f.Status)

	_, err = c.BlockUser(ctx, 3)
	require.NoError(t, err)
	_, err = c.ActFriendship(ctx, 9, OpAccept)
	require.NoError(t, err)
	require.NoError(t, c.DeleteFriendship(ctx, 9))

	require.Len(t, *calls, 4)
	assert.Equal(t, map[string]any{"receiver_id": float64(2)}, (*calls)[0].body)
	assert.Equal(t, map[string]any{"receiver_id": float64(3), "op": "block"}, (*calls)[1].body)
	assert.Equal(t, "/friendships/9", (*calls)[2].path)
	assert.Equal(t, map[string]any{"op": "accept"}, (*calls)[2].body)
	assert.Equal(t, http.MethodDelete, (*calls)[3].method)
}

func TestSearchUsersReadsMeta(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"id":"2","attributes":{"first_name":"Bo","last_name":"Li"},"meta":{"relationship":"pending_sent","friendship_id":4}}]}`)
	})

	rows, err := c.SearchUsers(context.Background(), "bo li")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pending_sent", rows[0].ServerRelationship)
	assert.Equal(t, models.ID(4), rows[0].FriendshipID)
	assert.Equal(t, "q=bo+li", (*calls)[0].query)
}

func TestUpdateProfileOnlySendsPasswordWhenChanging(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()
	in := models.ProfileInput{FirstName: "Al", LastName: "Ng", Email: "al@example.com", CurrentPassword: "password1", Password: "ignored1"}

	u, err := c.UpdateProfile(ctx, in)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NotContains(t, (*calls)[0].body["user"], "password")

	in.ChangePassword = true
	in.PasswordConfirmation = "ignored1"
	_, err = c.UpdateProfile(ctx, in)
	require.NoError(t, err)
	user := (*calls)[1].body["user"].(map[string]any)
	assert.Equal(t, "ignored1", user["password"])
	assert.Equal(t, "ignored1", user["password_confirmation"])
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"forbidden", http.StatusForbidden, `{"error":"not friends"}`, Forbidden},
		{"not found", http.StatusNotFound, `{}`, NotFound},
		{"conflict", http.StatusConflict, `{"error":"already exists"}`, Conflict},
		{"field errors", http.StatusUnprocessableEntity, `{"errors":{"title":["can't be blank"]}}`, Validation},
		{"server", http.StatusInternalServerError, `oops`, Transport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.User(context.Background(), 5)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			var be *Error
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.status, be.Status)
		})
	}
}

func TestValidationFieldsKept(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"errors":{"email":["has already been taken"]}}`)
	})

	_, err := c.Signup(context.Background(), models.SignupInput{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "password1"})
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"has already been taken"}, be.Fields["email"])
}

func TestTransportFailure(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.Friendships(context.Background())
	assert.True(t, IsKind(err, Transport))
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}
