package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkline/backend"
	"inkline/database"
	"inkline/middleware"
	"inkline/session"
)

// fakeRails answers like the notes backend for a viewer with id 1 and one
// incoming request from user 2.
func fakeRails(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signedIn := false
		if ck, err := r.Cookie("_session"); err == nil && ck.Value == "ok" {
			signedIn = true
		}
		reply := func(status int, body string) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}

		switch {
		case r.URL.Path == "/login":
			http.SetCookie(w, &http.Cookie{Name: "_session", Value: "ok", Path: "/"})
			reply(http.StatusOK, `{"id":1,"first_name":"Al","last_name":"Ng","email":"al@example.com"}`)
		case !signedIn:
			reply(http.StatusUnauthorized, `{"error":"You need to sign in"}`)
		case r.URL.Path == "/me":
			reply(http.StatusOK, `{"id":1,"first_name":"Al","last_name":"Ng","email":"al@example.com"}`)
		case r.URL.Path == "/friendships" && r.Method == http.MethodGet:
			reply(http.StatusOK, `{"data":[{"id":"9","attributes":{"status":"pending","sender_id":2,"receiver_id":1,"other_user_name":"2 - Bo Li"}}]}`)
		case r.URL.Path == "/friendships/9" && r.Method == http.MethodPatch:
			reply(http.StatusOK, `{"data":{"id":"9","attributes":{"status":"accepted","sender_id":2,"receiver_id":1}}}`)
		case r.URL.Path == "/users/3":
			reply(http.StatusForbidden, `{"error":"not allowed"}`)
		default:
			reply(http.StatusNotFound, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type browser struct {
	t   *testing.T
	srv *httptest.Server
	hc  *http.Client
}

type envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Fields  map[string][]string `json:"fields"`
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rails := fakeRails(t)

	dial := func() (session.Backend, error) { return backend.New(rails.URL) }
	m := session.NewManager(dial, session.NewMemoryStore(), time.Hour, nil)

	r := gin.New()
	r.Use(middleware.SessionMiddleware(m, []byte("test-secret"), false))
	NewAPI(database.NewMemoryPreferences(), nil).Register(r, middleware.RequireViewer())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &browser{t: t, srv: srv, hc: hc}
}

func (b *browser) do(method, path string, body any) (int, envelope) {
	b.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.srv.URL+path, rd)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.hc.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	if len(raw) > 0 {
		require.NoError(b.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (b *browser) login() {
	b.t.Helper()
	status, _ := b.do(http.MethodPost, "/api/login", map[string]any{"email": "al@example.com", "password": "password1"})
	require.Equal(b.t, http.StatusOK, status)
}

func TestMeAnonymousThenSignedIn(t *testing.T) {
	b := newBrowser(t)

	status, env := b.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "null", string(env.Data))

	b.login()
	status, env = b.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, 1, me.ID)
}

func TestLoginValidationFields(t *testing.T) {
	b := newBrowser(t)

	status, env := b.do(http.MethodPost, "/api/login", map[string]any{"email": "nope", "password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Fields, "email")
	assert.Contains(t, env.Fields, "password")
}

func TestViewerRoutesNeedSignIn(t *testing.T) {
	b := newBrowser(t)

	for _, path := range []string{"/api/notes", "/api/feed", "/api/friendships", "/api/users/search?q=al"} {
		status, _ := b.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestFriendshipActions(t *testing.T) {
	b := newBrowser(t)
	b.login()

	status, env := b.do(http.MethodGet, "/api/friendships?filter=incoming", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"label":"pending_incoming"`)

	status, env = b.do(http.MethodPost, "/api/friendships/actions", map[string]any{"action": "unblock", "friendship_id": 9})
	assert.Equal(t, http.StatusConflict, status)

	status, env = b.do(http.MethodPost, "/api/friendships/actions", map[string]any{"action": "accept", "friendship_id": 9})
	require.Equal(t, http.StatusOK, status, env.Message)
	var result struct {
		Label  string `json:"label"`
		UserID int    `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "friend", result.Label)
	assert.Equal(t, 2, result.UserID)
}

func TestFriendshipActionRequest(t *testing.T) {
	b := newBrowser(t)
	b.login()

	status, _ := b.do(http.MethodPost, "/api/friendships/actions", map[string]any{"action": "poke", "user_id": 2})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = b.do(http.MethodPost, "/api/friendships/actions", map[string]any{"action": "accept"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfileRedirects(t *testing.T) {
	b := newBrowser(t)
	b.login()

	status, env := b.do(http.MethodGet, "/api/users/1", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.JSONEq(t, `{"redirect":"/notes"}`, string(env.Data))

	status, env = b.do(http.MethodGet, "/api/users/3", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.JSONEq(t, `{"redirect":"/feed"}`, string(env.Data))

	status, _ = b.do(http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestShortSearchSkipsBackend(t *testing.T) {
	b := newBrowser(t)
	b.login()

	status, env := b.do(http.MethodGet, "/api/users/search?q=a", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"q":"a","rows":[],"superseded":false}`, string(env.Data))
}

func TestThemePreference(t *testing.T) {
	b := newBrowser(t)

	status, env := b.do(http.MethodGet, "/api/preferences/theme", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"theme":"light"}`, string(env.Data))

	status, _ = b.do(http.MethodPut, "/api/preferences/theme", map[string]any{"theme": "dark"})
	require.Equal(t, http.StatusOK, status)
	_, env = b.do(http.MethodGet, "/api/preferences/theme", nil)
	assert.JSONEq(t, `{"theme":"dark"}`, string(env.Data))

	status, env = b.do(http.MethodPut, "/api/preferences/theme", map[string]any{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.Contains(env.Message, "sepia"))
}

func TestLogoutAlwaysSignsOut(t *testing.T) {
	b := newBrowser(t)
	b.login()

	status, _ := b.do(http.MethodDelete, "/api/logout", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := b.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "null", string(env.Data))
}

func TestRefreshInvalidatesNamedRoots(t *testing.T) {
	b := newBrowser(t)
	b.login()

	status, env := b.do(http.MethodPost, "/api/refresh", map[string]any{"roots": []string{"me"}})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"invalidated":["me"]}`, string(env.Data))

	status, _ = b.do(http.MethodPost, "/api/refresh", map[string]any{"roots": []string{"bogus"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = b.do(http.MethodPost, "/api/refresh", map[string]any{"roots": []string{}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCanceledRequestWritesNothing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, fmt.Errorf("load feed: %w", context.Canceled))
	assert.True(t, c.IsAborted())
	assert.False(t, c.Writer.Written())
	assert.Empty(t, w.Body.String())
}
