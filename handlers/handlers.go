package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkline/backend"
	"inkline/models"
	"inkline/relationship"
	"inkline/session"
	"inkline/utils"
	"inkline/validation"
	"inkline/websocket"
)

// ThemeStore persists the colour theme per owner.
type ThemeStore interface {
	Theme(ctx context.Context, owner string) (models.Theme, bool, error)
	SetTheme(ctx context.Context, owner string, theme models.Theme) error
}

type API struct {
	prefs ThemeStore
	hub   *websocket.Hub
}

// NewAPI builds the /api handlers. hub may be nil when no push channel is
// served.
func NewAPI(prefs ThemeStore, hub *websocket.Hub) *API {
	return &API{prefs: prefs, hub: hub}
}

// Register mounts every /api route on r.
func (a *API) Register(r gin.IRouter, authed ...gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.GET("/me", a.Me)
		api.POST("/login", a.Login)
		api.POST("/signup", a.Signup)
		api.DELETE("/logout", a.Logout)
		api.GET("/preferences/theme", a.GetTheme)
		api.PUT("/preferences/theme", a.PutTheme)
	}

	viewer := api.Group("", authed...)
	{
		viewer.POST("/refresh", a.Refresh)

		viewer.PATCH("/profile", a.UpdateProfile)
		viewer.GET("/profile/summary", a.ProfileSummary)

		viewer.GET("/notes", a.MyNotes)
		viewer.POST("/notes", a.CreateNote)
		viewer.PATCH("/notes/:id", a.UpdateNote)
		viewer.DELETE("/notes/:id", a.DeleteNote)

		viewer.GET("/feed", a.Feed)
		viewer.POST("/feed/next", a.FeedNext)

		viewer.GET("/friendships", a.Friendships)
		viewer.POST("/friendships/actions", a.FriendshipAction)

		viewer.GET("/users/search", a.SearchUsers)
		viewer.GET("/users/:id", a.GetUser)
		viewer.GET("/users/:id/notes", a.UserNotes)
		viewer.POST("/users/:id/notes/next", a.UserNotesNext)
	}
}

// notify tells the session's other tabs that something they show changed.
func (a *API) notify(s *session.Session, event string, data any) {
	if a.hub == nil {
		return
	}
	a.hub.SendToSession(s.ID, &websocket.Message{Event: event, Data: data})
}

func pathID(c *gin.Context) (models.ID, bool) {
	id, err := models.ParseID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (models.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := models.ParseID(raw)
	if err != nil {
		utils.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// respondError maps a failed operation to its response.
func respondError(c *gin.Context, err error) {
	var (
		invalid validation.Errors
		stale   *session.StaleError
		refused *relationship.PreconditionError
		be      *backend.Error
	)

	switch {
	case errors.Is(err, context.Canceled):
		// the browser went away; nobody reads a response
		c.Abort()
	case errors.As(err, &invalid):
		utils.ValidationFailed(c, "invalid input", invalid)
	case errors.Is(err, session.ErrAnonymous):
		utils.Unauthorized(c, "sign in required")
	case errors.Is(err, session.ErrForbidden):
		utils.Redirect(c, http.StatusForbidden, "you are not allowed to view this profile", "/feed")
	case errors.Is(err, session.ErrSelf):
		utils.Redirect(c, http.StatusSeeOther, "this is your own profile", "/notes")
	case errors.Is(err, session.ErrBusy):
		utils.Conflict(c, "an action is already in progress", nil)
	case errors.As(err, &stale):
		utils.Conflict(c, "this action no longer applies", gin.H{
			"label":   stale.Label,
			"actions": relationship.Actions(stale.Label),
		})
	case errors.As(err, &refused):
		utils.Conflict(c, refused.Error(), nil)
	case errors.Is(err, session.ErrNotFound):
		utils.NotFound(c, "not found")
	case errors.As(err, &be):
		respondBackend(c, be)
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		utils.InternalError(c, "internal error")
	}
}

func respondBackend(c *gin.Context, be *backend.Error) {
	switch be.Kind {
	case backend.AuthRequired:
		utils.Unauthorized(c, "sign in required")
	case backend.Validation:
		utils.ValidationFailed(c, be.Message, be.Fields)
	case backend.Forbidden:
		utils.Forbidden(c, be.Message)
	case backend.NotFound:
		utils.NotFound(c, be.Message)
	case backend.Conflict:
		utils.Conflict(c, be.Message, nil)
	default:
		slog.Error("backend unavailable", "path", c.FullPath(), "error", be)
		utils.Fail(c, http.StatusBadGateway, "backend unavailable")
	}
}
