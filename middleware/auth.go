package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkline/session"
	"inkline/utils"
)

const (
	SessionCookie = "inkline_session"
	sessionKey    = "session"
)

// SessionMiddleware attaches the caller's application context, starting an
// anonymous one when the cookie is missing, invalid or expired. Backend
// credentials are persisted after every request that may have changed them.
func SessionMiddleware(m *session.Manager, secret []byte, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := resolve(c, m, secret)
		if s == nil {
			created, err := m.Create()
			if err != nil {
				slog.Error("create session", "error", err)
				utils.InternalError(c, "could not start session")
				c.Abort()
				return
			}
			token, err := utils.GenerateToken(created.ID, secret, m.TTL())
			if err != nil {
				slog.Error("sign session token", "error", err)
				utils.InternalError(c, "could not start session")
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, token, int(m.TTL().Seconds()), "/", "", secure, true)
			s = created
		}

		c.Set(sessionKey, s)
		c.Next()

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			if err := m.Persist(c.Request.Context(), s); err != nil {
				slog.Warn("persist session credentials", "session", s.ID, "error", err)
			}
		}
	}
}

func resolve(c *gin.Context, m *session.Manager, secret []byte) *session.Session {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return nil
	}
	claims, err := utils.ParseToken(token, secret)
	if err != nil {
		return nil
	}
	s, err := m.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			slog.Warn("resume session", "session", claims.SessionID, "error", err)
		}
		return nil
	}
	return s
}

// RequireViewer rejects anonymous sessions.
func RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSession(c).Viewer() == nil {
			utils.Unauthorized(c, "sign in required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetSession(c *gin.Context) *session.Session {
	s, _ := c.MustGet(sessionKey).(*session.Session)
	return s
}
