package handlers

import (
	"github.com/gin-gonic/gin"

	"inkline/middleware"
	"inkline/models"
	"inkline/session"
	"inkline/utils"
)

type ThemeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// themeOwner keys the preference by user once signed in, by session before.
func themeOwner(s *session.Session) string {
	if v := s.Viewer(); v != nil {
		return "user:" + v.ID.String()
	}
	return "session:" + s.ID
}

func (a *API) GetTheme(c *gin.Context) {
	s := middleware.GetSession(c)
	theme, ok, err := a.prefs.Theme(c.Request.Context(), themeOwner(s))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		theme = models.ThemeLight
	}
	utils.Success(c, gin.H{"theme": theme})
}

func (a *API) PutTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	theme, err := models.ParseTheme(req.Theme)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	s := middleware.GetSession(c)
	if err := a.prefs.SetTheme(c.Request.Context(), themeOwner(s), theme); err != nil {
		respondError(c, err)
		return
	}
	a.notify(s, "theme", gin.H{"theme": theme})
	utils.Success(c, gin.H{"theme": theme})
}
