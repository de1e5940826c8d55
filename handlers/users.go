package handlers

import (
	"github.com/gin-gonic/gin"

	"inkline/middleware"
	"inkline/utils"
)

func (a *API) SearchUsers(c *gin.Context) {
	result, err := middleware.GetSession(c).Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, result)
}

// GetUser returns another user's profile. The viewer's own id and profiles
// the backend refuses answer with a redirect hint.
func (a *API) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := middleware.GetSession(c).Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, profile)
}

func (a *API) UserNotes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := middleware.GetSession(c).UserNotes(c.Request.Context(), id, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, view)
}

func (a *API) UserNotesNext(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := middleware.GetSession(c).UserNotesNext(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, view)
}
