package handlers

import (
	"github.com/gin-gonic/gin"

	"inkline/middleware"
	"inkline/models"
	"inkline/session"
	"inkline/utils"
)

// MyNotes lists the viewer's notes, filtered by ?filter=all|public|private.
func (a *API) MyNotes(c *gin.Context) {
	filter, err := session.ParseNoteFilter(c.Query("filter"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	notes, err := middleware.GetSession(c).MyNotes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, notes)
}

func (a *API) CreateNote(c *gin.Context) {
	var req models.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	note, err := middleware.GetSession(c).CreateNote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, note)
}

func (a *API) UpdateNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	note, err := middleware.GetSession(c).UpdateNote(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, note)
}

func (a *API) DeleteNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := middleware.GetSession(c).DeleteNote(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// Feed returns the feed walker for ?q and ?user_id, loading the first page
// when the filters changed.
func (a *API) Feed(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	view, err := middleware.GetSession(c).Feed(c.Request.Context(), c.Query("q"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, view)
}

func (a *API) FeedNext(c *gin.Context) {
	view, err := middleware.GetSession(c).FeedNext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, view)
}
