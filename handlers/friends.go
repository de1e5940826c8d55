package handlers

import (
	"github.com/gin-gonic/gin"

	"inkline/middleware"
	"inkline/models"
	"inkline/relationship"
	"inkline/session"
	"inkline/utils"
)

type ActionRequest struct {
	Action       string    `json:"action" binding:"required"`
	UserID       models.ID `json:"user_id"`
	FriendshipID models.ID `json:"friendship_id"`
}

// Friendships lists the viewer's friendships for one tab of the manage
// view, optionally narrowed by ?name.
func (a *API) Friendships(c *gin.Context) {
	filter, err := relationship.ParseFilter(c.Query("filter"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	entries, err := middleware.GetSession(c).FriendshipList(c.Request.Context(), filter, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, entries)
}

func (a *API) FriendshipAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	action, err := relationship.ParseAction(req.Action)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if req.UserID == 0 && req.FriendshipID == 0 {
		utils.BadRequest(c, "user_id or friendship_id is required")
		return
	}

	s := middleware.GetSession(c)
	result, err := s.Act(c.Request.Context(), session.ActionRequest{
		Action:       action,
		UserID:       req.UserID,
		FriendshipID: req.FriendshipID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	a.notify(s, "relationship", result)
	utils.Success(c, result)
}
