package handlers

import (
	"github.com/gin-gonic/gin"

	"inkline/middleware"
	"inkline/querycache"
	"inkline/utils"
)

type RefreshRequest struct {
	Roots []string `json:"roots" binding:"required,min=1"`
}

var refreshable = map[string]bool{
	querycache.RootMe:             true,
	querycache.RootMyNotes:        true,
	querycache.RootFeed:           true,
	querycache.RootFriendships:    true,
	querycache.RootUserSearch:     true,
	querycache.RootUser:           true,
	querycache.RootUserNotes:      true,
	querycache.RootProfileSummary: true,
}

// Refresh marks the named result sets stale, e.g. when a tab regains focus.
// Mounted views are told over the websocket and walkers restart.
func (a *API) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	for _, root := range req.Roots {
		if !refreshable[root] {
			utils.BadRequest(c, "unknown result set "+root)
			return
		}
	}

	keys := middleware.GetSession(c).Refresh(req.Roots...)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	utils.Success(c, gin.H{"invalidated": out})
}
