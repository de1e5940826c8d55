package handlers

import (
	"github.com/gin-gonic/gin"

	"inkline/middleware"
	"inkline/models"
	"inkline/utils"
)

// Me returns the signed-in viewer, or null.
func (a *API) Me(c *gin.Context) {
	s := middleware.GetSession(c)
	u, err := s.Bootstrap(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, u)
}

func (a *API) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	s := middleware.GetSession(c)
	u, err := s.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	a.notify(s, "auth", gin.H{"viewer": u})
	utils.Success(c, u)
}

func (a *API) Signup(c *gin.Context) {
	var req models.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	s := middleware.GetSession(c)
	u, err := s.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	a.notify(s, "auth", gin.H{"viewer": u})
	utils.Created(c, u)
}

// Logout always signs the session out locally.
func (a *API) Logout(c *gin.Context) {
	s := middleware.GetSession(c)
	// a backend failure is logged by the session; the browser is signed out
	// either way
	_ = s.Logout(c.Request.Context())
	a.notify(s, "auth", gin.H{"viewer": nil})
	utils.Success(c, nil)
}

func (a *API) UpdateProfile(c *gin.Context) {
	var req models.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	s := middleware.GetSession(c)
	u, err := s.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, u)
}

func (a *API) ProfileSummary(c *gin.Context) {
	summary, err := middleware.GetSession(c).ProfileSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, summary)
}
