package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every /api route answers with.
type Response struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    any                 `json:"data"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Code: status, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string, data any) {
	c.JSON(http.StatusConflict, Response{Code: http.StatusConflict, Message: message, Data: data})
}

func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, message)
}

func ValidationFailed(c *gin.Context, message string, fields map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Code:    http.StatusUnprocessableEntity,
		Message: message,
		Fields:  fields,
	})
}

// Redirect tells the browser which view to show instead of the one asked
// for.
func Redirect(c *gin.Context, status int, message, to string) {
	c.JSON(status, Response{Code: status, Message: message, Data: gin.H{"redirect": to}})
}
