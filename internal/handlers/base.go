package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kitab/internal/comments"
)

// OK writes a successful envelope. data may be nil.
func OK(c *gin.Context, data any) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes a failed envelope with a user-facing message.
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}

// RespondError maps a service error onto a status code and its message.
func RespondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	Fail(c, statusFor(err), comments.Message(err, fallback))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, comments.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, comments.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, comments.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
