package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Respond writes an error response in the shape the handlers use everywhere.
// Application errors keep their message; anything else is masked as an
// internal error so repository failures do not leak SQL to clients.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{
		"error": message,
		"code":  ErrorCode(err),
	})
}
