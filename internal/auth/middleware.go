package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
)

const contextUserKey = "auth_user_id"

// Middleware validates the bearer token and stores the caller's user id in
// the request context.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apperrors.Respond(c, apperrors.NewUnauthorizedError("missing bearer token"))
			c.Abort()
			return
		}

		userID, err := service.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apperrors.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(contextUserKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated caller's id, or uuid.Nil outside an
// authenticated request.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(contextUserKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
