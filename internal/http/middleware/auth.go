package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// retrieves the tenant from Gin context (after JWTMiddleware has run).
func GetClientID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(clientIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
