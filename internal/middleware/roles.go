package middleware

import (
	"errors"
	"net/http"

	"coachly/internal/domain"
	"coachly/internal/repository"

	"github.com/gin-gonic/gin"
)

// RequireRoles re-reads the caller's role from the role table on every
// request. Tokens never carry authorization: a role granted or revoked
// takes effect immediately, and client-supplied fields are never trusted.
func RequireRoles(roles *repository.RoleRepository, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		role, err := roles.GetRole(userID)
		if err != nil {
			if errors.Is(err, repository.ErrNoRole) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "role lookup failed"})
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Set("role", role)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// AdminRequired gates admin-only handlers.
func AdminRequired(roles *repository.RoleRepository) gin.HandlerFunc {
	return RequireRoles(roles, domain.RoleAdmin)
}

// GetRole returns the DB-derived role set by RequireRoles.
func GetRole(c *gin.Context) string {
	v, _ := c.Get("role")
	if v == nil {
		return ""
	}
	return v.(string)
}
