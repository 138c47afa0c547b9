package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sathvikreddy369/sign-language/constants"
)

func RoleAuthorization(allowedRoles ...constants.RoleEnum) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range allowedRoles {
		roleSet[string(r)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing user claims"})
			return
		}

		if _, allowed := roleSet[claims.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Admin access required"})
			return
		}

		c.Next()
	}
}
