package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialnomad/nomadblog/internal/domain/blog"
)

// RequireOwner layers the backup/restore policy over RequireAuth.
func (m *AuthMiddleware) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "missing_token",
					"message": "Token is missing",
				},
			})
			return
		}

		if !blog.CanBackup(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Permission denied",
				},
			})
			return
		}

		c.Next()
	}
}
