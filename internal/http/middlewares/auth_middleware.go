package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialnomad/nomadblog/internal/auth"
)

type AuthMiddleware struct {
	verifier auth.TokenVerifier
}

func NewAuthMiddleware(verifier auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth runs the guard over the Authorization header and stashes the
// Principal on the context. Every rejection is a 403, matching the API
// contract: missing header, malformed header, expired and malformed tokens
// each get their own code, never an anonymous pass-through.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(m.verifier, c.GetHeader("Authorization"))

		if err != nil {
			code, message := classifyAuthErr(err)

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    code,
					"message": message,
				},
			})
			return
		}

		c.Set(CtxPrincipal, principal)
		c.Next()
	}
}

func classifyAuthErr(err error) (code, message string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token", "Token is missing"
	case errors.Is(err, auth.ErrMalformedHeader):
		return "malformed_header", "Invalid token format"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired", "Token has expired"
	default:
		return "invalid_token", "Invalid token"
	}
}

// PrincipalFromContext spares handlers the magic key.
func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return auth.Principal{}, false
	}

	p, ok := v.(auth.Principal)
	return p, ok
}
