package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ctxClaims = "auth.claims"

// RequireScope returns a Gin middleware that rejects requests without a valid
// bearer token granting scope. A nil issuer disables the check.
func RequireScope(tokens *TokenIssuer, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.Next()
			return
		}

		claims, err := tokens.Authorize(c.GetHeader("Authorization"), scope)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrScope) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}

		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// ClaimsFromCtx returns the claims injected by RequireScope, or nil.
func ClaimsFromCtx(c *gin.Context) *Claims {
	v, _ := c.Get(ctxClaims)
	claims, _ := v.(*Claims)
	return claims
}
