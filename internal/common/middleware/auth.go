package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/common/response"
)

const identityKey = "caller_identity"

// AuthMiddleware requires a valid bearer access token and stores its subject on the context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(identityKey, claims.Subject)
		c.Next()
	}
}

// GetIdentity returns the authenticated caller identity.
func GetIdentity(c *gin.Context) (string, bool) {
	identity := c.GetString(identityKey)
	return identity, identity != ""
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
