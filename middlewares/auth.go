package middlewares

import (
	"net/http"
	"strings"

	"coffee-shop/apperrors"
	"coffee-shop/models"
	"coffee-shop/utils"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// Authorize decides whether claims satisfy any of the required roles.
// No required roles means any authenticated caller is allowed.
func Authorize(claims *utils.Claims, required ...models.Role) error {
	if claims == nil {
		return apperrors.Unauthorized("User not authenticated")
	}
	if len(required) == 0 {
		return nil
	}
	for _, role := range required {
		if claims.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("Insufficient permissions")
}

// AuthMiddleware requires a valid bearer token and, when roles are given,
// one of those roles.
func AuthMiddleware(secret string, roles ...models.Role) gin.HandlerFunc {
	return authenticate(secret, false, roles)
}

// WSAuthMiddleware also accepts the token in the ?token= query parameter,
// since browsers cannot set headers on websocket upgrades.
func WSAuthMiddleware(secret string, roles ...models.Role) gin.HandlerFunc {
	return authenticate(secret, true, roles)
}

func authenticate(secret string, allowQuery bool, roles []models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" && allowQuery {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
			return
		}

		claims, err := utils.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if err := Authorize(claims, roles...); err != nil {
			c.AbortWithStatusJSON(apperrors.HTTPStatus(apperrors.KindOf(err)), gin.H{"error": err.Error()})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func CurrentRole(c *gin.Context) models.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(models.Role); ok {
			return role
		}
	}
	return ""
}

func IsAdmin(c *gin.Context) bool {
	return CurrentRole(c) == models.RoleAdmin
}
