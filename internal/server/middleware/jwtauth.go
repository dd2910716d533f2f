package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"paygrid-system/internal/database/models"
	"paygrid-system/internal/utils"
)

const ClaimsContextKey = "claims"

// AdminDeniedMessage is the fixed denial text. It deliberately does not
// distinguish an anonymous caller from a wrong-role one.
const AdminDeniedMessage = "Unauthorized action. Admin access required."

// JWTAuth attaches parsed claims to the request context when a valid
// Bearer token is present. It never rejects on its own; enforcement
// belongs to the gates behind it.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if claims, err := utils.ParseToken(secret, token); err == nil {
				c.Set(ClaimsContextKey, claims)
			}
		}
		c.Next()
	}
}

// AdminOnly allows the request iff an authenticated principal with the
// admin role is present. The bypass toggle is wired at startup from
// configuration and is never read from the request.
func AdminOnly(bypass bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bypass {
			c.Next()
			return
		}

		claims := ClaimsFrom(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": AdminDeniedMessage,
			})
			return
		}

		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) *utils.Claims {
	value, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
