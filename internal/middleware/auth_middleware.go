package middleware

import (
	"strings"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextPhone  = "phone"
)

// AuthRequired validates the bearer token and sets the caller's
// identity in the request context. The token is the only session
// state; nothing is looked up server side.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				utils.UnauthorizedResponse(c)
				c.Abort()
				return
			}
		} else {
			// Websocket upgrades cannot set headers from a browser.
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextPhone, claims.Phone)
		c.Next()
	}
}

// RequireRole guards a route group to callers holding one of the given
// roles. Runs after AuthRequired.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}
		for _, allowed := range roles {
			if roleStr == string(allowed) {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c)
		c.Abort()
	}
}

func AdminRequired() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// CurrentUserID returns the authenticated user's id from the context.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}
