package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/org-membership-api/internal/auth"
	"github.com/yukikurage/org-membership-api/internal/constants"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/services"
)

// RequireAuth resolves the current user from a bearer token or the session cookie
func RequireAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokens == nil {
				apierrors.Unauthorized(c, "Unsupported authorization scheme")
				return
			}

			userID, email, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				apierrors.Unauthorized(c, "Invalid or expired token")
				return
			}

			setIdentity(c, userID, email)
			c.Next()
			return
		}

		session := sessions.Default(c)
		rawID, _ := session.Get(constants.ContextKeyUserID).(string)
		userID, err := uuid.Parse(rawID)
		if err != nil {
			apierrors.Unauthorized(c, "")
			return
		}
		email, _ := session.Get(constants.ContextKeyUserEmail).(string)

		setIdentity(c, userID, email)
		c.Next()
	}
}

func setIdentity(c *gin.Context, userID uuid.UUID, email string) {
	// Store identity in context for easy access in handlers
	c.Set(constants.ContextKeyUserID, userID)
	c.Set(constants.ContextKeyUserEmail, email)
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}

	switch v := value.(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	default:
		return uuid.Nil, false
	}
}

// GetActor builds the service actor for the authenticated user
func GetActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{
		UserID: userID,
		Email:  c.GetString(constants.ContextKeyUserEmail),
	}, true
}
