package api

import (
	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/db"
)

const contextUserKey = "currentUser"

// SessionMiddleware resolves the session cookie into a user and stores
// it in the request context. It never rejects: endpoints that allow
// anonymous access read a nil user.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := resolveSessionUser(c); user != nil {
			c.Set(contextUserKey, user)
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 when no valid session is present
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			RespondUnauthorized(c, "Authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user for this request, nil for
// anonymous requests
func CurrentUser(c *gin.Context) *db.User {
	if v, ok := c.Get(contextUserKey); ok {
		if user, ok := v.(*db.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID returns the authenticated user's id, nil for anonymous
// requests
func CurrentUserID(c *gin.Context) *string {
	if user := CurrentUser(c); user != nil {
		return &user.ID
	}
	return nil
}

func resolveSessionUser(c *gin.Context) *db.User {
	sessionToken, err := c.Cookie(sessionCookieName)
	if err != nil || sessionToken == "" {
		return nil
	}

	session, err := db.GetSession(sessionToken)
	if err != nil {
		logger.Error().Err(err).Msg("failed to get session")
		return nil
	}
	if session == nil {
		// Session not found or expired
		return nil
	}

	user, err := db.GetUserByID(session.UserID)
	if err != nil || user == nil {
		return nil
	}

	if err := db.TouchSession(sessionToken); err != nil {
		logger.Error().Err(err).Msg("failed to touch session")
	}

	return user
}
