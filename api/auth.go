package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/auth"
	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
)

const (
	// sessionCookieName is the cookie name for auth sessions
	sessionCookieName = "session"
	// sessionCookieMaxAge is 30 days in seconds
	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}

func toUserInfo(u *db.User) userInfo {
	return userInfo{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	var details []ErrorDetail
	if err := auth.ValidateUsername(body.Username); err != nil {
		details = append(details, ErrorDetail{Field: "username", Message: err.Error()})
	}
	if err := auth.ValidatePassword(body.Password); err != nil {
		details = append(details, ErrorDetail{Field: "password", Message: err.Error()})
	}
	if len(details) > 0 {
		RespondValidationError(c, "Invalid credentials", details)
		return
	}

	existing, err := db.GetUserByUsername(body.Username)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check username")
		RespondInternalError(c, "Registration failed")
		return
	}
	if existing != nil {
		RespondConflict(c, "Username already taken")
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		logger.Error().Err(err).Msg("failed to hash password")
		RespondInternalError(c, "Registration failed")
		return
	}

	user, err := db.CreateUser(body.Username, hash)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create user")
		RespondInternalError(c, "Registration failed")
		return
	}

	h.startSession(c, user)

	logger.Info().Str("username", user.Username).Msg("user registered")
	RespondCreated(c, toUserInfo(user), "")
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	user, err := db.GetUserByUsername(body.Username)
	if err != nil {
		logger.Error().Err(err).Msg("failed to look up user")
		RespondInternalError(c, "Authentication error")
		return
	}

	// Same response for unknown user and wrong password
	if user == nil || !auth.CheckPassword(body.Password, user.PasswordHash) {
		logger.Warn().Str("username", body.Username).Msg("login attempt failed")
		RespondUnauthorized(c, "Invalid username or password")
		return
	}

	h.startSession(c, user)

	logger.Info().Str("username", user.Username).Msg("login successful")
	RespondData(c, toUserInfo(user))
}

// Logout handles POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	sessionToken, err := c.Cookie(sessionCookieName)
	if err == nil && sessionToken != "" {
		if err := db.DeleteSession(sessionToken); err != nil {
			logger.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	RespondNoContent(c)
}

// Session handles GET /api/auth/session
func (h *Handlers) Session(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		RespondData(c, gin.H{"authenticated": false})
		return
	}

	RespondData(c, gin.H{
		"authenticated": true,
		"user":          toUserInfo(user),
	})
}

// startSession creates a DB-backed session and sets the cookie
func (h *Handlers) startSession(c *gin.Context, user *db.User) {
	sessionToken, err := generateSessionToken()
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate session token")
		return
	}
	if _, err := db.CreateSession(sessionToken, user.ID); err != nil {
		logger.Error().Err(err).Msg("failed to create session")
		return
	}

	secure := !config.Get().IsDevelopment()
	c.SetCookie(sessionCookieName, sessionToken, sessionCookieMaxAge, "/", "", secure, true)
}

// generateSessionToken returns 256 bits of hex-encoded entropy. A
// failed read must never fall through to a predictable token.
func generateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("reading session token entropy: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
