package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/auth"
)

const rememberMaxAge = 30 * 24 * 3600

// POST /v1/auth/login
func (s *Server) authLogin(c *gin.Context) {
	var input struct {
		Username   string `json:"username" binding:"required"`
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, 400, "invalid_request", "Username and password are required")
		return
	}

	token, id, err := s.auth.Login(c.Request.Context(), input.Username, input.Password, c.Request.UserAgent(), c.ClientIP())
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(c, 401, "invalid_credentials", "Invalid username or password")
		return
	}
	if err != nil {
		log.Printf("login: %v", err)
		writeError(c, 500, "login_failed", "Could not sign in. Please try again.")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.cfg.SessionTTL().Seconds()), "/", "", s.cfg.CookieSecure, true)
	if input.RememberMe {
		c.SetCookie(rememberCookie, id.Username, rememberMaxAge, "/", "", s.cfg.CookieSecure, false)
	} else {
		c.SetCookie(rememberCookie, "", -1, "/", "", s.cfg.CookieSecure, false)
	}

	c.JSON(200, gin.H{
		"token":      token,
		"username":   id.Username,
		"expires_at": id.ExpiresAt,
	})
}

// GET /v1/auth/remembered
func (s *Server) authRemembered(c *gin.Context) {
	name, _ := c.Cookie(rememberCookie)
	c.JSON(200, gin.H{"username": name})
}

// POST /v1/auth/logout
func (s *Server) authLogout(c *gin.Context) {
	id := identity(c)
	if err := s.auth.Logout(c.Request.Context(), id.SessionID); err != nil {
		log.Printf("logout: %v", err)
		writeError(c, 500, "logout_failed", "Could not sign out. Please try again.")
		return
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", s.cfg.CookieSecure, true)
	c.JSON(200, gin.H{"message": "Logged out"})
}

// GET /v1/auth/session
func (s *Server) authSession(c *gin.Context) {
	id := identity(c)
	c.JSON(200, gin.H{
		"authenticated": true,
		"username":      id.Username,
		"expires_at":    id.ExpiresAt,
	})
}
