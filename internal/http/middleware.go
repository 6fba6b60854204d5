package http

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chitti-admin/internal/auth"
	"chitti-admin/internal/config"
)

const (
	sessionCookie  = "chitti_session"
	rememberCookie = "chitti_remember"
	identityKey    = "identity"

	requestIDHeader = "X-Request-ID"
)

func AuthMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				writeError(c, 401, "authorization_header_invalid", "Authorization header must be Bearer <token>")
				return
			}
			token = parts[1]
		} else if v, err := c.Cookie(sessionCookie); err == nil {
			token = v
		}
		if token == "" {
			writeError(c, 401, "unauthenticated", "Please sign in")
			return
		}

		id, err := svc.Verify(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrInvalidToken):
			writeError(c, 401, "invalid_token", "Your session is not valid. Please sign in again.")
			return
		case errors.Is(err, auth.ErrSessionEnded):
			writeError(c, 401, "session_ended", "Your session has ended. Please sign in again.")
			return
		default:
			log.Printf("verify session: %v", err)
			writeError(c, 500, "session_lookup_failed", "Could not check your session. Please try again.")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) *auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*auth.Identity); ok {
			return id
		}
	}
	return nil
}

// actor names who performed a request for the audit log and events.
func actor(c *gin.Context) (uint, string) {
	if id := identity(c); id != nil {
		return id.AdminID, id.Username
	}
	return 0, "public"
}

func cors(cfg *config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range strings.Split(cfg.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowed["*"]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			// Cookies only travel with an explicit origin.
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// logging tags every request with an X-Request-ID (kept from the caller when present).
func logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
		log.Printf("%s %s %s %d %s", rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
