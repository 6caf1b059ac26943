package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/identity"
)

const sessionKey = "session"

// Verifier checks bearer tokens.
type Verifier interface {
	Verify(token string) (*identity.Session, error)
}

// AuthMiddleware rejects requests without a valid bearer token and
// attaches the verified session to the request.
func AuthMiddleware(v Verifier) gin.HandlerFunc {
	return authenticate(v, "Unauthorized")
}

// AuthMiddlewareWithMessage is AuthMiddleware with a custom message for
// missing credentials.
func AuthMiddlewareWithMessage(v Verifier, missing string) gin.HandlerFunc {
	return authenticate(v, missing)
}

// OptionalAuth attaches a session when a valid token is present and lets
// anonymous requests through. Invalid tokens are still rejected.
func OptionalAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		authenticate(v, "Unauthorized")(c)
	}
}

func authenticate(v Verifier, missing string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := identity.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": missing})
			return
		}

		session, err := v.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// CurrentSession returns the session attached by the auth middleware.
func CurrentSession(c *gin.Context) (*identity.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*identity.Session)
	return session, ok
}
