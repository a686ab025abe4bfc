package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go-drink-stand/helpers"

	"github.com/gin-gonic/gin"
)

const (
	SessionKey = "session"
	TokenKey   = "token"
)

// Authentication admits requests carrying a live admin token in the token
// header, an Authorization bearer header, or the token query parameter.
func Authentication(auth *helpers.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientToken := ClientToken(c)
		if clientToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
			return
		}
		session, err := auth.CurrentSession(clientToken)
		if err != nil {
			msg := "the token is invalid"
			switch {
			case errors.Is(err, helpers.ErrTokenExpired):
				msg = "token is expired"
			case errors.Is(err, helpers.ErrSessionEnded):
				msg = "session has ended"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set(SessionKey, session)
		c.Set(TokenKey, clientToken)
		c.Next()
	}
}

func ClientToken(c *gin.Context) string {
	if token := c.GetHeader("token"); token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// CurrentSession returns the session stored by Authentication.
func CurrentSession(c *gin.Context) (helpers.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return helpers.Session{}, false
	}
	session, ok := v.(helpers.Session)
	return session, ok
}
