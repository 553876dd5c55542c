package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peerlingo/peerlingo/pkg/helpers"
	"github.com/peerlingo/peerlingo/pkg/response"
)

// Auth validates the session cookie and sets userID in the Gin context.
// Sessions are stateless: the signed token is the only source of truth.
func Auth(sessions *helpers.SessionManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Abort(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		claims, err := sessions.Parse(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired session", nil)
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}
