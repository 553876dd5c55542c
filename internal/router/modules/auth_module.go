package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/peerlingo/peerlingo/internal/interface/http"
	"github.com/peerlingo/peerlingo/internal/interface/middleware"
	"github.com/peerlingo/peerlingo/pkg/helpers"
)

// AuthModule wires account routes.
// Public: POST /api/auth/signup, POST /api/auth/login, POST /api/auth/logout
// Protected: POST /api/auth/onboard, GET /api/auth/me
type AuthModule struct {
	Handler    *handlers.AuthHandler
	Sessions   *helpers.SessionManager
	CookieName string
}

func NewAuthModule(h *handlers.AuthHandler, sessions *helpers.SessionManager, cookieName string) *AuthModule {
	return &AuthModule{Handler: h, Sessions: sessions, CookieName: cookieName}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", m.Handler.Signup)
	rg.POST("/auth/login", m.Handler.Login)
	// logout only clears the cookie, so it works with or without a session
	rg.POST("/auth/logout", m.Handler.Logout)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.CookieName))
	{
		auth.POST("/auth/onboard", m.Handler.Onboard)
		auth.GET("/auth/me", m.Handler.Me)
	}
}
