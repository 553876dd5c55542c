package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/peerlingo/peerlingo/internal/interface/http"
	"github.com/peerlingo/peerlingo/internal/interface/middleware"
	"github.com/peerlingo/peerlingo/pkg/helpers"
)

// UserModule wires the friend graph and profile routes, all protected.
type UserModule struct {
	Handler    *handlers.UserHandler
	Sessions   *helpers.SessionManager
	CookieName string
}

func NewUserModule(h *handlers.UserHandler, sessions *helpers.SessionManager, cookieName string) *UserModule {
	return &UserModule{Handler: h, Sessions: sessions, CookieName: cookieName}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.CookieName))
	{
		auth.GET("/users", m.Handler.Recommend)
		auth.GET("/users/friends", m.Handler.ListFriends)
		auth.POST("/users/friend-request/:id", m.Handler.SendFriendRequest)
		auth.PUT("/users/friend-request/:id/accept", m.Handler.AcceptFriendRequest)
		auth.GET("/users/friend-requests", m.Handler.IncomingRequests)
		auth.GET("/users/outgoing-friend-requests", m.Handler.OutgoingRequests)
		auth.GET("/users/search", m.Handler.Search)
		auth.PUT("/users/avatar", m.Handler.UploadAvatar)
	}
}
