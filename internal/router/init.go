package router

import (
	"github.com/peerlingo/peerlingo/internal/application"
	"github.com/peerlingo/peerlingo/internal/container"
	pginfra "github.com/peerlingo/peerlingo/internal/infrastructure/postgres"
	handlers "github.com/peerlingo/peerlingo/internal/interface/http"
	"github.com/peerlingo/peerlingo/internal/router/modules"
)

type moduleDeps struct {
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
}

func buildDeps() moduleDeps {
	cfg := container.GetConfig()
	users := pginfra.NewUserRepository(container.GetPGPool())
	requests := pginfra.NewFriendRequestRepository(container.GetPGPool())

	authSvc := application.NewAuthService(
		users,
		container.GetSessions(),
		container.GetDirectory(),
		container.GetRabbitPub(),
		container.GetGCS(),
		container.GetES(),
		container.GetLogger(),
		cfg,
	)
	friendSvc := application.NewFriendService(
		users,
		requests,
		container.GetRedis(),
		container.GetRabbitPub(),
		container.GetLogger(),
		cfg,
	)

	return moduleDeps{
		AuthHandler: handlers.NewAuthHandler(authSvc, container.GetLogger(), cfg.CookieName, cfg.CookieDomain, cfg.CookieSecure),
		UserHandler: handlers.NewUserHandler(authSvc, friendSvc, container.GetLogger()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	sessions := container.GetSessions()
	cookieName := container.GetConfig().CookieName

	r.Add(modules.NewAuthModule(deps.AuthHandler, sessions, cookieName))
	r.Add(modules.NewUserModule(deps.UserHandler, sessions, cookieName))
}
