package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/internal/pkg/middleware"
	"github.com/shopfox/shopfox/internal/pkg/session"
)

type HttpRouter struct {
	deps Deps
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Resolve the client's auth bridge on every request
	app.Use(middleware.WithBridge(h.deps.Manager))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}
