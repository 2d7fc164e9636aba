package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/internal/pkg/authbridge"
	"github.com/shopfox/shopfox/internal/pkg/clientstore"
)

// Deps carries the shared components routes need.
type Deps struct {
	Manager *authbridge.Manager
	Store   clientstore.Store
}

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, deps Deps) {
	// Install HttpRouter first to initialize the session store and the
	// global bridge middleware. Then register API routes which depend on
	// that middleware.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
