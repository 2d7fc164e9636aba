package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/app/controllers"
	"github.com/shopfox/shopfox/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get("/about", controllers.HandleAbout)

	// Account verification link from the sign-up email
	app.Get("/verify", controllers.HandleAuthVerify)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
}
