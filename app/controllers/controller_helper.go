package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/internal/pkg/middleware"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// viewData assembles the base template data every page needs: the user
// context, queued transient notifications and any flash message from the
// previous redirect.
func viewData(c *fiber.Ctx, extra fiber.Map) fiber.Map {
	userCtx := usercontext.GetUserContext(c)

	data := fiber.Map{
		"User":          userCtx,
		"IsLoggedIn":    userCtx.IsLoggedIn,
		"Notifications": middleware.Notifications(c),
		"Flash":         flash.Get(c),
		"CsrfToken":     c.Locals("csrf"),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}
