package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/internal/pkg/middleware"
)

// HandleStart renders the storefront landing page.
func HandleStart(c *fiber.Ctx) error {
	bridge, err := middleware.BridgeFrom(c)
	if err != nil {
		return err
	}

	return c.Render("index", viewData(c, fiber.Map{
		"Title":     "ShopFox",
		"IsLoading": bridge.IsLoading(),
	}))
}

// HandleAbout renders the static about page.
func HandleAbout(c *fiber.Ctx) error {
	return c.Render("about", viewData(c, fiber.Map{"Title": "About"}))
}
