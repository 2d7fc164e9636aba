package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/app/repository"
	"github.com/shopfox/shopfox/internal/pkg/middleware"
)

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		bridge, err := middleware.BridgeFrom(c)
		if err != nil {
			return err
		}

		err = bridge.SignIn(c.Context(), c.FormValue("email"), c.FormValue("password"))
		if err != nil {
			// The bridge already queued the error notification.
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		return c.Redirect("/", fiber.StatusSeeOther)
	}

	if isLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	return c.Render("login", viewData(c, fiber.Map{"Title": "Sign in"}))
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		bridge, err := middleware.BridgeFrom(c)
		if err != nil {
			return err
		}

		err = bridge.SignUp(c.Context(), c.FormValue("email"), c.FormValue("password"))
		if err != nil {
			return c.Redirect("/register", fiber.StatusSeeOther)
		}

		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if isLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	return c.Render("register", viewData(c, fiber.Map{"Title": "Create account"}))
}

func HandleAuthLogout(c *fiber.Ctx) error {
	bridge, err := middleware.BridgeFrom(c)
	if err != nil {
		return err
	}

	if err := bridge.SignOut(c.Context()); err != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}

// HandleAuthVerify activates an account from the token mailed at sign-up.
func HandleAuthVerify(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		fm := fiber.Map{
			"type":    "error",
			"message": "Verification token missing",
		}
		return flash.WithError(c, fm).Redirect("/login")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Invalid or expired verification token",
		}
		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/login")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Your account is verified, you can sign in now!",
	}
	return flash.WithSuccess(c, fm).Redirect("/login")
}
