package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeFromOutsideMiddlewareFails(t *testing.T) {
	app := fiber.New()
	app.Get("/orders", func(c *fiber.Ctx) error {
		_, err := BridgeFrom(c)
		require.ErrorIs(t, err, ErrNoBridge)
		return err
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestNotificationsEmptyWithoutDrain(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Empty(t, Notifications(c))
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
}
