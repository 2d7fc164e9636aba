package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/shopfox/shopfox/internal/pkg/authbridge"
	"github.com/shopfox/shopfox/internal/pkg/cache"
	"github.com/shopfox/shopfox/internal/pkg/notify"
	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// BridgeKey is the Locals key the client's bridge is injected under.
const BridgeKey = "AUTH_BRIDGE"

// NotificationsKey is the Locals key holding the drained transient
// notifications for the current render.
const NotificationsKey = "NOTIFICATIONS"

// ErrNoBridge is returned by BridgeFrom for handlers running outside the
// WithBridge subtree.
var ErrNoBridge = errors.New("authbridge: request handled outside WithBridge middleware")

// WithBridge resolves the client's bridge, injects it into Locals together
// with the user context, and drains pending notifications for the view.
func WithBridge(manager *authbridge.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, err := session.ClientID(c)
		if err != nil {
			log.Errorf("bridge middleware: resolving client id failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("session unavailable")
		}

		bridge := manager.GetOrCreate(clientID)
		c.Locals(BridgeKey, bridge)
		c.Locals(usercontext.KeyClientID, clientID)

		userCtx := usercontext.UserContext{ClientID: clientID}
		if user := bridge.User(); user != nil {
			userCtx.UserID = user.ID
			userCtx.Email = user.Email
			userCtx.IsLoggedIn = true
		}
		c.Locals("USER_CONTEXT", userCtx)
		c.Locals(usercontext.AuthKey, userCtx.IsLoggedIn)
		c.Locals(usercontext.KeyFromProtected, userCtx.IsLoggedIn)
		c.Locals(usercontext.KeyUserID, userCtx.UserID)
		c.Locals(usercontext.KeyUserEmail, userCtx.Email)

		if msgs := notify.Drain(c.Context(), cache.GetClient(), clientID); len(msgs) > 0 {
			c.Locals(NotificationsKey, msgs)
		}

		return c.Next()
	}
}

// BridgeFrom returns the bridge injected by WithBridge, or ErrNoBridge when
// the handler runs outside that subtree.
func BridgeFrom(c *fiber.Ctx) (*authbridge.Bridge, error) {
	bridge, ok := c.Locals(BridgeKey).(*authbridge.Bridge)
	if !ok || bridge == nil {
		return nil, ErrNoBridge
	}
	return bridge, nil
}

// Notifications returns the notifications drained for the current request.
func Notifications(c *fiber.Ctx) []notify.Message {
	if msgs, ok := c.Locals(NotificationsKey).([]notify.Message); ok {
		return msgs
	}
	return nil
}
