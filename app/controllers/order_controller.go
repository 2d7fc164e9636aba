package controllers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/clientstore"
	"github.com/shopfox/shopfox/internal/pkg/middleware"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// HandleOrders renders the signed-in user's order history, newest first.
func HandleOrders(c *fiber.Ctx) error {
	bridge, err := middleware.BridgeFrom(c)
	if err != nil {
		return err
	}

	orders := bridge.GetUserOrders(c.Context())

	return c.Render("orders", viewData(c, fiber.Map{
		"Title":  "Your orders",
		"Orders": orders,
	}))
}

// HandleCheckout turns the persisted cart into a checkout call. Order
// creation is still a placeholder in the bridge; the fabricated id is shown
// to the user as confirmation.
func HandleCheckout(c *fiber.Ctx, store clientstore.Store) error {
	bridge, err := middleware.BridgeFrom(c)
	if err != nil {
		return err
	}

	if bridge.User() == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	clientID := usercontext.GetUserContext(c).ClientID
	items := cartItems(c, store, clientID)
	if len(items) == 0 {
		fm := fiber.Map{
			"type":    "info",
			"message": "Your cart is empty",
		}
		return flash.WithInfo(c, fm).Redirect("/orders")
	}

	orderID := bridge.CreateOrder(c.Context(), items)
	if orderID == "" {
		// CreateOrder bails without an id when the request is cancelled
		// mid-checkout; this is not an auth failure.
		fm := fiber.Map{
			"type":    "error",
			"message": "Checkout was interrupted, please try again",
		}
		return flash.WithError(c, fm).Redirect("/orders")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Order " + orderID + " placed",
	}
	return flash.WithSuccess(c, fm).Redirect("/orders")
}

// HandleAddToCart stores a cart line in the client's persisted store.
func HandleAddToCart(c *fiber.Ctx, store clientstore.Store) error {
	clientID := usercontext.GetUserContext(c).ClientID
	if clientID == "" {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	productID, err := strconv.ParseUint(c.FormValue("product_id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Invalid product",
		}
		return flash.WithError(c, fm).Redirect("/")
	}
	quantity, err := strconv.Atoi(c.FormValue("quantity", "1"))
	if err != nil || quantity < 1 {
		quantity = 1
	}
	price, _ := strconv.Atoi(c.FormValue("price_cents", "0"))

	items := cartItems(c, store, clientID)
	items = append(items, models.OrderItem{
		ProductID:       uint(productID),
		Quantity:        quantity,
		PriceAtPurchase: price,
	})

	payload, err := json.Marshal(items)
	if err != nil {
		log.Errorf("cart: marshal failed: %v", err)
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	if err := store.Set(c.Context(), clientID, clientstore.KeyCart, string(payload)); err != nil {
		log.Errorf("cart: persist for client %s failed: %v", clientID, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// cartItems loads the persisted cart, tolerating a missing or broken entry.
func cartItems(c *fiber.Ctx, store clientstore.Store, clientID string) []models.OrderItem {
	raw, err := store.Get(c.Context(), clientID, clientstore.KeyCart)
	if err != nil || raw == "" {
		return nil
	}

	var items []models.OrderItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warnf("cart: dropping unreadable cart for client %s: %v", clientID, err)
		return nil
	}
	return items
}

// HandleOrdersAPI returns the user's orders as JSON for the storefront API.
func HandleOrdersAPI(c *fiber.Ctx) error {
	bridge, err := middleware.BridgeFrom(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}

	orders := bridge.GetUserOrders(c.Context())

	return c.JSON(fiber.Map{"orders": orders})
}
