// Package authbridge mirrors a storefront client's authentication state.
//
// A Bridge is created per client, subscribes to the provider's auth event
// stream for its whole lifetime and keeps a local copy of (session, user,
// loading). Imperative calls (sign up, sign in, sign out, order helpers)
// delegate to the provider and surface outcomes as transient notifications.
package authbridge

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/clientstore"
	"github.com/shopfox/shopfox/internal/pkg/notify"
	"github.com/shopfox/shopfox/internal/pkg/provider"
)

// createOrderDelay simulates the latency of a real checkout call. Order
// creation is a placeholder until a payment integration exists; see
// CreateOrder.
const createOrderDelay = 1 * time.Second

// Bridge holds the mirrored auth state of one storefront client.
type Bridge struct {
	provider    provider.Client
	notifier    notify.Notifier
	store       clientstore.Store
	clientID    string
	redirectURL string

	mu           sync.Mutex
	session      *models.Session
	user         *models.User
	loading      bool
	streamSeen   bool
	localSignOut bool

	orderDelay  time.Duration
	unsubscribe func()
}

// New creates a Bridge for the given client. Call Start before reading state.
func New(p provider.Client, n notify.Notifier, store clientstore.Store, clientID, redirectURL string) *Bridge {
	b := &Bridge{
		provider:    p,
		notifier:    n,
		store:       store,
		clientID:    clientID,
		redirectURL: redirectURL,
		loading:     true,
		orderDelay:  createOrderDelay,
	}
	return b
}

// Start subscribes to the provider's event stream and kicks off the one-time
// fetch of any pre-existing session. The fetch only applies its result if the
// stream has not delivered an event first, so the two never fight over the
// loading flag.
func (b *Bridge) Start(ctx context.Context) {
	b.unsubscribe = b.provider.OnAuthStateChange(b.clientID, b.handleEvent)

	go b.initialFetch(ctx)
}

// Close releases the stream subscription.
func (b *Bridge) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Bridge) initialFetch(ctx context.Context) {
	session, user, err := b.provider.CurrentSession(ctx, b.clientID)
	if err != nil {
		log.Warnf("authbridge: initial session fetch for client %s failed: %v", b.clientID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamSeen {
		// The stream won the race; its state is newer.
		return
	}
	if err == nil {
		b.session = session
		b.user = user
	}
	b.loading = false
}

// handleEvent mirrors each provider event into local state.
func (b *Bridge) handleEvent(ev provider.Event) {
	if ev.Session != nil && ev.User == nil {
		// The event channel is shared infrastructure; a session without a
		// user is a malformed payload and must not desync the two.
		log.Warnf("authbridge: dropping %s event for client %s: session without user", ev.Type, b.clientID)
		return
	}

	b.mu.Lock()
	b.streamSeen = true
	prevUser := b.user
	b.session = ev.Session
	b.user = ev.User
	if b.session == nil {
		// user is only ever present alongside a session
		b.user = nil
	}
	wasLocal := b.localSignOut
	if ev.Type == provider.EventSignedOut {
		b.localSignOut = false
	}
	b.loading = false
	b.mu.Unlock()

	switch ev.Type {
	case provider.EventSignedIn:
		b.notifier.Success("Signed in successfully")
	case provider.EventSignedOut:
		if !wasLocal && prevUser != nil && ev.Session == nil {
			b.notifier.Info("You have been signed out")
		}
		b.clearClientData()
	}
}

// clearClientData wipes the client-persisted cart and favorites.
func (b *Bridge) clearClientData() {
	err := b.store.Remove(context.Background(), b.clientID, clientstore.KeyCart, clientstore.KeyFavorites)
	if err != nil {
		log.Warnf("authbridge: clearing client data for %s failed: %v", b.clientID, err)
	}
}

// SignUp registers a new account. Local state is untouched; a later event on
// the stream reflects any change.
func (b *Bridge) SignUp(ctx context.Context, email, password string) error {
	redirectTo := b.redirectURL + "/verify"
	if err := b.provider.SignUp(ctx, email, password, redirectTo); err != nil {
		b.notifier.Error(err.Error())
		return err
	}

	b.notifier.Success("Check your email to verify your account")
	return nil
}

// SignIn delegates to the provider. On success the SIGNED_IN stream event
// updates local state and shows the welcome notification.
func (b *Bridge) SignIn(ctx context.Context, email, password string) error {
	if _, _, err := b.provider.SignIn(ctx, b.clientID, email, password); err != nil {
		b.notifier.Error(err.Error())
		return err
	}

	return nil
}

// SignOut revokes the session and clears local state and client data. The
// locally-initiated flag suppresses the duplicate notification from the
// SIGNED_OUT event this call triggers.
func (b *Bridge) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.localSignOut = true
	var token string
	if b.session != nil {
		token = b.session.AccessToken
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.loading = false
		b.mu.Unlock()
	}()

	if err := b.provider.SignOut(ctx, b.clientID, token); err != nil {
		b.mu.Lock()
		b.localSignOut = false
		b.mu.Unlock()
		b.notifier.Error(err.Error())
		return err
	}

	b.mu.Lock()
	b.session = nil
	b.user = nil
	b.mu.Unlock()

	b.clearClientData()

	return nil
}

// GetUserOrders returns the signed-in user's orders, newest first. Without a
// user it returns an empty slice and never calls the provider. Fetch failures
// are notified once and swallowed.
func (b *Bridge) GetUserOrders(ctx context.Context) []models.Order {
	b.mu.Lock()
	user := b.user
	b.mu.Unlock()

	if user == nil {
		return []models.Order{}
	}

	orders, err := b.provider.UserOrders(ctx, user.ID)
	if err != nil {
		b.notifier.Error("Could not load your orders: " + err.Error())
		return []models.Order{}
	}

	return orders
}

// CreateOrder is a placeholder: it fabricates an order id after a fixed delay
// and persists nothing. The real checkout flow lands with the payment
// integration; callers must not treat the returned id as a stored order.
func (b *Bridge) CreateOrder(ctx context.Context, items []models.OrderItem) string {
	b.mu.Lock()
	user := b.user
	b.mu.Unlock()

	if user == nil {
		return ""
	}

	select {
	case <-time.After(b.orderDelay):
	case <-ctx.Done():
		log.Warnf("authbridge: order creation for client %s abandoned: %v", b.clientID, ctx.Err())
		return ""
	}

	orderID := "order-" + uuid.New().String()
	log.Infof("authbridge: fabricated order %s for user %d (%d items, not persisted)", orderID, user.ID, len(items))

	return orderID
}

// Session returns the mirrored session, or nil.
func (b *Bridge) Session() *models.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// User returns the mirrored user, or nil.
func (b *Bridge) User() *models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user
}

// IsLoading reports whether the auth state is still undetermined.
func (b *Bridge) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}
