package provider

import (
	"context"
	"errors"

	"github.com/shopfox/shopfox/app/models"
)

// ErrInvalidCredentials is returned by SignIn when email or password do not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrUserNotActive is returned by SignIn for accounts that never confirmed
// their email address.
var ErrUserNotActive = errors.New("account not verified, please check your email")

// ErrEmailTaken is returned by SignUp when the address is already registered.
var ErrEmailTaken = errors.New("email address already registered")

// Client is the auth/data provider surface the rest of the app consumes.
// The production implementation is Local; tests use a fake.
type Client interface {
	// SignUp registers a new account and sends a verification email with a
	// link built from redirectTo. State changes arrive via the event stream,
	// not as a return value.
	SignUp(ctx context.Context, email, password, redirectTo string) error

	// SignIn verifies credentials, issues a session for the client and emits
	// an EventSignedIn on the client's event stream.
	SignIn(ctx context.Context, clientID, email, password string) (*models.Session, *models.User, error)

	// SignOut revokes the client's session and emits an EventSignedOut.
	SignOut(ctx context.Context, clientID, accessToken string) error

	// CurrentSession returns the client's existing session and user, or
	// (nil, nil, nil) when the client is not signed in.
	CurrentSession(ctx context.Context, clientID string) (*models.Session, *models.User, error)

	// OnAuthStateChange registers a handler for the client's auth events and
	// returns a function releasing the subscription.
	OnAuthStateChange(clientID string, handler func(Event)) (unsubscribe func())

	// UserOrders returns the user's orders with nested line items, newest
	// first.
	UserOrders(ctx context.Context, userID uint) ([]models.Order, error)
}
