package authbridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/clientstore"
	"github.com/shopfox/shopfox/internal/pkg/notify"
	"github.com/shopfox/shopfox/internal/pkg/provider"
)

const testClientID = "client-1"

// fakeProvider implements provider.Client in-process with synchronous event
// delivery.
type fakeProvider struct {
	mu       sync.Mutex
	handlers map[string][]func(provider.Event)

	session *models.Session
	user    *models.User

	signUpErr  error
	signInErr  error
	signOutErr error
	ordersErr  error
	orders     []models.Order

	fetchStarted  chan struct{}
	fetchRelease  chan struct{}
	signUpTo      string
	orderCalls    int
	signOutCalled bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{handlers: make(map[string][]func(provider.Event))}
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password, redirectTo string) error {
	f.mu.Lock()
	f.signUpTo = redirectTo
	f.mu.Unlock()
	return f.signUpErr
}

func (f *fakeProvider) SignIn(ctx context.Context, clientID, email, password string) (*models.Session, *models.User, error) {
	if f.signInErr != nil {
		return nil, nil, f.signInErr
	}
	return f.session, f.user, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, clientID, accessToken string) error {
	f.mu.Lock()
	f.signOutCalled = true
	f.mu.Unlock()
	return f.signOutErr
}

func (f *fakeProvider) CurrentSession(ctx context.Context, clientID string) (*models.Session, *models.User, error) {
	if f.fetchStarted != nil {
		close(f.fetchStarted)
	}
	if f.fetchRelease != nil {
		<-f.fetchRelease
	}
	return f.session, f.user, nil
}

func (f *fakeProvider) OnAuthStateChange(clientID string, handler func(provider.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[clientID] = append(f.handlers[clientID], handler)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, clientID)
	}
}

func (f *fakeProvider) UserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	f.mu.Lock()
	f.orderCalls++
	f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return f.orders, nil
}

func (f *fakeProvider) emit(ev provider.Event) {
	f.mu.Lock()
	handlers := append([]func(provider.Event){}, f.handlers[ev.ClientID]...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func testSession(userID uint) *models.Session {
	return &models.Session{
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
		UserID:       userID,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func testUser(id uint) *models.User {
	return &models.User{ID: id, Email: "shopper@example.com", Status: models.STATUS_ACTIVE}
}

func newTestBridge(t *testing.T, fake *fakeProvider) (*Bridge, *notify.Recorder, clientstore.Store) {
	t.Helper()
	recorder := &notify.Recorder{}
	store := clientstore.NewMemoryStore()
	b := New(fake, recorder, store, testClientID, "http://localhost:4000")
	b.orderDelay = time.Millisecond
	return b, recorder, store
}

// waitFor polls until the condition holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestStreamSignedInUpdatesState(t *testing.T) {
	fake := newFakeProvider()
	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	fake.emit(provider.Event{
		Type:     provider.EventSignedIn,
		ClientID: testClientID,
		Session:  testSession(1),
		User:     testUser(1),
	})

	assert.False(t, b.IsLoading())
	require.NotNil(t, b.Session())
	assert.Equal(t, "token-1", b.Session().AccessToken)
	require.NotNil(t, b.User())
	assert.Equal(t, uint(1), b.User().ID)

	success := recorder.ByType(notify.TypeSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, "Signed in successfully", success[0].Message)
}

func TestUserNeverPresentWithoutSession(t *testing.T) {
	fake := newFakeProvider()
	b, _, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	events := []provider.Event{
		{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)},
		{Type: provider.EventTokenRefreshed, ClientID: testClientID, Session: testSession(1), User: testUser(1)},
		// A session-less event must never leave a dangling user behind.
		{Type: provider.EventSignedOut, ClientID: testClientID, Session: nil, User: testUser(1)},
		{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(2), User: testUser(2)},
	}

	for _, ev := range events {
		fake.emit(ev)
		if b.Session() == nil {
			assert.Nil(t, b.User())
		} else {
			assert.NotNil(t, b.User())
		}
	}
}

func TestSessionBearingEventWithoutUserIsDropped(t *testing.T) {
	fake := newFakeProvider()
	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	// A refresh payload missing its user must not leave the mirrored state
	// with a session but no user.
	fake.emit(provider.Event{Type: provider.EventTokenRefreshed, ClientID: testClientID, Session: testSession(1), User: nil})

	require.NotNil(t, b.Session())
	require.NotNil(t, b.User())
	assert.Equal(t, uint(1), b.User().ID)

	// Same shape on a cold bridge: nothing is applied.
	fake2 := newFakeProvider()
	b2, _, _ := newTestBridge(t, fake2)
	b2.Start(context.Background())
	defer b2.Close()

	fake2.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(2), User: nil})
	assert.Nil(t, b2.Session())
	assert.Nil(t, b2.User())
	assert.Empty(t, recorder.ByType(notify.TypeError))
}

func TestInitialFetchRestoresExistingSession(t *testing.T) {
	fake := newFakeProvider()
	fake.session = testSession(7)
	fake.user = testUser(7)

	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	waitFor(t, func() bool { return !b.IsLoading() })

	require.NotNil(t, b.User())
	assert.Equal(t, uint(7), b.User().ID)
	// Restoring a session is not a fresh sign-in.
	assert.Empty(t, recorder.ByType(notify.TypeSuccess))
}

func TestInitialFetchLosesRaceToStream(t *testing.T) {
	fake := newFakeProvider()
	fake.session = testSession(7)
	fake.user = testUser(7)
	fake.fetchStarted = make(chan struct{})
	fake.fetchRelease = make(chan struct{})

	b, _, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	<-fake.fetchStarted
	fake.emit(provider.Event{
		Type:     provider.EventSignedIn,
		ClientID: testClientID,
		Session:  testSession(9),
		User:     testUser(9),
	})
	close(fake.fetchRelease)

	waitFor(t, func() bool { return !b.IsLoading() })
	// The stream delivered first; the stale fetch result must not override it.
	time.Sleep(20 * time.Millisecond)
	require.NotNil(t, b.User())
	assert.Equal(t, uint(9), b.User().ID)
}

func TestSignOutClearsStateAndClientData(t *testing.T) {
	fake := newFakeProvider()
	b, recorder, store := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, testClientID, clientstore.KeyCart, `[{"product_id":1}]`))
	require.NoError(t, store.Set(ctx, testClientID, clientstore.KeyFavorites, `[3,4]`))

	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	require.NoError(t, b.SignOut(ctx))

	assert.Nil(t, b.Session())
	assert.Nil(t, b.User())
	assert.False(t, b.IsLoading())
	assert.True(t, fake.signOutCalled)

	cart, _ := store.Get(ctx, testClientID, clientstore.KeyCart)
	favorites, _ := store.Get(ctx, testClientID, clientstore.KeyFavorites)
	assert.Empty(t, cart)
	assert.Empty(t, favorites)

	// The SIGNED_OUT event triggered by our own call must not produce a
	// second notification.
	fake.emit(provider.Event{Type: provider.EventSignedOut, ClientID: testClientID})
	assert.Empty(t, recorder.ByType(notify.TypeInfo))
}

func TestExternalSignOutNotifiesOnce(t *testing.T) {
	fake := newFakeProvider()
	b, recorder, store := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, testClientID, clientstore.KeyCart, "x"))

	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})
	fake.emit(provider.Event{Type: provider.EventSignedOut, ClientID: testClientID})

	infos := recorder.ByType(notify.TypeInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, "You have been signed out", infos[0].Message)

	cart, _ := store.Get(ctx, testClientID, clientstore.KeyCart)
	assert.Empty(t, cart)
}

func TestSignOutFailureIsNotifiedAndReturned(t *testing.T) {
	fake := newFakeProvider()
	fake.signOutErr = errors.New("network down")

	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	err := b.SignOut(context.Background())
	require.Error(t, err)
	assert.False(t, b.IsLoading())

	errs := recorder.ByType(notify.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "network down", errs[0].Message)

	// A later provider-side sign-out still notifies: the local flag must not
	// stay latched after a failed call.
	fake.emit(provider.Event{Type: provider.EventSignedOut, ClientID: testClientID})
	assert.Len(t, recorder.ByType(notify.TypeInfo), 1)
}

func TestSignUpOutcomes(t *testing.T) {
	fake := newFakeProvider()
	b, recorder, _ := newTestBridge(t, fake)

	require.NoError(t, b.SignUp(context.Background(), "new@example.com", "secret99"))
	assert.True(t, strings.HasSuffix(fake.signUpTo, "/verify"))
	success := recorder.ByType(notify.TypeSuccess)
	require.Len(t, success, 1)
	assert.Contains(t, success[0].Message, "Check your email")
	assert.Nil(t, b.User())

	fake.signUpErr = provider.ErrEmailTaken
	err := b.SignUp(context.Background(), "new@example.com", "secret99")
	require.ErrorIs(t, err, provider.ErrEmailTaken)
	errs := recorder.ByType(notify.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, provider.ErrEmailTaken.Error(), errs[0].Message)
}

func TestSignInFailureIsNotifiedAndReturned(t *testing.T) {
	fake := newFakeProvider()
	fake.signInErr = provider.ErrInvalidCredentials

	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()

	err := b.SignIn(context.Background(), "shopper@example.com", "wrong")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
	assert.Nil(t, b.Session())

	errs := recorder.ByType(notify.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, provider.ErrInvalidCredentials.Error(), errs[0].Message)
}

func TestGetUserOrdersWithoutUserSkipsProvider(t *testing.T) {
	fake := newFakeProvider()
	b, _, _ := newTestBridge(t, fake)

	orders := b.GetUserOrders(context.Background())

	assert.Empty(t, orders)
	assert.Zero(t, fake.orderCalls)
}

func TestGetUserOrdersReturnsProviderResult(t *testing.T) {
	fake := newFakeProvider()
	now := time.Now()
	fake.orders = []models.Order{
		{ID: 2, CreatedAt: now},
		{ID: 1, CreatedAt: now.Add(-time.Hour)},
	}

	b, _, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()
	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	orders := b.GetUserOrders(context.Background())
	require.Len(t, orders, 2)
	assert.Equal(t, uint(2), orders[0].ID)
	assert.True(t, orders[0].CreatedAt.After(orders[1].CreatedAt))
}

func TestGetUserOrdersFailureIsSwallowed(t *testing.T) {
	fake := newFakeProvider()
	fake.ordersErr = errors.New("query timeout")

	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()
	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	orders := b.GetUserOrders(context.Background())

	assert.Empty(t, orders)
	assert.Len(t, recorder.ByType(notify.TypeError), 1)
}

func TestCreateOrderRequiresUser(t *testing.T) {
	fake := newFakeProvider()
	b, _, _ := newTestBridge(t, fake)

	assert.Empty(t, b.CreateOrder(context.Background(), []models.OrderItem{{ProductID: 1, Quantity: 1}}))
}

func TestCreateOrderFabricatesID(t *testing.T) {
	fake := newFakeProvider()
	b, _, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()
	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	orderID := b.CreateOrder(context.Background(), []models.OrderItem{{ProductID: 1, Quantity: 2}})

	// Placeholder contract: a fabricated id, nothing persisted.
	assert.True(t, strings.HasPrefix(orderID, "order-"))
}

func TestCreateOrderCancelledContextReturnsEmpty(t *testing.T) {
	fake := newFakeProvider()
	b, _, _ := newTestBridge(t, fake)
	b.Start(context.Background())
	defer b.Close()
	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An abandoned checkout yields no id but leaves the signed-in state
	// untouched; callers must not read the empty id as "not signed in".
	assert.Empty(t, b.CreateOrder(ctx, []models.OrderItem{{ProductID: 1, Quantity: 1}}))
	require.NotNil(t, b.User())
}

func TestCloseReleasesSubscription(t *testing.T) {
	fake := newFakeProvider()
	b, recorder, _ := newTestBridge(t, fake)
	b.Start(context.Background())

	b.Close()

	fake.emit(provider.Event{Type: provider.EventSignedIn, ClientID: testClientID, Session: testSession(1), User: testUser(1)})
	assert.Nil(t, b.Session())
	assert.Empty(t, recorder.Messages)
}
