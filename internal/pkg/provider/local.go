package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/app/repository"
	"github.com/shopfox/shopfox/internal/pkg/mail"
)

// eventChannel is the Redis channel carrying auth state changes. Every app
// instance publishes and subscribes here, so events reach bridges on all
// instances.
const eventChannel = "auth:state"

const sessionTTL = 24 * time.Hour

// Local implements Client on top of the app's own stack: users in MySQL via
// gorm, sessions in Redis with a TTL, auth events fanned out over Redis
// pub/sub.
type Local struct {
	rdb   *redis.Client
	repos *repository.Repositories

	mu          sync.Mutex
	handlers    map[string]map[int]func(Event)
	nextHandler int

	pubsub *redis.PubSub
	done   chan struct{}
}

// NewLocal creates the production provider.
func NewLocal(rdb *redis.Client, repos *repository.Repositories) *Local {
	return &Local{
		rdb:      rdb,
		repos:    repos,
		handlers: make(map[string]map[int]func(Event)),
	}
}

// Start begins consuming the auth event stream. Must be called before any
// subscriber expects events.
func (l *Local) Start(ctx context.Context) {
	l.pubsub = l.rdb.Subscribe(ctx, eventChannel)
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		for msg := range l.pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warnf("auth provider: dropping malformed event: %v", err)
				continue
			}
			l.dispatch(ev)
		}
	}()
}

// Close releases the event stream subscription.
func (l *Local) Close() {
	if l.pubsub != nil {
		l.pubsub.Close()
		<-l.done
	}
}

func (l *Local) dispatch(ev Event) {
	l.mu.Lock()
	registered := make([]func(Event), 0, len(l.handlers[ev.ClientID]))
	for _, handler := range l.handlers[ev.ClientID] {
		registered = append(registered, handler)
	}
	l.mu.Unlock()

	for _, handler := range registered {
		handler(ev)
	}
}

func (l *Local) emit(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("auth provider: marshal event failed: %v", err)
		return
	}
	if err := l.rdb.Publish(ctx, eventChannel, payload).Err(); err != nil {
		log.Errorf("auth provider: publish event failed: %v", err)
	}
}

// OnAuthStateChange registers a handler for one client's auth events.
func (l *Local) OnAuthStateChange(clientID string, handler func(Event)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextHandler++
	id := l.nextHandler
	if l.handlers[clientID] == nil {
		l.handlers[clientID] = make(map[int]func(Event))
	}
	l.handlers[clientID][id] = handler

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.handlers[clientID], id)
		if len(l.handlers[clientID]) == 0 {
			delete(l.handlers, clientID)
		}
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("authsession:token:%s", token)
}

func clientKey(clientID string) string {
	return fmt.Sprintf("authsession:client:%s", clientID)
}

// SignUp registers a new inactive account and sends the verification email.
func (l *Local) SignUp(ctx context.Context, email, password, redirectTo string) error {
	if _, err := l.repos.User.GetByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user, err := models.CreateUser(email, password)
	if err != nil {
		return err
	}
	if err := user.GenerateActivationToken(); err != nil {
		return err
	}
	if err := l.repos.User.Create(user); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s?token=%s", redirectTo, user.ActivationToken)
	if err := mail.SendVerificationMail(user.Email, verifyURL); err != nil {
		return fmt.Errorf("account created but verification mail failed: %w", err)
	}

	return nil
}

// SignIn verifies credentials, stores a fresh session in Redis and emits a
// SIGNED_IN event for the client.
func (l *Local) SignIn(ctx context.Context, clientID, email, password string) (*models.Session, *models.User, error) {
	user, err := l.repos.User.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.CheckPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, nil, ErrUserNotActive
	}

	session := &models.Session{
		AccessToken:  uuid.New().String(),
		RefreshToken: uuid.New().String(),
		UserID:       user.ID,
		ExpiresAt:    time.Now().Add(sessionTTL),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, nil, err
	}
	if err := l.rdb.Set(ctx, sessionKey(session.AccessToken), payload, sessionTTL).Err(); err != nil {
		return nil, nil, err
	}
	if err := l.rdb.Set(ctx, clientKey(clientID), session.AccessToken, sessionTTL).Err(); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := l.repos.User.Update(user); err != nil {
		log.Warnf("auth provider: updating last login for user %d failed: %v", user.ID, err)
	}

	public := publicUser(user)
	l.emit(ctx, Event{Type: EventSignedIn, ClientID: clientID, Session: session, User: public})

	return session, public, nil
}

// SignOut revokes the client's session and emits a SIGNED_OUT event.
func (l *Local) SignOut(ctx context.Context, clientID, accessToken string) error {
	if accessToken != "" {
		if err := l.rdb.Del(ctx, sessionKey(accessToken)).Err(); err != nil {
			return err
		}
	}
	if err := l.rdb.Del(ctx, clientKey(clientID)).Err(); err != nil {
		return err
	}

	l.emit(ctx, Event{Type: EventSignedOut, ClientID: clientID})

	return nil
}

// CurrentSession resolves the client's existing session, or nils when the
// client is not signed in.
func (l *Local) CurrentSession(ctx context.Context, clientID string) (*models.Session, *models.User, error) {
	token, err := l.rdb.Get(ctx, clientKey(clientID)).Result()
	if err == redis.Nil {
		return nil, nil, nil
	} else if err != nil {
		return nil, nil, err
	}

	raw, err := l.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, nil, nil
	} else if err != nil {
		return nil, nil, err
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, nil, err
	}
	if session.IsExpired() {
		return nil, nil, nil
	}

	user, err := l.repos.User.GetByID(session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return &session, publicUser(user), nil
}

// UserOrders returns the user's orders with nested line items, newest first.
func (l *Local) UserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return l.repos.Order.GetByUserID(userID)
}

// publicUser strips credentials before the user record leaves the provider.
func publicUser(u *models.User) *models.User {
	copied := *u
	copied.Password = ""
	copied.ActivationToken = ""
	return &copied
}
