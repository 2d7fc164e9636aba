package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfox/shopfox/app/models"
)

func TestOnAuthStateChangeDispatch(t *testing.T) {
	l := NewLocal(nil, nil)

	var gotA, gotB []Event
	unsubA := l.OnAuthStateChange("client-a", func(ev Event) { gotA = append(gotA, ev) })
	l.OnAuthStateChange("client-b", func(ev Event) { gotB = append(gotB, ev) })

	l.dispatch(Event{Type: EventSignedIn, ClientID: "client-a"})
	l.dispatch(Event{Type: EventSignedOut, ClientID: "client-b"})

	require.Len(t, gotA, 1)
	assert.Equal(t, EventSignedIn, gotA[0].Type)
	require.Len(t, gotB, 1)
	assert.Equal(t, EventSignedOut, gotB[0].Type)

	// After unsubscribe the handler must not fire again.
	unsubA()
	l.dispatch(Event{Type: EventSignedOut, ClientID: "client-a"})
	assert.Len(t, gotA, 1)
}

func TestPublicUserStripsCredentials(t *testing.T) {
	user := &models.User{
		ID:              1,
		Email:           "shopper@example.com",
		Password:        "$2a$10$hash",
		ActivationToken: "tok",
	}

	public := publicUser(user)

	assert.Empty(t, public.Password)
	assert.Empty(t, public.ActivationToken)
	assert.Equal(t, user.Email, public.Email)
	// The original record stays untouched.
	assert.NotEmpty(t, user.Password)
}

func TestSessionKeys(t *testing.T) {
	assert.Equal(t, "authsession:token:abc", sessionKey("abc"))
	assert.Equal(t, "authsession:client:xyz", clientKey("xyz"))
}
