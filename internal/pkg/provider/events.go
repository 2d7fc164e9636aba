package provider

import (
	"github.com/shopfox/shopfox/app/models"
)

type EventType string

const (
	// EventInitialSession is emitted once to a fresh subscriber when a
	// session already exists.
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event describes one auth state change of a storefront client.
type Event struct {
	Type     EventType       `json:"type"`
	ClientID string          `json:"client_id"`
	Session  *models.Session `json:"session,omitempty"`
	User     *models.User    `json:"user,omitempty"`
}
