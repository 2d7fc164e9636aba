package models

import "time"

// Session is the credential bundle the auth provider hands out after a
// successful sign-in. It is owned by the provider (persisted in Redis with a
// TTL) and only mirrored by the rest of the app.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       uint      `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
