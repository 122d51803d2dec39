package domain

import "time"

// User represents an authenticated account on the sync server. The first
// registered user becomes root.
type User struct {
	Syncable
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	IsRoot       bool      `json:"is_root"`
	DisplayName  string    `json:"display_name"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// AuthSession represents an active login with a refresh token. Each device
// gets its own session.
type AuthSession struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	DeviceName       string    `json:"device_name,omitempty"`
}

// IsExpired reports whether the session can no longer be refreshed.
func (s *AuthSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
