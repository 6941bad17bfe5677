package schema

import (
	"fmt"
	"time"
)

// User is a registered account. Token is present only while the user holds
// an authenticated session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// Validate checks required fields and bounds.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(u.ID) > 100 {
		return fmt.Errorf("id must be 100 characters or less (got %d)", len(u.ID))
	}
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(u.Username) > 100 {
		return fmt.Errorf("username must be 100 characters or less (got %d)", len(u.Username))
	}
	return nil
}

// ActiveSessionID is the fixed primary key of the singleton session record.
const ActiveSessionID = "active-session"

// ActiveSession records who is currently signed in. It is distinct from the
// user registry: the session carries a snapshot of the credentials plus
// login metadata, and there is at most one record.
type ActiveSession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Token       string    `json:"token,omitempty"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// NewActiveSession derives the singleton session record for a user.
func NewActiveSession(u *User) *ActiveSession {
	return &ActiveSession{
		ID:          ActiveSessionID,
		UserID:      u.ID,
		Username:    u.Username,
		Token:       u.Token,
		LastLoginAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Validate checks required fields.
func (s *ActiveSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	if s.Username == "" {
		return fmt.Errorf("username is required")
	}
	if s.LastLoginAt.IsZero() {
		return fmt.Errorf("lastLoginAt is required")
	}
	return nil
}
