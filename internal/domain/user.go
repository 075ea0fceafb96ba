package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered contributor. The password hash and API key
// are never exposed through the public API field selection.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Fullname     string    `json:"fullname"`
	Email        string    `json:"email_addr"`
	PasswordHash string    `json:"-"`
	APIKey       string    `json:"api_key"`
	Admin        bool      `json:"admin"`
	Pro          bool      `json:"pro"`
	Locale       string    `json:"locale"`
	Created      time.Time `json:"created"`
}

// NewUser creates an unsaved User with a fresh API key and creation
// timestamp. The caller is responsible for hashing the password and
// setting PasswordHash before the user is stored.
func NewUser(name, fullname, email string) *User {
	return &User{
		Name:     name,
		Fullname: fullname,
		Email:    email,
		APIKey:   uuid.NewString(),
		Locale:   "en",
		Created:  time.Now().UTC(),
	}
}

// EntityID implements Entity.
func (u *User) EntityID() int { return u.ID }

// Validate checks the user's invariants before it is stored.
func (u *User) Validate() error {
	if u.Name == "" {
		return ErrEmptyName
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validEmail(u.Email) {
		return ErrInvalidEmail
	}
	if u.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return nil
}

// IsAnonymous reports whether the user stands for an unauthenticated
// actor. A nil *User is the anonymous actor everywhere in the codebase.
func (u *User) IsAnonymous() bool { return u == nil }

// IsAdmin reports whether the actor is an authenticated administrator.
func (u *User) IsAdmin() bool { return u != nil && u.Admin }

// validEmail performs a minimal shape check: one @ with a dotted domain.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	dom := email[at+1:]
	dot := strings.Index(dom, ".")
	return dot > 0 && dot < len(dom)-1
}
