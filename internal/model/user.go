package model

import (
	"errors"

	"minitwit/internal/avatar"
)

// User represents a registered account
type User struct {
	ID       int64  `db:"user_id" json:"user_id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"-"`
	PwHash   string `db:"pw_hash" json:"-"` // "-" hides from JSON output
}

// GravatarURL returns the user's avatar at the given pixel size.
func (u *User) GravatarURL(size int) string {
	return avatar.GravatarURL(u.Email, size)
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Password2 is the confirmation value and must equal Password.
	Password2 string `json:"password2"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserView is the public shape of a user in responses.
type UserView struct {
	ID          int64  `json:"user_id"`
	Username    string `json:"username"`
	GravatarURL string `json:"gravatar_url"`
}

// NewUserView builds the response shape with an avatar of the given size.
func NewUserView(u *User, avatarSize int) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:          u.ID,
		Username:    u.Username,
		GravatarURL: u.GravatarURL(avatarSize),
	}
}

// reservedUsernames are fixed route segments; a profile with one of these
// names would be unreachable at /<username>.
var reservedUsernames = map[string]struct{}{
	"public":      {},
	"register":    {},
	"login":       {},
	"logout":      {},
	"add_message": {},
	"health":      {},
	"auth":        {},
}

// IsReservedUsername reports whether username collides with a fixed route.
func IsReservedUsername(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}

// Validation errors, reported in this priority order by registration.
var (
	ErrEmptyUsername    = errors.New("you have to enter a username")
	ErrInvalidEmail     = errors.New("you have to enter a valid email address")
	ErrEmptyPassword    = errors.New("you have to enter a password")
	ErrPasswordMismatch = errors.New("the two passwords do not match")
	ErrUsernameTaken    = errors.New("the username is already taken")
)

// Authentication errors
var (
	// ErrUnknownUser is returned when a username or id does not resolve to a user
	ErrUnknownUser = errors.New("invalid username")

	// ErrBadPassword is returned when the password does not match the stored hash
	ErrBadPassword = errors.New("invalid password")
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrNotAuthenticated is returned when an operation needs a current user
	ErrNotAuthenticated = errors.New("not authenticated")
)
