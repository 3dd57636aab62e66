package domain

import "time"

// Password length bounds. bcrypt only reads the first 72 bytes of its input.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// ValidatePassword enforces the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// User models an authenticated actor in the system.
//
// TokenVersion is stamped into every token issued for the user. Incrementing
// it invalidates all of them; it is never decremented.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	TokenVersion int       `json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserView is the public projection of a user returned by login and refresh.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Roles       []RoleName `json:"roles,omitempty"`
}

// View projects u without its credentials.
func (u *User) View(roles []RoleName) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       roles,
	}
}

// Sanitized returns a copy of u with the password hash cleared.
func (u *User) Sanitized() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
