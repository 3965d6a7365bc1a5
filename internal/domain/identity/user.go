package identity

import (
	"strings"

	"github.com/invoicing/backend/internal/domain/shared"
)

// User is an account known to the billing core. Accounts are provisioned by
// the external authentication layer; this package only reads them to resolve
// who is acting.
type User struct {
	shared.BaseEntity
	Username    string
	IsSuperuser bool
	IsActive    bool
}

// NewUser creates an active, non-privileged user
func NewUser(username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, shared.NewValidationError(shared.FieldViolation{Field: "username", Message: "This field is required"})
	}
	if len(username) > 150 {
		return nil, shared.NewValidationError(shared.FieldViolation{Field: "username", Message: "Must be at most 150 characters"})
	}
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Username:   username,
		IsActive:   true,
	}, nil
}

// NewSuperuser creates an active privileged user
func NewSuperuser(username string) (*User, error) {
	user, err := NewUser(username)
	if err != nil {
		return nil, err
	}
	user.IsSuperuser = true
	return user, nil
}

// Deactivate disables the account. Inactive users are treated as anonymous.
func (u *User) Deactivate() {
	u.IsActive = false
	u.Touch()
}

// Activate re-enables the account
func (u *User) Activate() {
	u.IsActive = true
	u.Touch()
}

// Actor returns the acting identity for this user
func (u *User) Actor() Actor {
	return Actor{
		ID:        u.ID,
		Username:  u.Username,
		Superuser: u.IsSuperuser,
		Active:    u.IsActive,
	}
}
