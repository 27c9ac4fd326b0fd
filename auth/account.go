package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
)

type Account struct {
	ID           ID
	Username     string
	Fullname     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ID string

// Profile holds the publicly visible fields of an account.
type Profile struct {
	Username, Fullname, Email string
}

// ProfileChanges is a partial update. Nil fields are left untouched.
type ProfileChanges struct {
	Username, Fullname, Email *string
}

func (c ProfileChanges) IsEmpty() bool {
	return c.Username == nil && c.Fullname == nil && c.Email == nil
}

var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("already exists")
	ErrAuthentication = errors.New("invalid username or password")
	ErrNotFound       = errors.New("account not found")
	ErrRepository     = errors.New("repository failure")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrInvalidToken   = errors.New("invalid token")
)

// DuplicateKeyError is reported by a Repository when a write violates the
// uniqueness of username or email.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func NewID() ID {
	return ID(xid.New().String())
}

// IsValidID checks if a given id is valid based on the xid library definition of a valid id
func IsValidID(id string) bool {
	if _, err := xid.FromString(id); err != nil {
		return false
	}
	return true
}

func (a *Account) Profile() Profile {
	return Profile{Username: a.Username, Fullname: a.Fullname, Email: a.Email}
}

func (a *Account) apply(c ProfileChanges) {
	if c.Username != nil {
		a.Username = *c.Username
	}
	if c.Fullname != nil {
		a.Fullname = *c.Fullname
	}
	if c.Email != nil {
		a.Email = *c.Email
	}
}
