package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 4

// User is an account record. Ledger operations reference users by id only;
// identity checks live in the auth service.
type User struct {
	ID           int
	Username     string
	PasswordHash string
	RegisteredAt time.Time
}

// NewUser creates a user with a bcrypt hash of the given password.
func NewUser(id int, username, password string, registeredAt time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: string(hash),
		RegisteredAt: registeredAt.UTC(),
	}, nil
}

// VerifyPassword reports whether the password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
