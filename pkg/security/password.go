// Package security holds credential hashing for the portal's login flow.
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrHashingFailed keeps bcrypt's internal errors out of API responses.
	ErrHashingFailed = errors.New("password hashing failed")

	// MinPasswordLen mirrors the signup form's minimum password length.
	MinPasswordLen = 8
)

// PasswordHasher hashes signup passwords and verifies login attempts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed hasher. A cost outside bcrypt's
// supported range falls back to the library default; tests pass a low cost
// to keep hashing fast.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash rejects passwords below MinPasswordLen before doing any work.
func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", errors.New("password too short")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
