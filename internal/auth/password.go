package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies credentials with bcrypt.
type PasswordHasher struct {
	cost int
	// dummy is compared against when the account does not exist so that unknown
	// emails cost the same as wrong passwords.
	dummy []byte
}

// NewPasswordHasher builds a hasher using cost, clamped to bcrypt's bounds.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("incident-service"), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash hashes a plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Matches reports whether plain is the password behind hashed.
func (h *PasswordHasher) Matches(hashed, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}

// Burn performs a comparison that always fails.
func (h *PasswordHasher) Burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain+"\x00"))
}

// ErrPasswordTooLong mirrors bcrypt's 72 byte input limit.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// CheckLength rejects passwords bcrypt cannot hash.
func CheckLength(password string) error {
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}
