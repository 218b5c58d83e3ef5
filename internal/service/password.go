package service

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/apnisec/backend/internal/apperr"
)

const (
	minPasswordLength = 8
	// bcrypt only reads the first 72 bytes and newer x/crypto versions
	// reject longer input outright, so the policy caps it explicitly.
	maxPasswordBytes = 72
)

// PasswordService wraps bcrypt with the password policy shared by
// registration and password changes.
type PasswordService struct {
	cost int
}

func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordService{cost: cost}
}

func (s *PasswordService) Hash(password string) (string, error) {
	if password == "" {
		return "", apperr.Validation("Password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", apperr.Validation("Password must be at least 8 characters long")
	}
	if len(password) > maxPasswordBytes {
		return "", apperr.Validation("Password must not exceed 72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. It never returns an error;
// any mismatch or malformed input is simply false.
func (s *PasswordService) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
