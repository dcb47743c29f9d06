// Package auth guards the HTTP API. Sift has a single admin account taken
// from the configuration; credentials verify against a bcrypt hash and a
// successful login gets an in-memory session token.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

// HashPassword produces a bcrypt hash suitable for SIFT_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		return "", fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	trimmedPassword := strings.TrimSpace(password)
	trimmedHash := strings.TrimSpace(hash)
	if trimmedPassword == "" || trimmedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(trimmedHash), []byte(trimmedPassword)) == nil
}

// VerifyCredentials checks a login attempt against the configured admin
// account. The username comparison is constant-time; bcrypt dominates the
// timing anyway but the username should not leak either.
func VerifyCredentials(username, password, adminUser, adminHash string) bool {
	attempt := NormalizeUsername(username)
	expected := NormalizeUsername(adminUser)
	if attempt == "" || expected == "" {
		return false
	}
	usernameOK := subtle.ConstantTimeCompare([]byte(attempt), []byte(expected)) == 1
	return VerifyPassword(password, adminHash) && usernameOK
}

func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
