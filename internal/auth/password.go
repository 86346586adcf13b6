package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum required password length (NIST recommendation).
const MinPasswordLength = 12

// bcrypt ignores everything past 72 bytes
const maxPasswordBytes = 72

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ValidatePassword checks length limits and, when confirm is non-nil, that
// the confirmation matches.
func ValidatePassword(password string, confirm *string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	if confirm != nil && *confirm != password {
		return ErrPasswordMismatch
	}
	return nil
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if err := ValidatePassword(password, nil); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateSessionSecret creates a random 32-byte secret, hex encoded.
func GenerateSessionSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// DecodeSessionSecret turns AUTH_SESSION_SECRET into key bytes. Hex input is
// decoded, anything else is used as is, and an empty value yields a fresh
// random key.
func DecodeSessionSecret(secret string) (key []byte, generated bool, err error) {
	if secret == "" {
		fresh, err := GenerateSessionSecret()
		if err != nil {
			return nil, false, err
		}
		secret, generated = fresh, true
	}
	if b, err := hex.DecodeString(secret); err == nil {
		return b, generated, nil
	}
	return []byte(secret), generated, nil
}
