package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// AlgorithmPBKDF2SHA256 is the only hashing scheme the store writes.
	// Records carrying any other identifier never verify.
	AlgorithmPBKDF2SHA256 = "pbkdf2_sha256"

	DefaultIterations = 200_000
	SaltLength        = 16 // bytes
	KeyLength         = 32 // bytes

	MinPasswordLen = 6
	MaxPasswordLen = 128
)

// PasswordHash holds the derived key together with the parameters needed
// to recompute it, all encoded for flat-file storage.
type PasswordHash struct {
	Algorithm  string
	Iterations int
	SaltB64    string
	HashB64    string
}

// HashPassword derives a salted PBKDF2-SHA256 hash with a fresh random salt.
func HashPassword(password string) (*PasswordHash, error) {
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}

	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	dk := pbkdf2.Key([]byte(password), salt, DefaultIterations, KeyLength, sha256.New)

	return &PasswordHash{
		Algorithm:  AlgorithmPBKDF2SHA256,
		Iterations: DefaultIterations,
		SaltB64:    base64.StdEncoding.EncodeToString(salt),
		HashB64:    base64.StdEncoding.EncodeToString(dk),
	}, nil
}

// VerifyPassword recomputes the derived key with the record's stored salt
// and iteration count and compares in constant time. It returns false,
// never an error, for malformed records or unrecognized algorithms.
func VerifyPassword(password string, ph *PasswordHash) bool {
	if ph == nil || ph.Algorithm != AlgorithmPBKDF2SHA256 {
		return false
	}
	if ph.Iterations <= 0 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(ph.SaltB64)
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(ph.HashB64)
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := pbkdf2.Key([]byte(password), salt, ph.Iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// ValidatePassword enforces the minimum password policy for new credentials.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	return nil
}
