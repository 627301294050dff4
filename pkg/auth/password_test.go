package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	ph, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotNil(t, ph)

	assert.Equal(t, AlgorithmPBKDF2SHA256, ph.Algorithm)
	assert.Equal(t, DefaultIterations, ph.Iterations)

	salt, err := base64.StdEncoding.DecodeString(ph.SaltB64)
	require.NoError(t, err)
	assert.Len(t, salt, SaltLength)

	dk, err := base64.StdEncoding.DecodeString(ph.HashB64)
	require.NoError(t, err)
	assert.Len(t, dk, KeyLength)

	assert.True(t, VerifyPassword("secret1", ph))
}

func TestHashPassword_EmptyPassword(t *testing.T) {
	ph, err := HashPassword("")
	assert.Error(t, err)
	assert.Nil(t, ph)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("secret1")
	require.NoError(t, err)
	second, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first.SaltB64, second.SaltB64)
	assert.NotEqual(t, first.HashB64, second.HashB64)
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	ph, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.False(t, VerifyPassword("wrong", ph))
	assert.False(t, VerifyPassword("", ph))
}

func TestVerifyPassword_MalformedRecords(t *testing.T) {
	ph, err := HashPassword("secret1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*PasswordHash)
	}{
		{"nil record", nil},
		{"unknown algorithm", func(p *PasswordHash) { p.Algorithm = "bcrypt" }},
		{"zero iterations", func(p *PasswordHash) { p.Iterations = 0 }},
		{"negative iterations", func(p *PasswordHash) { p.Iterations = -1 }},
		{"bad salt encoding", func(p *PasswordHash) { p.SaltB64 = "%%%not-base64%%%" }},
		{"bad hash encoding", func(p *PasswordHash) { p.HashB64 = "%%%not-base64%%%" }},
		{"empty salt", func(p *PasswordHash) { p.SaltB64 = "" }},
		{"empty hash", func(p *PasswordHash) { p.HashB64 = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate == nil {
				assert.False(t, VerifyPassword("secret1", nil))
				return
			}
			rec := *ph
			tt.mutate(&rec)
			assert.False(t, VerifyPassword("secret1", &rec))
		})
	}
}

func TestVerifyPassword_StoredIterationCount(t *testing.T) {
	// Verification must honor the record's stored iteration count, not the
	// current default.
	salt := []byte("0123456789abcdef")
	dk := pbkdf2.Key([]byte("secret1"), salt, 1000, KeyLength, sha256.New)

	rec := &PasswordHash{
		Algorithm:  AlgorithmPBKDF2SHA256,
		Iterations: 1000,
		SaltB64:    base64.StdEncoding.EncodeToString(salt),
		HashB64:    base64.StdEncoding.EncodeToString(dk),
	}

	assert.True(t, VerifyPassword("secret1", rec))
	assert.False(t, VerifyPassword("wrong", rec))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(""))
	assert.NoError(t, ValidatePassword("secret1"))
}
