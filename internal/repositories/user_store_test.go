package repositories_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserStore(t *testing.T) (*repositories.UserStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	store := repositories.NewUserStore(path)
	require.NoError(t, store.EnsureFile())
	return store, path
}

func testUser(email, role string) *models.User {
	return &models.User{
		Email:      email,
		Role:       role,
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Algorithm:  "pbkdf2_sha256",
		Iterations: 200_000,
		SaltB64:    "c2FsdHNhbHRzYWx0c2FsdA==",
		HashB64:    "aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g=",
	}
}

func TestUserStore_EmptyOnFirstRun(t *testing.T) {
	store, path := newTestUserStore(t)

	// EnsureFile wrote an empty document.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))

	has, err := store.HasAny()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = store.GetByEmail("anyone@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserStore_UpsertPersistsImmediately(t *testing.T) {
	store, path := newTestUserStore(t)

	require.NoError(t, store.Upsert(testUser("Alice@Example.com", models.RoleAdmin)))

	// A fresh store over the same file sees the record.
	reopened := repositories.NewUserStore(path)
	got, err := reopened.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, "pbkdf2_sha256", got.Algorithm)
	assert.Equal(t, 200_000, got.Iterations)
}

func TestUserStore_LookupIsCaseInsensitive(t *testing.T) {
	store, _ := newTestUserStore(t)

	require.NoError(t, store.Upsert(testUser("alice@example.com", models.RoleUser)))

	got, err := store.GetByEmail("  ALICE@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestUserStore_UpsertOverwrites(t *testing.T) {
	store, _ := newTestUserStore(t)

	require.NoError(t, store.Upsert(testUser("alice@example.com", models.RoleUser)))

	replacement := testUser("alice@example.com", models.RoleAdmin)
	replacement.HashB64 = "bmV3aGFzaG5ld2hhc2huZXdoYXNobmV3aGFzaA=="
	require.NoError(t, store.Upsert(replacement))

	users, err := store.List()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, replacement.HashB64, users[0].HashB64)
}

func TestUserStore_ListSortedByEmail(t *testing.T) {
	store, _ := newTestUserStore(t)

	require.NoError(t, store.Upsert(testUser("carol@example.com", models.RoleUser)))
	require.NoError(t, store.Upsert(testUser("alice@example.com", models.RoleAdmin)))
	require.NoError(t, store.Upsert(testUser("bob@example.com", models.RoleUser)))

	users, err := store.List()
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.Equal(t, "bob@example.com", users[1].Email)
	assert.Equal(t, "carol@example.com", users[2].Email)
}

func TestUserStore_MalformedFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{corrupted"), 0o600))

	store := repositories.NewUserStore(path)

	has, err := store.HasAny()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = store.GetByEmail("alice@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserStore_MissingFileReadsAsEmpty(t *testing.T) {
	store := repositories.NewUserStore(filepath.Join(t.TempDir(), "never-created.json"))

	has, err := store.HasAny()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUserStore_PasswordMaterialNotSerializedUnderEmailField(t *testing.T) {
	store, path := newTestUserStore(t)
	require.NoError(t, store.Upsert(testUser("alice@example.com", models.RoleUser)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// The email lives only in the map key; the record body holds the
	// hash parameters.
	assert.Contains(t, string(raw), `"alice@example.com"`)
	assert.Contains(t, string(raw), `"algo": "pbkdf2_sha256"`)
	assert.Contains(t, string(raw), `"iterations": 200000`)
	assert.NotContains(t, string(raw), `"email"`)
}
