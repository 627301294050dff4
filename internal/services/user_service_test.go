package services

import (
	"testing"

	"github.com/mquintana/divscope/internal/models"
	pkgauth "github.com/mquintana/divscope/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(store CredentialStore) *UserService {
	return NewUserService(store, newTestLogger(), newTestAuditLogger())
}

func TestUpsertUser_CreatesRecord(t *testing.T) {
	store := newMemCredentialStore()
	service := newUserService(store)

	resp, err := service.UpsertUser("admin@example.com", "Bob@Example.com", "swordfish1", models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", resp.Email)
	assert.Equal(t, models.RoleUser, resp.Role)

	stored, err := store.GetByEmail("bob@example.com")
	require.NoError(t, err)
	assert.True(t, pkgauth.VerifyPassword("swordfish1", &pkgauth.PasswordHash{
		Algorithm:  stored.Algorithm,
		Iterations: stored.Iterations,
		SaltB64:    stored.SaltB64,
		HashB64:    stored.HashB64,
	}))
}

func TestUpsertUser_ReplacesExistingWholesale(t *testing.T) {
	store := newMemCredentialStore()
	require.NoError(t, store.Upsert(NewTestUser("bob@example.com", "old-password", models.RoleUser)))

	service := newUserService(store)
	resp, err := service.UpsertUser("admin@example.com", "bob@example.com", "new-password", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	stored, err := store.GetByEmail("bob@example.com")
	require.NoError(t, err)

	ph := &pkgauth.PasswordHash{
		Algorithm:  stored.Algorithm,
		Iterations: stored.Iterations,
		SaltB64:    stored.SaltB64,
		HashB64:    stored.HashB64,
	}
	assert.False(t, pkgauth.VerifyPassword("old-password", ph))
	assert.True(t, pkgauth.VerifyPassword("new-password", ph))
}

func TestUpsertUser_Validation(t *testing.T) {
	service := newUserService(newMemCredentialStore())

	tests := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"empty email", "", "swordfish1", models.RoleUser},
		{"short password", "bob@example.com", "tiny", models.RoleUser},
		{"unknown role", "bob@example.com", "swordfish1", "superuser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.UpsertUser("admin@example.com", tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestListUsers_OrderedByStore(t *testing.T) {
	store := newMemCredentialStore()
	require.NoError(t, store.Upsert(NewTestUser("alice@example.com", "swordfish1", models.RoleAdmin)))
	require.NoError(t, store.Upsert(NewTestUser("bob@example.com", "swordfish1", models.RoleUser)))

	service := newUserService(store)
	users, err := service.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestEnsureAdminFromEnv_SeedsOnce(t *testing.T) {
	store := newMemCredentialStore()
	service := newUserService(store)

	require.NoError(t, service.EnsureAdminFromEnv("root@example.com", "bootstrap-pass"))

	stored, err := store.GetByEmail("root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	firstHash := stored.HashB64

	// A second run with a different password must not overwrite.
	require.NoError(t, service.EnsureAdminFromEnv("root@example.com", "other-pass"))
	stored, err = store.GetByEmail("root@example.com")
	require.NoError(t, err)
	assert.Equal(t, firstHash, stored.HashB64)
}

func TestEnsureAdminFromEnv_NoopWhenUnset(t *testing.T) {
	store := newMemCredentialStore()
	service := newUserService(store)

	require.NoError(t, service.EnsureAdminFromEnv("", ""))

	has, err := store.HasAny()
	require.NoError(t, err)
	assert.False(t, has)
}
