package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mquintana/divscope/internal/models"
)

// UserStore persists credential records as a single JSON document mapping
// normalized email to record. The document is read and written wholesale,
// which is fine at the user counts this dashboard serves. Writes go through
// a temp file and rename so a crash never leaves a half-written document.
type UserStore struct {
	path string
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// EnsureFile creates the data directory and an empty users document if
// missing, so the first-run bootstrap flow has something to read.
func (s *UserStore) EnsureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := os.WriteFile(s.path, []byte("{}"), 0o600); err != nil {
			return fmt.Errorf("failed to create users file: %w", err)
		}
	}
	return nil
}

// load reads the whole document. A missing file yields an empty map; a
// malformed document is treated as absence of data, matching the read
// side of the degrade-to-default policy.
func (s *UserStore) load() (map[string]*models.User, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.User{}, nil
		}
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	if len(raw) == 0 {
		return map[string]*models.User{}, nil
	}

	var users map[string]*models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return map[string]*models.User{}, nil
	}

	normalized := make(map[string]*models.User, len(users))
	for email, u := range users {
		if u == nil {
			continue
		}
		key := models.NormalizeEmail(email)
		u.Email = key
		normalized[key] = u
	}
	return normalized, nil
}

func (s *UserStore) save(users map[string]*models.User) error {
	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace users file: %w", err)
	}
	return nil
}

// GetByEmail returns the record for a normalized email, or ErrNotFound.
func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	users, err := s.load()
	if err != nil {
		return nil, err
	}

	u, ok := users[models.NormalizeEmail(email)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

// Upsert writes or overwrites the record keyed by its normalized email
// and persists immediately. Overwrite is not an error.
func (s *UserStore) Upsert(user *models.User) error {
	users, err := s.load()
	if err != nil {
		return err
	}

	key := models.NormalizeEmail(user.Email)
	user.Email = key
	users[key] = user

	return s.save(users)
}

// HasAny reports whether at least one credential record exists. It is the
// gate for the first-run admin bootstrap flow.
func (s *UserStore) HasAny() (bool, error) {
	users, err := s.load()
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

// List returns all records ordered by email.
func (s *UserStore) List() ([]*models.User, error) {
	users, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
