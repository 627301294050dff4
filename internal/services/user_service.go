package services

import (
	"errors"
	"log/slog"

	"github.com/mquintana/divscope/internal/models"
	pkgauth "github.com/mquintana/divscope/pkg/auth"
	pkglogger "github.com/mquintana/divscope/pkg/logger"
)

// UserService handles admin-side account management
type UserService struct {
	store       CredentialStore
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewUserService(store CredentialStore, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		store:       store,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UpsertUser creates or overwrites a credential record. An existing record
// for the email is replaced wholesale, password included. The actor is the
// admin performing the operation, recorded in the audit log.
func (s *UserService) UpsertUser(actorEmail, email, password, role string) (*UserResponse, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, models.ErrBadRequest
	}
	if !models.ValidRole(role) {
		return nil, models.ErrBadRequest
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	existed := true
	if _, err := s.store.GetByEmail(email); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to read credential store", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		existed = false
	}

	user, err := newUser(email, password, role)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.store.Upsert(user); err != nil {
		s.logger.Error("failed to persist credential record", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	eventType := "user_created"
	if existed {
		eventType = "user_replaced"
	}
	s.auditLogger.LogAdminAction(eventType, actorEmail, map[string]string{
		"subject": pkglogger.SanitizedEmail(email),
		"role":    role,
	})

	return userModelToResponse(user), nil
}

// ListUsers returns every credential record, ordered by email.
func (s *UserService) ListUsers() ([]*UserResponse, error) {
	users, err := s.store.List()
	if err != nil {
		s.logger.Error("failed to list credential records", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userModelToResponse(u))
	}
	return out, nil
}

// EnsureAdminFromEnv seeds an admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when the store does not already hold that email. It is an
// alternative to the interactive setup flow for scripted deployments; both
// are no-ops when unset.
func (s *UserService) EnsureAdminFromEnv(adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	email := models.NormalizeEmail(adminEmail)
	if _, err := s.store.GetByEmail(email); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return err
	}

	user, err := newUser(email, adminPassword, models.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.store.Upsert(user); err != nil {
		return err
	}

	s.logger.Info("seeded admin account from environment",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}
