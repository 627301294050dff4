package services

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/models"
	pkgauth "github.com/mquintana/divscope/pkg/auth"
	pkglogger "github.com/mquintana/divscope/pkg/logger"
)

// CredentialStore defines the interface for credential record persistence
type CredentialStore interface {
	GetByEmail(email string) (*models.User, error)
	Upsert(user *models.User) error
	HasAny() (bool, error)
	List() ([]*models.User, error)
}

// AuthService handles login, session issuance, and the first-run setup flow
type AuthService struct {
	store       CredentialStore
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	failClosed  bool
}

func NewAuthService(store CredentialStore, tm *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, failClosed bool) *AuthService {
	return &AuthService{
		store:       store,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
		failClosed:  failClosed,
	}
}

// UserResponse represents a credential record in HTTP responses. The
// password material never leaves the store.
type UserResponse struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse is the successful login payload.
type AuthResponse struct {
	SessionToken string        `json:"session_token"`
	ExpiresIn    int           `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the same ErrUnauthorized so responses do not leak
// which emails exist.
func (s *AuthService) Login(email, password string) (*AuthResponse, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.store.GetByEmail(email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				Email:         email,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		if s.failClosed {
			s.logger.Error("failed to read credential store", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		// Degrade to "no such user" when the store is unreadable.
		s.logger.Warn("credential store unreadable, treating user as absent", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	if !pkgauth.VerifyPassword(password, &pkgauth.PasswordHash{
		Algorithm:  user.Algorithm,
		Iterations: user.Iterations,
		SaltB64:    user.SaltB64,
		HashB64:    user.HashB64,
	}) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Email:         email,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.GenerateSessionToken(user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Email:     email,
		Success:   true,
	})

	return &AuthResponse{
		SessionToken: token,
		ExpiresIn:    s.tm.SessionExpirySeconds(),
		User:         userModelToResponse(user),
	}, nil
}

// SetupAvailable reports whether the first-run setup flow is still open,
// which is the case only while the credential store is empty.
func (s *AuthService) SetupAvailable() (bool, error) {
	hasAny, err := s.store.HasAny()
	if err != nil {
		if s.failClosed {
			return false, models.ErrInternalServer
		}
		s.logger.Warn("credential store unreadable, treating as empty", slog.Any("error", err))
		return true, nil
	}
	return !hasAny, nil
}

// Setup creates the first admin account and logs them in. It fails with
// ErrSetupComplete once any credential record exists.
func (s *AuthService) Setup(email, password string) (*AuthResponse, error) {
	available, err := s.SetupAvailable()
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, models.ErrSetupComplete
	}

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, models.ErrBadRequest
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	user, err := newUser(email, password, models.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to hash setup password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.store.Upsert(user); err != nil {
		s.logger.Error("failed to persist admin account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAdminAction("setup_completed", email, nil)
	s.logger.Info("first-run setup completed", slog.String("email", pkglogger.SanitizedEmail(email)))

	return s.Login(email, password)
}

// GetUser returns the current credential record for an email.
func (s *AuthService) GetUser(email string) (*models.User, error) {
	return s.store.GetByEmail(email)
}

func newUser(email, password, role string) (*models.User, error) {
	ph, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email:      models.NormalizeEmail(email),
		Role:       role,
		CreatedAt:  time.Now().UTC(),
		Algorithm:  ph.Algorithm,
		Iterations: ph.Iterations,
		SaltB64:    ph.SaltB64,
		HashB64:    ph.HashB64,
	}, nil
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
