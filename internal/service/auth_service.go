package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/security"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) bool
}

type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

type AuthService struct {
	cfg      *config.Config
	repo     repository.IdentityRepository
	hasher   PasswordHasher
	jwt      *security.JWTManager
	resets   *PasswordResetService
	throttle CredentialThrottle
	logger   *slog.Logger
}

func NewAuthService(
	cfg *config.Config,
	repo repository.IdentityRepository,
	hasher PasswordHasher,
	jwt *security.JWTManager,
	resets *PasswordResetService,
	throttle CredentialThrottle,
	logger *slog.Logger,
) *AuthService {
	if throttle == nil {
		throttle = NoopCredentialThrottle{}
	}
	return &AuthService{cfg: cfg, repo: repo, hasher: hasher, jwt: jwt, resets: resets, throttle: throttle, logger: logger}
}

// Authenticate returns the user owning email when password matches, and
// (nil, nil) when the user is absent or the password is wrong. Only
// storage failures are returned as errors.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, storageFailure("authenticate", err)
	}
	if !s.hasher.Verify(user.HashedPassword, password) {
		if err := s.repo.RecordFailedLogin(ctx, user.ID); err != nil {
			return nil, storageFailure("record failed login", err)
		}
		return nil, nil
	}
	return user, nil
}

// Login authenticates an active user and issues a session token. Unknown
// users, wrong passwords and inactive accounts all yield
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*AccessToken, error) {
	email = normalizeEmail(email)
	delay, err := s.throttle.Cooldown(ctx, ThrottleScopeLogin, email, clientIP)
	if err != nil {
		s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
	} else if delay > 0 {
		observability.RecordCredentialThrottle(ctx, string(ThrottleScopeLogin), "blocked")
		observability.RecordAuthLogin(ctx, "throttled")
		return nil, &ThrottledError{RetryAfter: delay}
	}

	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	if user == nil || !user.IsActive {
		if _, ferr := s.throttle.Fail(ctx, ThrottleScopeLogin, email, clientIP); ferr != nil {
			s.logger.WarnContext(ctx, "login throttle update failed", "error", ferr)
		}
		observability.RecordAuthLogin(ctx, "failed")
		return nil, ErrInvalidCredentials
	}

	if err := s.throttle.Clear(ctx, ThrottleScopeLogin, email, clientIP); err != nil {
		s.logger.WarnContext(ctx, "login throttle reset failed", "error", err)
	}
	if s.resets != nil {
		if err := s.resets.Clear(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	if user.FailedLogins != 0 {
		if err := s.repo.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, storageFailure("reset failed logins", err)
		}
	}

	token, err := s.IssueSessionToken(user)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return token, nil
}

func (s *AuthService) IssueSessionToken(user *domain.User) (*AccessToken, error) {
	signed, expiresAt, err := s.jwt.SignAccessToken(user.Email, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &AccessToken{AccessToken: signed, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

// CurrentUser resolves a bearer subject to an active user.
func (s *AuthService) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("current user", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// ParseSubject validates a bearer token and returns its subject.
func (s *AuthService) ParseSubject(token string) (string, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
