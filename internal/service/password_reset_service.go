package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/security"
)

// PasswordResetService is the attempt-limited stored-nonce reset flow.
// Each request rotates the nonce; after MaxAttempts requests the account
// refuses further resets until a successful reset or login clears the row.
type PasswordResetService struct {
	cfg      *config.Config
	repo     repository.IdentityRepository
	hasher   PasswordHasher
	notifier PasswordResetNotifier
	dispatch *Dispatcher
	logger   *slog.Logger
	now      func() time.Time
}

func NewPasswordResetService(
	cfg *config.Config,
	repo repository.IdentityRepository,
	hasher PasswordHasher,
	notifier PasswordResetNotifier,
	dispatch *Dispatcher,
	logger *slog.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		cfg:      cfg,
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		dispatch: dispatch,
		logger:   logger,
		now:      time.Now,
	}
}

// Request issues a reset nonce. Unknown emails are a silent success;
// an exhausted row yields ErrTooManyAttempts without a new nonce or email.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			observability.RecordAccountFlowEvent(ctx, "reset_request", "ignored")
			return nil
		}
		return storageFailure("password recovery", err)
	}

	nonce, err := security.GenerateNonce()
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	user, err = s.repo.UpsertPasswordReset(ctx, user.ID, nonce, s.now().Unix(), s.cfg.PasswordRecoveryMaxTries)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptsExhausted) {
			observability.RecordAccountFlowEvent(ctx, "reset_request", "exhausted")
			return ErrTooManyAttempts
		}
		return storageFailure("password recovery", err)
	}

	n := PasswordResetNotification{
		UserID:     user.ID,
		Email:      user.Email,
		Username:   user.Username,
		Nonce:      nonce,
		ValidHours: s.cfg.PasswordResetWindowHours,
	}
	s.dispatch.Go(ctx, "password_reset", func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, n)
	})
	observability.RecordAccountFlowEvent(ctx, "reset_request", "success")
	return nil
}

// Reset sets a new password when nonce matches the pending reset row of an
// active user within the reset window.
func (s *PasswordResetService) Reset(ctx context.Context, email, nonce, newPassword string) (*domain.User, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			observability.RecordAccountFlowEvent(ctx, "reset_confirm", "rejected")
			return nil, ErrInvalidRequest
		}
		return nil, storageFailure("reset password", err)
	}
	if !user.IsActive || !user.ResetPending() {
		observability.RecordAccountFlowEvent(ctx, "reset_confirm", "rejected")
		return nil, ErrInvalidRequest
	}
	row := user.PasswordReset
	if !security.VerifyNonce(nonce, row.Nonce, row.IssuedAt, s.cfg.PasswordResetWindowHours, s.now().Unix()) {
		observability.RecordAccountFlowEvent(ctx, "reset_confirm", "rejected")
		return nil, ErrInvalidRequest
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	user, err = s.repo.ResetPassword(ctx, user.ID, row.Nonce, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrSideRecordGone) {
			observability.RecordAccountFlowEvent(ctx, "reset_confirm", "rejected")
			return nil, ErrInvalidRequest
		}
		return nil, storageFailure("reset password", err)
	}
	observability.RecordAccountFlowEvent(ctx, "reset_confirm", "success")
	return user, nil
}

// Clear drops any pending reset of userID. Idempotent.
func (s *PasswordResetService) Clear(ctx context.Context, userID uint) error {
	if err := s.repo.ClearPasswordReset(ctx, userID); err != nil {
		return storageFailure("clear password reset", err)
	}
	return nil
}
