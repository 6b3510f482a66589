package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/security"

	"github.com/google/uuid"
)

type RegisterInput struct {
	Email             string
	Username          string
	Password          string
	Name              string
	City              string
	Birthdate         string
	Gender            *domain.Gender
	PreferredLanguage string
}

type ActivationResult struct {
	User          *domain.User
	AlreadyActive bool
}

// ActivationService drives none -> pending -> active. Nonces are
// persisted before the email is dispatched.
type ActivationService struct {
	cfg      *config.Config
	repo     repository.IdentityRepository
	hasher   PasswordHasher
	notifier ActivationNotifier
	dispatch *Dispatcher
	logger   *slog.Logger
	now      func() time.Time
}

func NewActivationService(
	cfg *config.Config,
	repo repository.IdentityRepository,
	hasher PasswordHasher,
	notifier ActivationNotifier,
	dispatch *Dispatcher,
	logger *slog.Logger,
) *ActivationService {
	return &ActivationService{
		cfg:      cfg,
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		dispatch: dispatch,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ActivationService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	for _, check := range []error{validateEmail(in.Email), validateUsername(in.Username), validatePassword(in.Password), validateProfile(in)} {
		if check != nil {
			observability.RecordAccountFlowEvent(ctx, "register", "invalid")
			return nil, check
		}
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		observability.RecordAccountFlowEvent(ctx, "register", "duplicate")
		return nil, ErrDuplicateEmail
	} else if !repository.IsNotFound(err) {
		return nil, storageFailure("register", err)
	}
	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		observability.RecordAccountFlowEvent(ctx, "register", "duplicate")
		return nil, ErrDuplicateUsername
	} else if !repository.IsNotFound(err) {
		return nil, storageFailure("register", err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	nonce, err := security.GenerateNonce()
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}

	user, err := s.repo.CreateWithActivation(ctx, repository.UserCreate{
		UID:               newUID(),
		Email:             in.Email,
		Username:          in.Username,
		HashedPassword:    hashed,
		Name:              in.Name,
		City:              in.City,
		Birthdate:         in.Birthdate,
		Gender:            in.Gender,
		PreferredLanguage: in.PreferredLanguage,
	}, nonce, s.now().Unix())
	if err != nil {
		observability.RecordAccountFlowEvent(ctx, "register", "error")
		return nil, storageFailure("register", err)
	}

	s.sendActivation(ctx, user, nonce)
	observability.RecordAccountFlowEvent(ctx, "register", "success")
	return user, nil
}

// Resend rotates the activation nonce of a pending account and emails it
// again. It reports success for unknown, active or non-pending accounts.
func (s *ActivationService) Resend(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			observability.RecordAccountFlowEvent(ctx, "resend", "ignored")
			return nil
		}
		return storageFailure("resend activation", err)
	}
	if !user.PendingActivation() {
		observability.RecordAccountFlowEvent(ctx, "resend", "ignored")
		return nil
	}

	nonce, err := security.GenerateNonce()
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	user, err = s.repo.RotateActivation(ctx, user.ID, nonce, s.now().Unix())
	if err != nil {
		if errors.Is(err, repository.ErrSideRecordGone) {
			observability.RecordAccountFlowEvent(ctx, "resend", "ignored")
			return nil
		}
		return storageFailure("resend activation", err)
	}
	s.sendActivation(ctx, user, nonce)
	observability.RecordAccountFlowEvent(ctx, "resend", "success")
	return nil
}

func (s *ActivationService) Activate(ctx context.Context, email, nonce string) (*ActivationResult, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			observability.RecordAccountFlowEvent(ctx, "activate", "rejected")
			return nil, ErrInvalidOrExpired
		}
		return nil, storageFailure("activate", err)
	}
	if user.IsActive {
		observability.RecordAccountFlowEvent(ctx, "activate", "already_active")
		return &ActivationResult{User: user, AlreadyActive: true}, nil
	}
	if user.Activation == nil || !security.VerifyNonce(nonce, user.Activation.Nonce, user.Activation.IssuedAt, s.cfg.ActivationWindowHours, s.now().Unix()) {
		observability.RecordAccountFlowEvent(ctx, "activate", "rejected")
		return nil, ErrInvalidOrExpired
	}

	user, err = s.repo.Activate(ctx, user.ID, user.Activation.Nonce)
	if err != nil {
		if errors.Is(err, repository.ErrSideRecordGone) {
			observability.RecordAccountFlowEvent(ctx, "activate", "rejected")
			return nil, ErrInvalidOrExpired
		}
		return nil, storageFailure("activate", err)
	}
	observability.RecordAccountFlowEvent(ctx, "activate", "success")
	return &ActivationResult{User: user}, nil
}

func (s *ActivationService) sendActivation(ctx context.Context, user *domain.User, nonce string) {
	n := ActivationNotification{
		UserID:     user.ID,
		Email:      user.Email,
		Username:   user.Username,
		Nonce:      nonce,
		ValidHours: s.cfg.ActivationWindowHours,
	}
	s.dispatch.Go(ctx, "activation", func(ctx context.Context) error {
		return s.notifier.SendActivation(ctx, n)
	})
}

func newUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
