package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/repository"
	repogomock "github.com/Elmeric/cycliti/internal/repository/gomock"
	"github.com/Elmeric/cycliti/internal/security"
	"go.uber.org/mock/gomock"
)

type tNop struct{}

func (tNop) Errorf(string, ...any) {}
func (tNop) Fatalf(string, ...any) {}
func (tNop) Helper()               {}

var testHasherParams = security.PasswordParams{Time: 1, MemoryKiB: 64, Threads: 1}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// identityState is an in-memory IdentityRepository backing the gomock
// repository through DoAndReturn.
type identityState struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User

	getErr error
}

func newIdentityState() *identityState {
	return &identityState{nextID: 1, users: map[uint]*domain.User{}}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Activation != nil {
		a := *u.Activation
		c.Activation = &a
	}
	if u.PasswordReset != nil {
		r := *u.PasswordReset
		c.PasswordReset = &r
	}
	if u.ThirdPartyLink != nil {
		l := *u.ThirdPartyLink
		c.ThirdPartyLink = &l
	}
	return &c
}

func (s *identityState) Get(_ context.Context, id uint) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *identityState) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *identityState) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email == email })
}

func (s *identityState) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Username == username })
}

func (s *identityState) List(_ context.Context, page repository.PageRequest) (*repository.PageResult[domain.User], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	items := []domain.User{}
	for i, id := range ids {
		if i < page.Skip || (page.Limit > 0 && len(items) >= page.Limit) {
			continue
		}
		items = append(items, *cloneUser(s.users[uint(id)]))
	}
	return &repository.PageResult[domain.User]{Items: items, Skip: page.Skip, Limit: page.Limit, Total: int64(len(ids))}, nil
}

func (s *identityState) insert(in repository.UserCreate) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == in.Email || u.Username == in.Username {
			return nil, fmt.Errorf("%w: %w", repository.ErrStorage, repository.ErrDuplicate)
		}
	}
	u := &domain.User{
		ID:                s.nextID,
		UID:               in.UID,
		Email:             in.Email,
		Username:          in.Username,
		HashedPassword:    in.HashedPassword,
		Name:              in.Name,
		City:              in.City,
		Birthdate:         in.Birthdate,
		Gender:            in.Gender,
		PreferredLanguage: in.PreferredLanguage,
		IsActive:          in.IsActive,
		IsSuperuser:       in.IsSuperuser,
	}
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *identityState) Create(_ context.Context, in repository.UserCreate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.insert(in)
	if err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (s *identityState) Update(_ context.Context, entity *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[entity.ID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	updated := cloneUser(entity)
	updated.Activation, updated.PasswordReset, updated.ThirdPartyLink = u.Activation, u.PasswordReset, u.ThirdPartyLink
	s.users[entity.ID] = updated
	return cloneUser(updated), nil
}

func (s *identityState) CreateWithActivation(_ context.Context, in repository.UserCreate, nonce string, issuedAt int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.IsActive = false
	u, err := s.insert(in)
	if err != nil {
		return nil, err
	}
	u.Activation = &domain.Activation{UserID: u.ID, Nonce: nonce, IssuedAt: issuedAt}
	return cloneUser(u), nil
}

func (s *identityState) mutate(userID uint, fn func(u *domain.User) error) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (s *identityState) RotateActivation(_ context.Context, userID uint, nonce string, issuedAt int64) (*domain.User, error) {
	return s.mutate(userID, func(u *domain.User) error {
		if u.Activation == nil {
			return repository.ErrSideRecordGone
		}
		u.Activation.Nonce, u.Activation.IssuedAt = nonce, issuedAt
		return nil
	})
}

func (s *identityState) Activate(_ context.Context, userID uint, nonce string) (*domain.User, error) {
	return s.mutate(userID, func(u *domain.User) error {
		if u.Activation == nil || u.Activation.Nonce != nonce {
			return repository.ErrSideRecordGone
		}
		u.Activation = nil
		u.IsActive = true
		return nil
	})
}

func (s *identityState) UpsertPasswordReset(_ context.Context, userID uint, nonce string, issuedAt int64, maxAttempts int) (*domain.User, error) {
	return s.mutate(userID, func(u *domain.User) error {
		if u.PasswordReset == nil {
			u.PasswordReset = &domain.PasswordReset{UserID: userID, Nonce: nonce, IssuedAt: issuedAt, Attempts: 1}
			return nil
		}
		if u.PasswordReset.Attempts >= maxAttempts {
			return repository.ErrAttemptsExhausted
		}
		u.PasswordReset.Nonce, u.PasswordReset.IssuedAt = nonce, issuedAt
		u.PasswordReset.Attempts++
		return nil
	})
}

func (s *identityState) ClearPasswordReset(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.PasswordReset = nil
	}
	return nil
}

func (s *identityState) ResetPassword(_ context.Context, userID uint, nonce, hashedPassword string) (*domain.User, error) {
	return s.mutate(userID, func(u *domain.User) error {
		if u.PasswordReset == nil || u.PasswordReset.Nonce != nonce {
			return repository.ErrSideRecordGone
		}
		u.PasswordReset = nil
		u.HashedPassword = hashedPassword
		return nil
	})
}

func (s *identityState) ReplaceThirdPartyLink(_ context.Context, userID uint, link domain.ThirdPartyLink) (*domain.User, error) {
	return s.mutate(userID, func(u *domain.User) error {
		link.UserID = userID
		u.ThirdPartyLink = &link
		return nil
	})
}

func (s *identityState) SetPhotoPath(_ context.Context, userID uint, path string) (*domain.User, error) {
	return s.mutate(userID, func(u *domain.User) error {
		u.PhotoPath = path
		return nil
	})
}

func (s *identityState) RecordFailedLogin(_ context.Context, userID uint) error {
	_, err := s.mutate(userID, func(u *domain.User) error {
		u.FailedLogins++
		return nil
	})
	return err
}

func (s *identityState) ResetFailedLogins(_ context.Context, userID uint) error {
	_, err := s.mutate(userID, func(u *domain.User) error {
		u.FailedLogins = 0
		return nil
	})
	return err
}

func (s *identityState) user(id uint) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func newIdentityRepoMock(ctrl *gomock.Controller, state *identityState) *repogomock.MockIdentityRepository {
	m := repogomock.NewMockIdentityRepository(ctrl)
	m.EXPECT().Get(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Get)
	m.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.GetByEmail)
	m.EXPECT().GetByUsername(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.GetByUsername)
	m.EXPECT().List(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.List)
	m.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Create)
	m.EXPECT().Update(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Update)
	m.EXPECT().CreateWithActivation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.CreateWithActivation)
	m.EXPECT().RotateActivation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.RotateActivation)
	m.EXPECT().Activate(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Activate)
	m.EXPECT().UpsertPasswordReset(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.UpsertPasswordReset)
	m.EXPECT().ClearPasswordReset(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.ClearPasswordReset)
	m.EXPECT().ResetPassword(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.ResetPassword)
	m.EXPECT().ReplaceThirdPartyLink(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.ReplaceThirdPartyLink)
	m.EXPECT().SetPhotoPath(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.SetPhotoPath)
	m.EXPECT().RecordFailedLogin(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.RecordFailedLogin)
	m.EXPECT().ResetFailedLogins(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.ResetFailedLogins)
	return m
}

// notificationState records what the flows tried to email.
type notificationState struct {
	mu          sync.Mutex
	activations []ActivationNotification
	resets      []PasswordResetNotification
	err         error
}

func (s *notificationState) SendActivation(_ context.Context, n ActivationNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activations = append(s.activations, n)
	return s.err
}

func (s *notificationState) SendPasswordReset(_ context.Context, n PasswordResetNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, n)
	return s.err
}

func (s *notificationState) lastActivation() (ActivationNotification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.activations) == 0 {
		return ActivationNotification{}, 0
	}
	return s.activations[len(s.activations)-1], len(s.activations)
}

func (s *notificationState) lastReset() (PasswordResetNotification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resets) == 0 {
		return PasswordResetNotification{}, 0
	}
	return s.resets[len(s.resets)-1], len(s.resets)
}

type flowFixture struct {
	cfg         *config.Config
	state       *identityState
	notes       *notificationState
	hasher      *security.PasswordHasher
	dispatch    *Dispatcher
	throttle    *MemoryCredentialThrottle
	clock       time.Time
	auth        *AuthService
	activations *ActivationService
	resets      *PasswordResetService
}

func newFlowFixture() *flowFixture {
	cfg := &config.Config{
		AccessTokenTTL:           11520 * time.Minute,
		ActivationWindowHours:    1,
		PasswordResetWindowHours: 1,
		PasswordRecoveryMaxTries: 3,
	}
	state := newIdentityState()
	notes := &notificationState{}
	ctrl := gomock.NewController(tNop{})
	repo := newIdentityRepoMock(ctrl, state)

	notifierMock := NewMockActivationNotifier(ctrl)
	notifierMock.EXPECT().SendActivation(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(notes.SendActivation)
	resetNotifierMock := NewMockPasswordResetNotifier(ctrl)
	resetNotifierMock.EXPECT().SendPasswordReset(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(notes.SendPasswordReset)

	logger := discardLogger()
	hasher := security.NewPasswordHasher(testHasherParams)
	dispatch := NewDispatcher(logger, time.Second)
	throttle := NewMemoryCredentialThrottle(ThrottlePolicy{FreeAttempts: 3, BaseDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute, ResetWindow: time.Hour})

	fx := &flowFixture{
		cfg:      cfg,
		state:    state,
		notes:    notes,
		hasher:   hasher,
		dispatch: dispatch,
		throttle: throttle,
		clock:    time.Unix(1_700_000_000, 0),
	}
	now := func() time.Time { return fx.clock }
	throttle.now = now

	fx.activations = NewActivationService(cfg, repo, hasher, notifierMock, dispatch, logger)
	fx.activations.now = now
	fx.resets = NewPasswordResetService(cfg, repo, hasher, resetNotifierMock, dispatch, logger)
	fx.resets.now = now
	jwtManager := security.NewJWTManager("abcdefghijklmnopqrstuvwxyz123456")
	fx.auth = NewAuthService(cfg, repo, hasher, jwtManager, fx.resets, throttle, logger)
	return fx
}

func (fx *flowFixture) advance(d time.Duration) {
	fx.clock = fx.clock.Add(d)
}

// seedActiveUser stores an active user with password.
func (fx *flowFixture) seedActiveUser(email, username, password string) *domain.User {
	hashed, err := fx.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	u, err := fx.state.Create(context.Background(), repository.UserCreate{
		UID:            "uid-" + username,
		Email:          email,
		Username:       username,
		HashedPassword: hashed,
		IsActive:       true,
	})
	if err != nil {
		panic(err)
	}
	return u
}
