package service

import (
	"context"
	"io"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/repository"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, clientIP string) (*AccessToken, error)
	CurrentUser(ctx context.Context, email string) (*domain.User, error)
	ParseSubject(token string) (string, error)
}

type ActivationServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Resend(ctx context.Context, email string) error
	Activate(ctx context.Context, email, nonce string) (*ActivationResult, error)
}

type PasswordResetServiceInterface interface {
	Request(ctx context.Context, email string) error
	Reset(ctx context.Context, email, nonce, newPassword string) (*domain.User, error)
}

type LinkServiceInterface interface {
	Link(ctx context.Context, userID uint, code, grantedScopes string) (*domain.User, error)
}

type UserServiceInterface interface {
	List(ctx context.Context, page repository.PageRequest) (*repository.PageResult[domain.User], error)
	Get(ctx context.Context, requester *domain.User, id uint) (*domain.User, error)
	ReplacePhoto(ctx context.Context, user *domain.User, file io.Reader, size int64) (*domain.User, error)
	RemovePhoto(ctx context.Context, user *domain.User) (*domain.User, error)
	PhotoURL(ctx context.Context, user *domain.User) (string, error)
}

var (
	_ AuthServiceInterface          = (*AuthService)(nil)
	_ ActivationServiceInterface    = (*ActivationService)(nil)
	_ PasswordResetServiceInterface = (*PasswordResetService)(nil)
	_ LinkServiceInterface          = (*LinkService)(nil)
	_ UserServiceInterface          = (*UserService)(nil)
)
