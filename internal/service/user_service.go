package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
)

const userListNamespace = "users.list"

type UserService struct {
	repo     repository.IdentityRepository
	photos   PhotoStorage
	cache    ListCacheStore
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewUserService(repo repository.IdentityRepository, photos PhotoStorage, cache ListCacheStore, cacheTTL time.Duration, logger *slog.Logger) *UserService {
	if photos == nil {
		photos = DisabledPhotoStorage{}
	}
	if cache == nil {
		cache = NewNoopListCacheStore()
	}
	return &UserService{repo: repo, photos: photos, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List pages through all users. Pages are served from the list cache for
// cacheTTL and dropped whenever a photo changes.
func (s *UserService) List(ctx context.Context, page repository.PageRequest) (*repository.PageResult[domain.User], error) {
	key := fmt.Sprintf("skip=%d:limit=%d", page.Skip, page.Limit)
	if raw, ok, err := s.cache.Get(ctx, userListNamespace, key); err != nil {
		s.logger.WarnContext(ctx, "user list cache read failed", "error", err)
	} else if ok {
		var cached repository.PageResult[domain.User]
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.RecordUserListCache(ctx, "hit")
			return &cached, nil
		}
	}
	observability.RecordUserListCache(ctx, "miss")

	result, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, storageFailure("list users", err)
	}
	if raw, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, userListNamespace, key, raw, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "user list cache write failed", "error", err)
		}
	}
	return result, nil
}

// Get returns the user with id. Only the user itself or a superuser may
// read it.
func (s *UserService) Get(ctx context.Context, requester *domain.User, id uint) (*domain.User, error) {
	if requester == nil {
		return nil, ErrForbidden
	}
	if requester.ID != id && !requester.IsSuperuser {
		return nil, ErrForbidden
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("get user", err)
	}
	return user, nil
}

// ReplacePhoto uploads a new photo, points photo_path at it and then drops
// the previous object. A failed cleanup is only logged.
func (s *UserService) ReplacePhoto(ctx context.Context, user *domain.User, file io.Reader, size int64) (*domain.User, error) {
	key, err := s.photos.Upload(ctx, user.UID, file, size)
	if err != nil {
		observability.RecordProfilePhotoEvent(ctx, "upload", photoOutcome(err))
		return nil, err
	}
	previous := user.PhotoPath
	updated, err := s.repo.SetPhotoPath(ctx, user.ID, key)
	if err != nil {
		observability.RecordProfilePhotoEvent(ctx, "upload", "error")
		if delErr := s.photos.Delete(ctx, user.UID, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphan photo cleanup failed", "user_id", user.ID, "error", delErr)
		}
		return nil, storageFailure("set photo path", err)
	}
	if previous != "" && previous != key {
		if err := s.photos.Delete(ctx, user.UID, previous); err != nil {
			s.logger.WarnContext(ctx, "previous photo cleanup failed", "user_id", user.ID, "error", err)
		}
	}
	s.invalidateList(ctx)
	observability.RecordProfilePhotoEvent(ctx, "upload", "success")
	return updated, nil
}

func (s *UserService) RemovePhoto(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.PhotoPath == "" {
		return user, nil
	}
	if err := s.photos.Delete(ctx, user.UID, user.PhotoPath); err != nil {
		observability.RecordProfilePhotoEvent(ctx, "delete", photoOutcome(err))
		return nil, err
	}
	updated, err := s.repo.SetPhotoPath(ctx, user.ID, "")
	if err != nil {
		observability.RecordProfilePhotoEvent(ctx, "delete", "error")
		return nil, storageFailure("clear photo path", err)
	}
	s.invalidateList(ctx)
	observability.RecordProfilePhotoEvent(ctx, "delete", "success")
	return updated, nil
}

func (s *UserService) PhotoURL(ctx context.Context, user *domain.User) (string, error) {
	if user.PhotoPath == "" {
		return "", nil
	}
	return s.photos.URL(ctx, user.PhotoPath)
}

func (s *UserService) invalidateList(ctx context.Context) {
	if err := s.cache.InvalidateNamespace(ctx, userListNamespace); err != nil {
		s.logger.WarnContext(ctx, "user list cache invalidation failed", "error", err)
	}
}

func photoOutcome(err error) string {
	switch {
	case errors.Is(err, ErrPhotoTooBig), errors.Is(err, ErrPhotoType):
		return "rejected"
	case errors.Is(err, ErrPhotoStorageOff):
		return "disabled"
	default:
		return "error"
	}
}
