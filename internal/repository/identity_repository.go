package repository

import (
	"context"
	"errors"

	"github.com/Elmeric/cycliti/internal/domain"

	"gorm.io/gorm"
)

type UserCreate struct {
	UID               string
	Email             string
	Username          string
	HashedPassword    string
	Name              string
	City              string
	Birthdate         string
	Gender            *domain.Gender
	PreferredLanguage string
	AccessType        int
	IsActive          bool
	IsSuperuser       bool
}

// IdentityRepository persists users and their side records. Every mutator
// runs in one transaction and returns the user re-read after commit.
type IdentityRepository interface {
	Repository[domain.User, UserCreate]

	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, page PageRequest) (*PageResult[domain.User], error)

	CreateWithActivation(ctx context.Context, in UserCreate, nonce string, issuedAt int64) (*domain.User, error)
	RotateActivation(ctx context.Context, userID uint, nonce string, issuedAt int64) (*domain.User, error)
	Activate(ctx context.Context, userID uint, nonce string) (*domain.User, error)
	PromoteSuperuser(ctx context.Context, userID uint) (*domain.User, error)

	UpsertPasswordReset(ctx context.Context, userID uint, nonce string, issuedAt int64, maxAttempts int) (*domain.User, error)
	ClearPasswordReset(ctx context.Context, userID uint) error
	ResetPassword(ctx context.Context, userID uint, nonce, hashedPassword string) (*domain.User, error)

	ReplaceThirdPartyLink(ctx context.Context, userID uint, link domain.ThirdPartyLink) (*domain.User, error)
	SetPhotoPath(ctx context.Context, userID uint, path string) (*domain.User, error)
	RecordFailedLogin(ctx context.Context, userID uint) error
	ResetFailedLogins(ctx context.Context, userID uint) error
}

var sidePreloads = []string{"Activation", "PasswordReset", "ThirdPartyLink"}

type GormIdentityRepository struct {
	*gormRepository[domain.User, UserCreate]
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &GormIdentityRepository{
		gormRepository: &gormRepository[domain.User, UserCreate]{
			db:       db,
			build:    newUser,
			id:       func(u *domain.User) uint { return u.ID },
			preloads: sidePreloads,
		},
		db: db,
	}
}

func newUser(in UserCreate) *domain.User {
	lang := in.PreferredLanguage
	if lang == "" {
		lang = domain.DefaultPreferredLanguage
	}
	accessType := in.AccessType
	if accessType == 0 {
		accessType = domain.DefaultAccessType
	}
	return &domain.User{
		UID:               in.UID,
		Email:             in.Email,
		Username:          in.Username,
		HashedPassword:    in.HashedPassword,
		Name:              in.Name,
		City:              in.City,
		Birthdate:         in.Birthdate,
		Gender:            in.Gender,
		PreferredLanguage: lang,
		AccessType:        accessType,
		IsActive:          in.IsActive,
		IsSuperuser:       in.IsSuperuser,
	}
}

func (r *GormIdentityRepository) preloaded(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range sidePreloads {
		q = q.Preload(p)
	}
	return q
}

func (r *GormIdentityRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.preloaded(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, storageError("get by email", err)
	}
	return &u, nil
}

func (r *GormIdentityRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.preloaded(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, storageError("get by username", err)
	}
	return &u, nil
}

func (r *GormIdentityRepository) List(ctx context.Context, page PageRequest) (*PageResult[domain.User], error) {
	page = normalizePageRequest(page)
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, storageError("count users", err)
	}
	users := make([]domain.User, 0, page.Limit)
	if err := r.db.WithContext(ctx).Order("id ASC").Offset(page.Skip).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, storageError("list users", err)
	}
	return &PageResult[domain.User]{Items: users, Skip: page.Skip, Limit: page.Limit, Total: total}, nil
}

func (r *GormIdentityRepository) CreateWithActivation(ctx context.Context, in UserCreate, nonce string, issuedAt int64) (*domain.User, error) {
	u := newUser(in)
	u.IsActive = false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Activation", "PasswordReset", "ThirdPartyLink").Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&domain.Activation{UserID: u.ID, Nonce: nonce, IssuedAt: issuedAt}).Error
	})
	if err != nil {
		return nil, storageError("create user with activation", err)
	}
	return r.Get(ctx, u.ID)
}

func (r *GormIdentityRepository) RotateActivation(ctx context.Context, userID uint, nonce string, issuedAt int64) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Activation{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"nonce": nonce, "issued_at": issuedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSideRecordGone
		}
		return nil
	})
	if err != nil {
		return nil, storageError("rotate activation", err)
	}
	return r.Get(ctx, userID)
}

// Activate consumes the activation row matching nonce and flags the user
// active. A concurrent consumer or rotation yields ErrSideRecordGone.
func (r *GormIdentityRepository) Activate(ctx context.Context, userID uint, nonce string) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND nonce = ?", userID, nonce).Delete(&domain.Activation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSideRecordGone
		}
		return tx.Model(&domain.User{}).Where("id = ?", userID).Update("is_active", true).Error
	})
	if err != nil {
		return nil, storageError("activate", err)
	}
	return r.Get(ctx, userID)
}

// PromoteSuperuser flags the user active and superuser and drops any
// pending activation row in the same transaction.
func (r *GormIdentityRepository) PromoteSuperuser(ctx context.Context, userID uint) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", userID).
			Updates(map[string]any{"is_active": true, "is_superuser": true})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Where("user_id = ?", userID).Delete(&domain.Activation{}).Error
	})
	if err != nil {
		return nil, storageError("promote superuser", err)
	}
	return r.Get(ctx, userID)
}

// UpsertPasswordReset creates the reset row with one attempt, or bumps
// attempts and rotates the nonce while attempts stay below maxAttempts.
// The bump is a single conditional UPDATE, so concurrent requests cannot
// push attempts past maxAttempts.
func (r *GormIdentityRepository) UpsertPasswordReset(ctx context.Context, userID uint, nonce string, issuedAt int64, maxAttempts int) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.PasswordReset{}).
			Where("user_id = ? AND attempts < ?", userID, maxAttempts).
			Updates(map[string]any{
				"nonce":     nonce,
				"issued_at": issuedAt,
				"attempts":  gorm.Expr("attempts + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		var existing int64
		if err := tx.Model(&domain.PasswordReset{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAttemptsExhausted
		}
		return tx.Create(&domain.PasswordReset{UserID: userID, Nonce: nonce, IssuedAt: issuedAt, Attempts: 1}).Error
	})
	if err != nil {
		return nil, storageError("upsert password reset", err)
	}
	return r.Get(ctx, userID)
}

func (r *GormIdentityRepository) ClearPasswordReset(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("user_id = ?", userID).Delete(&domain.PasswordReset{}).Error
	})
	return storageError("clear password reset", err)
}

// ResetPassword consumes the reset row matching nonce and stores the new
// hash in the same transaction.
func (r *GormIdentityRepository) ResetPassword(ctx context.Context, userID uint, nonce, hashedPassword string) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND nonce = ?", userID, nonce).Delete(&domain.PasswordReset{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSideRecordGone
		}
		return tx.Model(&domain.User{}).Where("id = ?", userID).Update("hashed_password", hashedPassword).Error
	})
	if err != nil {
		return nil, storageError("reset password", err)
	}
	return r.Get(ctx, userID)
}

func (r *GormIdentityRepository) ReplaceThirdPartyLink(ctx context.Context, userID uint, link domain.ThirdPartyLink) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.ThirdPartyLink{}).Error; err != nil {
			return err
		}
		link.ID = 0
		link.UserID = userID
		return tx.Create(&link).Error
	})
	if err != nil {
		return nil, storageError("replace third party link", err)
	}
	return r.Get(ctx, userID)
}

func (r *GormIdentityRepository) SetPhotoPath(ctx context.Context, userID uint, path string) (*domain.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", userID).Update("photo_path", path)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, storageError("set photo path", err)
	}
	return r.Get(ctx, userID)
}

func (r *GormIdentityRepository) RecordFailedLogin(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		UpdateColumn("failed_logins", gorm.Expr("failed_logins + 1")).Error
	return storageError("record failed login", err)
}

func (r *GormIdentityRepository) ResetFailedLogins(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND failed_logins <> 0", userID).
		UpdateColumn("failed_logins", 0).Error
	return storageError("reset failed logins", err)
}

// IsNotFound reports whether err means the user row is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
