package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the generic data access contract: T is the stored entity,
// C the payload it is created from.
type Repository[T any, C any] interface {
	Create(ctx context.Context, in C) (*T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
}

type gormRepository[T any, C any] struct {
	db       *gorm.DB
	build    func(C) *T
	id       func(*T) uint
	preloads []string
}

func (r *gormRepository[T, C]) Create(ctx context.Context, in C) (*T, error) {
	entity := r.build(in)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, storageError("create", err)
	}
	return r.Get(ctx, r.id(entity))
}

func (r *gormRepository[T, C]) Get(ctx context.Context, id uint) (*T, error) {
	var entity T
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	if err := q.First(&entity, id).Error; err != nil {
		return nil, storageError("get", err)
	}
	return &entity, nil
}

// Update saves entity columns only; side records change through the
// dedicated mutators.
func (r *gormRepository[T, C]) Update(ctx context.Context, entity *T) (*T, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error; err != nil {
		return nil, storageError("update", err)
	}
	return r.Get(ctx, r.id(entity))
}
