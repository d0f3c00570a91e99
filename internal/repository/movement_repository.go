package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"socioai/internal/model"
)

// MovementRepository persists incomes or expenses.
type MovementRepository[T model.Income | model.Expense] interface {
	Create(ctx context.Context, m *T) error
	Update(ctx context.Context, m *T) error
	Delete(ctx context.Context, id uint) error
	DeleteByCategory(ctx context.Context, categoryID uint) error
	FindByID(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context) ([]T, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]T, error)
}

type movementRepository[T model.Income | model.Expense] struct {
	db       *gorm.DB
	resource string
	table    string
}

func (r *movementRepository[T]) Create(ctx context.Context, m *T) error {
	return translate(r.resource, nil, r.db.WithContext(ctx).Create(m).Error)
}

func (r *movementRepository[T]) Update(ctx context.Context, m *T) error {
	return translate(r.resource, nil, r.db.WithContext(ctx).Save(m).Error)
}

func (r *movementRepository[T]) Delete(ctx context.Context, id uint) error {
	return affected(r.resource, id, r.db.WithContext(ctx).Delete(new(T), id))
}

func (r *movementRepository[T]) DeleteByCategory(ctx context.Context, categoryID uint) error {
	return r.db.WithContext(ctx).Where("category_id = ?", categoryID).Delete(new(T)).Error
}

func (r *movementRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	m := new(T)
	if err := r.db.WithContext(ctx).First(m, id).Error; err != nil {
		return nil, translate(r.resource, id, err)
	}
	return m, nil
}

func (r *movementRepository[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.db.WithContext(ctx).Order("occurred_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *movementRepository[T]) ListByUser(ctx context.Context, userID uuid.UUID) ([]T, error) {
	var out []T
	name := r.table
	err := r.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = "+name+".category_id").
		Where("categories.user_id = ?", userID).
		Order(name + ".occurred_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
