package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"socioai/internal/model"
)

// CategoryTotal is the sum of goal balances inside one category.
type CategoryTotal struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	CreateBatch(ctx context.Context, categories []*model.Category) error
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	TotalsByUser(ctx context.Context, userID uuid.UUID) ([]CategoryTotal, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return translate("category", category.Name, r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) CreateBatch(ctx context.Context, categories []*model.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return translate("category", nil, r.db.WithContext(ctx).Create(&categories).Error)
}

// Rename changes the name only. The owner of a category is never updated.
func (r *categoryRepository) Rename(ctx context.Context, id uint, name string) error {
	return translate("category", id, r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Update("name", name).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return affected("category", id, r.db.WithContext(ctx).Delete(&model.Category{}, id))
}

func (r *categoryRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Category{}).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate("category", id, err)
	}
	return &category, nil
}

// FindByIDForUpdate locks the category row. Writers of child rows take this
// lock so a concurrent cascade delete cannot leave them orphaned.
func (r *categoryRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&category, id).Error; err != nil {
		return nil, translate("category", id, err)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// TotalsByUser sums the goal balances of every category owned by userID.
// Categories without goals report a zero total.
func (r *categoryRepository) TotalsByUser(ctx context.Context, userID uuid.UUID) ([]CategoryTotal, error) {
	var totals []CategoryTotal
	err := r.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.id AS category_id, c.name AS name, COALESCE(SUM(g.balance), 0) AS total").
		Joins("LEFT JOIN goals g ON g.category_id = c.id").
		Where("c.user_id = ?", userID).
		Group("c.id, c.name").
		Order("c.id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
