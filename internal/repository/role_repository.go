package repository

import (
	"context"

	"gorm.io/gorm"

	"socioai/internal/model"
)

// RoleRepository defines role persistence operations.
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	CreateBatch(ctx context.Context, roles []*model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByDescription(ctx context.Context, description string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return translate("role", role.Description, r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepository) CreateBatch(ctx context.Context, roles []*model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	return translate("role", nil, r.db.WithContext(ctx).Create(&roles).Error)
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	if _, err := r.FindByID(ctx, role.ID); err != nil {
		return err
	}
	return translate("role", role.ID, r.db.WithContext(ctx).Model(&model.Role{}).
		Where("id = ?", role.ID).
		Update("description", role.Description).Error)
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	return affected("role", id, r.db.WithContext(ctx).Delete(&model.Role{}, id))
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, translate("role", id, err)
	}
	return &role, nil
}

func (r *roleRepository) FindByDescription(ctx context.Context, description string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("description = ?", description).First(&role).Error; err != nil {
		return nil, translate("role", description, err)
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
