package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"socioai/internal/authz"
	"socioai/internal/model"
	"socioai/internal/repository"

	apperrors "socioai/internal/errors"
)

const maxCategoryName = 45

// CategoryInput names a category and the user that will own it.
type CategoryInput struct {
	Username string
	Name     string
}

// CategoryService handles category CRUD.
type CategoryService interface {
	Create(ctx context.Context, actor authz.Identity, in CategoryInput) (*model.Category, error)
	CreateBatch(ctx context.Context, actor authz.Identity, in []CategoryInput) ([]model.Category, error)
	Rename(ctx context.Context, actor authz.Identity, id uint, name string) (*model.Category, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
	DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error)
	GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.Category, error)
	List(ctx context.Context, actor authz.Identity) ([]model.Category, error)
	ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.Category, error)
}

type categoryService struct {
	store repository.Store
	gate  *authz.Gate
}

// NewCategoryService creates a new category service.
func NewCategoryService(store repository.Store, gate *authz.Gate) CategoryService {
	return &categoryService{store: store, gate: gate}
}

func (s *categoryService) Create(ctx context.Context, actor authz.Identity, in CategoryInput) (*model.Category, error) {
	name, err := validateCategoryName(in.Name, "name")
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users().FindByEmail(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}

	category := &model.Category{Name: name, UserID: user.ID}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// CreateBatch creates every category or none. Administrators only.
func (s *categoryService) CreateBatch(ctx context.Context, actor authz.Identity, in []CategoryInput) ([]model.Category, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, apperrors.NewValidation("categories", "must not be empty")
	}

	categories := make([]*model.Category, 0, len(in))
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		for i, item := range in {
			name, err := validateCategoryName(item.Name, fmt.Sprintf("categories[%d].name", i))
			if err != nil {
				return err
			}
			user, err := tx.Users().FindByEmail(ctx, item.Username)
			if err != nil {
				return err
			}
			categories = append(categories, &model.Category{Name: name, UserID: user.ID})
		}
		return tx.Categories().CreateBatch(ctx, categories)
	})
	if err != nil {
		return nil, apperrors.Consistency("create categories", err)
	}

	out := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, *c)
	}
	return out, nil
}

// Rename changes the category name. The owner stays the same.
func (s *categoryService) Rename(ctx context.Context, actor authz.Identity, id uint, name string) (*model.Category, error) {
	name, err := validateCategoryName(name, "name")
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, id, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.store.Categories().Rename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return s.store.Categories().FindByID(ctx, id)
}

// Delete removes the category with its goals, ledger entries and movements.
func (s *categoryService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, id, authz.ActionDelete); err != nil {
		return err
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return deleteCategoryTree(ctx, tx, id)
	})
	return apperrors.Consistency("delete category", err)
}

// DeleteBatch deletes each category tree in its own transaction. Administrators only.
func (s *categoryService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return deleteEach(ids, func(id uint) error { return s.Delete(ctx, actor, id) })
}

func (s *categoryService) GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.Category, error) {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, id, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.store.Categories().FindByID(ctx, id)
}

func (s *categoryService) List(ctx context.Context, actor authz.Identity) ([]model.Category, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Categories().List(ctx)
}

func (s *categoryService) ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.Category, error) {
	user, err := s.store.Users().FindByEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}
	return s.store.Categories().ListByUser(ctx, user.ID)
}

// deleteCategoryTree deletes children before the category row. It must run
// inside a transaction. The category is locked first, then its goals in
// ascending id order, so concurrent child inserts either commit before the
// cascade reads them or fail with NotFound afterwards.
func deleteCategoryTree(ctx context.Context, tx repository.Store, categoryID uint) error {
	if _, err := tx.Categories().FindByIDForUpdate(ctx, categoryID); err != nil {
		return err
	}
	if _, err := tx.Goals().LockByCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := tx.Entries().DeleteByCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := tx.Goals().DeleteByCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := tx.Incomes().DeleteByCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := tx.Expenses().DeleteByCategory(ctx, categoryID); err != nil {
		return err
	}
	return tx.Categories().Delete(ctx, categoryID)
}

func validateCategoryName(name, field string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidation(field, "must not be blank")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", apperrors.NewValidation(field, fmt.Sprintf("must be at most %d characters", maxCategoryName))
	}
	return name, nil
}
