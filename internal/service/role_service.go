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

const maxRoleDescription = 45

// RoleService manages roles. Every operation is restricted to administrators.
type RoleService interface {
	Create(ctx context.Context, actor authz.Identity, description string) (*model.Role, error)
	CreateBatch(ctx context.Context, actor authz.Identity, descriptions []string) ([]model.Role, error)
	Update(ctx context.Context, actor authz.Identity, id uint, description string) (*model.Role, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
	DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error)
	GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.Role, error)
	List(ctx context.Context, actor authz.Identity) ([]model.Role, error)
}

type roleService struct {
	store repository.Store
}

// NewRoleService creates a new role service.
func NewRoleService(store repository.Store) RoleService {
	return &roleService{store: store}
}

func (s *roleService) Create(ctx context.Context, actor authz.Identity, description string) (*model.Role, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	description, err := validateRole(description, "description")
	if err != nil {
		return nil, err
	}
	role := &model.Role{Description: description}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

func (s *roleService) CreateBatch(ctx context.Context, actor authz.Identity, descriptions []string) ([]model.Role, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if len(descriptions) == 0 {
		return nil, apperrors.NewValidation("roles", "must not be empty")
	}

	roles := make([]*model.Role, 0, len(descriptions))
	var problems apperrors.ValidationErrors
	for i, d := range descriptions {
		d, err := validateRole(d, fmt.Sprintf("roles[%d].description", i))
		if err != nil {
			problems = append(problems, err.(*apperrors.ValidationError))
			continue
		}
		roles = append(roles, &model.Role{Description: d})
	}
	if len(problems) > 0 {
		return nil, problems
	}

	if err := s.store.Roles().CreateBatch(ctx, roles); err != nil {
		return nil, fmt.Errorf("create roles: %w", err)
	}
	out := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, *r)
	}
	return out, nil
}

func (s *roleService) Update(ctx context.Context, actor authz.Identity, id uint, description string) (*model.Role, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	description, err := validateRole(description, "description")
	if err != nil {
		return nil, err
	}
	if err := s.store.Roles().Update(ctx, &model.Role{ID: id, Description: description}); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.store.Roles().FindByID(ctx, id)
}

func (s *roleService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}
	return s.store.Roles().Delete(ctx, id)
}

// DeleteBatch deletes each role on its own and reports every outcome.
func (s *roleService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return deleteEach(ids, func(id uint) error { return s.Delete(ctx, actor, id) })
}

func (s *roleService) GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.Role, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Roles().FindByID(ctx, id)
}

func (s *roleService) List(ctx context.Context, actor authz.Identity) ([]model.Role, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Roles().List(ctx)
}

// validateRole always returns a *ValidationError on failure.
func validateRole(description, field string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apperrors.NewValidation(field, "must not be blank")
	}
	if utf8.RuneCountInString(description) > maxRoleDescription {
		return "", apperrors.NewValidation(field, fmt.Sprintf("must be at most %d characters", maxRoleDescription))
	}
	return description, nil
}
