package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"socioai/internal/authz"
	"socioai/internal/cache"
	"socioai/internal/model"
	"socioai/internal/repository"

	apperrors "socioai/internal/errors"
)

const identityCacheTTL = 5 * time.Minute

// UserUpdate carries the optional fields of a user update. Nil means unchanged.
type UserUpdate struct {
	Email    *string
	Password *string
	Role     *string
}

// UserService exposes user administration and identity lookup.
type UserService interface {
	List(ctx context.Context, actor authz.Identity) ([]model.User, error)
	GetByID(ctx context.Context, actor authz.Identity, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, actor authz.Identity, email string) (*model.User, error)
	Update(ctx context.Context, actor authz.Identity, email string, in UserUpdate) (*model.User, error)
	Delete(ctx context.Context, actor authz.Identity, id uuid.UUID) error
	DeleteBatch(ctx context.Context, actor authz.Identity, ids []uuid.UUID) error
	Identity(ctx context.Context, userID uuid.UUID) (authz.Identity, error)
}

type userService struct {
	store repository.Store
	cache *cache.Client
}

// NewUserService builds a UserService with store and cache. cache may be nil.
func NewUserService(store repository.Store, cache *cache.Client) UserService {
	return &userService{store: store, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("identity:%s", id)
}

func (s *userService) List(ctx context.Context, actor authz.Identity) ([]model.User, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx)
}

func (s *userService) GetByID(ctx context.Context, actor authz.Identity, id uuid.UUID) (*model.User, error) {
	if err := authz.RequireSelfOrAdmin(actor, id); err != nil {
		return nil, err
	}
	return s.store.Users().FindByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, actor authz.Identity, email string) (*model.User, error) {
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes email, password or role of the user registered under email.
// Only administrators may change roles.
func (s *userService) Update(ctx context.Context, actor authz.Identity, email string, in UserUpdate) (*model.User, error) {
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}

	if in.Email != nil {
		normalized, err := validateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = normalized
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.Role != nil && *in.Role != user.Role.Description {
		if err := authz.RequireAdmin(actor); err != nil {
			return nil, err
		}
		role, err := s.store.Roles().FindByDescription(ctx, *in.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = *role
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, user.ID)
	return s.store.Users().FindByID(ctx, user.ID)
}

// Delete removes the user with every category they own.
func (s *userService) Delete(ctx context.Context, actor authz.Identity, id uuid.UUID) error {
	if err := authz.RequireSelfOrAdmin(actor, id); err != nil {
		return err
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return deleteUserTree(ctx, tx, id)
	})
	if err != nil {
		return apperrors.Consistency("delete user", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteBatch removes every listed user or none. Administrators only.
func (s *userService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uuid.UUID) error {
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}
	if len(ids) == 0 {
		return apperrors.NewValidation("ids", "must not be empty")
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		for _, id := range ids {
			if err := deleteUserTree(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Consistency("delete users", err)
	}
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	return nil
}

// Identity resolves the acting identity for a token subject, reading through
// the cache so role changes show up after at most identityCacheTTL.
func (s *userService) Identity(ctx context.Context, userID uuid.UUID) (authz.Identity, error) {
	var id authz.Identity
	if s.cache.GetJSON(ctx, s.cacheKey(userID), &id) {
		return id, nil
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return authz.Identity{}, err
	}
	id = authz.Identity{UserID: user.ID, Email: user.Email, Role: user.Role.Description}
	_ = s.cache.SetJSON(ctx, s.cacheKey(userID), id, identityCacheTTL)
	return id, nil
}

func (s *userService) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

func deleteUserTree(ctx context.Context, tx repository.Store, userID uuid.UUID) error {
	if _, err := tx.Users().FindByID(ctx, userID); err != nil {
		return err
	}
	categories, err := tx.Categories().ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if err := deleteCategoryTree(ctx, tx, c.ID); err != nil {
			return err
		}
	}
	return tx.Users().Delete(ctx, userID)
}
