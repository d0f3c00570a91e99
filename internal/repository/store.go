package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"socioai/internal/model"

	apperrors "socioai/internal/errors"
)

// Store groups every repository behind one handle so that a service can run
// several of them inside a single database transaction.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	Categories() CategoryRepository
	Goals() GoalRepository
	Entries() EntryRepository
	Incomes() MovementRepository[model.Income]
	Expenses() MovementRepository[model.Expense]
	Owners() OwnerRepository
	// WithTransaction executes fn within a database transaction. Repositories
	// reached through tx share that transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository          { return &userRepository{db: s.db} }
func (s *gormStore) Roles() RoleRepository          { return &roleRepository{db: s.db} }
func (s *gormStore) Categories() CategoryRepository { return &categoryRepository{db: s.db} }
func (s *gormStore) Goals() GoalRepository          { return &goalRepository{db: s.db} }
func (s *gormStore) Entries() EntryRepository       { return &entryRepository{db: s.db} }
func (s *gormStore) Owners() OwnerRepository        { return &ownerRepository{db: s.db} }

func (s *gormStore) Incomes() MovementRepository[model.Income] {
	return &movementRepository[model.Income]{db: s.db, resource: "income", table: "incomes"}
}

func (s *gormStore) Expenses() MovementRepository[model.Expense] {
	return &movementRepository[model.Expense]{db: s.db, resource: "expense", table: "expenses"}
}

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

// Ping checks the underlying connection.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps GORM errors onto the domain taxonomy.
func translate(resource string, id any, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewNotFound(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s already exists: %w", resource, apperrors.ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s is still referenced: %w", resource, apperrors.ErrConflict)
	default:
		return err
	}
}

// affected turns a write that matched no row into a NotFoundError.
func affected(resource string, id any, res *gorm.DB) error {
	if res.Error != nil {
		return translate(resource, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound(resource, id)
	}
	return nil
}
