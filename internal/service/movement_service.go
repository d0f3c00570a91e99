package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"socioai/internal/authz"
	"socioai/internal/model"
	"socioai/internal/repository"

	apperrors "socioai/internal/errors"
)

const maxMovementDescription = 100

// MovementInput carries the fields of an income or expense.
type MovementInput struct {
	Description string
	Amount      decimal.Decimal
	OccurredAt  time.Time
	CategoryID  uint
}

// MovementService handles incomes or expenses recorded against a category.
type MovementService[T model.Income | model.Expense] interface {
	Create(ctx context.Context, actor authz.Identity, in MovementInput) (*T, error)
	Update(ctx context.Context, actor authz.Identity, id uint, in MovementInput) (*T, error)
	CreateBatch(ctx context.Context, actor authz.Identity, in []MovementInput) ([]T, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
	DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error)
	GetByID(ctx context.Context, actor authz.Identity, id uint) (*T, error)
	List(ctx context.Context, actor authz.Identity) ([]T, error)
	ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]T, error)
}

type movementService[T model.Income | model.Expense] struct {
	store    repository.Store
	gate     *authz.Gate
	resource authz.ResourceType
	repo     func(repository.Store) repository.MovementRepository[T]
}

// NewIncomeService creates the income service.
func NewIncomeService(store repository.Store, gate *authz.Gate) MovementService[model.Income] {
	return &movementService[model.Income]{
		store:    store,
		gate:     gate,
		resource: authz.ResourceIncome,
		repo:     func(s repository.Store) repository.MovementRepository[model.Income] { return s.Incomes() },
	}
}

// NewExpenseService creates the expense service.
func NewExpenseService(store repository.Store, gate *authz.Gate) MovementService[model.Expense] {
	return &movementService[model.Expense]{
		store:    store,
		gate:     gate,
		resource: authz.ResourceExpense,
		repo:     func(s repository.Store) repository.MovementRepository[model.Expense] { return s.Expenses() },
	}
}

func (s *movementService[T]) Create(ctx context.Context, actor authz.Identity, in MovementInput) (*T, error) {
	in, err := normalizeMovement(in, "")
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, in.CategoryID, authz.ActionWrite); err != nil {
		return nil, err
	}

	m := new(T)
	apply(base(m), in)
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return s.insert(ctx, tx, m)
	})
	if err != nil {
		return nil, apperrors.Consistency(fmt.Sprintf("create %s", s.resource), err)
	}
	return m, nil
}

// CreateBatch records every movement or none. Each distinct category is
// authorized once before the transaction starts.
func (s *movementService[T]) CreateBatch(ctx context.Context, actor authz.Identity, in []MovementInput) ([]T, error) {
	if len(in) == 0 {
		return nil, apperrors.NewValidation(s.plural(), "must not be empty")
	}

	items := make([]*T, 0, len(in))
	var verrs apperrors.ValidationErrors
	for i, raw := range in {
		item, err := normalizeMovement(raw, fmt.Sprintf("%s[%d].", s.plural(), i))
		if err != nil {
			verrs = append(verrs, err.(apperrors.ValidationErrors)...)
			continue
		}
		m := new(T)
		apply(base(m), item)
		items = append(items, m)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	checked := make(map[uint]bool)
	for _, m := range items {
		categoryID := base(m).CategoryID
		if checked[categoryID] {
			continue
		}
		if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, categoryID, authz.ActionWrite); err != nil {
			return nil, err
		}
		checked[categoryID] = true
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		for _, m := range items {
			if err := s.insert(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Consistency(fmt.Sprintf("create %s", s.plural()), err)
	}

	out := make([]T, 0, len(items))
	for _, m := range items {
		out = append(out, *m)
	}
	return out, nil
}

// plural names the collection in field paths and errors, e.g. "incomes".
func (s *movementService[T]) plural() string {
	return string(s.resource) + "s"
}

// insert writes m under a lock on its category. The gate skips owner
// resolution for administrators, so the category may not exist yet.
func (s *movementService[T]) insert(ctx context.Context, tx repository.Store, m *T) error {
	if _, err := tx.Categories().FindByIDForUpdate(ctx, base(m).CategoryID); err != nil {
		return err
	}
	return s.repo(tx).Create(ctx, m)
}

func (s *movementService[T]) Update(ctx context.Context, actor authz.Identity, id uint, in MovementInput) (*T, error) {
	in, err := normalizeMovement(in, "")
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, s.resource, id, authz.ActionWrite); err != nil {
		return nil, err
	}

	current, err := s.repo(s.store).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if base(current).CategoryID != in.CategoryID {
		if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, in.CategoryID, authz.ActionWrite); err != nil {
			return nil, err
		}
	}

	var updated *T
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Categories().FindByIDForUpdate(ctx, in.CategoryID); err != nil {
			return err
		}
		m, err := s.repo(tx).FindByID(ctx, id)
		if err != nil {
			return err
		}
		apply(base(m), in)
		if err := s.repo(tx).Update(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, apperrors.Consistency(fmt.Sprintf("update %s", s.resource), err)
	}
	return updated, nil
}

func (s *movementService[T]) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	if err := s.gate.Authorize(ctx, actor, s.resource, id, authz.ActionDelete); err != nil {
		return err
	}
	return s.repo(s.store).Delete(ctx, id)
}

// DeleteBatch deletes each id on its own and reports every outcome.
func (s *movementService[T]) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error) {
	return deleteEach(ids, func(id uint) error { return s.Delete(ctx, actor, id) })
}

// List returns every record. Administrators only.
func (s *movementService[T]) List(ctx context.Context, actor authz.Identity) ([]T, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo(s.store).List(ctx)
}

func (s *movementService[T]) GetByID(ctx context.Context, actor authz.Identity, id uint) (*T, error) {
	if err := s.gate.Authorize(ctx, actor, s.resource, id, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.repo(s.store).FindByID(ctx, id)
}

func (s *movementService[T]) ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]T, error) {
	user, err := s.store.Users().FindByEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}
	return s.repo(s.store).ListByUser(ctx, user.ID)
}

// normalizeMovement trims and rounds in. On failure the error is always
// ValidationErrors; prefix qualifies field names in batch requests.
func normalizeMovement(in MovementInput, prefix string) (MovementInput, error) {
	var verrs apperrors.ValidationErrors
	fail := func(field, msg string) {
		verrs = append(verrs, &apperrors.ValidationError{Field: prefix + field, Message: msg})
	}

	in.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(in.Description) > maxMovementDescription {
		fail("description", fmt.Sprintf("must be at most %d characters", maxMovementDescription))
	}
	in.Amount = in.Amount.Round(2)
	if !in.Amount.IsPositive() {
		fail("amount", "must be positive")
	}
	if in.OccurredAt.IsZero() {
		fail("timestamp", "is required")
	}
	if in.CategoryID == 0 {
		fail("category_id", "must reference a category")
	}
	if len(verrs) > 0 {
		return in, verrs
	}
	return in, nil
}

func apply(m *model.Movement, in MovementInput) {
	m.Description = in.Description
	m.Amount = in.Amount
	m.OccurredAt = in.OccurredAt
	m.CategoryID = in.CategoryID
}

func base[T model.Income | model.Expense](m *T) *model.Movement {
	return any(m).(interface{ Base() *model.Movement }).Base()
}
