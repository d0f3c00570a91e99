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

const maxGoalDescription = 45

// GoalInput carries the caller-supplied fields of a goal. OpeningBalance and
// CategoryID are only read on create.
type GoalInput struct {
	Description    string
	OpeningBalance decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	CategoryID     uint
}

// GoalService handles goal CRUD. Balances are never written here; they move
// only through ledger entries.
type GoalService interface {
	Create(ctx context.Context, actor authz.Identity, in GoalInput) (*model.Goal, error)
	CreateBatch(ctx context.Context, actor authz.Identity, in []GoalInput) ([]model.Goal, error)
	Update(ctx context.Context, actor authz.Identity, id uint, in GoalInput) (*model.Goal, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
	DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error)
	GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.Goal, error)
	List(ctx context.Context, actor authz.Identity) ([]model.Goal, error)
	ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.Goal, error)
}

type goalService struct {
	store repository.Store
	gate  *authz.Gate
}

// NewGoalService creates a new goal service.
func NewGoalService(store repository.Store, gate *authz.Gate) GoalService {
	return &goalService{store: store, gate: gate}
}

func (s *goalService) Create(ctx context.Context, actor authz.Identity, in GoalInput) (*model.Goal, error) {
	goal, verrs := buildGoal(in, "")
	if len(verrs) > 0 {
		return nil, verrs
	}

	if err := s.gate.Authorize(ctx, actor, authz.ResourceCategory, in.CategoryID, authz.ActionWrite); err != nil {
		return nil, err
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return createGoal(ctx, tx, goal)
	})
	if err != nil {
		return nil, apperrors.Consistency("create goal", err)
	}
	return goal, nil
}

// CreateBatch creates every goal or none. Administrators only.
func (s *goalService) CreateBatch(ctx context.Context, actor authz.Identity, in []GoalInput) ([]model.Goal, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, apperrors.NewValidation("goals", "must not be empty")
	}

	goals := make([]*model.Goal, 0, len(in))
	var verrs apperrors.ValidationErrors
	for i, item := range in {
		goal, errs := buildGoal(item, fmt.Sprintf("goals[%d].", i))
		verrs = append(verrs, errs...)
		goals = append(goals, goal)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		for _, goal := range goals {
			if err := createGoal(ctx, tx, goal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Consistency("create goals", err)
	}

	out := make([]model.Goal, 0, len(goals))
	for _, goal := range goals {
		out = append(out, *goal)
	}
	return out, nil
}

// createGoal inserts goal under a locked category. The gate lets
// administrators through without resolving the category, so its existence is
// checked here.
func createGoal(ctx context.Context, tx repository.Store, goal *model.Goal) error {
	if _, err := tx.Categories().FindByIDForUpdate(ctx, goal.CategoryID); err != nil {
		return err
	}
	return tx.Goals().Create(ctx, goal)
}

// Update changes description and dates.
func (s *goalService) Update(ctx context.Context, actor authz.Identity, id uint, in GoalInput) (*model.Goal, error) {
	if verrs := validateGoal(in); len(verrs) > 0 {
		return nil, verrs
	}
	if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, id, authz.ActionWrite); err != nil {
		return nil, err
	}

	goal := &model.Goal{
		ID:          id,
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if err := s.store.Goals().UpdateDetails(ctx, goal); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.store.Goals().FindByID(ctx, id)
}

// Delete removes the goal together with its ledger entries.
func (s *goalService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, id, authz.ActionDelete); err != nil {
		return err
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return deleteGoalTree(ctx, tx, id)
	})
	return apperrors.Consistency("delete goal", err)
}

// DeleteBatch deletes each goal in its own transaction and reports every
// outcome in input order. Administrators only.
func (s *goalService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return deleteEach(ids, func(id uint) error { return s.Delete(ctx, actor, id) })
}

// deleteGoalTree locks the goal before removing its entries, so an entry
// insert holding the same lock commits first and is removed with the rest.
func deleteGoalTree(ctx context.Context, tx repository.Store, id uint) error {
	if _, err := tx.Goals().FindByIDForUpdate(ctx, id); err != nil {
		return err
	}
	if err := tx.Entries().DeleteByGoal(ctx, id); err != nil {
		return err
	}
	return tx.Goals().Delete(ctx, id)
}

func (s *goalService) GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.Goal, error) {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, id, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.store.Goals().FindByID(ctx, id)
}

func (s *goalService) List(ctx context.Context, actor authz.Identity) ([]model.Goal, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Goals().List(ctx)
}

func (s *goalService) ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.Goal, error) {
	user, err := s.store.Users().FindByEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}
	return s.store.Goals().ListByUser(ctx, user.ID)
}

// buildGoal validates a goal for creation. prefix qualifies field names in
// batch requests.
func buildGoal(in GoalInput, prefix string) (*model.Goal, apperrors.ValidationErrors) {
	var verrs apperrors.ValidationErrors
	for _, v := range validateGoal(in) {
		verrs = append(verrs, &apperrors.ValidationError{Field: prefix + v.Field, Message: v.Message})
	}
	if in.CategoryID == 0 {
		verrs = append(verrs, &apperrors.ValidationError{Field: prefix + "category_id", Message: "must reference a category"})
	}
	opening := in.OpeningBalance.Round(2)
	if opening.IsNegative() {
		verrs = append(verrs, &apperrors.ValidationError{Field: prefix + "opening_balance", Message: "must not be negative"})
	}
	return &model.Goal{
		Description:    strings.TrimSpace(in.Description),
		OpeningBalance: opening,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		CategoryID:     in.CategoryID,
	}, verrs
}

func validateGoal(in GoalInput) apperrors.ValidationErrors {
	var verrs apperrors.ValidationErrors
	description := strings.TrimSpace(in.Description)
	switch {
	case description == "":
		verrs = append(verrs, &apperrors.ValidationError{Field: "description", Message: "must not be blank"})
	case utf8.RuneCountInString(description) > maxGoalDescription:
		verrs = append(verrs, &apperrors.ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", maxGoalDescription)})
	}
	if in.StartDate.IsZero() {
		verrs = append(verrs, &apperrors.ValidationError{Field: "start_date", Message: "is required"})
	}
	if in.EndDate.IsZero() {
		verrs = append(verrs, &apperrors.ValidationError{Field: "end_date", Message: "is required"})
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		verrs = append(verrs, &apperrors.ValidationError{Field: "end_date", Message: "must not be before start_date"})
	}
	return verrs
}
