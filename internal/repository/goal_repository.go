package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"socioai/internal/model"
)

// GoalLedgerTotal compares a goal's stored balance with its ledger.
type GoalLedgerTotal struct {
	GoalID         uint
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	EntriesTotal   decimal.Decimal
}

// GoalRepository defines goal persistence operations.
type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	UpdateDetails(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, id uint) error
	DeleteByCategory(ctx context.Context, categoryID uint) error
	FindByID(ctx context.Context, id uint) (*model.Goal, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Goal, error)
	LockByCategory(ctx context.Context, categoryID uint) ([]model.Goal, error)
	AddToBalance(ctx context.Context, id uint, delta decimal.Decimal) error
	List(ctx context.Context) ([]model.Goal, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]model.Goal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	LedgerTotals(ctx context.Context) ([]GoalLedgerTotal, error)
}

type goalRepository struct {
	db *gorm.DB
}

// Create creates a new goal. Balance starts at OpeningBalance.
func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	goal.Balance = goal.OpeningBalance
	return translate("goal", goal.Description, r.db.WithContext(ctx).Create(goal).Error)
}

// UpdateDetails writes description and dates. Balances are left untouched.
func (r *goalRepository) UpdateDetails(ctx context.Context, goal *model.Goal) error {
	return translate("goal", goal.ID, r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("id = ?", goal.ID).
		Select("description", "start_date", "end_date").
		Updates(map[string]interface{}{
			"description": goal.Description,
			"start_date":  goal.StartDate,
			"end_date":    goal.EndDate,
		}).Error)
}

func (r *goalRepository) Delete(ctx context.Context, id uint) error {
	return affected("goal", id, r.db.WithContext(ctx).Delete(&model.Goal{}, id))
}

func (r *goalRepository) DeleteByCategory(ctx context.Context, categoryID uint) error {
	return r.db.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&model.Goal{}).Error
}

// FindByID finds a goal by ID.
func (r *goalRepository) FindByID(ctx context.Context, id uint) (*model.Goal, error) {
	var goal model.Goal
	if err := r.db.WithContext(ctx).First(&goal, id).Error; err != nil {
		return nil, translate("goal", id, err)
	}
	return &goal, nil
}

// FindByIDForUpdate finds a goal by ID with row-level lock for update.
func (r *goalRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Goal, error) {
	var goal model.Goal
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&goal, id).Error; err != nil {
		return nil, translate("goal", id, err)
	}
	return &goal, nil
}

// LockByCategory locks every goal of a category in ascending id order, the
// same order the ledger uses.
func (r *goalRepository) LockByCategory(ctx context.Context, categoryID uint) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category_id = ?", categoryID).
		Order("id").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

// AddToBalance adjusts the balance with a single store-side expression so
// concurrent deltas never start from a stale value.
func (r *goalRepository) AddToBalance(ctx context.Context, id uint, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta))
	return affected("goal", id, res)
}

func (r *goalRepository) List(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.WithContext(ctx).Order("id").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) ListByCategory(ctx context.Context, categoryID uint) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = goals.category_id").
		Where("categories.user_id = ?", userID).
		Order("goals.id").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

// LedgerTotals returns, for every goal, its stored balance next to the sum of
// its ledger entries.
func (r *goalRepository) LedgerTotals(ctx context.Context) ([]GoalLedgerTotal, error) {
	var totals []GoalLedgerTotal
	err := r.db.WithContext(ctx).
		Table("goals AS g").
		Select("g.id AS goal_id, g.balance AS balance, g.opening_balance AS opening_balance, COALESCE(SUM(e.amount), 0) AS entries_total").
		Joins("LEFT JOIN ledger_entries e ON e.goal_id = g.id").
		Group("g.id, g.balance, g.opening_balance").
		Order("g.id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
