package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "socioai/internal/errors"
)

// OwnerRepository resolves the user at the root of a resource's ownership
// chain (User → Category → Goal → Ledger Entry) with one query per lookup.
type OwnerRepository interface {
	OwnerOfCategory(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfGoal(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfEntry(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfIncome(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfExpense(ctx context.Context, id uint) (uuid.UUID, error)
}

const (
	categoryOwnerSQL = `SELECT c.user_id FROM categories c WHERE c.id = ?`
	goalOwnerSQL     = `SELECT c.user_id FROM goals g
		JOIN categories c ON c.id = g.category_id
		WHERE g.id = ?`
	entryOwnerSQL = `SELECT c.user_id FROM ledger_entries e
		JOIN goals g ON g.id = e.goal_id
		JOIN categories c ON c.id = g.category_id
		WHERE e.id = ?`
	incomeOwnerSQL = `SELECT c.user_id FROM incomes m
		JOIN categories c ON c.id = m.category_id
		WHERE m.id = ?`
	expenseOwnerSQL = `SELECT c.user_id FROM expenses m
		JOIN categories c ON c.id = m.category_id
		WHERE m.id = ?`
)

type ownerRepository struct {
	db *gorm.DB
}

func (r *ownerRepository) OwnerOfCategory(ctx context.Context, id uint) (uuid.UUID, error) {
	return r.owner(ctx, "category", id, categoryOwnerSQL)
}

func (r *ownerRepository) OwnerOfGoal(ctx context.Context, id uint) (uuid.UUID, error) {
	return r.owner(ctx, "goal", id, goalOwnerSQL)
}

func (r *ownerRepository) OwnerOfEntry(ctx context.Context, id uint) (uuid.UUID, error) {
	return r.owner(ctx, "ledger entry", id, entryOwnerSQL)
}

func (r *ownerRepository) OwnerOfIncome(ctx context.Context, id uint) (uuid.UUID, error) {
	return r.owner(ctx, "income", id, incomeOwnerSQL)
}

func (r *ownerRepository) OwnerOfExpense(ctx context.Context, id uint) (uuid.UUID, error) {
	return r.owner(ctx, "expense", id, expenseOwnerSQL)
}

func (r *ownerRepository) owner(ctx context.Context, resource string, id uint, query string) (uuid.UUID, error) {
	var rows []struct {
		UserID uuid.UUID
	}
	if err := r.db.WithContext(ctx).Raw(query, id).Scan(&rows).Error; err != nil {
		return uuid.Nil, err
	}
	if len(rows) == 0 {
		return uuid.Nil, apperrors.NewNotFound(resource, id)
	}
	return rows[0].UserID, nil
}
