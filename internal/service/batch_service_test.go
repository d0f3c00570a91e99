package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socioai/internal/model"

	apperrors "socioai/internal/errors"
)

const missingCategory uint = 9999

func goalIn(desc string, categoryID uint) GoalInput {
	return GoalInput{
		Description:    desc,
		OpeningBalance: decimal.NewFromInt(10),
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		CategoryID:     categoryID,
	}
}

func movementIn(desc, amount string, categoryID uint) MovementInput {
	return MovementInput{Description: desc, Amount: decimal.RequireFromString(amount), OccurredAt: day, CategoryID: categoryID}
}

func TestAdminCannotWriteUnderMissingCategory(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	category := f.category(t, owner, "job")
	ctx := context.Background()

	goals := NewGoalService(f.store, f.gate)
	_, err := goals.Create(ctx, admin, goalIn("orphan", missingCategory))
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	_, err = goals.CreateBatch(ctx, admin, []GoalInput{goalIn("ok", category.ID), goalIn("orphan", missingCategory)})
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	all, err := goals.List(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, all, "a failed batch must not leave goals behind")

	incomes := NewIncomeService(f.store, f.gate)
	_, err = incomes.Create(ctx, admin, movementIn("salary", "100", missingCategory))
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	expenses := NewExpenseService(f.store, f.gate)
	_, err = expenses.Create(ctx, admin, movementIn("rent", "40", missingCategory))
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	income, err := incomes.Create(ctx, admin, movementIn("salary", "100", category.ID))
	require.NoError(t, err)
	_, err = incomes.Update(ctx, admin, income.ID, movementIn("salary", "100", missingCategory))
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	kept, err := incomes.GetByID(ctx, admin, income.ID)
	require.NoError(t, err)
	assert.Equal(t, category.ID, kept.CategoryID)
}

func TestGoalService_Batches(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	category := f.category(t, owner, "house")
	goals := NewGoalService(f.store, f.gate)
	entries := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	_, err := goals.CreateBatch(ctx, owner, []GoalInput{goalIn("a", category.ID)})
	assert.True(t, apperrors.IsForbidden(err))

	_, err = goals.CreateBatch(ctx, admin, nil)
	assert.True(t, apperrors.IsValidation(err))

	bad := goalIn("", category.ID)
	_, err = goals.CreateBatch(ctx, admin, []GoalInput{goalIn("a", category.ID), bad})
	var verrs apperrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, strings.HasPrefix(verrs[0].Field, "goals[1]."), verrs[0].Field)

	created, err := goals.CreateBatch(ctx, admin, []GoalInput{goalIn("a", category.ID), goalIn("b", category.ID)})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "10.00", created[1].Balance.StringFixed(2))

	_, err = entries.Create(ctx, owner, entryAt("deposit", "5", created[0].ID, day))
	require.NoError(t, err)

	_, err = goals.DeleteBatch(ctx, owner, []uint{created[0].ID})
	assert.True(t, apperrors.IsForbidden(err))
	_, err = goals.DeleteBatch(ctx, admin, nil)
	assert.True(t, apperrors.IsValidation(err))

	results, err := goals.DeleteBatch(ctx, admin, []uint{created[0].ID, 4242, created[1].ID})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Deleted)
	assert.True(t, apperrors.IsNotFound(results[1].Err))
	assert.True(t, results[2].Deleted)
	assert.Equal(t, 0, f.entryCount(t))
}

func TestCategoryAndRoleService_DeleteBatch(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	food := f.category(t, owner, "food")
	travel := f.category(t, owner, "travel")
	goal := f.goal(t, food, "0")
	_, err := NewEntryService(f.store, f.ledger, f.gate).Create(context.Background(), owner, entryAt("lunch", "-9", goal.ID, day))
	require.NoError(t, err)
	ctx := context.Background()

	categories := NewCategoryService(f.store, f.gate)
	_, err = categories.DeleteBatch(ctx, owner, []uint{food.ID})
	assert.True(t, apperrors.IsForbidden(err))

	results, err := categories.DeleteBatch(ctx, admin, []uint{food.ID, missingCategory, travel.ID})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Deleted)
	assert.False(t, results[1].Deleted)
	assert.True(t, apperrors.IsNotFound(results[1].Err))
	assert.True(t, results[2].Deleted)
	assert.Equal(t, 0, f.entryCount(t))
	_, err = f.store.Goals().FindByID(ctx, goal.ID)
	assert.True(t, apperrors.IsNotFound(err))

	roles := NewRoleService(f.store)
	extra, err := roles.CreateBatch(ctx, admin, []string{"viewer", "editor"})
	require.NoError(t, err)

	_, err = roles.DeleteBatch(ctx, owner, []uint{extra[0].ID})
	assert.True(t, apperrors.IsForbidden(err))
	_, err = roles.DeleteBatch(ctx, admin, nil)
	assert.True(t, apperrors.IsValidation(err))

	deleted, err := roles.DeleteBatch(ctx, admin, []uint{extra[0].ID, 777, extra[1].ID})
	require.NoError(t, err)
	require.Len(t, deleted, 3)
	assert.True(t, deleted[0].Deleted)
	assert.True(t, apperrors.IsNotFound(deleted[1].Err))
	assert.True(t, deleted[2].Deleted)

	left, err := roles.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestMovementService_Batches(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	other := f.user(t, "other@example.com", model.RoleUser)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	mine := f.category(t, owner, "job")
	theirs := f.category(t, other, "job")
	incomes := NewIncomeService(f.store, f.gate)
	ctx := context.Background()

	_, err := incomes.CreateBatch(ctx, owner, nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = incomes.CreateBatch(ctx, owner, []MovementInput{movementIn("salary", "10", mine.ID), movementIn("stolen", "10", theirs.ID)})
	assert.True(t, apperrors.IsForbidden(err))

	_, err = incomes.CreateBatch(ctx, owner, []MovementInput{movementIn("salary", "10", mine.ID), movementIn("refund", "-1", mine.ID)})
	var verrs apperrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, strings.HasPrefix(verrs[0].Field, "incomes[1]."), verrs[0].Field)

	_, err = incomes.List(ctx, owner)
	assert.True(t, apperrors.IsForbidden(err))
	none, err := incomes.List(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, none, "rejected batches must not persist anything")

	created, err := incomes.CreateBatch(ctx, owner, []MovementInput{movementIn("salary", "1500", mine.ID), movementIn("bonus", "300", mine.ID)})
	require.NoError(t, err)
	require.Len(t, created, 2)
	foreign, err := incomes.Create(ctx, other, movementIn("gift", "20", theirs.ID))
	require.NoError(t, err)

	all, err := incomes.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	results, err := incomes.DeleteBatch(ctx, owner, []uint{created[0].ID, foreign.ID, 31337})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Deleted)
	assert.True(t, apperrors.IsForbidden(results[1].Err))
	assert.True(t, apperrors.IsNotFound(results[2].Err))

	left, err := incomes.ListByUsername(ctx, owner, "owner@example.com")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, created[1].ID, left[0].ID)

	expenses := NewExpenseService(f.store, f.gate)
	_, err = expenses.CreateBatch(ctx, owner, []MovementInput{movementIn("rent", "0", mine.ID)})
	require.ErrorAs(t, err, &verrs)
	assert.True(t, strings.HasPrefix(verrs[0].Field, "expenses[0]."), verrs[0].Field)
}

func TestMovementService_DescriptionCountsCharacters(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	category := f.category(t, owner, "café")
	incomes := NewIncomeService(f.store, f.gate)
	ctx := context.Background()

	accented := strings.Repeat("é", 60)
	require.Greater(t, len(accented), 100)
	income, err := incomes.Create(ctx, owner, movementIn(accented, "12", category.ID))
	require.NoError(t, err)
	assert.Equal(t, accented, income.Description)

	_, err = incomes.Create(ctx, owner, movementIn(strings.Repeat("ã", 101), "12", category.ID))
	var verrs apperrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "description", verrs[0].Field)
}
