package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socioai/internal/model"
	"socioai/internal/repository"
)

// recordingStore logs the row locks and deletes issued inside a transaction.
type recordingStore struct {
	repository.Store
	calls *[]string
}

func (s *recordingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, &recordingStore{Store: tx, calls: s.calls})
	})
}

func (s *recordingStore) Categories() repository.CategoryRepository {
	return &recordingCategories{CategoryRepository: s.Store.Categories(), calls: s.calls}
}

func (s *recordingStore) Goals() repository.GoalRepository {
	return &recordingGoals{GoalRepository: s.Store.Goals(), calls: s.calls}
}

func (s *recordingStore) Entries() repository.EntryRepository {
	return &recordingEntries{EntryRepository: s.Store.Entries(), calls: s.calls}
}

type recordingCategories struct {
	repository.CategoryRepository
	calls *[]string
}

func (r *recordingCategories) FindByIDForUpdate(ctx context.Context, id uint) (*model.Category, error) {
	*r.calls = append(*r.calls, "lock category")
	return r.CategoryRepository.FindByIDForUpdate(ctx, id)
}

type recordingGoals struct {
	repository.GoalRepository
	calls *[]string
}

func (r *recordingGoals) FindByIDForUpdate(ctx context.Context, id uint) (*model.Goal, error) {
	*r.calls = append(*r.calls, "lock goal")
	return r.GoalRepository.FindByIDForUpdate(ctx, id)
}

func (r *recordingGoals) LockByCategory(ctx context.Context, categoryID uint) ([]model.Goal, error) {
	*r.calls = append(*r.calls, "lock goals")
	return r.GoalRepository.LockByCategory(ctx, categoryID)
}

func (r *recordingGoals) Delete(ctx context.Context, id uint) error {
	*r.calls = append(*r.calls, "delete goal")
	return r.GoalRepository.Delete(ctx, id)
}

type recordingEntries struct {
	repository.EntryRepository
	calls *[]string
}

func (r *recordingEntries) DeleteByGoal(ctx context.Context, goalID uint) error {
	*r.calls = append(*r.calls, "delete entries")
	return r.EntryRepository.DeleteByGoal(ctx, goalID)
}

func (r *recordingEntries) DeleteByCategory(ctx context.Context, categoryID uint) error {
	*r.calls = append(*r.calls, "delete entries")
	return r.EntryRepository.DeleteByCategory(ctx, categoryID)
}

func TestDeleteLocksParentBeforeEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("goal", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		goal := f.goal(t, f.category(t, owner, "c"), "0")

		var calls []string
		store := &recordingStore{Store: f.store, calls: &calls}
		require.NoError(t, NewGoalService(store, f.gate).Delete(ctx, owner, goal.ID))
		assert.Equal(t, []string{"lock goal", "delete entries", "delete goal"}, calls)
	})

	t.Run("category", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		category := f.category(t, owner, "c")
		f.goal(t, category, "0")

		var calls []string
		store := &recordingStore{Store: f.store, calls: &calls}
		require.NoError(t, NewCategoryService(store, f.gate).Delete(ctx, owner, category.ID))
		require.GreaterOrEqual(t, len(calls), 3)
		assert.Equal(t, []string{"lock category", "lock goals", "delete entries"}, calls[:3])
	})

	t.Run("missing goal", func(t *testing.T) {
		f := newFixture(t)
		admin := f.user(t, "admin@example.com", model.RoleAdmin)

		var calls []string
		store := &recordingStore{Store: f.store, calls: &calls}
		err := NewGoalService(store, f.gate).Delete(ctx, admin, 404)
		require.Error(t, err)
		assert.Equal(t, []string{"lock goal"}, calls, "nothing is deleted once the lock finds no row")
	})
}
