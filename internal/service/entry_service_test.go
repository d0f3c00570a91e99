package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socioai/internal/model"

	apperrors "socioai/internal/errors"
)

func TestEntryService_CreateUpdateDeleteScenario(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "savings"), "100")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	entry, err := svc.Create(ctx, owner, entryAt("salary", "25.0", goal.ID, day))
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, model.EntryTypeIncome, entry.Type)
	f.assertBalance(t, goal.ID, "125")

	updated, err := svc.Update(ctx, owner, entry.ID, entryAt("salary", "10.0", goal.ID, day))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(updated.Amount))
	f.assertBalance(t, goal.ID, "110")

	require.NoError(t, svc.Delete(ctx, owner, entry.ID))
	f.assertBalance(t, goal.ID, "100")

	_, err = svc.GetByID(ctx, owner, entry.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEntryService_CreateDerivesTypeFromSign(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "home"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)

	entry, err := svc.Create(context.Background(), owner, entryAt("rent", "-800.456", goal.ID, day))
	require.NoError(t, err)
	assert.Equal(t, model.EntryTypeExpense, entry.Type)
	assert.Equal(t, "-800.46", entry.Amount.StringFixed(2))
	f.assertBalance(t, goal.ID, "-800.46")
}

func TestEntryService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "home"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)

	tests := []struct {
		name  string
		input EntryInput
		field string
	}{
		{"blank description", entryAt("   ", "10", goal.ID, day), "description"},
		{"zero amount", entryAt("x", "0", goal.ID, day), "amount"},
		{"amount rounding to zero", entryAt("x", "0.004", goal.ID, day), "amount"},
		{"missing goal", entryAt("x", "10", 0, day), "goal_id"},
		{"missing timestamp", EntryInput{Description: "x", Amount: decimal.NewFromInt(10), GoalID: goal.ID}, "timestamp"},
		{"type disagrees with sign", EntryInput{Description: "x", Amount: decimal.NewFromInt(-5), Type: model.EntryTypeIncome, OccurredAt: day, GoalID: goal.ID}, "type"},
		{"unknown type", EntryInput{Description: "x", Amount: decimal.NewFromInt(5), Type: "GIFT", OccurredAt: day, GoalID: goal.ID}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner, tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))

			var verrs apperrors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}

	assert.Equal(t, 0, f.entryCount(t))
	f.assertBalance(t, goal.ID, "0")
}

func TestEntryService_CreateUnknownGoal(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	svc := NewEntryService(f.store, f.ledger, f.gate)

	_, err := svc.Create(context.Background(), owner, entryAt("x", "10", 999, day))
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, apperrors.IsForbidden(err))
}

func TestEntryService_UpdateReassignsGoal(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	cat := f.category(t, owner, "travel")
	first := f.goal(t, cat, "50")
	second := f.goal(t, cat, "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	entry, err := svc.Create(ctx, owner, entryAt("ticket", "20", first.ID, day))
	require.NoError(t, err)
	f.assertBalance(t, first.ID, "70")

	_, err = svc.Update(ctx, owner, entry.ID, entryAt("ticket", "20", second.ID, day))
	require.NoError(t, err)
	f.assertBalance(t, first.ID, "50")
	f.assertBalance(t, second.ID, "20")

	// Move back with a different amount.
	_, err = svc.Update(ctx, owner, entry.ID, entryAt("ticket", "-5", first.ID, day))
	require.NoError(t, err)
	f.assertBalance(t, first.ID, "45")
	f.assertBalance(t, second.ID, "0")

	drifts, err := f.ledger.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestEntryService_UpdateUnknownEntryOrGoal(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "c"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	_, err := svc.Update(ctx, owner, 404, entryAt("x", "1", goal.ID, day))
	assert.True(t, apperrors.IsNotFound(err))

	entry, err := svc.Create(ctx, owner, entryAt("x", "1", goal.ID, day))
	require.NoError(t, err)
	_, err = svc.Update(ctx, owner, entry.ID, entryAt("x", "1", 404, day))
	assert.True(t, apperrors.IsNotFound(err))
	f.assertBalance(t, goal.ID, "1")
}

func TestEntryService_ConcurrentCreatesSerialize(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "c"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)

	amounts := []string{"50", "-20"}
	for i := 0; i < 10; i++ {
		amounts = append(amounts, "3", "-3")
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(amounts))
	for _, amount := range amounts {
		wg.Add(1)
		go func(amount string) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), owner, entryAt("concurrent", amount, goal.ID, day))
			errs <- err
		}(amount)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	f.assertBalance(t, goal.ID, "30")
	assert.Equal(t, len(amounts), f.entryCount(t))
}

func TestEntryService_AtomicityUnderFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("balance update fails on create", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		goal := f.goal(t, f.category(t, owner, "c"), "100")

		_, err := f.faulty(1, false).Create(ctx, owner, entryAt("x", "25", goal.ID, day))
		assert.ErrorIs(t, err, apperrors.ErrConsistency)
		assert.Equal(t, 0, f.entryCount(t))
		f.assertBalance(t, goal.ID, "100")
	})

	t.Run("entry insert fails after balance update", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		goal := f.goal(t, f.category(t, owner, "c"), "100")

		_, err := f.faulty(0, true).Create(ctx, owner, entryAt("x", "25", goal.ID, day))
		assert.ErrorIs(t, err, apperrors.ErrConsistency)
		assert.Equal(t, 0, f.entryCount(t))
		f.assertBalance(t, goal.ID, "100")
	})

	t.Run("second goal update fails on reassignment", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		cat := f.category(t, owner, "c")
		first := f.goal(t, cat, "0")
		second := f.goal(t, cat, "0")
		entry, err := NewEntryService(f.store, f.ledger, f.gate).Create(ctx, owner, entryAt("x", "25", first.ID, day))
		require.NoError(t, err)

		_, err = f.faulty(2, false).Update(ctx, owner, entry.ID, entryAt("x", "30", second.ID, day))
		assert.ErrorIs(t, err, apperrors.ErrConsistency)
		f.assertBalance(t, first.ID, "25")
		f.assertBalance(t, second.ID, "0")

		stored, err := f.store.Entries().FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, stored.GoalID)
	})

	t.Run("entry delete fails after reversal", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		goal := f.goal(t, f.category(t, owner, "c"), "0")
		entry, err := NewEntryService(f.store, f.ledger, f.gate).Create(ctx, owner, entryAt("x", "25", goal.ID, day))
		require.NoError(t, err)

		err = f.faulty(0, true).Delete(ctx, owner, entry.ID)
		assert.ErrorIs(t, err, apperrors.ErrConsistency)
		assert.Equal(t, 1, f.entryCount(t))
		f.assertBalance(t, goal.ID, "25")
	})
}

func TestEntryService_Authorization(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	stranger := f.user(t, "stranger@example.com", model.RoleUser)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	goal := f.goal(t, f.category(t, owner, "c"), "0")
	strangerGoal := f.goal(t, f.category(t, stranger, "mine"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	entry, err := svc.Create(ctx, owner, entryAt("x", "10", goal.ID, day))
	require.NoError(t, err)

	_, err = svc.Create(ctx, stranger, entryAt("x", "10", goal.ID, day))
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.Update(ctx, stranger, entry.ID, entryAt("x", "99", goal.ID, day))
	assert.True(t, apperrors.IsForbidden(err))

	// The owner may not move an entry onto someone else's goal.
	_, err = svc.Update(ctx, owner, entry.ID, entryAt("x", "10", strangerGoal.ID, day))
	assert.True(t, apperrors.IsForbidden(err))

	assert.True(t, apperrors.IsForbidden(svc.Delete(ctx, stranger, entry.ID)))

	_, err = svc.GetByID(ctx, stranger, entry.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.ListByUsername(ctx, stranger, "owner@example.com")
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.ListAll(ctx, owner)
	assert.True(t, apperrors.IsForbidden(err))

	f.assertBalance(t, goal.ID, "10")

	_, err = svc.Update(ctx, admin, entry.ID, entryAt("x", "15", goal.ID, day))
	require.NoError(t, err)
	f.assertBalance(t, goal.ID, "15")

	all, err := svc.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, admin, entry.ID))
	f.assertBalance(t, goal.ID, "0")
}

func TestEntryService_GetByIDIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "c"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, entryAt("x", "10", goal.ID, day))
	require.NoError(t, err)

	first, err := svc.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	second, err := svc.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Description, second.Description)
	assert.True(t, first.Amount.Equal(second.Amount))
	assert.True(t, first.OccurredAt.Equal(second.OccurredAt))
	assert.Equal(t, first.GoalID, second.GoalID)
}

func TestEntryService_CreateBatchIsAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("all elements applied", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		cat := f.category(t, owner, "c")
		a := f.goal(t, cat, "0")
		b := f.goal(t, cat, "10")
		svc := NewEntryService(f.store, f.ledger, f.gate)

		created, err := svc.CreateBatch(ctx, owner, []EntryInput{
			entryAt("one", "5", a.ID, day),
			entryAt("two", "-3", b.ID, day),
			entryAt("three", "7", a.ID, day),
		})
		require.NoError(t, err)
		require.Len(t, created, 3)
		assert.Equal(t, "one", created[0].Description)
		assert.Equal(t, "three", created[2].Description)
		f.assertBalance(t, a.ID, "12")
		f.assertBalance(t, b.ID, "7")
	})

	t.Run("invalid element rejects batch", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		goal := f.goal(t, f.category(t, owner, "c"), "0")
		svc := NewEntryService(f.store, f.ledger, f.gate)

		_, err := svc.CreateBatch(ctx, owner, []EntryInput{
			entryAt("ok", "5", goal.ID, day),
			entryAt("", "0", goal.ID, day),
		})
		var verrs apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "entries[1].description", verrs[0].Field)
		assert.Equal(t, "entries[1].amount", verrs[1].Field)
		assert.Equal(t, 0, f.entryCount(t))
		f.assertBalance(t, goal.ID, "0")
	})

	t.Run("failure mid batch rolls back earlier elements", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		goal := f.goal(t, f.category(t, owner, "c"), "0")

		_, err := f.faulty(2, false).CreateBatch(ctx, owner, []EntryInput{
			entryAt("one", "5", goal.ID, day),
			entryAt("two", "6", goal.ID, day),
		})
		assert.ErrorIs(t, err, apperrors.ErrConsistency)
		assert.Equal(t, 0, f.entryCount(t))
		f.assertBalance(t, goal.ID, "0")
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner@example.com", model.RoleUser)
		_, err := NewEntryService(f.store, f.ledger, f.gate).CreateBatch(ctx, owner, nil)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestEntryService_DeleteBatchReportsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", model.RoleUser)
	goal := f.goal(t, f.category(t, owner, "c"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	e1, err := svc.Create(ctx, owner, entryAt("one", "5", goal.ID, day))
	require.NoError(t, err)
	e2, err := svc.Create(ctx, owner, entryAt("two", "7", goal.ID, day))
	require.NoError(t, err)
	e3, err := svc.Create(ctx, owner, entryAt("three", "11", goal.ID, day))
	require.NoError(t, err)

	results, err := svc.DeleteBatch(ctx, owner, []uint{e1.ID, 999, e3.ID})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Deleted)
	assert.False(t, results[1].Deleted)
	assert.True(t, apperrors.IsNotFound(results[1].Err))
	assert.True(t, results[2].Deleted)
	assert.Equal(t, uint(999), results[1].ID)

	f.assertBalance(t, goal.ID, "7")
	remaining, err := svc.ListByGoal(ctx, owner, goal.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, e2.ID, remaining[0].ID)

	_, err = svc.DeleteBatch(ctx, owner, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEntryService_ListByUsername(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner@Example.com", model.RoleUser)
	other := f.user(t, "other@example.com", model.RoleUser)
	mine := f.goal(t, f.category(t, owner, "c"), "0")
	theirs := f.goal(t, f.category(t, other, "c"), "0")
	svc := NewEntryService(f.store, f.ledger, f.gate)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, entryAt("mine", "1", mine.ID, day))
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, entryAt("theirs", "2", theirs.ID, day))
	require.NoError(t, err)

	entries, err := svc.ListByUsername(ctx, owner, "OWNER@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mine", entries[0].Description)

	_, err = svc.ListByUsername(ctx, owner, "ghost@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}
