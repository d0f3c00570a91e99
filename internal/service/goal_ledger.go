package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"socioai/internal/repository"
)

// GoalLedger owns Goal.Balance. Balance changes go through these methods
// only, and each of them runs on the caller's transaction so the balance
// moves together with the ledger entry write that caused it.
type GoalLedger interface {
	ApplyNewEntry(ctx context.Context, tx repository.Store, goalID uint, amount decimal.Decimal) error
	ApplyEntryReplacement(ctx context.Context, tx repository.Store, oldGoalID, newGoalID uint, oldAmount, newAmount decimal.Decimal) error
	ReverseEntry(ctx context.Context, tx repository.Store, goalID uint, amount decimal.Decimal) error
	Balance(ctx context.Context, goalID uint) (decimal.Decimal, error)
	Reconcile(ctx context.Context) ([]BalanceDrift, error)
}

// BalanceDrift reports a goal whose stored balance disagrees with its ledger.
type BalanceDrift struct {
	GoalID   uint            `json:"goal_id"`
	Stored   decimal.Decimal `json:"stored"`
	Expected decimal.Decimal `json:"expected"`
}

type goalLedger struct {
	store  repository.Store
	logger *slog.Logger
}

// NewGoalLedger creates a new goal ledger engine.
func NewGoalLedger(store repository.Store, logger *slog.Logger) GoalLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &goalLedger{store: store, logger: logger}
}

// ApplyNewEntry adds amount to the goal's balance.
func (l *goalLedger) ApplyNewEntry(ctx context.Context, tx repository.Store, goalID uint, amount decimal.Decimal) error {
	if _, err := tx.Goals().FindByIDForUpdate(ctx, goalID); err != nil {
		return err
	}
	return tx.Goals().AddToBalance(ctx, goalID, amount)
}

// ApplyEntryReplacement moves the balance from oldAmount to newAmount. On the
// same goal a single delta is applied. When the entry changes goal, both rows
// are locked in ascending id order, then the old goal is decremented and the
// new goal incremented.
func (l *goalLedger) ApplyEntryReplacement(ctx context.Context, tx repository.Store, oldGoalID, newGoalID uint, oldAmount, newAmount decimal.Decimal) error {
	goals := tx.Goals()

	if oldGoalID == newGoalID {
		if _, err := goals.FindByIDForUpdate(ctx, oldGoalID); err != nil {
			return err
		}
		delta := newAmount.Sub(oldAmount)
		if delta.IsZero() {
			return nil
		}
		return goals.AddToBalance(ctx, oldGoalID, delta)
	}

	first, second := oldGoalID, newGoalID
	if first > second {
		first, second = second, first
	}
	if _, err := goals.FindByIDForUpdate(ctx, first); err != nil {
		return err
	}
	if _, err := goals.FindByIDForUpdate(ctx, second); err != nil {
		return err
	}

	if err := goals.AddToBalance(ctx, oldGoalID, oldAmount.Neg()); err != nil {
		return err
	}
	return goals.AddToBalance(ctx, newGoalID, newAmount)
}

// ReverseEntry subtracts amount from the goal's balance.
func (l *goalLedger) ReverseEntry(ctx context.Context, tx repository.Store, goalID uint, amount decimal.Decimal) error {
	if _, err := tx.Goals().FindByIDForUpdate(ctx, goalID); err != nil {
		return err
	}
	return tx.Goals().AddToBalance(ctx, goalID, amount.Neg())
}

// Balance reads the persisted balance. Nothing is cached.
func (l *goalLedger) Balance(ctx context.Context, goalID uint) (decimal.Decimal, error) {
	goal, err := l.store.Goals().FindByID(ctx, goalID)
	if err != nil {
		return decimal.Zero, err
	}
	return goal.Balance, nil
}

// Reconcile compares every goal's balance with its opening balance plus the
// sum of its entries. It only reports; balances are never rewritten here.
func (l *goalLedger) Reconcile(ctx context.Context) ([]BalanceDrift, error) {
	totals, err := l.store.Goals().LedgerTotals(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []BalanceDrift
	for _, t := range totals {
		expected := t.OpeningBalance.Add(t.EntriesTotal)
		if expected.Equal(t.Balance) {
			continue
		}
		drifts = append(drifts, BalanceDrift{GoalID: t.GoalID, Stored: t.Balance, Expected: expected})
		l.logger.WarnContext(ctx, "goal balance drift",
			"goal_id", t.GoalID,
			"stored", t.Balance.StringFixed(2),
			"expected", expected.StringFixed(2),
		)
	}
	l.logger.InfoContext(ctx, "reconciliation finished", "goals", len(totals), "drifted", len(drifts))
	return drifts, nil
}
