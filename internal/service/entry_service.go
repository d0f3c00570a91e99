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

const maxEntryDescription = 100

// EntryInput carries the caller-supplied fields of a ledger entry. Type is
// optional; when set it must agree with the sign of Amount.
type EntryInput struct {
	Description string
	Amount      decimal.Decimal
	Type        model.EntryType
	OccurredAt  time.Time
	GoalID      uint
}

// BatchDeleteResult reports the outcome for one id of a batch delete.
type BatchDeleteResult struct {
	ID      uint
	Deleted bool
	Err     error
}

// EntryService handles the ledger entry lifecycle. Every balance side effect
// is delegated to the GoalLedger inside the same transaction as the entry write.
type EntryService interface {
	Create(ctx context.Context, actor authz.Identity, in EntryInput) (*model.LedgerEntry, error)
	CreateBatch(ctx context.Context, actor authz.Identity, in []EntryInput) ([]model.LedgerEntry, error)
	Update(ctx context.Context, actor authz.Identity, id uint, in EntryInput) (*model.LedgerEntry, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
	DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error)
	GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.LedgerEntry, error)
	ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.LedgerEntry, error)
	ListByGoal(ctx context.Context, actor authz.Identity, goalID uint) ([]model.LedgerEntry, error)
	ListAll(ctx context.Context, actor authz.Identity) ([]model.LedgerEntry, error)
}

type entryService struct {
	store  repository.Store
	ledger GoalLedger
	gate   *authz.Gate
}

// NewEntryService creates a new ledger entry service.
func NewEntryService(store repository.Store, ledger GoalLedger, gate *authz.Gate) EntryService {
	return &entryService{
		store:  store,
		ledger: ledger,
		gate:   gate,
	}
}

// Create validates the entry, credits its goal and persists it.
func (s *entryService) Create(ctx context.Context, actor authz.Identity, in EntryInput) (*model.LedgerEntry, error) {
	entry, verrs := buildEntry(in, "")
	if len(verrs) > 0 {
		return nil, verrs
	}

	if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, entry.GoalID, authz.ActionWrite); err != nil {
		return nil, err
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := s.ledger.ApplyNewEntry(ctx, tx, entry.GoalID, entry.Amount); err != nil {
			return err
		}
		return tx.Entries().Create(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.Consistency("create ledger entry", err)
	}
	return entry, nil
}

// CreateBatch is all-or-nothing: every element is validated and authorized
// first, then one transaction applies each element's balance update right
// before inserting that element.
func (s *entryService) CreateBatch(ctx context.Context, actor authz.Identity, in []EntryInput) ([]model.LedgerEntry, error) {
	if len(in) == 0 {
		return nil, apperrors.NewValidation("entries", "must not be empty")
	}

	entries := make([]*model.LedgerEntry, 0, len(in))
	var verrs apperrors.ValidationErrors
	for i, item := range in {
		entry, errs := buildEntry(item, fmt.Sprintf("entries[%d].", i))
		verrs = append(verrs, errs...)
		entries = append(entries, entry)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	checked := make(map[uint]bool)
	for _, entry := range entries {
		if checked[entry.GoalID] {
			continue
		}
		if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, entry.GoalID, authz.ActionWrite); err != nil {
			return nil, err
		}
		checked[entry.GoalID] = true
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		for _, entry := range entries {
			if err := s.ledger.ApplyNewEntry(ctx, tx, entry.GoalID, entry.Amount); err != nil {
				return err
			}
			if err := tx.Entries().Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Consistency("create ledger entries", err)
	}

	out := make([]model.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *entry)
	}
	return out, nil
}

// Update replaces description, amount, timestamp and goal of an entry and
// moves the affected goal balances by the difference.
func (s *entryService) Update(ctx context.Context, actor authz.Identity, id uint, in EntryInput) (*model.LedgerEntry, error) {
	next, verrs := buildEntry(in, "")
	if len(verrs) > 0 {
		return nil, verrs
	}

	if err := s.gate.Authorize(ctx, actor, authz.ResourceLedgerEntry, id, authz.ActionWrite); err != nil {
		return nil, err
	}
	current, err := s.store.Entries().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.GoalID != next.GoalID {
		if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, next.GoalID, authz.ActionWrite); err != nil {
			return nil, err
		}
	}

	var updated *model.LedgerEntry
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		existing, err := tx.Entries().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ledger.ApplyEntryReplacement(ctx, tx, existing.GoalID, next.GoalID, existing.Amount, next.Amount); err != nil {
			return err
		}

		existing.Description = next.Description
		existing.Amount = next.Amount
		existing.Type = next.Type
		existing.OccurredAt = next.OccurredAt
		existing.GoalID = next.GoalID
		if err := tx.Entries().Update(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, apperrors.Consistency("update ledger entry", err)
	}
	return updated, nil
}

// Delete removes an entry and reverses its amount on the goal.
func (s *entryService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceLedgerEntry, id, authz.ActionDelete); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		existing, err := tx.Entries().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ledger.ReverseEntry(ctx, tx, existing.GoalID, existing.Amount); err != nil {
			return err
		}
		return tx.Entries().Delete(ctx, id)
	})
	return apperrors.Consistency("delete ledger entry", err)
}

// DeleteBatch deletes each id in its own transaction. A failing id does not
// undo the ids already deleted; the result lists every outcome in input order.
func (s *entryService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]BatchDeleteResult, error) {
	return deleteEach(ids, func(id uint) error { return s.Delete(ctx, actor, id) })
}

// deleteEach runs del for every id and collects the outcomes. An empty id
// list is a validation error.
func deleteEach(ids []uint, del func(id uint) error) ([]BatchDeleteResult, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewValidation("ids", "must not be empty")
	}
	results := make([]BatchDeleteResult, 0, len(ids))
	for _, id := range ids {
		err := del(id)
		results = append(results, BatchDeleteResult{ID: id, Deleted: err == nil, Err: err})
	}
	return results, nil
}

// GetByID returns one entry.
func (s *entryService) GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.LedgerEntry, error) {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceLedgerEntry, id, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.store.Entries().FindByID(ctx, id)
}

// ListByUsername returns the entries of every goal owned by username.
func (s *entryService) ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.LedgerEntry, error) {
	user, err := s.store.Users().FindByEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}
	return s.store.Entries().List(ctx, repository.EntryFilter{UserID: user.ID})
}

// ListByGoal returns the entries of one goal.
func (s *entryService) ListByGoal(ctx context.Context, actor authz.Identity, goalID uint) ([]model.LedgerEntry, error) {
	if err := s.gate.Authorize(ctx, actor, authz.ResourceGoal, goalID, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.store.Entries().ListByGoal(ctx, goalID)
}

// ListAll returns every entry. Administrators only.
func (s *entryService) ListAll(ctx context.Context, actor authz.Identity) ([]model.LedgerEntry, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Entries().List(ctx, repository.EntryFilter{})
}

// buildEntry validates in and returns the entry to persist. Amounts are
// rounded to cents before the zero check; the type always follows the sign.
func buildEntry(in EntryInput, prefix string) (*model.LedgerEntry, apperrors.ValidationErrors) {
	var verrs apperrors.ValidationErrors
	fail := func(field, msg string) {
		verrs = append(verrs, &apperrors.ValidationError{Field: prefix + field, Message: msg})
	}

	description := strings.TrimSpace(in.Description)
	switch {
	case description == "":
		fail("description", "must not be blank")
	case utf8.RuneCountInString(description) > maxEntryDescription:
		fail("description", fmt.Sprintf("must be at most %d characters", maxEntryDescription))
	}

	amount := in.Amount.Round(2)
	derived := model.EntryTypeFor(amount)
	if amount.IsZero() {
		fail("amount", "must not be zero")
	} else if in.Type != "" {
		if !in.Type.Valid() {
			fail("type", "must be INCOME or EXPENSE")
		} else if in.Type != derived {
			fail("type", "does not match the sign of amount")
		}
	}

	if in.GoalID == 0 {
		fail("goal_id", "must reference a goal")
	}
	if in.OccurredAt.IsZero() {
		fail("timestamp", "is required")
	}

	return &model.LedgerEntry{
		Description: description,
		Amount:      amount,
		Type:        derived,
		OccurredAt:  in.OccurredAt,
		GoalID:      in.GoalID,
	}, verrs
}
