package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"socioai/internal/model"
)

// EntryFilter narrows ledger entry listings. Zero values mean "no bound".
type EntryFilter struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
}

// EntryRepository defines ledger entry persistence operations. Callers that
// change amounts or goal references must also move the goal balance inside
// the same transaction.
type EntryRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	Update(ctx context.Context, entry *model.LedgerEntry) error
	Delete(ctx context.Context, id uint) error
	DeleteByGoal(ctx context.Context, goalID uint) error
	DeleteByCategory(ctx context.Context, categoryID uint) error
	FindByID(ctx context.Context, id uint) (*model.LedgerEntry, error)
	ListByGoal(ctx context.Context, goalID uint) ([]model.LedgerEntry, error)
	List(ctx context.Context, filter EntryFilter) ([]model.LedgerEntry, error)
}

type entryRepository struct {
	db *gorm.DB
}

func (r *entryRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	return translate("ledger entry", entry.ID, r.db.WithContext(ctx).Create(entry).Error)
}

func (r *entryRepository) Update(ctx context.Context, entry *model.LedgerEntry) error {
	return translate("ledger entry", entry.ID, r.db.WithContext(ctx).Save(entry).Error)
}

func (r *entryRepository) Delete(ctx context.Context, id uint) error {
	return affected("ledger entry", id, r.db.WithContext(ctx).Delete(&model.LedgerEntry{}, id))
}

func (r *entryRepository) DeleteByGoal(ctx context.Context, goalID uint) error {
	return r.db.WithContext(ctx).Where("goal_id = ?", goalID).Delete(&model.LedgerEntry{}).Error
}

func (r *entryRepository) DeleteByCategory(ctx context.Context, categoryID uint) error {
	goals := r.db.Model(&model.Goal{}).Select("id").Where("category_id = ?", categoryID)
	return r.db.WithContext(ctx).Where("goal_id IN (?)", goals).Delete(&model.LedgerEntry{}).Error
}

func (r *entryRepository) FindByID(ctx context.Context, id uint) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, translate("ledger entry", id, err)
	}
	return &entry, nil
}

func (r *entryRepository) ListByGoal(ctx context.Context, goalID uint) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("occurred_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// List returns entries newest first, optionally restricted to one owner and
// an occurrence window [From, To).
func (r *entryRepository) List(ctx context.Context, filter EntryFilter) ([]model.LedgerEntry, error) {
	q := r.db.WithContext(ctx).Model(&model.LedgerEntry{})
	if filter.UserID != uuid.Nil {
		q = q.Joins("JOIN goals ON goals.id = ledger_entries.goal_id").
			Joins("JOIN categories ON categories.id = goals.category_id").
			Where("categories.user_id = ?", filter.UserID)
	}
	if !filter.From.IsZero() {
		q = q.Where("ledger_entries.occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("ledger_entries.occurred_at < ?", filter.To)
	}

	var entries []model.LedgerEntry
	if err := q.Order("ledger_entries.occurred_at DESC, ledger_entries.id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
