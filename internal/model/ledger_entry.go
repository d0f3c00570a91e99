package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tags a ledger entry as income or expense.
type EntryType string

const (
	EntryTypeIncome  EntryType = "INCOME"
	EntryTypeExpense EntryType = "EXPENSE"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == EntryTypeIncome || t == EntryTypeExpense
}

// EntryTypeFor derives the type from the sign of amount.
func EntryTypeFor(amount decimal.Decimal) EntryType {
	if amount.IsPositive() {
		return EntryTypeIncome
	}
	return EntryTypeExpense
}

// LedgerEntry is a dated monetary movement applied to exactly one goal.
type LedgerEntry struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Description string          `json:"description" gorm:"size:100;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Type        EntryType       `json:"type" gorm:"size:10;not null;index"`
	OccurredAt  time.Time       `json:"timestamp" gorm:"not null;index"`
	GoalID      uint            `json:"goal_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}
