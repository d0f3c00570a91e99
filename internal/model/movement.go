package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement holds the columns shared by incomes and expenses.
type Movement struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Description string          `json:"description" gorm:"size:100"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	OccurredAt  time.Time       `json:"timestamp" gorm:"not null;index"`
	CategoryID  uint            `json:"category_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// Base gives generic code access to the shared columns.
func (m *Movement) Base() *Movement { return m }

// Income is money received against a category.
type Income struct {
	Movement
}

// TableName overrides the default table name.
func (Income) TableName() string { return "incomes" }

// Expense is money spent against a category.
type Expense struct {
	Movement
}

// TableName overrides the default table name.
func (Expense) TableName() string { return "expenses" }
