package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings or spending target inside a category.
//
// Balance is the running total maintained by the ledger engine. It always
// equals OpeningBalance plus the sum of the goal's ledger entry amounts.
type Goal struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Description    string          `json:"description" gorm:"size:45;not null"`
	OpeningBalance decimal.Decimal `json:"opening_balance" gorm:"type:decimal(20,2);not null;default:0"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null;default:0"`
	StartDate      time.Time       `json:"start_date" gorm:"not null"`
	EndDate        time.Time       `json:"end_date" gorm:"not null"`
	CategoryID     uint            `json:"category_id" gorm:"not null;index"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
