package models

import (
	"github.com/shopspring/decimal"
)

// Account holds the envelopes of one owner.
//
// Its balance is maintained by the surrounding application, the
// ledger engine never changes it.
type Account struct {
	DefaultModel
	Timestamps
	OwnerID uint64          `json:"owner" example:"3"`                                   // User owning the account
	Balance decimal.Decimal `json:"balance" gorm:"type:DECIMAL(14,2)" example:"2735.17"` // Balance of the account
}
