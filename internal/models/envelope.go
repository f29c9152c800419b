package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Envelope is a budget sub-ledger of an Account.
//
// Its Balance always equals InitialBalance plus the sum of the deltas of all
// its transactions. Only the ledger engine changes Balance and Modified.
type Envelope struct {
	DefaultModel
	Timestamps
	CreatorID      uint64          `json:"creator" example:"3"`                                           // User who created the envelope
	Name           string          `json:"name" gorm:"size:50" example:"Groceries"`                       // Name of the envelope
	Description    string          `json:"description" gorm:"size:200" example:"For the weekly shopping"` // Description of the envelope
	Budget         decimal.Decimal `json:"budget" gorm:"type:DECIMAL(14,2)" example:"100.00"`             // Target allocation
	Balance        decimal.Decimal `json:"balance" gorm:"type:DECIMAL(14,2)" example:"120.00"`            // Current funds
	InitialBalance decimal.Decimal `json:"initialBalance" gorm:"type:DECIMAL(14,2)" example:"100.00"`     // Balance at creation
	AccountID      uuid.UUID       `json:"accountId" gorm:"type:uuid;index;not null" example:"550dc009-cea6-4c12-b2a5-03446eb7b7cf"`
	Account        Account         `json:"-" gorm:"foreignKey:AccountID;references:PublicID"`
}

// BeforeSave trims whitespace, validates field lengths and
// sets the timestamps.
func (e *Envelope) BeforeSave(tx *gorm.DB) (err error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Description = strings.TrimSpace(e.Description)

	if e.Name == "" {
		return ErrNameRequired
	}

	if err := maxLength("name", e.Name, 50); err != nil {
		return err
	}

	if err := maxLength("description", e.Description, 200); err != nil {
		return err
	}

	return e.Timestamps.BeforeSave(tx)
}

// BeforeUpdate prevents the creator from being written after creation.
func (e *Envelope) BeforeUpdate(tx *gorm.DB) (err error) {
	selected, _ := tx.Statement.SelectAndOmitColumns(false, true)
	if selected["creator_id"] || tx.Statement.Changed("CreatorID") {
		return ErrCreatorImmutable
	}
	return nil
}
