package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeCreated   TransactionType = "CREATED"
	TransactionTypeDeposited TransactionType = "DEPOSITED"
	TransactionTypeWithdrawn TransactionType = "WITHDRAWN"
)

var transactionTypes = []TransactionType{
	TransactionTypeCreated,
	TransactionTypeDeposited,
	TransactionTypeWithdrawn,
}

// Transaction is the immutable record of one change to the balance of an Envelope.
//
// Transactions are only ever inserted. Updates and deletes are rejected.
type Transaction struct {
	ID          uint64          `json:"-" gorm:"primaryKey"`
	FriendlyID  string          `json:"friendlyId" gorm:"size:64;uniqueIndex;not null" example:"8KX2RQ0D"` // Display code of the transaction
	UserID      uint64          `json:"user" example:"3"`                                                  // User who performed the action
	Created     time.Time       `json:"created" gorm:"index" example:"2022-04-02T19:28:44.491514Z"`        // Time of the action
	EnvelopeID  uuid.UUID       `json:"envelopeId" gorm:"type:uuid;index;not null" example:"65392deb-5e92-4268-b114-297faad6cdce"`
	Envelope    Envelope        `json:"-" gorm:"foreignKey:EnvelopeID;references:PublicID"`
	Type        TransactionType `json:"type" gorm:"size:30" example:"DEPOSITED"`
	Delta       decimal.Decimal `json:"delta" gorm:"type:DECIMAL(14,2)" example:"50.00"` // Change of the envelope balance
	Description string          `json:"description" gorm:"size:100" example:"Paycheck"`
	CategoryID  *uuid.UUID      `json:"categoryId" gorm:"type:uuid" example:"e3e2bd2b-4d1c-4c8b-8a9e-4a1b2c3d4e5f"`
	Category    *Category       `json:"-" gorm:"foreignKey:CategoryID;references:PublicID"`
	Comment     string          `json:"comment" example:"Split with Alex"`
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000.
func (t *Transaction) AfterFind(_ *gorm.DB) (err error) {
	t.Created = t.Created.In(time.UTC)
	return nil
}

// BeforeCreate
//   - trims whitespace from string fields
//   - validates the type and the field lengths
//   - sets the timezone for Created to UTC
func (t *Transaction) BeforeCreate(_ *gorm.DB) (err error) {
	t.Description = strings.TrimSpace(t.Description)
	t.Comment = strings.TrimSpace(t.Comment)

	if !slices.Contains(transactionTypes, t.Type) {
		return fmt.Errorf("%w: '%s'", ErrTransactionTypeInvalid, t.Type)
	}

	if err := maxLength("description", t.Description, 100); err != nil {
		return err
	}

	// Ensure that the Category ID is nil and not a pointer to a nil UUID
	if t.CategoryID != nil && *t.CategoryID == uuid.Nil {
		t.CategoryID = nil
	}

	t.Created = t.Created.In(time.UTC)
	return nil
}

func (t *Transaction) BeforeUpdate(_ *gorm.DB) (err error) {
	return ErrTransactionImmutable
}

func (t *Transaction) BeforeDelete(_ *gorm.DB) (err error) {
	return ErrTransactionImmutable
}
