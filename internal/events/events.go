// Package events publishes notifications about committed ledger operations.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event describes one committed ledger operation.
type Event struct {
	Type       models.TransactionType `json:"type"`
	FriendlyID string                 `json:"friendlyId"`
	EnvelopeID uuid.UUID              `json:"envelopeId"`
	UserID     uint64                 `json:"user"`
	Delta      decimal.Decimal        `json:"delta"`
	Balance    decimal.Decimal        `json:"balance"` // Balance of the envelope after the operation
	Created    time.Time              `json:"created"`
}

// NewEvent returns the event for a transaction and the envelope state it resulted in.
func NewEvent(envelope models.Envelope, transaction models.Transaction) Event {
	return Event{
		Type:       transaction.Type,
		FriendlyID: transaction.FriendlyID,
		EnvelopeID: envelope.PublicID,
		UserID:     transaction.UserID,
		Delta:      transaction.Delta,
		Balance:    envelope.Balance,
		Created:    transaction.Created,
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher publishes events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error {
	return nil
}
