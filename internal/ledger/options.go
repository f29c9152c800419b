package ledger

import (
	"github.com/envelope-zero/ledger/internal/events"
	"github.com/envelope-zero/ledger/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option configures an Engine.
type Option func(*Engine)

// WithOverdraft sets whether withdrawals may make a balance negative.
// Overdrafts are allowed by default.
func WithOverdraft(allow bool) Option {
	return func(e *Engine) {
		e.overdraft = allow
	}
}

// WithMetrics records the outcome and duration of operations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithPublisher sets the publisher for events of committed operations.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithLogger sets the logger. It defaults to the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

type transactionOptions struct {
	description string
	comment     string
	categoryID  *uuid.UUID
}

// TransactionOption sets optional fields of the transaction that
// Deposit and Withdraw record.
type TransactionOption func(*transactionOptions)

// WithDescription sets the description of the transaction.
func WithDescription(description string) TransactionOption {
	return func(o *transactionOptions) {
		o.description = description
	}
}

// WithComment sets the comment of the transaction.
func WithComment(comment string) TransactionOption {
	return func(o *transactionOptions) {
		o.comment = comment
	}
}

// WithCategory tags the transaction with a category. The category must exist.
func WithCategory(id uuid.UUID) TransactionOption {
	return func(o *transactionOptions) {
		o.categoryID = &id
	}
}
