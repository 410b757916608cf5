package ledger

import (
	"github.com/construct/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types published by the ledger domain
const (
	EventTypeTransactionCreated  = "transaction.created"
	EventTypeTransactionApproved = "transaction.approved"
	EventTypeTransactionRejected = "transaction.rejected"
)

// TransactionCreatedEvent is emitted when a transaction is booked
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	TransactionNumber string          `json:"transaction_number"`
	TransactionType   TransactionType `json:"transaction_type"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Description       string          `json:"description"`
}

// NewTransactionCreatedEvent creates a TransactionCreatedEvent
func NewTransactionCreatedEvent(t *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransactionCreated, "Transaction", t.ID, t.TenantID),
		TransactionNumber: t.TransactionNumber,
		TransactionType:   t.TransactionType,
		TotalAmount:       t.TotalAmount,
		Description:       t.Description,
	}
}

// TransactionApprovedEvent is emitted when a pending transaction is approved
type TransactionApprovedEvent struct {
	shared.BaseDomainEvent
	TransactionNumber string          `json:"transaction_number"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

// NewTransactionApprovedEvent creates a TransactionApprovedEvent
func NewTransactionApprovedEvent(t *Transaction) *TransactionApprovedEvent {
	return &TransactionApprovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransactionApproved, "Transaction", t.ID, t.TenantID),
		TransactionNumber: t.TransactionNumber,
		TotalAmount:       t.TotalAmount,
	}
}

// TransactionRejectedEvent is emitted when a pending transaction is rejected
type TransactionRejectedEvent struct {
	shared.BaseDomainEvent
	TransactionNumber string          `json:"transaction_number"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

// NewTransactionRejectedEvent creates a TransactionRejectedEvent
func NewTransactionRejectedEvent(t *Transaction) *TransactionRejectedEvent {
	return &TransactionRejectedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransactionRejected, "Transaction", t.ID, t.TenantID),
		TransactionNumber: t.TransactionNumber,
		TotalAmount:       t.TotalAmount,
	}
}
