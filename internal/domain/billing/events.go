package billing

import (
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the billing domain
const (
	EventTypePaymentCreated       = "payment.created"
	EventTypePaymentStatusChanged = "payment.status_changed"
)

// PaymentCreatedEvent is emitted after a payment insert commits
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	ReferenceKind ReferenceKind   `json:"reference_kind,omitempty"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
}

// NewPaymentCreatedEvent creates a PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	e := &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, "Payment", p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		Amount:          p.Amount,
		Status:          p.Status,
	}
	if p.Reference != nil {
		e.ReferenceKind = p.Reference.Kind
		id := p.Reference.ID
		e.ReferenceID = &id
	}
	return e
}

// PaymentStatusChangedEvent is emitted when a payment's settlement
// state transitions
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	OldStatus     PaymentStatus   `json:"old_status"`
	NewStatus     PaymentStatus   `json:"new_status"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceKind ReferenceKind   `json:"reference_kind,omitempty"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
}

// NewPaymentStatusChangedEvent creates a PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(p *Payment, oldStatus PaymentStatus) *PaymentStatusChangedEvent {
	e := &PaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, "Payment", p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		OldStatus:       oldStatus,
		NewStatus:       p.Status,
		Amount:          p.Amount,
	}
	if p.Reference != nil {
		e.ReferenceKind = p.Reference.Kind
		id := p.Reference.ID
		e.ReferenceID = &id
	}
	return e
}
