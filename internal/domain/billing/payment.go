package billing

import (
	"fmt"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/construct/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType distinguishes money received from money sent
type PaymentType string

const (
	PaymentTypeReceived PaymentType = "received"
	PaymentTypeSent     PaymentType = "sent"
)

// IsValid checks if the payment type is a known PaymentType
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeReceived || t == PaymentTypeSent
}

// PaymentStatus represents the settlement state of a payment.
// Only completed payments count toward invoice reconciliation.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid checks if the status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// ReferenceKind identifies what a payment is applied against
type ReferenceKind string

const (
	ReferenceKindInvoice ReferenceKind = "invoice"
	ReferenceKindProject ReferenceKind = "project"
	ReferenceKindOther   ReferenceKind = "other"
)

// IsValid checks if the kind is a known ReferenceKind
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceKindInvoice, ReferenceKindProject, ReferenceKindOther:
		return true
	}
	return false
}

// Reference is the weak, typed link from a payment to the record it
// settles. Resolved by lookup; never cascaded on delete.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   uuid.UUID     `json:"id"`
}

// NewReference creates a validated payment reference
func NewReference(kind ReferenceKind, id uuid.UUID) (*Reference, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE", fmt.Sprintf("%q is not a valid reference kind", kind))
	}
	if id == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}
	return &Reference{Kind: kind, ID: id}, nil
}

// IsInvoice reports whether the reference targets an invoice
func (r *Reference) IsInvoice() bool {
	return r != nil && r.Kind == ReferenceKindInvoice
}

// Payment is a money movement applied against a reference. The derived
// fields hold after every successful mutation:
//
//	amountInBaseCurrency == amount * exchangeRate
//	netAmount            == amount - transactionFee
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber        string               `json:"payment_number"`
	PaymentDate          time.Time            `json:"payment_date"`
	PaymentType          PaymentType          `json:"payment_type"`
	PaymentMethod        string               `json:"payment_method,omitempty"`
	Reference            *Reference           `json:"reference,omitempty"`
	PayerID              *uuid.UUID           `json:"payer_id,omitempty"`
	PayerType            string               `json:"payer_type,omitempty"`
	Amount               decimal.Decimal      `json:"amount"`
	Currency             valueobject.Currency `json:"currency"`
	ExchangeRate         decimal.Decimal      `json:"exchange_rate"`
	AmountInBaseCurrency decimal.Decimal      `json:"amount_in_base_currency"`
	TransactionFee       decimal.Decimal      `json:"transaction_fee"`
	NetAmount            decimal.Decimal      `json:"net_amount"`
	Status               PaymentStatus        `json:"status"`
	Notes                string               `json:"notes,omitempty"`
	VerifiedBy           *uuid.UUID           `json:"verified_by,omitempty"`
	VerifiedAt           *time.Time           `json:"verified_at,omitempty"`
}

// NewPayment creates a payment with derived amounts computed. An empty
// currency defaults to the base currency; a zero exchange rate defaults
// to 1.
func NewPayment(
	tenantID uuid.UUID,
	paymentNumber string,
	paymentDate time.Time,
	paymentType PaymentType,
	amount decimal.Decimal,
	currency string,
	exchangeRate decimal.Decimal,
	transactionFee decimal.Decimal,
	status PaymentStatus,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type is not valid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if exchangeRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate cannot be negative")
	}
	if transactionFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEE", "Transaction fee cannot be negative")
	}
	if status == "" {
		status = PaymentStatusPending
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("%q is not a valid payment status", status))
	}
	if currency == "" {
		currency = string(valueobject.BaseCurrency)
	}
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		PaymentDate:         paymentDate,
		PaymentType:         paymentType,
		Amount:              amount,
		Currency:            valueobject.Currency(currency),
		ExchangeRate:        exchangeRate,
		TransactionFee:      transactionFee,
		Status:              status,
	}
	p.recomputeDerived()

	return p, nil
}

// SetReference attaches the reference this payment settles
func (p *Payment) SetReference(kind ReferenceKind, id uuid.UUID) error {
	ref, err := NewReference(kind, id)
	if err != nil {
		return err
	}
	p.Reference = ref
	return nil
}

// SetPayer records who made or received the payment
func (p *Payment) SetPayer(payerID uuid.UUID, payerType string) {
	p.PayerID = &payerID
	p.PayerType = payerType
}

// UpdateAmounts patches the monetary fields and recomputes the derived
// amounts.
func (p *Payment) UpdateAmounts(amount, exchangeRate, transactionFee decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if exchangeRate.IsNegative() || exchangeRate.IsZero() {
		return shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}
	if transactionFee.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Transaction fee cannot be negative")
	}
	p.Amount = amount
	p.ExchangeRate = exchangeRate
	p.TransactionFee = transactionFee
	p.recomputeDerived()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ChangeStatus transitions the settlement state. Returns the previous
// status so callers can emit a status-changed event.
func (p *Payment) ChangeStatus(status PaymentStatus) (PaymentStatus, error) {
	if !status.IsValid() {
		return p.Status, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("%q is not a valid payment status", status))
	}
	old := p.Status
	p.Status = status
	if old != status {
		p.Touch()
		p.IncrementVersion()
	}
	return old, nil
}

// Verify records the verifying user and timestamp
func (p *Payment) Verify(verifiedBy uuid.UUID) error {
	if verifiedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Verifying user ID is required")
	}
	now := time.Now()
	p.VerifiedBy = &verifiedBy
	p.VerifiedAt = &now
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsCompleted reports whether the payment counts toward reconciliation
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// Money returns the payment amount in its original currency
func (p *Payment) Money() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}

// BaseMoney returns the amount converted into the base currency using
// the exchange rate stored at booking time
func (p *Payment) BaseMoney() valueobject.Money {
	return valueobject.NewBaseMoney(p.Money().MulRate(p.ExchangeRate).Amount())
}

func (p *Payment) recomputeDerived() {
	p.AmountInBaseCurrency = p.BaseMoney().Amount()
	p.NetAmount = p.Money().Amount().Sub(p.TransactionFee)
}
