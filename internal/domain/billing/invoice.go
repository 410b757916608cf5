package billing

import (
	"fmt"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice.
// draft/sent/overdue/cancelled are advisory and may be set directly;
// pending/partial/paid are computed by payment reconciliation.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a known InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPending, InvoiceStatusPartial,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsComputed reports whether the status is derived from payment
// reconciliation rather than set manually
func (s InvoiceStatus) IsComputed() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid:
		return true
	}
	return false
}

// InvoiceItem is one billed line. Items are owned exclusively by their
// Invoice and replaced wholesale on update.
type InvoiceItem struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// InvoiceItemDraft is a proposed line item
type InvoiceItemDraft struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Invoice is a customer bill: a header plus the line items it owns.
// The monetary identities hold after every successful mutation:
//
//	subtotal    == sum(item.totalPrice)
//	totalAmount == subtotal + taxAmount - discountAmount
//	balanceDue  == totalAmount - paidAmount
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	ProjectID      *uuid.UUID      `json:"project_id,omitempty"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	DueDate        time.Time       `json:"due_date"`
	Status         InvoiceStatus   `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	Notes          string          `json:"notes,omitempty"`
	Items          []InvoiceItem   `json:"items"`
}

// NewInvoice creates a draft invoice with derived amounts computed from
// the item drafts. paidAmount starts at zero, so balanceDue equals the
// total.
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	customerID uuid.UUID,
	projectID *uuid.UUID,
	invoiceDate time.Time,
	dueDate time.Time,
	taxAmount decimal.Decimal,
	discountAmount decimal.Decimal,
	drafts []InvoiceItemDraft,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if invoiceDate.IsZero() || dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date and due date are required")
	}
	if taxAmount.IsNegative() || discountAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tax and discount amounts cannot be negative")
	}
	if len(drafts) == 0 {
		return nil, shared.NewDomainError("EMPTY_INVOICE", "An invoice requires at least one item")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerID:          customerID,
		ProjectID:           projectID,
		InvoiceDate:         invoiceDate,
		DueDate:             dueDate,
		Status:              InvoiceStatusDraft,
		TaxAmount:           taxAmount,
		DiscountAmount:      discountAmount,
		PaidAmount:          decimal.Zero,
	}
	if err := inv.setItems(drafts); err != nil {
		return nil, err
	}
	inv.recomputeTotals()

	return inv, nil
}

// ReplaceItems swaps the full item set for a new one and recomputes the
// derived amounts against the existing paidAmount. Replacement is
// wholesale: persistence is delete-then-insert inside the header's
// atomic unit.
func (inv *Invoice) ReplaceItems(drafts []InvoiceItemDraft) error {
	if len(drafts) == 0 {
		return shared.NewDomainError("EMPTY_INVOICE", "An invoice requires at least one item")
	}
	if err := inv.setItems(drafts); err != nil {
		return err
	}
	inv.recomputeTotals()
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// UpdateHeader patches the mutable header fields and recomputes totals
func (inv *Invoice) UpdateHeader(invoiceDate, dueDate time.Time, taxAmount, discountAmount decimal.Decimal, notes string) error {
	if invoiceDate.IsZero() || dueDate.IsZero() {
		return shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date and due date are required")
	}
	if taxAmount.IsNegative() || discountAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Tax and discount amounts cannot be negative")
	}
	inv.InvoiceDate = invoiceDate
	inv.DueDate = dueDate
	inv.TaxAmount = taxAmount
	inv.DiscountAmount = discountAmount
	inv.Notes = notes
	inv.recomputeTotals()
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// OverrideStatus sets the advisory status directly. Manual edits can
// diverge from the computed paidAmount; the next reconciliation pass
// recomputes pending/partial/paid from completed payments.
func (inv *Invoice) OverrideStatus(status InvoiceStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("%q is not a valid invoice status", status))
	}
	inv.Status = status
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// ApplyReconciliation sets the paid amount derived from the sum of
// completed payments referencing this invoice and recomputes balanceDue
// and the computed status. Payment writes call this; it always moves
// the invoice onto a computed state.
func (inv *Invoice) ApplyReconciliation(completedTotal decimal.Decimal) {
	inv.refreshSettlement(completedTotal, true)
}

// RefreshSettlement re-derives paidAmount and balanceDue without
// disturbing an advisory status. An invoice already in a computed state
// gets its status recomputed too; draft, sent, overdue and cancelled
// stay as set until a payment write reconciles the invoice.
func (inv *Invoice) RefreshSettlement(completedTotal decimal.Decimal) {
	inv.refreshSettlement(completedTotal, inv.Status.IsComputed())
}

func (inv *Invoice) refreshSettlement(completedTotal decimal.Decimal, recomputeStatus bool) {
	inv.PaidAmount = completedTotal
	inv.BalanceDue = inv.TotalAmount.Sub(inv.PaidAmount)
	if recomputeStatus {
		switch {
		case inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount):
			inv.Status = InvoiceStatusPaid
		case inv.PaidAmount.IsPositive():
			inv.Status = InvoiceStatusPartial
		default:
			inv.Status = InvoiceStatusPending
		}
	}
	inv.Touch()
	inv.IncrementVersion()
}

// IsSettled returns true once the invoice carries no outstanding balance
func (inv *Invoice) IsSettled() bool {
	return !inv.BalanceDue.IsPositive()
}

func (inv *Invoice) setItems(drafts []InvoiceItemDraft) error {
	items := make([]InvoiceItem, len(drafts))
	for i, d := range drafts {
		if d.Description == "" {
			return shared.NewDomainError("INVALID_ITEM", fmt.Sprintf("Item %d is missing a description", i+1))
		}
		if d.Quantity.IsNegative() || d.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_ITEM", fmt.Sprintf("Item %d has a negative quantity or unit price", i+1))
		}
		total := d.TotalPrice
		if total.IsZero() {
			total = d.Quantity.Mul(d.UnitPrice)
		}
		if total.IsNegative() {
			return shared.NewDomainError("INVALID_ITEM", fmt.Sprintf("Item %d has a negative total", i+1))
		}
		items[i] = InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Description: d.Description,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			TotalPrice:  total,
		}
	}
	inv.Items = items
	return nil
}

func (inv *Invoice) recomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	inv.Subtotal = subtotal
	inv.TotalAmount = subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)
	inv.BalanceDue = inv.TotalAmount.Sub(inv.PaidAmount)
}
