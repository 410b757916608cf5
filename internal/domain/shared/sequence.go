package shared

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SequenceKind identifies a numbered entity class
type SequenceKind string

const (
	SequenceKindInvoice     SequenceKind = "invoice"
	SequenceKindPayment     SequenceKind = "payment"
	SequenceKindTransaction SequenceKind = "transaction"
)

// IsValid checks if the kind is a known SequenceKind
func (k SequenceKind) IsValid() bool {
	switch k {
	case SequenceKindInvoice, SequenceKindPayment, SequenceKindTransaction:
		return true
	}
	return false
}

// Prefix returns the three-letter tag embedded in generated numbers
func (k SequenceKind) Prefix() string {
	switch k {
	case SequenceKindInvoice:
		return "INV"
	case SequenceKindPayment:
		return "PAY"
	case SequenceKindTransaction:
		return "TXN"
	}
	return ""
}

// Width returns the zero-padding width of the sequence part
func (k SequenceKind) Width() int {
	if k == SequenceKindTransaction {
		return 6
	}
	return 4
}

// FormatNumber renders a reference code, e.g. INV-2026-0042 or TXN-2026-000108
func FormatNumber(kind SequenceKind, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%0*d", kind.Prefix(), year, kind.Width(), seq)
}

// SequenceGenerator produces collision-free reference codes scoped per
// tenant, per kind, per year. Next must be called on an instance bound
// to the same database transaction as the insert that consumes the
// number, so the counter increment and the insert commit or roll back
// together.
type SequenceGenerator interface {
	Next(ctx context.Context, tenantID uuid.UUID, kind SequenceKind) (string, error)
}
