package billing

import (
	"context"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines query options for invoice lookups
type InvoiceFilter struct {
	shared.Filter
	Status     *InvoiceStatus
	CustomerID *uuid.UUID
	ProjectID  *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
}

// InvoiceRepository persists the Invoice aggregate. Save must be called
// on a transaction-scoped instance so the header and items commit or
// roll back as one unit.
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByIDForTenantLocked loads the invoice with a row lock so
	// concurrent reconciliations against the same invoice serialize.
	// Only valid inside a transaction scope.
	FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)
	// Create inserts the header and all items.
	Create(ctx context.Context, invoice *Invoice) error
	// Update patches the header and wholesale-replaces the items
	// (delete then insert).
	Update(ctx context.Context, invoice *Invoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentFilter defines query options for payment lookups
type PaymentFilter struct {
	shared.Filter
	PaymentType   *PaymentType
	Status        *PaymentStatus
	ReferenceKind *ReferenceKind
	ReferenceID   *uuid.UUID
	FromDate      *time.Time
	ToDate        *time.Time
}

// PaymentRepository persists the Payment aggregate
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)
	// SumCompletedByReference returns the total amount of completed
	// payments applied against the given reference. This aggregate sum
	// is the sole input to invoice reconciliation.
	SumCompletedByReference(ctx context.Context, tenantID uuid.UUID, kind ReferenceKind, refID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, payment *Payment) error
	Update(ctx context.Context, payment *Payment) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
