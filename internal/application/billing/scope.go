package billing

import (
	"context"
	"time"

	"github.com/construct/backend/internal/domain/billing"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BillingRepositories provides access to repositories that share one
// database transaction. Number generation, the insert that consumes the
// number and the reconciliation pass it triggers all run through the
// same instance.
type BillingRepositories interface {
	InvoiceRepo() billing.InvoiceRepository
	PaymentRepo() billing.PaymentRepository
	Sequences() shared.SequenceGenerator
}

// BillingScope executes a function within a database transaction
type BillingScope interface {
	Execute(ctx context.Context, fn func(repos BillingRepositories) error) error
}

// IdempotencyStore deduplicates payment submissions by client-supplied
// key. A hit returns the payment created by the first submission.
type IdempotencyStore interface {
	// Get returns the payment ID recorded under the key, or uuid.Nil
	// when the key is unknown.
	Get(ctx context.Context, tenantID uuid.UUID, key string) (uuid.UUID, error)
	// Put records the payment ID under the key for the given TTL.
	Put(ctx context.Context, tenantID uuid.UUID, key string, paymentID uuid.UUID, ttl time.Duration) error
}
