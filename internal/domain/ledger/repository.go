package ledger

import (
	"context"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountFilter defines query options for chart-of-accounts lookups
type AccountFilter struct {
	shared.Filter
	AccountType *AccountType
	ParentID    *uuid.UUID
	ActiveOnly  bool
}

// AccountRepository persists chart-of-accounts nodes
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]Account, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) (int64, error)
	Save(ctx context.Context, account *Account) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	// HasEntries reports whether any ledger entry references the account.
	// Referenced accounts are soft-deactivated, never deleted, and their
	// type is immutable.
	HasEntries(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error)
}

// TransactionFilter defines query options for transaction lookups
type TransactionFilter struct {
	shared.Filter
	TransactionType *TransactionType
	Status          *TransactionStatus
	FromDate        *time.Time
	ToDate          *time.Time
}

// TransactionRepository persists the Transaction aggregate. Save and
// ReplaceEntries must be called on a transaction-scoped instance so
// header and entries commit or roll back as one unit.
type TransactionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Transaction, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]Transaction, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) (int64, error)
	// Create inserts the header and all entries.
	Create(ctx context.Context, transaction *Transaction) error
	// Update patches the header and wholesale-replaces the entries
	// (delete then insert).
	Update(ctx context.Context, transaction *Transaction) error
	// DeleteForTenant hard-deletes the header; entries cascade.
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
