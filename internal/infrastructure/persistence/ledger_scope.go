package persistence

import (
	"context"

	appledger "github.com/construct/backend/internal/application/ledger"
	"github.com/construct/backend/internal/domain/ledger"
	"github.com/construct/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormLedgerScope implements the ledger TransactionScope using GORM
// transactions. Repositories and the sequence generator handed to the
// callback all run on the same database transaction.
type GormLedgerScope struct {
	db *gorm.DB
}

// NewGormLedgerScope creates a new GormLedgerScope
func NewGormLedgerScope(db *gorm.DB) *GormLedgerScope {
	return &GormLedgerScope{db: db}
}

// Execute runs the given function within a database transaction.
// An error rolls everything back, drawn sequence numbers included.
func (s *GormLedgerScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

type gormLedgerRepositories struct {
	tx *gorm.DB
}

// AccountRepo returns the account repository scoped to the current transaction
func (r *gormLedgerRepositories) AccountRepo() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// TransactionRepo returns the transaction repository scoped to the current transaction
func (r *gormLedgerRepositories) TransactionRepo() ledger.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// Sequences returns the sequence generator scoped to the current transaction
func (r *gormLedgerRepositories) Sequences() shared.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Ensure GormLedgerScope implements TransactionScope
var _ appledger.TransactionScope = (*GormLedgerScope)(nil)

// Ensure gormLedgerRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormLedgerRepositories)(nil)
