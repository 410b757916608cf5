package persistence

import (
	"context"

	appbilling "github.com/construct/backend/internal/application/billing"
	"github.com/construct/backend/internal/domain/billing"
	"github.com/construct/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBillingScope implements BillingScope using GORM transactions.
// Repositories and the sequence generator handed to the callback all
// run on the same database transaction, so a payment insert and the
// reconciliation it triggers commit or roll back together.
type GormBillingScope struct {
	db *gorm.DB
}

// NewGormBillingScope creates a new GormBillingScope
func NewGormBillingScope(db *gorm.DB) *GormBillingScope {
	return &GormBillingScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormBillingScope) Execute(ctx context.Context, fn func(repos appbilling.BillingRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBillingRepositories{tx: tx})
	})
}

type gormBillingRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction
func (r *gormBillingRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction
func (r *gormBillingRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Sequences returns the sequence generator scoped to the current transaction
func (r *gormBillingRepositories) Sequences() shared.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Ensure GormBillingScope implements BillingScope
var _ appbilling.BillingScope = (*GormBillingScope)(nil)

// Ensure gormBillingRepositories implements BillingRepositories
var _ appbilling.BillingRepositories = (*gormBillingRepositories)(nil)
