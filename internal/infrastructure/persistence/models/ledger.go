package models

import (
	"time"

	"github.com/construct/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root
type AccountModel struct {
	TenantAggregateModel
	Code        string             `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name        string             `gorm:"type:varchar(100);not null"`
	AccountType ledger.AccountType `gorm:"type:varchar(20);not null;index"`
	ParentID    *uuid.UUID         `gorm:"type:uuid;index"`
	Description string             `gorm:"type:text"`
	IsActive    bool               `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	account := &ledger.Account{
		Code:        m.Code,
		Name:        m.Name,
		AccountType: m.AccountType,
		ParentID:    m.ParentID,
		Description: m.Description,
		IsActive:    m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&account.TenantAggregateRoot)
	return account
}

// FromDomain populates the persistence model from a domain Account
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.AccountType = a.AccountType
	m.ParentID = a.ParentID
	m.Description = a.Description
	m.IsActive = a.IsActive
}

// AccountModelFromDomain creates a new persistence model from a domain Account
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// TransactionModel is the persistence model for the Transaction
// aggregate root. Entries are owned rows deleted with their parent.
type TransactionModel struct {
	TenantAggregateModel
	TransactionNumber string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_transaction_tenant_number,priority:2"`
	TransactionDate   time.Time                `gorm:"not null;index"`
	TransactionType   ledger.TransactionType   `gorm:"type:varchar(20);not null;index"`
	SourceKind        *string                  `gorm:"type:varchar(20)"`
	SourceID          *uuid.UUID               `gorm:"type:uuid;index"`
	Description       string                   `gorm:"type:varchar(500);not null"`
	TotalAmount       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Status            ledger.TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovedBy        *uuid.UUID               `gorm:"type:uuid"`
	ApprovedAt        *time.Time
	Entries           []EntryModel             `gorm:"foreignKey:TransactionID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	txn := &ledger.Transaction{
		TransactionNumber: m.TransactionNumber,
		TransactionDate:   m.TransactionDate,
		TransactionType:   m.TransactionType,
		Description:       m.Description,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
	}
	m.PopulateTenantAggregateRoot(&txn.TenantAggregateRoot)
	if m.SourceKind != nil && m.SourceID != nil {
		txn.Source = &ledger.Source{Kind: ledger.SourceKind(*m.SourceKind), ID: *m.SourceID}
	}
	txn.Entries = make([]ledger.Entry, len(m.Entries))
	for i, e := range m.Entries {
		txn.Entries[i] = *e.ToDomain()
	}
	return txn
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.TransactionNumber = t.TransactionNumber
	m.TransactionDate = t.TransactionDate
	m.TransactionType = t.TransactionType
	m.Description = t.Description
	m.TotalAmount = t.TotalAmount
	m.Status = t.Status
	m.ApprovedBy = t.ApprovedBy
	m.ApprovedAt = t.ApprovedAt
	if t.Source != nil {
		kind := string(t.Source.Kind)
		id := t.Source.ID
		m.SourceKind = &kind
		m.SourceID = &id
	} else {
		m.SourceKind = nil
		m.SourceID = nil
	}
	m.Entries = make([]EntryModel, len(t.Entries))
	for i, e := range t.Entries {
		m.Entries[i].FromDomain(&e)
	}
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// EntryModel is the persistence model for one debit-or-credit line
type EntryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountCode   string          `gorm:"type:varchar(20)"`
	AccountName   string          `gorm:"type:varchar(100)"`
	DebitAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Description   string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (EntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *EntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		AccountCode:   m.AccountCode,
		AccountName:   m.AccountName,
		DebitAmount:   m.DebitAmount,
		CreditAmount:  m.CreditAmount,
		Description:   m.Description,
	}
}

// FromDomain populates the persistence model from a domain Entry
func (m *EntryModel) FromDomain(e *ledger.Entry) {
	m.ID = e.ID
	m.TransactionID = e.TransactionID
	m.AccountID = e.AccountID
	m.AccountCode = e.AccountCode
	m.AccountName = e.AccountName
	m.DebitAmount = e.DebitAmount
	m.CreditAmount = e.CreditAmount
	m.Description = e.Description
}
