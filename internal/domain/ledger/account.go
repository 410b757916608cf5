package ledger

import (
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountType classifies a chart-of-accounts node
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// IsValid checks if the account type is a known AccountType
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// Account is a chart-of-accounts node. Accounts form a tree via
// ParentID; the hierarchy is resolved by lookup, children are never
// embedded in the persisted entity.
type Account struct {
	shared.TenantAggregateRoot
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"account_type"`
	ParentID    *uuid.UUID  `json:"parent_id,omitempty"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"is_active"`
}

// NewAccount creates a new chart-of-accounts node
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType, parentID *uuid.UUID) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot exceed 20 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}

	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		AccountType:         accountType,
		ParentID:            parentID,
		IsActive:            true,
	}, nil
}

// Rename changes the display name
func (a *Account) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	a.Name = name
	a.Touch()
	a.IncrementVersion()
	return nil
}

// ChangeType changes the account type. The caller must verify the
// account is unreferenced by ledger entries first; a referenced
// account's type is immutable.
func (a *Account) ChangeType(accountType AccountType) error {
	if !accountType.IsValid() {
		return shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}
	a.AccountType = accountType
	a.Touch()
	a.IncrementVersion()
	return nil
}

// Deactivate soft-deactivates the account. Accounts referenced by
// entries are never hard-deleted.
func (a *Account) Deactivate() {
	a.IsActive = false
	a.Touch()
	a.IncrementVersion()
}

// Activate re-enables the account
func (a *Account) Activate() {
	a.IsActive = true
	a.Touch()
	a.IncrementVersion()
}
