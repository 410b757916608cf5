package ledger

import (
	"fmt"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger event
type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "income"
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// IsValid checks if the transaction type is a known TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer, TransactionTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// TransactionStatus represents the approval state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
)

// IsValid checks if the status is a known TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true once the transaction can no longer transition
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// SourceKind identifies what a transaction's optional reference points at
type SourceKind string

const (
	SourceKindInvoice SourceKind = "invoice"
	SourceKindPayment SourceKind = "payment"
	SourceKindOther   SourceKind = "other"
)

// IsValid checks if the kind is a known SourceKind
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindInvoice, SourceKindPayment, SourceKindOther:
		return true
	}
	return false
}

// Source is a weak, typed reference from a transaction to the record it
// books. It is resolved by lookup and never cascaded on delete.
type Source struct {
	Kind SourceKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// Entry is one debit-or-credit line of a transaction. Entries are owned
// exclusively by their Transaction and are created, replaced and
// deleted with it.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	AccountCode   string          `json:"account_code,omitempty"` // Denormalized for display
	AccountName   string          `json:"account_name,omitempty"` // Denormalized for display
	DebitAmount   decimal.Decimal `json:"debit_amount"`
	CreditAmount  decimal.Decimal `json:"credit_amount"`
	Description   string          `json:"description,omitempty"`
}

// Transaction is a double-entry ledger event: a header plus at least two
// entries whose debits equal credits. Header and entries are persisted
// and mutated as one atomic unit; entries never outlive or precede
// their parent.
type Transaction struct {
	shared.TenantAggregateRoot
	TransactionNumber string            `json:"transaction_number"`
	TransactionDate   time.Time         `json:"transaction_date"`
	TransactionType   TransactionType   `json:"transaction_type"`
	Source            *Source           `json:"source,omitempty"`
	Description       string            `json:"description"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	Status            TransactionStatus `json:"status"`
	Entries           []Entry           `json:"entries"`
	ApprovedBy        *uuid.UUID        `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
}

// NewTransaction creates a pending transaction with validated, balanced
// entries. The entry drafts must already have passed ValidateEntries;
// it is re-run here so an aggregate can never exist unbalanced.
func NewTransaction(
	tenantID uuid.UUID,
	transactionNumber string,
	transactionDate time.Time,
	transactionType TransactionType,
	description string,
	totalAmount decimal.Decimal,
	drafts []EntryDraft,
) (*Transaction, error) {
	if transactionNumber == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_NUMBER", "Transaction number cannot be empty")
	}
	if transactionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_DATE", "Transaction date is required")
	}
	if !transactionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type is not valid")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	if err := ValidateEntries(drafts); err != nil {
		return nil, err
	}

	txn := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TransactionNumber:   transactionNumber,
		TransactionDate:     transactionDate,
		TransactionType:     transactionType,
		Description:         description,
		TotalAmount:         totalAmount,
		Status:              TransactionStatusPending,
	}
	txn.Entries = entriesFromDrafts(txn.ID, drafts)

	txn.AddDomainEvent(NewTransactionCreatedEvent(txn))

	return txn, nil
}

// SetSource attaches the weak reference this transaction books
func (t *Transaction) SetSource(kind SourceKind, id uuid.UUID) error {
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_SOURCE", "Source kind is not valid")
	}
	if id == uuid.Nil {
		return shared.NewDomainError("INVALID_SOURCE", "Source ID cannot be empty")
	}
	t.Source = &Source{Kind: kind, ID: id}
	return nil
}

// ReplaceEntries swaps the full entry set for a new balanced one.
// Replacement is wholesale: callers persist it as delete-then-insert
// within the same atomic unit as the header patch.
func (t *Transaction) ReplaceEntries(drafts []EntryDraft) error {
	if t.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify entries of a %s transaction", t.Status))
	}
	if err := ValidateEntries(drafts); err != nil {
		return err
	}
	t.Entries = entriesFromDrafts(t.ID, drafts)
	t.Touch()
	t.IncrementVersion()
	return nil
}

// UpdateHeader patches the mutable header fields
func (t *Transaction) UpdateHeader(transactionDate time.Time, transactionType TransactionType, description string, totalAmount decimal.Decimal) error {
	if t.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify a %s transaction", t.Status))
	}
	if transactionDate.IsZero() {
		return shared.NewDomainError("INVALID_TRANSACTION_DATE", "Transaction date is required")
	}
	if !transactionType.IsValid() {
		return shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type is not valid")
	}
	if totalAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	t.TransactionDate = transactionDate
	t.TransactionType = transactionType
	t.Description = description
	t.TotalAmount = totalAmount
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Approve moves a pending transaction to approved, recording the
// approver and timestamp. Approved is terminal.
func (t *Transaction) Approve(approvedBy uuid.UUID) error {
	if t.Status != TransactionStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a %s transaction", t.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Approving user ID is required")
	}
	now := time.Now()
	t.Status = TransactionStatusApproved
	t.ApprovedBy = &approvedBy
	t.ApprovedAt = &now
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Reject moves a pending transaction to rejected. Rejected is terminal.
func (t *Transaction) Reject(rejectedBy uuid.UUID) error {
	if t.Status != TransactionStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject a %s transaction", t.Status))
	}
	if rejectedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Rejecting user ID is required")
	}
	t.Status = TransactionStatusRejected
	t.Touch()
	t.IncrementVersion()
	return nil
}

// DebitTotal sums the debit side of all entries
func (t *Transaction) DebitTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Entries {
		sum = sum.Add(e.DebitAmount)
	}
	return sum
}

// CreditTotal sums the credit side of all entries
func (t *Transaction) CreditTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Entries {
		sum = sum.Add(e.CreditAmount)
	}
	return sum
}

// IsPending returns true while the transaction awaits approval
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

func entriesFromDrafts(transactionID uuid.UUID, drafts []EntryDraft) []Entry {
	entries := make([]Entry, len(drafts))
	for i, d := range drafts {
		entries[i] = Entry{
			ID:            uuid.New(),
			TransactionID: transactionID,
			AccountID:     d.AccountID,
			DebitAmount:   d.DebitAmount,
			CreditAmount:  d.CreditAmount,
			Description:   d.Description,
		}
	}
	return entries
}
