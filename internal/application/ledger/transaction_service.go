package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/construct/backend/internal/domain/ledger"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService provides application-level double-entry
// transaction operations. All writes run inside a TransactionScope so
// the header, its entries and the drawn sequence number commit or roll
// back as one unit.
type TransactionService struct {
	transactionRepo ledger.TransactionRepository
	scope           TransactionScope
	events          shared.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactionRepo ledger.TransactionRepository,
	scope TransactionScope,
	events shared.EventPublisher,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		scope:           scope,
		events:          events,
	}
}

// EntryRequest is one proposed debit-or-credit line
type EntryRequest struct {
	AccountID    uuid.UUID       `json:"account_id" binding:"required"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Description  string          `json:"description"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	AccountCode  string          `json:"account_code,omitempty"`
	AccountName  string          `json:"account_name,omitempty"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Description  string          `json:"description,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	TransactionNumber string          `json:"transaction_number"`
	TransactionDate   time.Time       `json:"transaction_date"`
	TransactionType   string          `json:"transaction_type"`
	SourceKind        string          `json:"source_kind,omitempty"`
	SourceID          *uuid.UUID      `json:"source_id,omitempty"`
	Description       string          `json:"description"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            string          `json:"status"`
	Entries           []EntryResponse `json:"entries"`
	ApprovedBy        *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// CreateTransactionRequest represents a request to book a transaction
type CreateTransactionRequest struct {
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	TransactionType string          `json:"transaction_type" binding:"required,oneof=income expense transfer adjustment"`
	SourceKind      string          `json:"source_kind" binding:"omitempty,oneof=invoice payment other"`
	SourceID        *uuid.UUID      `json:"source_id"`
	Description     string          `json:"description" binding:"required,max=500"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Entries         []EntryRequest  `json:"entries" binding:"required,min=2,dive"`
	CreatedBy       *uuid.UUID      `json:"-"`
}

// UpdateTransactionRequest represents a request to update a pending
// transaction. Entries, when present, replace the existing set
// wholesale.
type UpdateTransactionRequest struct {
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	TransactionType string          `json:"transaction_type" binding:"required,oneof=income expense transfer adjustment"`
	Description     string          `json:"description" binding:"required,max=500"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Entries         []EntryRequest  `json:"entries" binding:"omitempty,min=2,dive"`
}

// TransactionListFilter defines filtering options for transaction list queries
type TransactionListFilter struct {
	Search          string     `form:"search"`
	TransactionType string     `form:"transaction_type"`
	Status          string     `form:"status"`
	FromDate        *time.Time `form:"from_date"`
	ToDate          *time.Time `form:"to_date"`
	Page            int        `form:"page"`
	PageSize        int        `form:"page_size"`
}

// CreateTransaction validates the entry set, draws the next TXN number
// and books the transaction atomically. The number is drawn inside the
// scope so an aborted insert never burns a sequence value.
func (s *TransactionService) CreateTransaction(ctx context.Context, tenantID uuid.UUID, req CreateTransactionRequest) (*TransactionResponse, error) {
	drafts := toEntryDrafts(req.Entries)
	if err := ledger.ValidateEntries(drafts); err != nil {
		return nil, err
	}

	var created *ledger.Transaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		accounts, err := resolveEntryAccounts(ctx, repos.AccountRepo(), tenantID, drafts)
		if err != nil {
			return err
		}

		number, err := repos.Sequences().Next(ctx, tenantID, shared.SequenceKindTransaction)
		if err != nil {
			return err
		}

		txn, err := ledger.NewTransaction(
			tenantID,
			number,
			req.TransactionDate,
			ledger.TransactionType(req.TransactionType),
			req.Description,
			req.TotalAmount,
			drafts,
		)
		if err != nil {
			return err
		}
		if req.SourceKind != "" && req.SourceID != nil {
			if err := txn.SetSource(ledger.SourceKind(req.SourceKind), *req.SourceID); err != nil {
				return err
			}
		}
		if req.CreatedBy != nil {
			txn.SetCreatedBy(*req.CreatedBy)
		}
		denormalizeEntries(txn, accounts)

		if err := repos.TransactionRepo().Create(ctx, txn); err != nil {
			return err
		}
		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)

	return toTransactionResponse(created), nil
}

// GetTransactionByID gets a transaction with its entries by ID
func (s *TransactionService) GetTransactionByID(ctx context.Context, tenantID, id uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Transaction not found")
	}
	return toTransactionResponse(txn), nil
}

// UpdateTransaction patches a pending transaction's header and, when
// entries are supplied, replaces the entry set wholesale.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tenantID, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	var updated *ledger.Transaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		txn, err := repos.TransactionRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if txn == nil {
			return shared.NewDomainError("NOT_FOUND", "Transaction not found")
		}

		if err := txn.UpdateHeader(
			req.TransactionDate,
			ledger.TransactionType(req.TransactionType),
			req.Description,
			req.TotalAmount,
		); err != nil {
			return err
		}

		if len(req.Entries) > 0 {
			drafts := toEntryDrafts(req.Entries)
			accounts, err := resolveEntryAccounts(ctx, repos.AccountRepo(), tenantID, drafts)
			if err != nil {
				return err
			}
			if err := txn.ReplaceEntries(drafts); err != nil {
				return err
			}
			denormalizeEntries(txn, accounts)
		}

		if err := repos.TransactionRepo().Update(ctx, txn); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(updated), nil
}

// ApproveTransaction moves a pending transaction to approved
func (s *TransactionService) ApproveTransaction(ctx context.Context, tenantID, id, approvedBy uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Transaction not found")
	}

	if err := txn.Approve(approvedBy); err != nil {
		return nil, err
	}
	txn.AddDomainEvent(ledger.NewTransactionApprovedEvent(txn))

	if err := s.transactionRepo.Update(ctx, txn); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, txn)

	return toTransactionResponse(txn), nil
}

// RejectTransaction moves a pending transaction to rejected
func (s *TransactionService) RejectTransaction(ctx context.Context, tenantID, id, rejectedBy uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Transaction not found")
	}

	if err := txn.Reject(rejectedBy); err != nil {
		return nil, err
	}
	txn.AddDomainEvent(ledger.NewTransactionRejectedEvent(txn))

	if err := s.transactionRepo.Update(ctx, txn); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, txn)

	return toTransactionResponse(txn), nil
}

// DeleteTransaction removes a transaction and its entries. Approved
// transactions are immutable ledger records and cannot be deleted.
func (s *TransactionService) DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error {
	txn, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if txn == nil {
		return shared.NewDomainError("NOT_FOUND", "Transaction not found")
	}
	if txn.Status == ledger.TransactionStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete an approved transaction")
	}
	return s.transactionRepo.DeleteForTenant(ctx, tenantID, id)
}

// ListTransactions lists transactions with filtering and pagination
func (s *TransactionService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter := ledger.TransactionFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	if filter.TransactionType != "" {
		tt := ledger.TransactionType(filter.TransactionType)
		if !tt.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type is not valid")
		}
		domainFilter.TransactionType = &tt
	}
	if filter.Status != "" {
		st := ledger.TransactionStatus(filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Transaction status is not valid")
		}
		domainFilter.Status = &st
	}

	transactions, err := s.transactionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = *toTransactionResponse(&transactions[i])
	}
	return responses, total, nil
}

func (s *TransactionService) publishEvents(ctx context.Context, txn *ledger.Transaction) {
	events := txn.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.events.Publish(ctx, events...)
	txn.ClearDomainEvents()
}

// resolveEntryAccounts loads every referenced account, rejecting
// missing or inactive ones. The result feeds denormalization.
func resolveEntryAccounts(ctx context.Context, repo ledger.AccountRepository, tenantID uuid.UUID, drafts []ledger.EntryDraft) (map[uuid.UUID]*ledger.Account, error) {
	accounts := make(map[uuid.UUID]*ledger.Account, len(drafts))
	for _, d := range drafts {
		if _, ok := accounts[d.AccountID]; ok {
			continue
		}
		account, err := repo.FindByIDForTenant(ctx, tenantID, d.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, shared.NewDomainError("INVALID_ENTRY_ACCOUNT", fmt.Sprintf("Account %s not found", d.AccountID))
		}
		if !account.IsActive {
			return nil, shared.NewDomainError("INVALID_ENTRY_ACCOUNT", fmt.Sprintf("Account %s is inactive", account.Code))
		}
		accounts[d.AccountID] = account
	}
	return accounts, nil
}

func denormalizeEntries(txn *ledger.Transaction, accounts map[uuid.UUID]*ledger.Account) {
	for i := range txn.Entries {
		if account, ok := accounts[txn.Entries[i].AccountID]; ok {
			txn.Entries[i].AccountCode = account.Code
			txn.Entries[i].AccountName = account.Name
		}
	}
}

func toEntryDrafts(reqs []EntryRequest) []ledger.EntryDraft {
	drafts := make([]ledger.EntryDraft, len(reqs))
	for i, r := range reqs {
		drafts[i] = ledger.EntryDraft{
			AccountID:    r.AccountID,
			DebitAmount:  r.DebitAmount,
			CreditAmount: r.CreditAmount,
			Description:  r.Description,
		}
	}
	return drafts
}

func toTransactionResponse(t *ledger.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:                t.ID,
		TenantID:          t.TenantID,
		TransactionNumber: t.TransactionNumber,
		TransactionDate:   t.TransactionDate,
		TransactionType:   t.TransactionType.String(),
		Description:       t.Description,
		TotalAmount:       t.TotalAmount,
		Status:            t.Status.String(),
		ApprovedBy:        t.ApprovedBy,
		ApprovedAt:        t.ApprovedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		Version:           t.Version,
	}
	if t.Source != nil {
		resp.SourceKind = string(t.Source.Kind)
		sid := t.Source.ID
		resp.SourceID = &sid
	}
	resp.Entries = make([]EntryResponse, len(t.Entries))
	for i, e := range t.Entries {
		resp.Entries[i] = EntryResponse{
			ID:           e.ID,
			AccountID:    e.AccountID,
			AccountCode:  e.AccountCode,
			AccountName:  e.AccountName,
			DebitAmount:  e.DebitAmount,
			CreditAmount: e.CreditAmount,
			Description:  e.Description,
		}
	}
	return resp
}
