package ledger

import (
	"context"
	"time"

	"github.com/construct/backend/internal/domain/ledger"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountService provides application-level chart-of-accounts operations
type AccountService struct {
	accountRepo ledger.AccountRepository
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo ledger.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	AccountType string     `json:"account_type"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Description string     `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

// CreateAccountRequest represents a request to create an account
type CreateAccountRequest struct {
	Code        string     `json:"code" binding:"required,max=20"`
	Name        string     `json:"name" binding:"required,max=100"`
	AccountType string     `json:"account_type" binding:"required,oneof=asset liability equity income expense"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Description string     `json:"description"`
	CreatedBy   *uuid.UUID `json:"-"`
}

// UpdateAccountRequest represents a request to update an account
type UpdateAccountRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	AccountType string `json:"account_type" binding:"required,oneof=asset liability equity income expense"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// AccountListFilter defines filtering options for account list queries
type AccountListFilter struct {
	Search      string     `form:"search"`
	AccountType string     `form:"account_type"`
	ParentID    *uuid.UUID `form:"parent_id"`
	ActiveOnly  bool       `form:"active_only"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// CreateAccount creates a new chart-of-accounts node. The code must be
// unique within the tenant; the parent, when given, must exist.
func (s *AccountService) CreateAccount(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	existing, err := s.accountRepo.FindByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_ACCOUNT_CODE", "An account with this code already exists")
	}

	if req.ParentID != nil {
		parent, err := s.accountRepo.FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Parent account not found")
		}
	}

	account, err := ledger.NewAccount(tenantID, req.Code, req.Name, ledger.AccountType(req.AccountType), req.ParentID)
	if err != nil {
		return nil, err
	}
	account.Description = req.Description
	if req.CreatedBy != nil {
		account.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	return toAccountResponse(account), nil
}

// GetAccountByID gets an account by ID
func (s *AccountService) GetAccountByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Account not found")
	}
	return toAccountResponse(account), nil
}

// UpdateAccount updates an account. The type of an account already
// referenced by ledger entries cannot change.
func (s *AccountService) UpdateAccount(ctx context.Context, tenantID, id uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Account not found")
	}

	if err := account.Rename(req.Name); err != nil {
		return nil, err
	}

	newType := ledger.AccountType(req.AccountType)
	if newType != account.AccountType {
		referenced, err := s.accountRepo.HasEntries(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if referenced {
			return nil, shared.NewDomainError("ACCOUNT_IN_USE", "Cannot change the type of an account referenced by ledger entries")
		}
		if err := account.ChangeType(newType); err != nil {
			return nil, err
		}
	}

	account.Description = req.Description
	if req.IsActive != nil {
		if *req.IsActive {
			account.Activate()
		} else {
			account.Deactivate()
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	return toAccountResponse(account), nil
}

// DeleteAccount removes an account. An account referenced by entries is
// deactivated instead of deleted so historical transactions stay
// resolvable.
func (s *AccountService) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	account, err := s.accountRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if account == nil {
		return shared.NewDomainError("NOT_FOUND", "Account not found")
	}

	referenced, err := s.accountRepo.HasEntries(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if referenced {
		account.Deactivate()
		return s.accountRepo.Save(ctx, account)
	}

	return s.accountRepo.DeleteForTenant(ctx, tenantID, id)
}

// ListAccounts lists accounts with filtering and pagination
func (s *AccountService) ListAccounts(ctx context.Context, tenantID uuid.UUID, filter AccountListFilter) ([]AccountResponse, int64, error) {
	domainFilter := ledger.AccountFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		ParentID:   filter.ParentID,
		ActiveOnly: filter.ActiveOnly,
	}
	if filter.AccountType != "" {
		at := ledger.AccountType(filter.AccountType)
		if !at.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
		}
		domainFilter.AccountType = &at
	}

	accounts, err := s.accountRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.accountRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = *toAccountResponse(&accounts[i])
	}
	return responses, total, nil
}

// AccountTreeNode is an account with its child accounts nested under it
type AccountTreeNode struct {
	AccountResponse
	Children []*AccountTreeNode `json:"children"`
}

// GetAccountTree returns the chart of accounts as a forest. Roots are
// accounts without a parent; an account whose parent row is missing
// surfaces as a root rather than disappearing from the response.
func (s *AccountService) GetAccountTree(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*AccountTreeNode, error) {
	accounts, err := s.accountRepo.FindAllForTenant(ctx, tenantID, ledger.AccountFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*AccountTreeNode, len(accounts))
	for i := range accounts {
		nodes[accounts[i].ID] = &AccountTreeNode{
			AccountResponse: *toAccountResponse(&accounts[i]),
			Children:        []*AccountTreeNode{},
		}
	}

	// Accounts arrive ordered by code, so children and roots keep that
	// order without re-sorting.
	roots := make([]*AccountTreeNode, 0, len(accounts))
	for i := range accounts {
		node := nodes[accounts[i].ID]
		if parentID := accounts[i].ParentID; parentID != nil {
			if parent, ok := nodes[*parentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func toAccountResponse(a *ledger.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		TenantID:    a.TenantID,
		Code:        a.Code,
		Name:        a.Name,
		AccountType: a.AccountType.String(),
		ParentID:    a.ParentID,
		Description: a.Description,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
}
