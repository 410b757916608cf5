package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/construct/backend/internal/domain/ledger"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mocks
// =============================================================================

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) ([]ledger.Account, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockAccountRepository) HasEntries(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, accountID)
	return args.Bool(0), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*ledger.Transaction, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, transaction *ledger.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type MockSequenceGenerator struct {
	mock.Mock
}

func (m *MockSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, kind shared.SequenceKind) (string, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.String(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// stubScope runs the function against fixed repositories without a real
// database transaction
type stubScope struct {
	repos stubRepos
}

func (s *stubScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(&s.repos)
}

type stubRepos struct {
	accounts     ledger.AccountRepository
	transactions ledger.TransactionRepository
	sequences    shared.SequenceGenerator
}

func (r *stubRepos) AccountRepo() ledger.AccountRepository         { return r.accounts }
func (r *stubRepos) TransactionRepo() ledger.TransactionRepository { return r.transactions }
func (r *stubRepos) Sequences() shared.SequenceGenerator           { return r.sequences }

// =============================================================================
// Fixtures
// =============================================================================

type transactionServiceFixture struct {
	service      *TransactionService
	accounts     *MockAccountRepository
	transactions *MockTransactionRepository
	sequences    *MockSequenceGenerator
	events       *MockEventPublisher
}

func newTransactionServiceFixture() *transactionServiceFixture {
	accounts := new(MockAccountRepository)
	transactions := new(MockTransactionRepository)
	sequences := new(MockSequenceGenerator)
	events := new(MockEventPublisher)

	scope := &stubScope{repos: stubRepos{
		accounts:     accounts,
		transactions: transactions,
		sequences:    sequences,
	}}

	return &transactionServiceFixture{
		service:      NewTransactionService(transactions, scope, events),
		accounts:     accounts,
		transactions: transactions,
		sequences:    sequences,
		events:       events,
	}
}

func testAccount(t *testing.T, tenantID uuid.UUID, code string) *ledger.Account {
	t.Helper()
	account, err := ledger.NewAccount(tenantID, code, "Account "+code, ledger.AccountTypeExpense, nil)
	require.NoError(t, err)
	return account
}

func testTransaction(t *testing.T, tenantID uuid.UUID, amount int64) *ledger.Transaction {
	t.Helper()
	txn, err := ledger.NewTransaction(
		tenantID,
		"TXN-2026-000001",
		time.Now(),
		ledger.TransactionTypeExpense,
		"Site materials",
		decimal.NewFromInt(amount),
		[]ledger.EntryDraft{
			{AccountID: uuid.New(), DebitAmount: decimal.NewFromInt(amount)},
			{AccountID: uuid.New(), CreditAmount: decimal.NewFromInt(amount)},
		},
	)
	require.NoError(t, err)
	txn.ClearDomainEvents()
	return txn
}

// =============================================================================
// CreateTransaction
// =============================================================================

func TestTransactionService_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("books balanced transaction with denormalized accounts", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		debitAccount := testAccount(t, tenantID, "5001")
		creditAccount := testAccount(t, tenantID, "1001")

		f.accounts.On("FindByIDForTenant", ctx, tenantID, debitAccount.ID).Return(debitAccount, nil)
		f.accounts.On("FindByIDForTenant", ctx, tenantID, creditAccount.ID).Return(creditAccount, nil)
		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindTransaction).Return("TXN-2026-000042", nil)
		f.transactions.On("Create", ctx, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.service.CreateTransaction(ctx, tenantID, CreateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "expense",
			Description:     "Cement purchase",
			TotalAmount:     decimal.NewFromInt(500),
			Entries: []EntryRequest{
				{AccountID: debitAccount.ID, DebitAmount: decimal.NewFromInt(500)},
				{AccountID: creditAccount.ID, CreditAmount: decimal.NewFromInt(500)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "TXN-2026-000042", resp.TransactionNumber)
		assert.Equal(t, "pending", resp.Status)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, "5001", resp.Entries[0].AccountCode)
		assert.Equal(t, "1001", resp.Entries[1].AccountCode)

		f.transactions.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("rejects unbalanced entries before touching the scope", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()

		_, err := f.service.CreateTransaction(ctx, tenantID, CreateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "expense",
			Description:     "Broken",
			Entries: []EntryRequest{
				{AccountID: uuid.New(), DebitAmount: decimal.NewFromInt(500)},
				{AccountID: uuid.New(), CreditAmount: decimal.NewFromInt(100)},
			},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNBALANCED_ENTRIES", domainErr.Code)
		f.sequences.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown account", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		missingID := uuid.New()
		creditAccount := testAccount(t, tenantID, "1001")

		f.accounts.On("FindByIDForTenant", ctx, tenantID, missingID).Return(nil, nil)

		_, err := f.service.CreateTransaction(ctx, tenantID, CreateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "expense",
			Description:     "Bad account",
			Entries: []EntryRequest{
				{AccountID: missingID, DebitAmount: decimal.NewFromInt(100)},
				{AccountID: creditAccount.ID, CreditAmount: decimal.NewFromInt(100)},
			},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_ENTRY_ACCOUNT", domainErr.Code)
		f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects inactive account", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		debitAccount := testAccount(t, tenantID, "5001")
		creditAccount := testAccount(t, tenantID, "1001")
		creditAccount.Deactivate()

		f.accounts.On("FindByIDForTenant", ctx, tenantID, debitAccount.ID).Return(debitAccount, nil)
		f.accounts.On("FindByIDForTenant", ctx, tenantID, creditAccount.ID).Return(creditAccount, nil)

		_, err := f.service.CreateTransaction(ctx, tenantID, CreateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "expense",
			Description:     "Inactive account",
			Entries: []EntryRequest{
				{AccountID: debitAccount.ID, DebitAmount: decimal.NewFromInt(100)},
				{AccountID: creditAccount.ID, CreditAmount: decimal.NewFromInt(100)},
			},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_ENTRY_ACCOUNT", domainErr.Code)
	})

	t.Run("attaches source reference", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		debitAccount := testAccount(t, tenantID, "5001")
		creditAccount := testAccount(t, tenantID, "1001")
		invoiceID := uuid.New()

		f.accounts.On("FindByIDForTenant", ctx, tenantID, mock.Anything).Return(debitAccount, nil).Once()
		f.accounts.On("FindByIDForTenant", ctx, tenantID, mock.Anything).Return(creditAccount, nil).Once()
		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindTransaction).Return("TXN-2026-000043", nil)
		f.transactions.On("Create", ctx, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.service.CreateTransaction(ctx, tenantID, CreateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "income",
			SourceKind:      "invoice",
			SourceID:        &invoiceID,
			Description:     "Invoice booking",
			Entries: []EntryRequest{
				{AccountID: debitAccount.ID, DebitAmount: decimal.NewFromInt(100)},
				{AccountID: creditAccount.ID, CreditAmount: decimal.NewFromInt(100)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "invoice", resp.SourceKind)
		require.NotNil(t, resp.SourceID)
		assert.Equal(t, invoiceID, *resp.SourceID)
	})
}

// =============================================================================
// Approve / Reject / Delete
// =============================================================================

func TestTransactionService_ApproveTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("approves and publishes event", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		approver := uuid.New()
		txn := testTransaction(t, tenantID, 500)

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)
		f.transactions.On("Update", ctx, txn).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.service.ApproveTransaction(ctx, tenantID, txn.ID, approver)

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		require.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, approver, *resp.ApprovedBy)
		f.events.AssertExpectations(t)
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		require.NoError(t, txn.Approve(uuid.New()))

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)

		_, err := f.service.ApproveTransaction(ctx, tenantID, txn.ID, uuid.New())

		assert.Error(t, err)
		f.transactions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestTransactionService_RejectTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects and publishes event", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)
		f.transactions.On("Update", ctx, txn).Return(nil)
		f.events.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == "transaction.rejected"
		})).Return(nil)

		resp, err := f.service.RejectTransaction(ctx, tenantID, txn.ID, uuid.New())

		require.NoError(t, err)
		assert.Equal(t, "rejected", resp.Status)
		f.events.AssertExpectations(t)
	})

	t.Run("cannot reject an approved transaction", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		require.NoError(t, txn.Approve(uuid.New()))

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)

		_, err := f.service.RejectTransaction(ctx, tenantID, txn.ID, uuid.New())

		assert.Error(t, err)
		f.transactions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes pending transaction", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)
		f.transactions.On("DeleteForTenant", ctx, tenantID, txn.ID).Return(nil)

		require.NoError(t, f.service.DeleteTransaction(ctx, tenantID, txn.ID))
		f.transactions.AssertExpectations(t)
	})

	t.Run("approved transactions are undeletable", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		require.NoError(t, txn.Approve(uuid.New()))

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)

		err := f.service.DeleteTransaction(ctx, tenantID, txn.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		f.transactions.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected transactions are deletable", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		require.NoError(t, txn.Reject(uuid.New()))

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)
		f.transactions.On("DeleteForTenant", ctx, tenantID, txn.ID).Return(nil)

		require.NoError(t, f.service.DeleteTransaction(ctx, tenantID, txn.ID))
	})
}

// =============================================================================
// UpdateTransaction
// =============================================================================

func TestTransactionService_UpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces entries wholesale when supplied", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		debitAccount := testAccount(t, tenantID, "5002")
		creditAccount := testAccount(t, tenantID, "1001")

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)
		f.accounts.On("FindByIDForTenant", ctx, tenantID, debitAccount.ID).Return(debitAccount, nil)
		f.accounts.On("FindByIDForTenant", ctx, tenantID, creditAccount.ID).Return(creditAccount, nil)
		f.transactions.On("Update", ctx, txn).Return(nil)

		resp, err := f.service.UpdateTransaction(ctx, tenantID, txn.ID, UpdateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "expense",
			Description:     "Revised materials",
			TotalAmount:     decimal.NewFromInt(900),
			Entries: []EntryRequest{
				{AccountID: debitAccount.ID, DebitAmount: decimal.NewFromInt(900)},
				{AccountID: creditAccount.ID, CreditAmount: decimal.NewFromInt(900)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "Revised materials", resp.Description)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, "5002", resp.Entries[0].AccountCode)
		assert.True(t, resp.Entries[0].DebitAmount.Equal(decimal.NewFromInt(900)))
	})

	t.Run("header-only update keeps entries", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		originalEntries := len(txn.Entries)

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)
		f.transactions.On("Update", ctx, txn).Return(nil)

		resp, err := f.service.UpdateTransaction(ctx, tenantID, txn.ID, UpdateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "adjustment",
			Description:     "Reclassified",
			TotalAmount:     decimal.NewFromInt(500),
		})

		require.NoError(t, err)
		assert.Len(t, resp.Entries, originalEntries)
		f.accounts.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("terminal transaction cannot be updated", func(t *testing.T) {
		f := newTransactionServiceFixture()
		tenantID := uuid.New()
		txn := testTransaction(t, tenantID, 500)
		require.NoError(t, txn.Approve(uuid.New()))

		f.transactions.On("FindByIDForTenant", ctx, tenantID, txn.ID).Return(txn, nil)

		_, err := f.service.UpdateTransaction(ctx, tenantID, txn.ID, UpdateTransactionRequest{
			TransactionDate: time.Now(),
			TransactionType: "expense",
			Description:     "Too late",
			TotalAmount:     decimal.NewFromInt(500),
		})

		assert.Error(t, err)
		f.transactions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
