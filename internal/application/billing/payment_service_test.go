package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/construct/backend/internal/domain/billing"
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

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*billing.Payment, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.PaymentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumCompletedByReference(ctx context.Context, tenantID uuid.UUID, kind billing.ReferenceKind, refID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, kind, refID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
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

func (s *stubScope) Execute(ctx context.Context, fn func(repos BillingRepositories) error) error {
	return fn(&s.repos)
}

type stubRepos struct {
	invoices  billing.InvoiceRepository
	payments  billing.PaymentRepository
	sequences shared.SequenceGenerator
}

func (r *stubRepos) InvoiceRepo() billing.InvoiceRepository  { return r.invoices }
func (r *stubRepos) PaymentRepo() billing.PaymentRepository  { return r.payments }
func (r *stubRepos) Sequences() shared.SequenceGenerator     { return r.sequences }

type stubIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]uuid.UUID
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: map[string]uuid.UUID{}}
}

func (s *stubIdempotencyStore) Get(_ context.Context, tenantID uuid.UUID, key string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[tenantID.String()+":"+key], nil
}

func (s *stubIdempotencyStore) Put(_ context.Context, tenantID uuid.UUID, key string, paymentID uuid.UUID, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[tenantID.String()+":"+key] = paymentID
	return nil
}

// =============================================================================
// Fixtures
// =============================================================================

type paymentServiceFixture struct {
	service     *PaymentService
	payments    *MockPaymentRepository
	invoices    *MockInvoiceRepository
	sequences   *MockSequenceGenerator
	events      *MockEventPublisher
	idempotency *stubIdempotencyStore
}

func newPaymentServiceFixture() *paymentServiceFixture {
	payments := new(MockPaymentRepository)
	invoices := new(MockInvoiceRepository)
	sequences := new(MockSequenceGenerator)
	events := new(MockEventPublisher)
	idempotency := newStubIdempotencyStore()

	scope := &stubScope{repos: stubRepos{
		invoices:  invoices,
		payments:  payments,
		sequences: sequences,
	}}

	return &paymentServiceFixture{
		service:     NewPaymentService(payments, scope, idempotency, events),
		payments:    payments,
		invoices:    invoices,
		sequences:   sequences,
		events:      events,
		idempotency: idempotency,
	}
}

func testInvoice(t *testing.T, tenantID uuid.UUID, total int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(
		tenantID,
		"INV-2026-0001",
		uuid.New(),
		nil,
		time.Now(),
		time.Now().AddDate(0, 1, 0),
		decimal.Zero,
		decimal.Zero,
		[]billing.InvoiceItemDraft{{
			Description: "Roofing works",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(total),
		}},
	)
	require.NoError(t, err)
	return inv
}

func testPayment(t *testing.T, tenantID uuid.UUID, amount int64, status billing.PaymentStatus, invoiceID uuid.UUID) *billing.Payment {
	t.Helper()
	p, err := billing.NewPayment(
		tenantID,
		"PAY-2026-0001",
		time.Now(),
		billing.PaymentTypeReceived,
		decimal.NewFromInt(amount),
		"",
		decimal.Zero,
		decimal.Zero,
		status,
	)
	require.NoError(t, err)
	if invoiceID != uuid.Nil {
		require.NoError(t, p.SetReference(billing.ReferenceKindInvoice, invoiceID))
	}
	return p
}

// =============================================================================
// CreatePayment
// =============================================================================

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates completed payment and reconciles invoice", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		invoice := testInvoice(t, tenantID, 1000)

		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindPayment).Return("PAY-2026-0007", nil)
		f.payments.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		f.invoices.On("FindByIDForTenantLocked", ctx, tenantID, invoice.ID).Return(invoice, nil)
		f.payments.On("SumCompletedByReference", ctx, tenantID, billing.ReferenceKindInvoice, invoice.ID).
			Return(decimal.NewFromInt(600), nil)
		f.invoices.On("Update", ctx, invoice).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		invoiceID := invoice.ID
		resp, err := f.service.CreatePayment(ctx, tenantID, CreatePaymentRequest{
			PaymentDate:   time.Now(),
			PaymentType:   "received",
			ReferenceKind: "invoice",
			ReferenceID:   &invoiceID,
			Amount:        decimal.NewFromInt(600),
			Status:        "completed",
		}, "")

		require.NoError(t, err)
		assert.Equal(t, "PAY-2026-0007", resp.PaymentNumber)
		assert.Equal(t, "completed", resp.Status)

		// Reconciliation re-derived the invoice from the payment sum
		assert.Equal(t, billing.InvoiceStatusPartial, invoice.Status)
		assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(600)))
		assert.True(t, invoice.BalanceDue.Equal(decimal.NewFromInt(400)))

		f.payments.AssertExpectations(t)
		f.invoices.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("payment without invoice reference skips reconciliation", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()

		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindPayment).Return("PAY-2026-0008", nil)
		f.payments.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		_, err := f.service.CreatePayment(ctx, tenantID, CreatePaymentRequest{
			PaymentDate: time.Now(),
			PaymentType: "sent",
			Amount:      decimal.NewFromInt(100),
		}, "")

		require.NoError(t, err)
		f.invoices.AssertNotCalled(t, "FindByIDForTenantLocked", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dangling invoice reference is tolerated", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		missingID := uuid.New()

		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindPayment).Return("PAY-2026-0009", nil)
		f.payments.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		f.invoices.On("FindByIDForTenantLocked", ctx, tenantID, missingID).Return(nil, nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		_, err := f.service.CreatePayment(ctx, tenantID, CreatePaymentRequest{
			PaymentDate:   time.Now(),
			PaymentType:   "received",
			ReferenceKind: "invoice",
			ReferenceID:   &missingID,
			Amount:        decimal.NewFromInt(100),
			Status:        "completed",
		}, "")

		require.NoError(t, err)
		f.invoices.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("repeated idempotency key returns original payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		existing := testPayment(t, tenantID, 500, billing.PaymentStatusCompleted, uuid.Nil)

		require.NoError(t, f.idempotency.Put(ctx, tenantID, "req-42", existing.ID, time.Hour))
		f.payments.On("FindByIDForTenant", ctx, tenantID, existing.ID).Return(existing, nil)

		resp, err := f.service.CreatePayment(ctx, tenantID, CreatePaymentRequest{
			PaymentDate: time.Now(),
			PaymentType: "received",
			Amount:      decimal.NewFromInt(500),
		}, "req-42")

		require.NoError(t, err)
		assert.Equal(t, existing.ID, resp.ID)
		f.sequences.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything)
		f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("records idempotency key after creation", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()

		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindPayment).Return("PAY-2026-0010", nil)
		f.payments.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.service.CreatePayment(ctx, tenantID, CreatePaymentRequest{
			PaymentDate: time.Now(),
			PaymentType: "received",
			Amount:      decimal.NewFromInt(500),
		}, "req-43")

		require.NoError(t, err)
		stored, _ := f.idempotency.Get(ctx, tenantID, "req-43")
		assert.Equal(t, resp.ID, stored)
	})

	t.Run("rejects invalid amount", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()

		f.sequences.On("Next", ctx, tenantID, shared.SequenceKindPayment).Return("PAY-2026-0011", nil)

		_, err := f.service.CreatePayment(ctx, tenantID, CreatePaymentRequest{
			PaymentDate: time.Now(),
			PaymentType: "received",
			Amount:      decimal.Zero,
		}, "")

		require.Error(t, err)
		f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

// =============================================================================
// UpdatePaymentStatus
// =============================================================================

func TestPaymentService_UpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling completed payment resets invoice", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		invoice := testInvoice(t, tenantID, 1000)
		invoice.ApplyReconciliation(decimal.NewFromInt(1000))
		require.Equal(t, billing.InvoiceStatusPaid, invoice.Status)

		payment := testPayment(t, tenantID, 1000, billing.PaymentStatusCompleted, invoice.ID)

		f.payments.On("FindByIDForTenant", ctx, tenantID, payment.ID).Return(payment, nil)
		f.payments.On("Update", ctx, payment).Return(nil)
		f.invoices.On("FindByIDForTenantLocked", ctx, tenantID, invoice.ID).Return(invoice, nil)
		f.payments.On("SumCompletedByReference", ctx, tenantID, billing.ReferenceKindInvoice, invoice.ID).
			Return(decimal.Zero, nil)
		f.invoices.On("Update", ctx, invoice).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.service.UpdatePaymentStatus(ctx, tenantID, payment.ID, UpdatePaymentStatusRequest{Status: "cancelled"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, billing.InvoiceStatusPending, invoice.Status)
		assert.True(t, invoice.PaidAmount.IsZero())
		f.events.AssertExpectations(t)
	})

	t.Run("unchanged status publishes nothing", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		payment := testPayment(t, tenantID, 100, billing.PaymentStatusPending, uuid.Nil)

		f.payments.On("FindByIDForTenant", ctx, tenantID, payment.ID).Return(payment, nil)
		f.payments.On("Update", ctx, payment).Return(nil)

		_, err := f.service.UpdatePaymentStatus(ctx, tenantID, payment.ID, UpdatePaymentStatusRequest{Status: "pending"})

		require.NoError(t, err)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		id := uuid.New()

		f.payments.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, nil)

		_, err := f.service.UpdatePaymentStatus(ctx, tenantID, id, UpdatePaymentStatusRequest{Status: "completed"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

// =============================================================================
// DeletePayment
// =============================================================================

func TestPaymentService_DeletePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses to delete completed payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		payment := testPayment(t, tenantID, 100, billing.PaymentStatusCompleted, uuid.Nil)

		f.payments.On("FindByIDForTenant", ctx, tenantID, payment.ID).Return(payment, nil)

		err := f.service.DeletePayment(ctx, tenantID, payment.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		f.payments.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deleting pending payment re-reconciles its invoice", func(t *testing.T) {
		f := newPaymentServiceFixture()
		tenantID := uuid.New()
		invoice := testInvoice(t, tenantID, 1000)
		payment := testPayment(t, tenantID, 400, billing.PaymentStatusPending, invoice.ID)

		f.payments.On("FindByIDForTenant", ctx, tenantID, payment.ID).Return(payment, nil)
		f.payments.On("DeleteForTenant", ctx, tenantID, payment.ID).Return(nil)
		f.invoices.On("FindByIDForTenantLocked", ctx, tenantID, invoice.ID).Return(invoice, nil)
		f.payments.On("SumCompletedByReference", ctx, tenantID, billing.ReferenceKindInvoice, invoice.ID).
			Return(decimal.NewFromInt(250), nil)
		f.invoices.On("Update", ctx, invoice).Return(nil)

		err := f.service.DeletePayment(ctx, tenantID, payment.ID)

		require.NoError(t, err)
		assert.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(250)))
		f.payments.AssertExpectations(t)
		f.invoices.AssertExpectations(t)
	})
}

// =============================================================================
// VerifyPayment
// =============================================================================

func TestPaymentService_VerifyPayment(t *testing.T) {
	ctx := context.Background()

	f := newPaymentServiceFixture()
	tenantID := uuid.New()
	verifier := uuid.New()
	payment := testPayment(t, tenantID, 100, billing.PaymentStatusCompleted, uuid.Nil)

	f.payments.On("FindByIDForTenant", ctx, tenantID, payment.ID).Return(payment, nil)
	f.payments.On("Update", ctx, payment).Return(nil)

	resp, err := f.service.VerifyPayment(ctx, tenantID, payment.ID, verifier)

	require.NoError(t, err)
	require.NotNil(t, resp.VerifiedBy)
	assert.Equal(t, verifier, *resp.VerifiedBy)
}
