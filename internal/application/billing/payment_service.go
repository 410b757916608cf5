package billing

import (
	"context"
	"time"

	"github.com/construct/backend/internal/domain/billing"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// idempotencyTTL bounds how long a payment submission key is remembered
const idempotencyTTL = 24 * time.Hour

// PaymentService provides application-level payment operations and
// drives invoice reconciliation. Every mutation that can change the
// completed-payment sum of an invoice re-derives that invoice's paid
// amount, balance and settlement status inside the same atomic unit.
type PaymentService struct {
	paymentRepo billing.PaymentRepository
	scope       BillingScope
	idempotency IdempotencyStore
	events      shared.EventPublisher
}

// NewPaymentService creates a new PaymentService. The idempotency store
// may be nil, in which case submission keys are ignored.
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	scope BillingScope,
	idempotency IdempotencyStore,
	events shared.EventPublisher,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		scope:       scope,
		idempotency: idempotency,
		events:      events,
	}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                   uuid.UUID       `json:"id"`
	TenantID             uuid.UUID       `json:"tenant_id"`
	PaymentNumber        string          `json:"payment_number"`
	PaymentDate          time.Time       `json:"payment_date"`
	PaymentType          string          `json:"payment_type"`
	PaymentMethod        string          `json:"payment_method,omitempty"`
	ReferenceKind        string          `json:"reference_kind,omitempty"`
	ReferenceID          *uuid.UUID      `json:"reference_id,omitempty"`
	PayerID              *uuid.UUID      `json:"payer_id,omitempty"`
	PayerType            string          `json:"payer_type,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate"`
	AmountInBaseCurrency decimal.Decimal `json:"amount_in_base_currency"`
	TransactionFee       decimal.Decimal `json:"transaction_fee"`
	NetAmount            decimal.Decimal `json:"net_amount"`
	Status               string          `json:"status"`
	Notes                string          `json:"notes,omitempty"`
	VerifiedBy           *uuid.UUID      `json:"verified_by,omitempty"`
	VerifiedAt           *time.Time      `json:"verified_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Version              int             `json:"version"`
}

// CreatePaymentRequest represents a request to record a payment
type CreatePaymentRequest struct {
	PaymentDate    time.Time       `json:"payment_date" binding:"required"`
	PaymentType    string          `json:"payment_type" binding:"required,oneof=received sent"`
	PaymentMethod  string          `json:"payment_method" binding:"max=50"`
	ReferenceKind  string          `json:"reference_kind" binding:"omitempty,oneof=invoice project other"`
	ReferenceID    *uuid.UUID      `json:"reference_id"`
	PayerID        *uuid.UUID      `json:"payer_id"`
	PayerType      string          `json:"payer_type" binding:"max=50"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	Status         string          `json:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
	Notes          string          `json:"notes"`
	CreatedBy      *uuid.UUID      `json:"-"`
}

// UpdatePaymentRequest represents a request to update a payment's
// mutable fields
type UpdatePaymentRequest struct {
	PaymentDate    time.Time       `json:"payment_date" binding:"required"`
	PaymentMethod  string          `json:"payment_method" binding:"max=50"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	Notes          string          `json:"notes"`
}

// UpdatePaymentStatusRequest represents a settlement state transition
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending completed failed cancelled"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	Search        string     `form:"search"`
	PaymentType   string     `form:"payment_type"`
	Status        string     `form:"status"`
	ReferenceKind string     `form:"reference_kind"`
	ReferenceID   *uuid.UUID `form:"reference_id"`
	FromDate      *time.Time `form:"from_date"`
	ToDate        *time.Time `form:"to_date"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
}

// CreatePayment records a payment and reconciles the referenced invoice
// in the same atomic unit. A repeated idempotency key returns the
// payment created by the first submission instead of recording a
// duplicate.
func (s *PaymentService) CreatePayment(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest, idempotencyKey string) (*PaymentResponse, error) {
	if idempotencyKey != "" && s.idempotency != nil {
		existingID, err := s.idempotency.Get(ctx, tenantID, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existingID != uuid.Nil {
			existing, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, existingID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return toPaymentResponse(existing), nil
			}
		}
	}

	var created *billing.Payment
	err := s.scope.Execute(ctx, func(repos BillingRepositories) error {
		number, err := repos.Sequences().Next(ctx, tenantID, shared.SequenceKindPayment)
		if err != nil {
			return err
		}

		payment, err := billing.NewPayment(
			tenantID,
			number,
			req.PaymentDate,
			billing.PaymentType(req.PaymentType),
			req.Amount,
			req.Currency,
			req.ExchangeRate,
			req.TransactionFee,
			billing.PaymentStatus(req.Status),
		)
		if err != nil {
			return err
		}
		payment.PaymentMethod = req.PaymentMethod
		payment.Notes = req.Notes
		if req.ReferenceKind != "" && req.ReferenceID != nil {
			if err := payment.SetReference(billing.ReferenceKind(req.ReferenceKind), *req.ReferenceID); err != nil {
				return err
			}
		}
		if req.PayerID != nil {
			payment.SetPayer(*req.PayerID, req.PayerType)
		}
		if req.CreatedBy != nil {
			payment.SetCreatedBy(*req.CreatedBy)
		}

		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}

		if err := s.reconcileReference(ctx, repos, tenantID, payment.Reference); err != nil {
			return err
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		_ = s.idempotency.Put(ctx, tenantID, idempotencyKey, created.ID, idempotencyTTL)
	}

	created.AddDomainEvent(billing.NewPaymentCreatedEvent(created))
	s.publishEvents(ctx, created)

	return toPaymentResponse(created), nil
}

// GetPaymentByID gets a payment by ID
func (s *PaymentService) GetPaymentByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}
	return toPaymentResponse(payment), nil
}

// UpdatePayment patches a payment's mutable fields, recomputes its
// derived amounts and reconciles the referenced invoice
func (s *PaymentService) UpdatePayment(ctx context.Context, tenantID, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	var updated *billing.Payment
	err := s.scope.Execute(ctx, func(repos BillingRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}

		exchangeRate := req.ExchangeRate
		if exchangeRate.IsZero() {
			exchangeRate = payment.ExchangeRate
		}
		if err := payment.UpdateAmounts(req.Amount, exchangeRate, req.TransactionFee); err != nil {
			return err
		}
		payment.PaymentDate = req.PaymentDate
		payment.PaymentMethod = req.PaymentMethod
		payment.Notes = req.Notes

		if err := repos.PaymentRepo().Update(ctx, payment); err != nil {
			return err
		}

		if err := s.reconcileReference(ctx, repos, tenantID, payment.Reference); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(updated), nil
}

// UpdatePaymentStatus transitions the settlement state and reconciles
// the referenced invoice. Moving into or out of completed is what
// changes an invoice's paid amount.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, tenantID, id uuid.UUID, req UpdatePaymentStatusRequest) (*PaymentResponse, error) {
	var updated *billing.Payment
	var oldStatus billing.PaymentStatus
	err := s.scope.Execute(ctx, func(repos BillingRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}

		oldStatus, err = payment.ChangeStatus(billing.PaymentStatus(req.Status))
		if err != nil {
			return err
		}

		if err := repos.PaymentRepo().Update(ctx, payment); err != nil {
			return err
		}

		if err := s.reconcileReference(ctx, repos, tenantID, payment.Reference); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if oldStatus != updated.Status {
		updated.AddDomainEvent(billing.NewPaymentStatusChangedEvent(updated, oldStatus))
		s.publishEvents(ctx, updated)
	}

	return toPaymentResponse(updated), nil
}

// VerifyPayment records the verifying user and timestamp
func (s *PaymentService) VerifyPayment(ctx context.Context, tenantID, id, verifiedBy uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}

	if err := payment.Verify(verifiedBy); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// DeletePayment removes a payment. Completed payments are settled money
// and cannot be deleted; cancel them first. Deleting a non-completed
// payment still re-reconciles its invoice so a stale sum never
// survives.
func (s *PaymentService) DeletePayment(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos BillingRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}
		if payment.IsCompleted() {
			return shared.NewDomainError("INVALID_STATE", "Cannot delete a completed payment")
		}

		if err := repos.PaymentRepo().DeleteForTenant(ctx, tenantID, id); err != nil {
			return err
		}

		return s.reconcileReference(ctx, repos, tenantID, payment.Reference)
	})
}

// ListPayments lists payments with filtering and pagination
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := billing.PaymentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		ReferenceID: filter.ReferenceID,
		FromDate:    filter.FromDate,
		ToDate:      filter.ToDate,
	}
	if filter.PaymentType != "" {
		pt := billing.PaymentType(filter.PaymentType)
		if !pt.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type is not valid")
		}
		domainFilter.PaymentType = &pt
	}
	if filter.Status != "" {
		st := billing.PaymentStatus(filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Payment status is not valid")
		}
		domainFilter.Status = &st
	}
	if filter.ReferenceKind != "" {
		rk := billing.ReferenceKind(filter.ReferenceKind)
		if !rk.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_REFERENCE", "Reference kind is not valid")
		}
		domainFilter.ReferenceKind = &rk
	}

	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}
	return responses, total, nil
}

// ReconcileInvoice re-derives an invoice's paid amount, balance and
// settlement status from the sum of completed payments referencing it
func (s *PaymentService) ReconcileInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos BillingRepositories) error {
		ref := &billing.Reference{Kind: billing.ReferenceKindInvoice, ID: invoiceID}
		return s.reconcileReference(ctx, repos, tenantID, ref)
	})
}

// reconcileReference reconciles the invoice behind a payment reference.
// Non-invoice and nil references are a no-op. The invoice row is locked
// so concurrent payments against the same invoice serialize, and the
// paid amount is always re-derived from the database sum rather than
// incremented.
func (s *PaymentService) reconcileReference(ctx context.Context, repos BillingRepositories, tenantID uuid.UUID, ref *billing.Reference) error {
	if !ref.IsInvoice() {
		return nil
	}

	invoice, err := repos.InvoiceRepo().FindByIDForTenantLocked(ctx, tenantID, ref.ID)
	if err != nil {
		return err
	}
	if invoice == nil {
		// A dangling reference is tolerated; there is nothing to settle.
		return nil
	}

	completed, err := repos.PaymentRepo().SumCompletedByReference(ctx, tenantID, billing.ReferenceKindInvoice, invoice.ID)
	if err != nil {
		return err
	}
	invoice.ApplyReconciliation(completed)

	return repos.InvoiceRepo().Update(ctx, invoice)
}

func (s *PaymentService) publishEvents(ctx context.Context, payment *billing.Payment) {
	events := payment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.events.Publish(ctx, events...)
	payment.ClearDomainEvents()
}

func toPaymentResponse(p *billing.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:                   p.ID,
		TenantID:             p.TenantID,
		PaymentNumber:        p.PaymentNumber,
		PaymentDate:          p.PaymentDate,
		PaymentType:          string(p.PaymentType),
		PaymentMethod:        p.PaymentMethod,
		PayerID:              p.PayerID,
		PayerType:            p.PayerType,
		Amount:               p.Amount,
		Currency:             string(p.Currency),
		ExchangeRate:         p.ExchangeRate,
		AmountInBaseCurrency: p.AmountInBaseCurrency,
		TransactionFee:       p.TransactionFee,
		NetAmount:            p.NetAmount,
		Status:               p.Status.String(),
		Notes:                p.Notes,
		VerifiedBy:           p.VerifiedBy,
		VerifiedAt:           p.VerifiedAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.Version,
	}
	if p.Reference != nil {
		resp.ReferenceKind = string(p.Reference.Kind)
		rid := p.Reference.ID
		resp.ReferenceID = &rid
	}
	return resp
}
