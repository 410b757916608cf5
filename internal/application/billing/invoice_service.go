package billing

import (
	"context"
	"time"

	"github.com/construct/backend/internal/domain/billing"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceService provides application-level invoice operations. All
// writes run inside a BillingScope so the header, its items and the
// drawn sequence number commit or roll back as one unit.
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	scope       BillingScope
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo billing.InvoiceRepository, scope BillingScope) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo, scope: scope}
}

// InvoiceItemRequest is one proposed billed line. TotalPrice, when
// omitted, defaults to quantity times unit price.
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	TenantID       uuid.UUID             `json:"tenant_id"`
	InvoiceNumber  string                `json:"invoice_number"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	ProjectID      *uuid.UUID            `json:"project_id,omitempty"`
	InvoiceDate    time.Time             `json:"invoice_date"`
	DueDate        time.Time             `json:"due_date"`
	Status         string                `json:"status"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	PaidAmount     decimal.Decimal       `json:"paid_amount"`
	BalanceDue     decimal.Decimal       `json:"balance_due"`
	Notes          string                `json:"notes,omitempty"`
	Items          []InvoiceItemResponse `json:"items"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Version        int                   `json:"version"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	CustomerID     uuid.UUID            `json:"customer_id" binding:"required"`
	ProjectID      *uuid.UUID           `json:"project_id"`
	InvoiceDate    time.Time            `json:"invoice_date" binding:"required"`
	DueDate        time.Time            `json:"due_date" binding:"required"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Notes          string               `json:"notes"`
	Items          []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	CreatedBy      *uuid.UUID           `json:"-"`
}

// UpdateInvoiceRequest represents a request to update an invoice.
// Items, when present, replace the existing set wholesale.
type UpdateInvoiceRequest struct {
	InvoiceDate    time.Time            `json:"invoice_date" binding:"required"`
	DueDate        time.Time            `json:"due_date" binding:"required"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Notes          string               `json:"notes"`
	Items          []InvoiceItemRequest `json:"items" binding:"omitempty,min=1,dive"`
}

// UpdateInvoiceStatusRequest represents a manual status override
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft sent pending partial paid overdue cancelled"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	ProjectID  *uuid.UUID `form:"project_id"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// CreateInvoice draws the next INV number and creates the invoice with
// its items atomically
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var created *billing.Invoice
	err := s.scope.Execute(ctx, func(repos BillingRepositories) error {
		number, err := repos.Sequences().Next(ctx, tenantID, shared.SequenceKindInvoice)
		if err != nil {
			return err
		}

		invoice, err := billing.NewInvoice(
			tenantID,
			number,
			req.CustomerID,
			req.ProjectID,
			req.InvoiceDate,
			req.DueDate,
			req.TaxAmount,
			req.DiscountAmount,
			toItemDrafts(req.Items),
		)
		if err != nil {
			return err
		}
		invoice.Notes = req.Notes
		if req.CreatedBy != nil {
			invoice.SetCreatedBy(*req.CreatedBy)
		}

		if err := repos.InvoiceRepo().Create(ctx, invoice); err != nil {
			return err
		}
		created = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(created), nil
}

// GetInvoiceByID gets an invoice with its items by ID
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return toInvoiceResponse(invoice), nil
}

// UpdateInvoice patches the header and, when items are supplied,
// replaces the item set wholesale. Totals change, so paidAmount and
// balanceDue are re-derived against completed payments in the same
// unit. The status is only recomputed when it is already a computed
// state; a manual draft/sent/cancelled status survives plain edits.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	var updated *billing.Invoice
	err := s.scope.Execute(ctx, func(repos BillingRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForTenantLocked(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}

		if err := invoice.UpdateHeader(req.InvoiceDate, req.DueDate, req.TaxAmount, req.DiscountAmount, req.Notes); err != nil {
			return err
		}
		if len(req.Items) > 0 {
			if err := invoice.ReplaceItems(toItemDrafts(req.Items)); err != nil {
				return err
			}
		}

		completed, err := repos.PaymentRepo().SumCompletedByReference(ctx, tenantID, billing.ReferenceKindInvoice, invoice.ID)
		if err != nil {
			return err
		}
		invoice.RefreshSettlement(completed)

		if err := repos.InvoiceRepo().Update(ctx, invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(updated), nil
}

// UpdateInvoiceStatus sets the advisory status directly. The computed
// states are recomputed on the next reconciliation pass.
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceStatusRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	if err := invoice.OverrideStatus(billing.InvoiceStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// DeleteInvoice removes an invoice and its items. Invoices referenced
// by payments cannot be deleted; the payments would dangle.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos BillingRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}

		kind := billing.ReferenceKindInvoice
		refID := invoice.ID
		referencing, err := repos.PaymentRepo().CountForTenant(ctx, tenantID, billing.PaymentFilter{
			ReferenceKind: &kind,
			ReferenceID:   &refID,
		})
		if err != nil {
			return err
		}
		if referencing > 0 {
			return shared.NewDomainError("INVOICE_IN_USE", "Cannot delete an invoice referenced by payments")
		}

		return repos.InvoiceRepo().DeleteForTenant(ctx, tenantID, id)
	})
}

// ListInvoices lists invoices with filtering and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		CustomerID: filter.CustomerID,
		ProjectID:  filter.ProjectID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
	}
	if filter.Status != "" {
		st := billing.InvoiceStatus(filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Invoice status is not valid")
		}
		domainFilter.Status = &st
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, total, nil
}

func toItemDrafts(reqs []InvoiceItemRequest) []billing.InvoiceItemDraft {
	drafts := make([]billing.InvoiceItemDraft, len(reqs))
	for i, r := range reqs {
		drafts[i] = billing.InvoiceItemDraft{
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			TotalPrice:  r.TotalPrice,
		}
	}
	return drafts
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:             inv.ID,
		TenantID:       inv.TenantID,
		InvoiceNumber:  inv.InvoiceNumber,
		CustomerID:     inv.CustomerID,
		ProjectID:      inv.ProjectID,
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		Status:         inv.Status.String(),
		Subtotal:       inv.Subtotal,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		TotalAmount:    inv.TotalAmount,
		PaidAmount:     inv.PaidAmount,
		BalanceDue:     inv.BalanceDue,
		Notes:          inv.Notes,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		Version:        inv.Version,
	}
	resp.Items = make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		resp.Items[i] = InvoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}
	return resp
}
