package models

import (
	"time"

	"github.com/construct/backend/internal/domain/billing"
	"github.com/construct/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Items are owned rows deleted with their parent.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	CustomerID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProjectID      *uuid.UUID            `gorm:"type:uuid;index"`
	InvoiceDate    time.Time             `gorm:"not null;index"`
	DueDate        time.Time             `gorm:"not null;index"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Subtotal       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TaxAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceDue     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Notes          string                `gorm:"type:text"`
	Items          []InvoiceItemModel    `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber:  m.InvoiceNumber,
		CustomerID:     m.CustomerID,
		ProjectID:      m.ProjectID,
		InvoiceDate:    m.InvoiceDate,
		DueDate:        m.DueDate,
		Status:         m.Status,
		Subtotal:       m.Subtotal,
		TaxAmount:      m.TaxAmount,
		DiscountAmount: m.DiscountAmount,
		TotalAmount:    m.TotalAmount,
		PaidAmount:     m.PaidAmount,
		BalanceDue:     m.BalanceDue,
		Notes:          m.Notes,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	inv.Items = make([]billing.InvoiceItem, len(m.Items))
	for i, item := range m.Items {
		inv.Items[i] = *item.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.ProjectID = inv.ProjectID
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Status = inv.Status
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.DiscountAmount = inv.DiscountAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.BalanceDue = inv.BalanceDue
	m.Notes = inv.Notes
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i].FromDomain(&inv.Items[i])
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for one billed line
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() *billing.InvoiceItem {
	return &billing.InvoiceItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TotalPrice:  m.TotalPrice,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem
func (m *InvoiceItemModel) FromDomain(item *billing.InvoiceItem) {
	m.ID = item.ID
	m.InvoiceID = item.InvoiceID
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.TotalPrice = item.TotalPrice
}

// PaymentModel is the persistence model for the Payment aggregate root
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber        string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_tenant_number,priority:2"`
	PaymentDate          time.Time             `gorm:"not null;index"`
	PaymentType          billing.PaymentType   `gorm:"type:varchar(20);not null;index"`
	PaymentMethod        string                `gorm:"type:varchar(50)"`
	ReferenceKind        *string               `gorm:"type:varchar(20);index:idx_payment_reference"`
	ReferenceID          *uuid.UUID            `gorm:"type:uuid;index:idx_payment_reference"`
	PayerID              *uuid.UUID            `gorm:"type:uuid;index"`
	PayerType            string                `gorm:"type:varchar(50)"`
	Amount               decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency             string                `gorm:"type:varchar(3);not null;default:'RWF'"`
	ExchangeRate         decimal.Decimal       `gorm:"type:decimal(18,6);not null;default:1"`
	AmountInBaseCurrency decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TransactionFee       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	NetAmount            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status               billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes                string                `gorm:"type:text"`
	VerifiedBy           *uuid.UUID            `gorm:"type:uuid"`
	VerifiedAt           *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber:        m.PaymentNumber,
		PaymentDate:          m.PaymentDate,
		PaymentType:          m.PaymentType,
		PaymentMethod:        m.PaymentMethod,
		PayerID:              m.PayerID,
		PayerType:            m.PayerType,
		Amount:               m.Amount,
		Currency:             valueobject.Currency(m.Currency),
		ExchangeRate:         m.ExchangeRate,
		AmountInBaseCurrency: m.AmountInBaseCurrency,
		TransactionFee:       m.TransactionFee,
		NetAmount:            m.NetAmount,
		Status:               m.Status,
		Notes:                m.Notes,
		VerifiedBy:           m.VerifiedBy,
		VerifiedAt:           m.VerifiedAt,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	if m.ReferenceKind != nil && m.ReferenceID != nil {
		p.Reference = &billing.Reference{Kind: billing.ReferenceKind(*m.ReferenceKind), ID: *m.ReferenceID}
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.PaymentDate = p.PaymentDate
	m.PaymentType = p.PaymentType
	m.PaymentMethod = p.PaymentMethod
	m.PayerID = p.PayerID
	m.PayerType = p.PayerType
	m.Amount = p.Amount
	m.Currency = string(p.Currency)
	m.ExchangeRate = p.ExchangeRate
	m.AmountInBaseCurrency = p.AmountInBaseCurrency
	m.TransactionFee = p.TransactionFee
	m.NetAmount = p.NetAmount
	m.Status = p.Status
	m.Notes = p.Notes
	m.VerifiedBy = p.VerifiedBy
	m.VerifiedAt = p.VerifiedAt
	if p.Reference != nil {
		kind := string(p.Reference.Kind)
		id := p.Reference.ID
		m.ReferenceKind = &kind
		m.ReferenceID = &id
	} else {
		m.ReferenceKind = nil
		m.ReferenceID = nil
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
