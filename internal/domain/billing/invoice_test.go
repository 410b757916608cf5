package billing

import (
	"testing"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemDraft(qty, unitPrice float64) InvoiceItemDraft {
	return InvoiceItemDraft{
		Description: "Concrete works",
		Quantity:    decimal.NewFromFloat(qty),
		UnitPrice:   decimal.NewFromFloat(unitPrice),
	}
}

func createTestInvoice(t *testing.T) *Invoice {
	inv, err := NewInvoice(
		uuid.New(),
		"INV-2026-0001",
		uuid.New(),
		nil,
		time.Now(),
		time.Now().AddDate(0, 1, 0),
		decimal.NewFromInt(180),
		decimal.NewFromInt(80),
		[]InvoiceItemDraft{
			itemDraft(10, 50),  // 500
			itemDraft(20, 25),  // 500
		},
	)
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	t.Run("computes derived amounts", func(t *testing.T) {
		inv := createTestInvoice(t)

		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(1000)))
		// 1000 + 180 tax - 80 discount
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(1100)))
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.BalanceDue.Equal(inv.TotalAmount))
	})

	t.Run("item total defaults to quantity times unit price", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.True(t, inv.Items[0].TotalPrice.Equal(decimal.NewFromInt(500)))
	})

	t.Run("explicit item total is kept", func(t *testing.T) {
		d := itemDraft(10, 50)
		d.TotalPrice = decimal.NewFromInt(450)

		inv, err := NewInvoice(uuid.New(), "INV-2026-0002", uuid.New(), nil,
			time.Now(), time.Now().AddDate(0, 1, 0), decimal.Zero, decimal.Zero,
			[]InvoiceItemDraft{d})

		require.NoError(t, err)
		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(450)))
	})

	t.Run("requires at least one item", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-2026-0003", uuid.New(), nil,
			time.Now(), time.Now().AddDate(0, 1, 0), decimal.Zero, decimal.Zero, nil)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMPTY_INVOICE", domainErr.Code)
	})

	t.Run("requires customer", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-2026-0004", uuid.Nil, nil,
			time.Now(), time.Now().AddDate(0, 1, 0), decimal.Zero, decimal.Zero,
			[]InvoiceItemDraft{itemDraft(1, 100)})
		assert.Error(t, err)
	})

	t.Run("rejects item without description", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-2026-0005", uuid.New(), nil,
			time.Now(), time.Now().AddDate(0, 1, 0), decimal.Zero, decimal.Zero,
			[]InvoiceItemDraft{{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}})
		assert.Error(t, err)
	})
}

func TestInvoice_ApplyReconciliation(t *testing.T) {
	t.Run("partial then paid", func(t *testing.T) {
		inv := createTestInvoice(t) // total 1100

		inv.ApplyReconciliation(decimal.NewFromInt(600))
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(600)))
		assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(500)))

		inv.ApplyReconciliation(decimal.NewFromInt(1100))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.BalanceDue.IsZero())
		assert.True(t, inv.IsSettled())
	})

	t.Run("zero resets to pending", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.ApplyReconciliation(decimal.NewFromInt(600))

		// All contributing payments were deleted or cancelled
		inv.ApplyReconciliation(decimal.Zero)

		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.BalanceDue.Equal(inv.TotalAmount))
	})

	t.Run("overpayment is paid with negative balance", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.ApplyReconciliation(decimal.NewFromInt(1200))

		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(-100)))
	})
}

func TestInvoice_RefreshSettlement(t *testing.T) {
	t.Run("edited draft with no payments stays draft", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.UpdateHeader(inv.InvoiceDate, inv.DueDate, decimal.NewFromInt(200), decimal.Zero, ""))

		inv.RefreshSettlement(decimal.Zero)

		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.BalanceDue.Equal(inv.TotalAmount))
	})

	t.Run("advisory override survives settlement refresh", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.OverrideStatus(InvoiceStatusCancelled))

		inv.RefreshSettlement(decimal.NewFromInt(600))

		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(600)))
		assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(500)))
	})

	t.Run("computed state is recomputed", func(t *testing.T) {
		inv := createTestInvoice(t) // total 1100
		inv.ApplyReconciliation(decimal.NewFromInt(600))

		inv.RefreshSettlement(decimal.NewFromInt(1100))

		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.IsSettled())
	})
}

func TestInvoice_ReplaceItems(t *testing.T) {
	t.Run("recomputes totals against existing paid amount", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.ApplyReconciliation(decimal.NewFromInt(600))

		err := inv.ReplaceItems([]InvoiceItemDraft{itemDraft(4, 100)}) // subtotal 400

		require.NoError(t, err)
		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(400)))
		// 400 + 180 - 80 = 500, minus 600 already paid
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(500)))
		assert.True(t, inv.BalanceDue.Equal(decimal.NewFromInt(-100)))
	})

	t.Run("mints new item identities", func(t *testing.T) {
		inv := createTestInvoice(t)
		oldID := inv.Items[0].ID

		require.NoError(t, inv.ReplaceItems([]InvoiceItemDraft{itemDraft(1, 10)}))

		require.Len(t, inv.Items, 1)
		assert.NotEqual(t, oldID, inv.Items[0].ID)
		assert.Equal(t, inv.ID, inv.Items[0].InvoiceID)
	})

	t.Run("rejects empty set", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.Error(t, inv.ReplaceItems(nil))
		assert.Len(t, inv.Items, 2)
	})
}

func TestInvoice_OverrideStatus(t *testing.T) {
	inv := createTestInvoice(t)

	require.NoError(t, inv.OverrideStatus(InvoiceStatusSent))
	assert.Equal(t, InvoiceStatusSent, inv.Status)

	assert.Error(t, inv.OverrideStatus(InvoiceStatus("bogus")))
}

func TestInvoice_UpdateHeader(t *testing.T) {
	inv := createTestInvoice(t)

	err := inv.UpdateHeader(inv.InvoiceDate, inv.DueDate, decimal.NewFromInt(100), decimal.Zero, "revised")

	require.NoError(t, err)
	// 1000 + 100 tax
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(1100)))
	assert.Equal(t, "revised", inv.Notes)

	assert.Error(t, inv.UpdateHeader(time.Time{}, inv.DueDate, decimal.Zero, decimal.Zero, ""))
	assert.Error(t, inv.UpdateHeader(inv.InvoiceDate, inv.DueDate, decimal.NewFromInt(-1), decimal.Zero, ""))
}
