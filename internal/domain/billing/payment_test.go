package billing

import (
	"testing"
	"time"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/construct/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPayment(t *testing.T) *Payment {
	p, err := NewPayment(
		uuid.New(),
		"PAY-2026-0001",
		time.Now(),
		PaymentTypeReceived,
		decimal.NewFromInt(1000),
		"",
		decimal.Zero,
		decimal.NewFromInt(25),
		"",
	)
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	t.Run("applies defaults and derived amounts", func(t *testing.T) {
		p := createTestPayment(t)

		assert.Equal(t, PaymentStatusPending, p.Status)
		assert.Equal(t, valueobject.BaseCurrency, p.Currency)
		assert.True(t, p.ExchangeRate.Equal(decimal.NewFromInt(1)))
		assert.True(t, p.AmountInBaseCurrency.Equal(decimal.NewFromInt(1000)))
		assert.True(t, p.NetAmount.Equal(decimal.NewFromInt(975)))
	})

	t.Run("converts foreign currency", func(t *testing.T) {
		p, err := NewPayment(uuid.New(), "PAY-2026-0002", time.Now(), PaymentTypeReceived,
			decimal.NewFromInt(100), "USD", decimal.NewFromInt(1300), decimal.Zero, PaymentStatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, valueobject.USD, p.Currency)
		assert.True(t, p.AmountInBaseCurrency.Equal(decimal.NewFromInt(130000)))
		assert.True(t, p.IsCompleted())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), "PAY-2026-0003", time.Now(), PaymentTypeReceived,
			decimal.Zero, "", decimal.Zero, decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), "PAY-2026-0004", time.Now(), PaymentType("bogus"),
			decimal.NewFromInt(10), "", decimal.Zero, decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), "PAY-2026-0005", time.Now(), PaymentTypeReceived,
			decimal.NewFromInt(10), "", decimal.Zero, decimal.Zero, PaymentStatus("bogus"))
		assert.Error(t, err)
	})
}

func TestPayment_Money(t *testing.T) {
	p, err := NewPayment(uuid.New(), "PAY-2026-0005", time.Now(), PaymentTypeReceived,
		decimal.NewFromInt(100), "USD", decimal.NewFromInt(1300), decimal.Zero, "")
	require.NoError(t, err)

	assert.Equal(t, valueobject.USD, p.Money().Currency())
	assert.True(t, p.Money().Amount().Equal(decimal.NewFromInt(100)))

	base := p.BaseMoney()
	assert.Equal(t, valueobject.BaseCurrency, base.Currency())
	assert.True(t, base.Amount().Equal(decimal.NewFromInt(130000)))
}

func TestPayment_SetReference(t *testing.T) {
	p := createTestPayment(t)
	invoiceID := uuid.New()

	require.NoError(t, p.SetReference(ReferenceKindInvoice, invoiceID))
	require.NotNil(t, p.Reference)
	assert.True(t, p.Reference.IsInvoice())
	assert.Equal(t, invoiceID, p.Reference.ID)

	require.NoError(t, p.SetReference(ReferenceKindProject, uuid.New()))
	assert.False(t, p.Reference.IsInvoice())

	assert.Error(t, p.SetReference(ReferenceKind("bogus"), uuid.New()))
	assert.Error(t, p.SetReference(ReferenceKindInvoice, uuid.Nil))
}

func TestPayment_UpdateAmounts(t *testing.T) {
	t.Run("recomputes derived amounts", func(t *testing.T) {
		p := createTestPayment(t)

		err := p.UpdateAmounts(decimal.NewFromInt(200), decimal.NewFromInt(2), decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.True(t, p.AmountInBaseCurrency.Equal(decimal.NewFromInt(400)))
		assert.True(t, p.NetAmount.Equal(decimal.NewFromInt(190)))
	})

	t.Run("rejects zero exchange rate", func(t *testing.T) {
		p := createTestPayment(t)
		assert.Error(t, p.UpdateAmounts(decimal.NewFromInt(200), decimal.Zero, decimal.Zero))
	})
}

func TestPayment_ChangeStatus(t *testing.T) {
	t.Run("returns previous status", func(t *testing.T) {
		p := createTestPayment(t)

		old, err := p.ChangeStatus(PaymentStatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPending, old)
		assert.Equal(t, PaymentStatusCompleted, p.Status)
	})

	t.Run("no-op transition keeps version", func(t *testing.T) {
		p := createTestPayment(t)
		version := p.Version

		old, err := p.ChangeStatus(PaymentStatusPending)

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPending, old)
		assert.Equal(t, version, p.Version)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		p := createTestPayment(t)

		_, err := p.ChangeStatus(PaymentStatus("bogus"))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATUS", domainErr.Code)
		assert.Equal(t, PaymentStatusPending, p.Status)
	})
}

func TestPayment_Verify(t *testing.T) {
	p := createTestPayment(t)
	verifier := uuid.New()

	require.NoError(t, p.Verify(verifier))
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, verifier, *p.VerifiedBy)
	assert.NotNil(t, p.VerifiedAt)

	assert.Error(t, p.Verify(uuid.Nil))
}
