package ledger

import (
	"fmt"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceEpsilon absorbs rounding when comparing debit and credit
// totals. Sums differing by more than this are rejected.
var BalanceEpsilon = decimal.NewFromFloat(0.01)

// EntryDraft is a proposed debit-or-credit line, validated before any
// persistence attempt.
type EntryDraft struct {
	AccountID    uuid.UUID       `json:"account_id"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Description  string          `json:"description,omitempty"`
}

// ValidateEntries enforces the double-entry invariant on a proposed
// entry set. It is pure: no I/O, no mutation. Rules:
//   - at least two entries
//   - no negative amounts
//   - exactly one of debit/credit non-zero per entry
//   - |sum(debit) - sum(credit)| <= BalanceEpsilon
func ValidateEntries(drafts []EntryDraft) error {
	if len(drafts) < 2 {
		return shared.NewDomainError("INSUFFICIENT_ENTRIES", "A transaction requires at least two entries")
	}

	debitTotal := decimal.Zero
	creditTotal := decimal.Zero
	for i, d := range drafts {
		if d.AccountID == uuid.Nil {
			return shared.NewDomainError("INVALID_ENTRY_ACCOUNT", fmt.Sprintf("Entry %d is missing an account", i+1))
		}
		if d.DebitAmount.IsNegative() {
			return shared.NewDomainError("INVALID_ENTRY_AMOUNT", fmt.Sprintf("Entry %d has a negative debit amount", i+1))
		}
		if d.CreditAmount.IsNegative() {
			return shared.NewDomainError("INVALID_ENTRY_AMOUNT", fmt.Sprintf("Entry %d has a negative credit amount", i+1))
		}
		if !d.DebitAmount.IsZero() && !d.CreditAmount.IsZero() {
			return shared.NewDomainError("AMBIGUOUS_ENTRY_SIDE", fmt.Sprintf("Entry %d sets both debit and credit; exactly one side must be non-zero", i+1))
		}
		if d.DebitAmount.IsZero() && d.CreditAmount.IsZero() {
			return shared.NewDomainError("EMPTY_ENTRY", fmt.Sprintf("Entry %d has neither a debit nor a credit amount", i+1))
		}
		debitTotal = debitTotal.Add(d.DebitAmount)
		creditTotal = creditTotal.Add(d.CreditAmount)
	}

	if debitTotal.Sub(creditTotal).Abs().GreaterThan(BalanceEpsilon) {
		return shared.ErrUnbalancedEntries
	}
	return nil
}
