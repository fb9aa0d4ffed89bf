// Package ledger maintains the payment history of an invoice and derives the
// paid amount, the remaining balance and the PAID/UNPAID status from it.
//
// Older invoices carry a single scalar payment (PaymentAmount/PaymentDate)
// instead of a history. EffectiveHistory presents such a payment as one
// synthetic record with the reserved id models.LegacyPaymentID, and Migrate
// turns that view into a real history entry. Every mutation migrates first,
// so callers never branch on the legacy shape themselves.
//
// The functions in this file are pure: they take an invoice value and
// return a new one with the same id. Persistence lives in Service.
package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"notary/internal/tax"
	"notary/pkg/models"
)

// LegacyPaymentNote is the note carried by the synthetic legacy record.
const LegacyPaymentNote = "previous payment"

// PaymentInput is the user-entered part of a payment record.
type PaymentInput struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Note   string `json:"note,omitempty"`
}

// Balance is the derived, display-only state of an invoice's ledger.
type Balance struct {
	GrandTotal int64                `json:"grandTotal"`
	TotalPaid  int64                `json:"totalPaid"`
	Remaining  int64                `json:"remaining"`
	Status     models.InvoiceStatus `json:"status"`
}

// EffectiveHistory returns the payment history as readers should see it.
// A non-empty stored history is returned unchanged. Otherwise a positive
// legacy PaymentAmount yields one synthetic legacy record dated PaymentDate,
// or the invoice date when PaymentDate is empty. The result is never nil.
func EffectiveHistory(inv *models.Invoice) []models.PaymentRecord {
	if len(inv.PaymentHistory) > 0 {
		return inv.PaymentHistory
	}
	if inv.PaymentAmount > 0 {
		date := inv.PaymentDate
		if date == "" {
			date = inv.Date
		}
		return []models.PaymentRecord{{
			ID:     models.LegacyPaymentID,
			Date:   date,
			Amount: inv.PaymentAmount,
			Note:   LegacyPaymentNote,
		}}
	}
	return []models.PaymentRecord{}
}

// Migrate returns a copy of inv whose PaymentHistory holds the effective
// history, so a legacy scalar payment becomes a real entry.
func Migrate(inv models.Invoice) models.Invoice {
	out := inv.Clone()
	out.PaymentHistory = append([]models.PaymentRecord{}, EffectiveHistory(&inv)...)
	return out
}

// TotalPaid sums the amounts of the given records.
func TotalPaid(history []models.PaymentRecord) int64 {
	var total int64
	for _, p := range history {
		total += p.Amount
	}
	return total
}

// StatusFor is PAID once the payments cover the grand total.
func StatusFor(totalPaid, grandTotal int64) models.InvoiceStatus {
	if totalPaid >= grandTotal {
		return models.StatusPaid
	}
	return models.StatusUnpaid
}

// BalanceOf derives the balance from the items and the effective history.
// Status is the stored status, not a recomputed one.
func BalanceOf(inv *models.Invoice) Balance {
	grand := tax.GrandTotal(inv.Items)
	paid := TotalPaid(EffectiveHistory(inv))
	remaining := grand - paid
	if remaining < 0 {
		remaining = 0
	}
	return Balance{
		GrandTotal: grand,
		TotalPaid:  paid,
		Remaining:  remaining,
		Status:     inv.Status,
	}
}

// AddPayment appends a payment with a fresh id. PaymentDate becomes the
// date just entered, whether or not it is the latest one.
func AddPayment(inv models.Invoice, in PaymentInput) (models.Invoice, error) {
	if err := validate(in); err != nil {
		return inv, err
	}
	out := Migrate(inv)
	out.PaymentHistory = append(out.PaymentHistory, models.PaymentRecord{
		ID:     uuid.NewString(),
		Date:   in.Date,
		Amount: in.Amount,
		Note:   in.Note,
	})
	settle(&out)
	out.PaymentDate = in.Date
	return out, nil
}

// EditPayment replaces the fields of the payment with the given id. Editing
// the legacy record materialises it first.
func EditPayment(inv models.Invoice, id string, in PaymentInput) (models.Invoice, error) {
	if err := validate(in); err != nil {
		return inv, err
	}
	out := Migrate(inv)
	idx := indexOf(out.PaymentHistory, id)
	if idx < 0 {
		return inv, ErrPaymentNotFound
	}
	out.PaymentHistory[idx].Date = in.Date
	out.PaymentHistory[idx].Amount = in.Amount
	out.PaymentHistory[idx].Note = in.Note
	settle(&out)
	out.PaymentDate = in.Date
	return out, nil
}

// DeletePayment removes the payment with the given id. Deleting a legacy
// payment that was never materialised clears the legacy amount for good.
// PaymentDate becomes the greatest remaining date, or "" when none remain.
func DeletePayment(inv models.Invoice, id string) (models.Invoice, error) {
	out := inv.Clone()
	if len(inv.PaymentHistory) == 0 {
		if inv.PaymentAmount <= 0 || id != models.LegacyPaymentID {
			return inv, ErrPaymentNotFound
		}
		out.PaymentHistory = []models.PaymentRecord{}
	} else {
		idx := indexOf(out.PaymentHistory, id)
		if idx < 0 {
			return inv, ErrPaymentNotFound
		}
		out.PaymentHistory = append(out.PaymentHistory[:idx:idx], out.PaymentHistory[idx+1:]...)
	}
	settle(&out)
	out.PaymentDate = latestDate(out.PaymentHistory)
	return out, nil
}

// Reconcile recomputes TotalAmount and Status of a submitted invoice from
// its items and effective history without migrating a legacy payment.
func Reconcile(inv models.Invoice) models.Invoice {
	out := inv.Clone()
	if out.PaymentHistory == nil {
		out.PaymentHistory = []models.PaymentRecord{}
	}
	grand := tax.GrandTotal(out.Items)
	paid := TotalPaid(EffectiveHistory(&out))
	out.TotalAmount = grand
	out.Status = StatusFor(paid, grand)
	if len(out.PaymentHistory) > 0 {
		out.PaymentAmount = paid
	}
	return out
}

// ValidateHistory checks a submitted payment history. Every record needs
// an id of its own and a positive amount; the legacy id may appear once.
func ValidateHistory(history []models.PaymentRecord) error {
	seen := make(map[string]bool, len(history))
	for i, p := range history {
		field := fmt.Sprintf("paymentHistory[%d]", i)
		switch {
		case p.ID == "":
			return NewValidationError(field+".id", p.ID, ErrMissingPaymentID)
		case seen[p.ID] && p.IsLegacy():
			return NewValidationError(field+".id", p.ID, ErrDuplicateLegacyPayment)
		case seen[p.ID]:
			return NewValidationError(field+".id", p.ID, ErrDuplicatePaymentID)
		case p.Amount <= 0:
			return NewValidationError(field+".amount", p.Amount, ErrInvalidAmount)
		}
		seen[p.ID] = true
	}
	return nil
}

// settle recomputes the derived fields after a history change.
func settle(inv *models.Invoice) {
	grand := tax.GrandTotal(inv.Items)
	paid := TotalPaid(inv.PaymentHistory)
	inv.TotalAmount = grand
	inv.PaymentAmount = paid
	inv.Status = StatusFor(paid, grand)
}

func validate(in PaymentInput) error {
	if in.Amount <= 0 {
		return NewValidationError("amount", in.Amount, ErrInvalidAmount)
	}
	return nil
}

func indexOf(history []models.PaymentRecord, id string) int {
	for i, p := range history {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// latestDate compares ISO date strings lexicographically.
func latestDate(history []models.PaymentRecord) string {
	latest := ""
	for _, p := range history {
		if p.Date > latest {
			latest = p.Date
		}
	}
	return latest
}
