package reconciliation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"notary/internal/ledger"
	"notary/internal/logger"
	"notary/pkg/models"
)

// PaymentRecorder records a payment against an invoice.
type PaymentRecorder interface {
	AddPayment(ctx context.Context, invoiceID string, in ledger.PaymentInput) (models.Invoice, error)
}

// MatchTransactions assigns each incoming transaction to the invoice whose
// number appears in its reference. The longest matching invoice number
// wins; a tie between different invoices leaves the transaction ambiguous.
// Transactions already present in the invoice's payment history, with the
// same date, amount and note, are reported as booked.
func MatchTransactions(transactions []BankTransaction, invoices []models.Invoice) Result {
	refs := make([]invoiceRef, 0, len(invoices))
	for i := range invoices {
		number := normalize(invoices[i].InvoiceNumber)
		if number == "" {
			continue
		}
		refs = append(refs, invoiceRef{invoice: &invoices[i], number: number})
	}

	var result Result
	planned := make(map[string]int64) // invoice ID -> amount matched in this run

	for _, tx := range transactions {
		if !tx.IsIncoming() {
			result.Outgoing++
			continue
		}

		candidates := candidatesFor(tx.Reference, refs)
		switch len(candidates) {
		case 0:
			result.Unmatched = append(result.Unmatched, tx)
			continue
		case 1:
		default:
			result.Ambiguous = append(result.Ambiguous, tx)
			continue
		}

		inv := candidates[0].invoice
		if alreadyBooked(inv, tx) {
			result.Booked = append(result.Booked, tx)
			continue
		}

		balance := ledger.BalanceOf(inv)
		result.Matched = append(result.Matched, Match{
			Transaction:   tx,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Remaining:     balance.Remaining - planned[inv.ID],
		})
		planned[inv.ID] += tx.Amount
	}

	return result
}

// candidatesFor returns the invoices with the longest number contained in
// the reference.
func candidatesFor(reference string, refs []invoiceRef) []invoiceRef {
	text := normalize(reference)
	if text == "" {
		return nil
	}

	var best []invoiceRef
	for _, ref := range refs {
		if !strings.Contains(text, ref.number) {
			continue
		}
		switch {
		case len(best) == 0 || len(ref.number) > len(best[0].number):
			best = []invoiceRef{ref}
		case len(ref.number) == len(best[0].number):
			best = append(best, ref)
		}
	}
	return best
}

func alreadyBooked(inv *models.Invoice, tx BankTransaction) bool {
	note := tx.Note()
	for _, p := range ledger.EffectiveHistory(inv) {
		if p.Date == tx.Date && p.Amount == tx.Amount && p.Note == note {
			return true
		}
	}
	return false
}

// normalize upper-cases s and drops whitespace so "inv 2025/01" matches
// "INV2025/01".
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), "")
}

// Applier books matched transactions into the ledger.
type Applier struct {
	recorder PaymentRecorder
	log      zerolog.Logger
}

// NewApplier creates an applier that records payments through recorder.
func NewApplier(recorder PaymentRecorder) *Applier {
	return &Applier{
		recorder: recorder,
		log:      logger.WithComponent("reconciliation"),
	}
}

// Apply records every match as a payment. Failures are logged and the
// remaining matches are still processed; the number of recorded payments
// is returned together with an error describing the failures.
func (a *Applier) Apply(ctx context.Context, matches []Match) (int, error) {
	const op = "Apply"

	recorded := 0
	failed := 0
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return recorded, fmt.Errorf("%s: %w", op, err)
		}

		_, err := a.recorder.AddPayment(ctx, m.InvoiceID, ledger.PaymentInput{
			Date:   m.Transaction.Date,
			Amount: m.Transaction.Amount,
			Note:   m.Transaction.Note(),
		})
		if err != nil {
			failed++
			a.log.Error().
				Err(err).
				Int("row", m.Transaction.Row).
				Str("invoice_id", m.InvoiceID).
				Int64("amount", m.Transaction.Amount).
				Msg("Failed to record bank payment")
			continue
		}

		recorded++
		a.log.Info().
			Int("row", m.Transaction.Row).
			Str("invoice_number", m.InvoiceNumber).
			Int64("amount", m.Transaction.Amount).
			Msg("Recorded bank payment")
	}

	if failed > 0 {
		return recorded, fmt.Errorf("%s: %d of %d payments could not be recorded", op, failed, len(matches))
	}
	return recorded, nil
}
