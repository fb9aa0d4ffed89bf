package sheets

import (
	"sort"

	"notary/internal/ledger"
	"notary/pkg/models"
)

var headers = []string{
	"Invoice", "Date", "Due", "Client", "Grand total", "Paid", "Remaining", "Status", "Last payment",
}

// lastColumn is the sheet column of the final header.
const lastColumn = "I"

// ReceivableRow is one invoice as it appears in the receivables sheet.
type ReceivableRow struct {
	InvoiceNumber string
	Date          string
	DueDate       string
	Client        string
	GrandTotal    int64
	Paid          int64
	Remaining     int64
	Status        models.InvoiceStatus
	LastPayment   string
}

// Values returns the row in column order A to I.
func (r ReceivableRow) Values() []interface{} {
	return []interface{}{
		r.InvoiceNumber,  // A
		r.Date,           // B
		r.DueDate,        // C
		r.Client,         // D
		r.GrandTotal,     // E
		r.Paid,           // F
		r.Remaining,      // G
		string(r.Status), // H
		r.LastPayment,    // I
	}
}

func headerValues() []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

// BuildReceivableRows derives one row per invoice from its items and
// effective payment history, ordered by due date then number. With
// openOnly set, invoices with nothing left to pay are skipped.
func BuildReceivableRows(invoices []models.Invoice, openOnly bool) []ReceivableRow {
	rows := make([]ReceivableRow, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		b := ledger.BalanceOf(inv)
		if openOnly && b.Remaining == 0 {
			continue
		}
		rows = append(rows, ReceivableRow{
			InvoiceNumber: inv.InvoiceNumber,
			Date:          inv.Date,
			DueDate:       inv.DueDate,
			Client:        inv.Client.Name,
			GrandTotal:    b.GrandTotal,
			Paid:          b.TotalPaid,
			Remaining:     b.Remaining,
			Status:        b.Status,
			LastPayment:   lastPayment(inv),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DueDate != rows[j].DueDate {
			return rows[i].DueDate < rows[j].DueDate
		}
		return rows[i].InvoiceNumber < rows[j].InvoiceNumber
	})
	return rows
}

func lastPayment(inv *models.Invoice) string {
	latest := ""
	for _, p := range ledger.EffectiveHistory(inv) {
		if p.Date > latest {
			latest = p.Date
		}
	}
	return latest
}
