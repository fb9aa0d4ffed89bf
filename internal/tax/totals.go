package tax

import "notary/pkg/models"

// Totals aggregates the items of an invoice.
type Totals struct {
	SubTotal   int64 `json:"subTotal"`   // sum of gross amounts
	TotalTax   int64 `json:"totalTax"`   // sum of withheld tax
	GrandTotal int64 `json:"grandTotal"` // SubTotal - TotalTax
}

// ComputeTotals recomputes the totals from the item list.
func ComputeTotals(items []models.InvoiceItem) Totals {
	var t Totals
	for _, item := range items {
		it := Calculate(item)
		t.SubTotal += it.GrossAmount
		t.TotalTax += it.TaxAmount
	}
	t.GrandTotal = t.SubTotal - t.TotalTax
	return t
}

// GrandTotal is shorthand for ComputeTotals(items).GrandTotal.
func GrandTotal(items []models.InvoiceItem) int64 {
	return ComputeTotals(items).GrandTotal
}
