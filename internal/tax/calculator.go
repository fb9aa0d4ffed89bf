// Package tax computes the withholding gross-up applied to taxed invoice
// items and the invoice totals derived from them.
//
// Taxed items are grossed up so that, after the 2.5% income tax withholding
// (PPh 21) is deducted by the payer, the office still receives the net
// amount written on the item:
//
//	gross = floor(amount / 0.975)
//	tax   = floor(gross * 0.025)
//
// Both steps truncate. Arithmetic is done in decimal so the divisor is exact.
package tax

import (
	"github.com/shopspring/decimal"

	"notary/pkg/models"
)

var (
	// GrossUpDivisor is the share of the gross amount left after withholding.
	GrossUpDivisor = decimal.RequireFromString("0.975")

	// WithholdingRate is the withholding applied to the gross amount.
	WithholdingRate = decimal.RequireFromString("0.025")
)

// ItemTax is the computed breakdown of one item.
type ItemTax struct {
	GrossAmount int64 `json:"grossAmount"`
	TaxAmount   int64 `json:"taxAmount"`
}

// Calculate returns the gross and withheld tax amounts for an item.
func Calculate(item models.InvoiceItem) ItemTax {
	if !item.IsTaxed {
		return ItemTax{GrossAmount: item.Amount}
	}
	gross := decimal.NewFromInt(item.Amount).Div(GrossUpDivisor).Floor()
	tax := gross.Mul(WithholdingRate).Floor()
	return ItemTax{
		GrossAmount: gross.IntPart(),
		TaxAmount:   tax.IntPart(),
	}
}
