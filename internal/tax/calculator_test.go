package tax

import (
	"math"
	"testing"

	"notary/pkg/models"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		item      models.InvoiceItem
		wantGross int64
		wantTax   int64
	}{
		{"untaxed passes through", models.InvoiceItem{Amount: 1000000}, 1000000, 0},
		{"untaxed zero", models.InvoiceItem{Amount: 0}, 0, 0},
		{"taxed reference case", models.InvoiceItem{Amount: 100000, IsTaxed: true}, 102564, 2564},
		{"taxed exact divisor", models.InvoiceItem{Amount: 975, IsTaxed: true}, 1000, 25},
		{"taxed million", models.InvoiceItem{Amount: 1000000, IsTaxed: true}, 1025641, 25641},
		{"taxed small", models.InvoiceItem{Amount: 1, IsTaxed: true}, 1, 0},
		{"taxed zero", models.InvoiceItem{Amount: 0, IsTaxed: true}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.item)
			if got.GrossAmount != tt.wantGross {
				t.Errorf("GrossAmount = %d, want %d", got.GrossAmount, tt.wantGross)
			}
			if got.TaxAmount != tt.wantTax {
				t.Errorf("TaxAmount = %d, want %d", got.TaxAmount, tt.wantTax)
			}
		})
	}
}

func TestCalculate_UntaxedIdentity(t *testing.T) {
	for _, amount := range []int64{0, 1, 7, 999, 123456, 50000000} {
		got := Calculate(models.InvoiceItem{Amount: amount})
		if got.GrossAmount != amount || got.TaxAmount != 0 {
			t.Errorf("Calculate(%d, untaxed) = %+v", amount, got)
		}
	}
}

func TestCalculate_TaxedMatchesFloorFormula(t *testing.T) {
	// amount*40/39 in integers is the exact value of amount/0.975.
	for amount := int64(0); amount < 5000; amount += 13 {
		got := Calculate(models.InvoiceItem{Amount: amount, IsTaxed: true})
		wantGross := amount * 40 / 39
		wantTax := int64(math.Floor(float64(wantGross) / 40))
		if got.GrossAmount != wantGross {
			t.Fatalf("amount %d: gross = %d, want %d", amount, got.GrossAmount, wantGross)
		}
		if got.TaxAmount != wantTax {
			t.Fatalf("amount %d: tax = %d, want %d", amount, got.TaxAmount, wantTax)
		}
	}
}

func TestComputeTotals(t *testing.T) {
	items := []models.InvoiceItem{
		{Description: "Deed of sale", Amount: 100000, IsTaxed: true},
		{Description: "Stamp duty", Amount: 10000},
	}

	got := ComputeTotals(items)
	want := Totals{SubTotal: 112564, TotalTax: 2564, GrandTotal: 110000}
	if got != want {
		t.Errorf("ComputeTotals() = %+v, want %+v", got, want)
	}
	if g := GrandTotal(items); g != want.GrandTotal {
		t.Errorf("GrandTotal() = %d, want %d", g, want.GrandTotal)
	}
}

func TestComputeTotals_Empty(t *testing.T) {
	if got := ComputeTotals(nil); got != (Totals{}) {
		t.Errorf("ComputeTotals(nil) = %+v, want zero", got)
	}
}
