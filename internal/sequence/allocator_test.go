package sequence

import (
	"fmt"
	"testing"
	"time"

	"notary/pkg/models"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func deed(date, order, number string) models.Deed {
	return models.Deed{ID: date + "/" + number, DeedDate: date, OrderNumber: order, DeedNumber: number}
}

func TestNextDeedNumberWithinMonth(t *testing.T) {
	deeds := []models.Deed{
		deed("2025-01-03", "001", "01"),
		deed("2025-01-08", "002", "02"),
		deed("2025-01-15", "003", "05"),
		deed("2024-12-30", "120", "09"),
	}

	got := Next(deeds, day("2025-01-20"))
	if got.DeedNumber != "06" {
		t.Errorf("DeedNumber = %q, want 06", got.DeedNumber)
	}
	if got.OrderNumber != "004" {
		t.Errorf("OrderNumber = %q, want 004", got.OrderNumber)
	}
	if got.DeedSeq != 6 || got.OrderSeq != 4 {
		t.Errorf("seqs = %d/%d, want 6/4", got.DeedSeq, got.OrderSeq)
	}
}

func TestNextEmptyYearStartsAtOne(t *testing.T) {
	deeds := []models.Deed{deed("2024-11-02", "231", "14")}

	for _, date := range []string{"2025-01-01", "2025-06-30", "2025-12-31"} {
		got := Next(deeds, day(date))
		if got.OrderNumber != "001" || got.DeedNumber != "01" {
			t.Errorf("%s: got %s/%s, want 001/01", date, got.OrderNumber, got.DeedNumber)
		}
	}

	if got := Next(nil, day("2025-03-01")); got.OrderNumber != "001" {
		t.Errorf("no deeds: OrderNumber = %q, want 001", got.OrderNumber)
	}
}

func TestNextResetsPerPeriod(t *testing.T) {
	deeds := []models.Deed{
		deed("2025-01-10", "001", "01"),
		deed("2025-01-20", "002", "02"),
		deed("2025-02-05", "003", "01"),
	}

	feb := Next(deeds, day("2025-02-28"))
	if feb.DeedNumber != "02" || feb.OrderNumber != "004" {
		t.Errorf("february: got %s/%s, want 004/02", feb.OrderNumber, feb.DeedNumber)
	}

	mar := Next(deeds, day("2025-03-01"))
	if mar.DeedNumber != "01" || mar.OrderNumber != "004" {
		t.Errorf("march: got %s/%s, want 004/01", mar.OrderNumber, mar.DeedNumber)
	}

	// January of another year is a different month
	jan := Next(deeds, day("2026-01-15"))
	if jan.DeedNumber != "01" || jan.OrderNumber != "001" {
		t.Errorf("next january: got %s/%s, want 001/01", jan.OrderNumber, jan.DeedNumber)
	}
}

func TestNextMalformedNumbersCountAsZero(t *testing.T) {
	deeds := []models.Deed{
		deed("2025-04-01", "n/a", "draft"),
		deed("2025-04-02", "", ""),
	}
	got := Next(deeds, day("2025-04-10"))
	if got.DeedNumber != "01" || got.OrderNumber != "001" {
		t.Errorf("got %s/%s, want 001/01", got.OrderNumber, got.DeedNumber)
	}
}

func TestNextLegacyFormats(t *testing.T) {
	deeds := []models.Deed{
		deed("2024-05-02", "012/2024", "N° 7"),
		deed("2024-05-03", " 9", "A-08"),
	}
	got := Next(deeds, day("2024-05-20"))
	if got.OrderNumber != "013" {
		t.Errorf("OrderNumber = %q, want 013", got.OrderNumber)
	}
	if got.DeedNumber != "09" {
		t.Errorf("DeedNumber = %q, want 09", got.DeedNumber)
	}
}

func TestNextPrefersStoredSequences(t *testing.T) {
	d := deed("2025-07-01", "garbled", "garbled")
	d.OrderSeq, d.DeedSeq = 41, 11
	got := Next([]models.Deed{d}, day("2025-07-09"))
	if got.OrderNumber != "042" || got.DeedNumber != "12" {
		t.Errorf("got %s/%s, want 042/12", got.OrderNumber, got.DeedNumber)
	}
}

func TestNextSkipsUnparseableDates(t *testing.T) {
	deeds := []models.Deed{
		deed("someday", "050", "30"),
		deed("2025-01-20T09:30:00Z", "002", "02"),
	}
	got := Next(deeds, day("2025-01-31"))
	if got.OrderNumber != "003" || got.DeedNumber != "03" {
		t.Errorf("got %s/%s, want 003/03", got.OrderNumber, got.DeedNumber)
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		n          int
		deed, ordr string
	}{
		{1, "01", "001"},
		{9, "09", "009"},
		{10, "10", "010"},
		{123, "123", "123"},
		{1000, "1000", "1000"},
	}
	for _, tt := range tests {
		if got := FormatDeedNumber(tt.n); got != tt.deed {
			t.Errorf("FormatDeedNumber(%d) = %q, want %q", tt.n, got, tt.deed)
		}
		if got := FormatOrderNumber(tt.n); got != tt.ordr {
			t.Errorf("FormatOrderNumber(%d) = %q, want %q", tt.n, got, tt.ordr)
		}
	}
}

func TestParsers(t *testing.T) {
	digits := map[string]int{"05": 5, "N° 12": 12, "1-2": 12, "abc": 0, "": 0, "99999999999999999999": 0}
	for in, want := range digits {
		if got := ParseDigits(in); got != want {
			t.Errorf("ParseDigits(%q) = %d, want %d", in, got, want)
		}
	}

	leading := map[string]int{"012": 12, "012/2024": 12, " 7a": 7, "x12": 0, "": 0}
	for in, want := range leading {
		if got := ParseLeadingInt(in); got != want {
			t.Errorf("ParseLeadingInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func ExampleNext() {
	deeds := []models.Deed{
		{DeedDate: "2025-01-03", OrderNumber: "001", DeedNumber: "01"},
		{DeedDate: "2025-01-08", OrderNumber: "002", DeedNumber: "02"},
		{DeedDate: "2025-01-15", OrderNumber: "003", DeedNumber: "05"},
	}
	n := Next(deeds, time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC))
	fmt.Println(n.OrderNumber, n.DeedNumber)
	// Output: 004 06
}
