// Package sequence allocates the display numbers of new deeds.
//
// A deed carries two counters: OrderNumber counts deeds within a calendar
// year ("001", "002", ...) and DeedNumber counts them within a calendar
// month ("01", "02", ...). Both are derived from the existing collection by
// taking the period maximum plus one, so they restart with each new period
// without any stored counter.
//
// Allocation is advisory. Two clients allocating against the same snapshot
// receive the same numbers; nothing here detects that.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"notary/pkg/models"
)

// Numbers is the allocation for one new deed.
type Numbers struct {
	OrderNumber string `json:"orderNumber"`
	DeedNumber  string `json:"deedNumber"`
	OrderSeq    int    `json:"orderSeq"`
	DeedSeq     int    `json:"deedSeq"`
}

// Next returns the numbers for a new deed dated target, given every
// existing deed. Deeds whose date cannot be parsed belong to no period.
func Next(deeds []models.Deed, target time.Time) Numbers {
	var maxDeed, maxOrder int
	for i := range deeds {
		d := &deeds[i]
		date, ok := d.ParsedDate()
		if !ok || date.Year() != target.Year() {
			continue
		}
		if n := orderSeq(d); n > maxOrder {
			maxOrder = n
		}
		if date.Month() == target.Month() {
			if n := deedSeq(d); n > maxDeed {
				maxDeed = n
			}
		}
	}

	return Numbers{
		OrderNumber: FormatOrderNumber(maxOrder + 1),
		DeedNumber:  FormatDeedNumber(maxDeed + 1),
		OrderSeq:    maxOrder + 1,
		DeedSeq:     maxDeed + 1,
	}
}

// FormatDeedNumber pads to two digits below 10.
func FormatDeedNumber(n int) string {
	if n < 10 {
		return fmt.Sprintf("%02d", n)
	}
	return strconv.Itoa(n)
}

// FormatOrderNumber pads to three digits.
func FormatOrderNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

func deedSeq(d *models.Deed) int {
	if d.DeedSeq > 0 {
		return d.DeedSeq
	}
	return ParseDigits(d.DeedNumber)
}

func orderSeq(d *models.Deed) int {
	if d.OrderSeq > 0 {
		return d.OrderSeq
	}
	return ParseLeadingInt(d.OrderNumber)
}

// ParseDigits keeps only the digits of s and parses them. Anything that
// does not yield a number is 0.
func ParseDigits(s string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// ParseLeadingInt parses the digits at the start of s, after leading
// whitespace, so "012/2024" reads as 12. No leading digit means 0.
func ParseLeadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
