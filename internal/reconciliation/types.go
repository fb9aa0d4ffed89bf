package reconciliation

import "notary/pkg/models"

// BankTransaction represents a row of the bank worksheet
type BankTransaction struct {
	Row          int    `json:"row"`          // sheet row, 1-based
	Date         string `json:"date"`         // booking date, YYYY-MM-DD - column A
	Reference    string `json:"reference"`    // purpose / remittance text - column B
	CounterParty string `json:"counterParty"` // payer or payee - column C
	Amount       int64  `json:"amount"`       // base monetary unit, negative for outgoing - column D
}

// IsIncoming returns true if this is an incoming transaction (positive amount)
func (bt *BankTransaction) IsIncoming() bool {
	return bt.Amount > 0
}

// Note is the payment note recorded for the transaction. It also marks
// transactions that were already booked.
func (bt *BankTransaction) Note() string {
	return "bank: " + bt.Reference
}

// Match pairs an incoming transaction with the invoice its reference names.
type Match struct {
	Transaction   BankTransaction `json:"transaction"`
	InvoiceID     string          `json:"invoiceId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Remaining     int64           `json:"remaining"` // open balance before this payment
}

// Result sorts the transactions of one run.
type Result struct {
	Matched   []Match           `json:"matched"`
	Booked    []BankTransaction `json:"booked"`    // already in an invoice's payment history
	Ambiguous []BankTransaction `json:"ambiguous"` // reference names more than one invoice
	Unmatched []BankTransaction `json:"unmatched"`
	Outgoing  int               `json:"outgoing"`
}

// Summary counts the entries per outcome.
func (r *Result) Summary() map[string]int {
	return map[string]int{
		"matched":   len(r.Matched),
		"booked":    len(r.Booked),
		"ambiguous": len(r.Ambiguous),
		"unmatched": len(r.Unmatched),
		"outgoing":  r.Outgoing,
	}
}

// invoiceRef is the part of an invoice the matcher looks at.
type invoiceRef struct {
	invoice *models.Invoice
	number  string // normalised invoice number
}
