package models

import "time"

// InvoiceStatus is the stored payment state of an invoice.
type InvoiceStatus string

const (
	StatusUnpaid InvoiceStatus = "UNPAID"
	StatusPaid   InvoiceStatus = "PAID"
)

// LegacyPaymentID identifies the synthetic record that stands in for a
// pre-ledger scalar payment (Invoice.PaymentAmount).
const LegacyPaymentID = "legacy-payment"

// DateLayout is the ISO date format used for every date string on the records.
const DateLayout = "2006-01-02"

type Invoice struct {
	// Core identifiers
	ID            string `json:"id" firestore:"id" gorm:"primaryKey;size:64"`
	InvoiceNumber string `json:"invoiceNumber" firestore:"invoiceNumber" gorm:"size:64;index"`

	// Dates (YYYY-MM-DD)
	Date    string `json:"date" firestore:"date" gorm:"size:10"`
	DueDate string `json:"dueDate" firestore:"dueDate" gorm:"size:10"`

	// Client snapshot taken when the invoice was issued
	Client ClientSnapshot `json:"client" firestore:"client" gorm:"serializer:json;type:text"`

	// Line items, stored with the invoice as one document
	Items []InvoiceItem `json:"items" firestore:"items" gorm:"serializer:json;type:text"`

	// Amounts are integers in the base monetary unit
	TotalAmount int64 `json:"totalAmount" firestore:"totalAmount"` // last computed grand total

	// Ledger
	Status         InvoiceStatus   `json:"status" firestore:"status" gorm:"size:16;index"`
	PaymentHistory []PaymentRecord `json:"paymentHistory" firestore:"paymentHistory" gorm:"serializer:json;type:text"`

	// Deprecated scalar payment fields, kept in sync for older readers
	PaymentAmount int64  `json:"paymentAmount" firestore:"paymentAmount"` // total paid
	PaymentDate   string `json:"paymentDate" firestore:"paymentDate" gorm:"size:10"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// InvoiceItem is a single billable line. Amount is the net amount the
// office wants to receive; taxed items are grossed up for withholding.
type InvoiceItem struct {
	Description string `json:"description" firestore:"description"`
	Amount      int64  `json:"amount" firestore:"amount"`
	IsTaxed     bool   `json:"isTaxed" firestore:"isTaxed"`
}

// PaymentRecord is one entry of an invoice's payment ledger.
type PaymentRecord struct {
	ID     string `json:"id" firestore:"id"`
	Date   string `json:"date" firestore:"date"`
	Amount int64  `json:"amount" firestore:"amount"`
	Note   string `json:"note,omitempty" firestore:"note,omitempty"`
}

// IsLegacy reports whether the record is the migrated legacy payment.
func (p PaymentRecord) IsLegacy() bool {
	return p.ID == LegacyPaymentID
}

type ClientSnapshot struct {
	ID      string `json:"id" firestore:"id" gorm:"size:64"`
	Name    string `json:"name" firestore:"name"`
	Address string `json:"address,omitempty" firestore:"address,omitempty"`
	Phone   string `json:"phone,omitempty" firestore:"phone,omitempty"`
	Email   string `json:"email,omitempty" firestore:"email,omitempty"`
}

// IsPaid reports the stored status; it is not recomputed from the items.
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid
}

// Clone returns a copy whose slices do not alias the receiver's.
func (i Invoice) Clone() Invoice {
	out := i
	if i.Items != nil {
		out.Items = append([]InvoiceItem(nil), i.Items...)
	}
	if i.PaymentHistory != nil {
		out.PaymentHistory = append([]PaymentRecord(nil), i.PaymentHistory...)
	}
	return out
}
