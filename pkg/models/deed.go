package models

import "time"

// Deed is a notarial act. OrderNumber counts deeds within a calendar year,
// DeedNumber counts them within a calendar month.
type Deed struct {
	ID          string `json:"id" firestore:"id" gorm:"primaryKey;size:64"`
	OrderNumber string `json:"orderNumber" firestore:"orderNumber" gorm:"size:32"` // "001", year-scoped
	DeedNumber  string `json:"deedNumber" firestore:"deedNumber" gorm:"size:32"`   // "01", month-scoped

	// Integer sequences captured when the numbers were allocated. Zero on
	// deeds created before they existed; the display strings are parsed then.
	OrderSeq int `json:"orderSeq,omitempty" firestore:"orderSeq,omitempty"`
	DeedSeq  int `json:"deedSeq,omitempty" firestore:"deedSeq,omitempty"`

	DeedDate  string   `json:"deedDate" firestore:"deedDate" gorm:"size:32;index"` // YYYY-MM-DD
	Title     string   `json:"title" firestore:"title"`
	Appearers []string `json:"appearers" firestore:"appearers" gorm:"serializer:json;type:text"`
	ClientID  string   `json:"clientId" firestore:"clientId" gorm:"size:64;index"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ParsedDate returns DeedDate as a time, or false when it is not an ISO date.
// A trailing time component ("2025-01-20T09:00:00Z") is ignored.
func (d *Deed) ParsedDate() (time.Time, bool) {
	s := d.DeedDate
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
