package ledger

import (
	"sort"
	"sync"

	"notary/pkg/models"
)

// View is the locally held snapshot of the invoice collection. The store
// subscription replaces it wholesale; ledger mutations update single
// invoices in place so readers see them before the save round-trip.
type View struct {
	mu       sync.RWMutex
	invoices map[string]models.Invoice
}

// NewView returns an empty view.
func NewView() *View {
	return &View{invoices: make(map[string]models.Invoice)}
}

// Replace swaps in a full collection delivered by the subscription.
func (v *View) Replace(invoices []models.Invoice) {
	next := make(map[string]models.Invoice, len(invoices))
	for _, inv := range invoices {
		next[inv.ID] = inv.Clone()
	}
	v.mu.Lock()
	v.invoices = next
	v.mu.Unlock()
}

// Put stores a single invoice.
func (v *View) Put(inv models.Invoice) {
	v.mu.Lock()
	v.invoices[inv.ID] = inv.Clone()
	v.mu.Unlock()
}

// Get returns a copy of the invoice with the given id.
func (v *View) Get(id string) (models.Invoice, bool) {
	v.mu.RLock()
	inv, ok := v.invoices[id]
	v.mu.RUnlock()
	if !ok {
		return models.Invoice{}, false
	}
	return inv.Clone(), true
}

// List returns the invoices newest first, then by invoice number.
func (v *View) List() []models.Invoice {
	v.mu.RLock()
	out := make([]models.Invoice, 0, len(v.invoices))
	for _, inv := range v.invoices {
		out = append(out, inv.Clone())
	}
	v.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].InvoiceNumber < out[j].InvoiceNumber
	})
	return out
}

// Len returns the number of invoices held.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.invoices)
}
