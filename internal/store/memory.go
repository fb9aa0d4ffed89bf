package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"notary/pkg/models"
	"notary/pkg/services"
)

// Memory is an in-process document store. Subscribers are notified
// synchronously after every save and must not save from the callback.
type Memory struct {
	mu       sync.RWMutex
	invoices map[string]models.Invoice
	deeds    map[string]models.Deed

	// pubMu keeps snapshot order equal to save order.
	pubMu      sync.Mutex
	invoiceHub *hub[models.Invoice]
	deedHub    *hub[models.Deed]

	// FailSaves makes every save return this error when set.
	FailSaves error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		invoices:   make(map[string]models.Invoice),
		deeds:      make(map[string]models.Deed),
		invoiceHub: newHub[models.Invoice](),
		deedHub:    newHub[models.Deed](),
	}
}

func (m *Memory) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	const op = "SaveInvoice"
	if err := m.checkSave(ctx, op); err != nil {
		return err
	}
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	m.invoices[invoice.ID] = invoice.Clone()
	m.mu.Unlock()

	m.invoiceHub.publish(m.listInvoices())
	return nil
}

func (m *Memory) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, fmt.Errorf("GetInvoice: invoice %s: %w", id, services.ErrNotFound)
	}
	out := inv.Clone()
	return &out, nil
}

func (m *Memory) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return m.listInvoices(), nil
}

func (m *Memory) SubscribeInvoices(ctx context.Context, fn func([]models.Invoice)) (services.CancelFunc, error) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	cancel := m.invoiceHub.subscribe(ctx, fn)
	fn(m.listInvoices())
	return cancel, nil
}

func (m *Memory) SaveDeed(ctx context.Context, deed *models.Deed) error {
	const op = "SaveDeed"
	if err := m.checkSave(ctx, op); err != nil {
		return err
	}
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	d := *deed
	d.Appearers = append([]string(nil), deed.Appearers...)
	m.deeds[deed.ID] = d
	m.mu.Unlock()

	m.deedHub.publish(m.listDeeds())
	return nil
}

func (m *Memory) ListDeeds(ctx context.Context) ([]models.Deed, error) {
	return m.listDeeds(), nil
}

func (m *Memory) SubscribeDeeds(ctx context.Context, fn func([]models.Deed)) (services.CancelFunc, error) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	cancel := m.deedHub.subscribe(ctx, fn)
	fn(m.listDeeds())
	return cancel, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) checkSave(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if m.FailSaves != nil {
		return fmt.Errorf("%s: %w", op, m.FailSaves)
	}
	return nil
}

func (m *Memory) listInvoices() []models.Invoice {
	m.mu.RLock()
	out := make([]models.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) listDeeds() []models.Deed {
	m.mu.RLock()
	out := make([]models.Deed, 0, len(m.deeds))
	for _, d := range m.deeds {
		out = append(out, d)
	}
	m.mu.RUnlock()
	sortDeeds(out)
	return out
}

func sortDeeds(deeds []models.Deed) {
	sort.Slice(deeds, func(i, j int) bool {
		if deeds[i].DeedDate != deeds[j].DeedDate {
			return deeds[i].DeedDate < deeds[j].DeedDate
		}
		return deeds[i].ID < deeds[j].ID
	})
}
