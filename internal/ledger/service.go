package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"notary/internal/logger"
	"notary/pkg/models"
	"notary/pkg/services"
)

// Service applies ledger mutations and persists the resulting invoice.
//
// Every mutation reads the current invoice, derives a new one, updates the
// local View immediately and then issues one whole-record save. A failed
// save is reported as a *PersistenceError but the View keeps the new value.
// Mutations of the same invoice are serialized within the process.
type Service struct {
	store services.InvoiceStore
	view  *View
	log   zerolog.Logger
	now   func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a ledger service backed by the given store.
func NewService(store services.InvoiceStore) *Service {
	return &Service{
		store: store,
		view:  NewView(),
		log:   logger.WithComponent("ledger"),
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// View returns the service's local invoice snapshot.
func (s *Service) View() *View {
	return s.view
}

// Start subscribes the view to the store's invoice collection.
func (s *Service) Start(ctx context.Context) (services.CancelFunc, error) {
	const op = "Start"

	cancel, err := s.store.SubscribeInvoices(ctx, func(invoices []models.Invoice) {
		s.view.Replace(invoices)
		s.log.Debug().Int("invoices", len(invoices)).Msg("Invoice snapshot refreshed")
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to subscribe to invoices: %w", op, err)
	}
	return cancel, nil
}

// Invoice returns the invoice from the local view, falling back to the store.
func (s *Service) Invoice(ctx context.Context, id string) (models.Invoice, error) {
	const op = "Invoice"

	if inv, ok := s.view.Get(id); ok {
		return inv, nil
	}
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return models.Invoice{}, fmt.Errorf("%s: %s: %w", op, id, ErrInvoiceNotFound)
		}
		return models.Invoice{}, fmt.Errorf("%s: failed to load invoice %s: %w", op, id, err)
	}
	s.view.Put(*inv)
	return *inv, nil
}

// Balance returns the derived balance of an invoice.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	inv, err := s.Invoice(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	return BalanceOf(&inv), nil
}

// SaveInvoice stores a submitted invoice. Missing invoice and payment ids
// are assigned, the payment history is validated, and TotalAmount and
// Status are recomputed from the items and payments.
func (s *Service) SaveInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	const op = "SaveInvoice"

	inv = inv.Clone()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	for i := range inv.PaymentHistory {
		if inv.PaymentHistory[i].ID == "" {
			inv.PaymentHistory[i].ID = uuid.NewString()
		}
	}
	if err := ValidateHistory(inv.PaymentHistory); err != nil {
		s.reject(op, inv.ID, "", err)
		return inv, err
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now()
	}

	defer s.lock(inv.ID)()
	return s.commit(ctx, op, inv, Reconcile(inv))
}

// AddPayment records a new payment against the invoice.
func (s *Service) AddPayment(ctx context.Context, invoiceID string, in PaymentInput) (models.Invoice, error) {
	const op = "AddPayment"

	defer s.lock(invoiceID)()
	before, err := s.Invoice(ctx, invoiceID)
	if err != nil {
		return models.Invoice{}, err
	}
	after, err := AddPayment(before, in)
	if err != nil {
		s.reject(op, invoiceID, "", err)
		return before, err
	}
	return s.commit(ctx, op, before, after)
}

// EditPayment replaces an existing payment.
func (s *Service) EditPayment(ctx context.Context, invoiceID, paymentID string, in PaymentInput) (models.Invoice, error) {
	const op = "EditPayment"

	defer s.lock(invoiceID)()
	before, err := s.Invoice(ctx, invoiceID)
	if err != nil {
		return models.Invoice{}, err
	}
	after, err := EditPayment(before, paymentID, in)
	if err != nil {
		s.reject(op, invoiceID, paymentID, err)
		return before, err
	}
	return s.commit(ctx, op, before, after)
}

// DeletePayment removes a payment.
func (s *Service) DeletePayment(ctx context.Context, invoiceID, paymentID string) (models.Invoice, error) {
	const op = "DeletePayment"

	defer s.lock(invoiceID)()
	before, err := s.Invoice(ctx, invoiceID)
	if err != nil {
		return models.Invoice{}, err
	}
	after, err := DeletePayment(before, paymentID)
	if err != nil {
		s.reject(op, invoiceID, paymentID, err)
		return before, err
	}
	return s.commit(ctx, op, before, after)
}

func (s *Service) commit(ctx context.Context, op string, before, after models.Invoice) (models.Invoice, error) {
	after.UpdatedAt = s.now()
	s.view.Put(after)

	event := s.log.Info().
		Str("op", op).
		Str("invoice_id", after.ID).
		Str("invoice_number", after.InvoiceNumber).
		Int64("grand_total", after.TotalAmount).
		Int64("total_paid", after.PaymentAmount).
		Int("payments", len(after.PaymentHistory)).
		Str("status", string(after.Status))
	if before.Status != "" && before.Status != after.Status {
		event = event.Str("previous_status", string(before.Status))
	}
	event.Msg("Invoice ledger updated")

	if err := s.store.SaveInvoice(ctx, &after); err != nil {
		s.log.Error().
			Err(err).
			Str("op", op).
			Str("invoice_id", after.ID).
			Msg("Failed to persist invoice, local view keeps the update")
		return after, &PersistenceError{Op: op, InvoiceID: after.ID, Err: err}
	}
	return after, nil
}

// lock serializes read-derive-save cycles on one invoice and returns the
// unlock func.
func (s *Service) lock(invoiceID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[invoiceID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[invoiceID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *Service) reject(op, invoiceID, paymentID string, err error) {
	s.log.Warn().
		Err(err).
		Str("op", op).
		Str("invoice_id", invoiceID).
		Str("payment_id", paymentID).
		Msg("Ledger mutation rejected")
}
