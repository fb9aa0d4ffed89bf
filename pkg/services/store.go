package services

import (
	"context"
	"errors"

	"notary/pkg/models"
)

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CancelFunc stops a subscription. It is safe to call more than once.
type CancelFunc func()

// InvoiceStore persists whole invoice documents and streams the collection.
type InvoiceStore interface {
	// SaveInvoice writes the full record, replacing any stored version.
	SaveInvoice(ctx context.Context, invoice *models.Invoice) error

	// GetInvoice returns ErrNotFound when no invoice has the given id.
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)

	ListInvoices(ctx context.Context) ([]models.Invoice, error)

	// SubscribeInvoices calls fn with the full collection once on subscribe
	// and again after every change, until the returned CancelFunc is called
	// or ctx is done. fn may be called from another goroutine.
	SubscribeInvoices(ctx context.Context, fn func([]models.Invoice)) (CancelFunc, error)
}

// DeedStore persists whole deed documents and streams the collection.
type DeedStore interface {
	SaveDeed(ctx context.Context, deed *models.Deed) error
	ListDeeds(ctx context.Context) ([]models.Deed, error)
	SubscribeDeeds(ctx context.Context, fn func([]models.Deed)) (CancelFunc, error)
}

// Store is the document store backing the application.
type Store interface {
	InvoiceStore
	DeedStore
	Close() error
}
