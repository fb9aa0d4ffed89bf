package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"notary/internal/logger"
	"notary/pkg/models"
	"notary/pkg/services"
)

// GormStore keeps invoices and deeds in a SQL database, one row per
// document with items, payments and appearers in JSON columns.
//
// Subscriptions are served in-process: subscribers are notified after saves
// made through this store, not after writes by other processes.
type GormStore struct {
	db  *gorm.DB
	log zerolog.Logger

	pubMu      sync.Mutex
	invoiceHub *hub[models.Invoice]
	deedHub    *hub[models.Deed]
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:         db,
		log:        logger.WithComponent("store-gorm"),
		invoiceHub: newHub[models.Invoice](),
		deedHub:    newHub[models.Deed](),
	}
}

// Migrate creates or updates the invoice and deed tables.
func (s *GormStore) Migrate() error {
	for _, m := range []interface{}{&models.Invoice{}, &models.Deed{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func (s *GormStore) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	const op = "SaveInvoice"

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if err := s.db.WithContext(ctx).Save(invoice).Error; err != nil {
		return fmt.Errorf("%s: invoice %s: %w", op, invoice.ID, err)
	}
	s.publishInvoices(ctx)
	return nil
}

func (s *GormStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "GetInvoice"

	var inv models.Invoice
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: invoice %s: %w", op, id, services.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: invoice %s: %w", op, id, err)
	}
	return &inv, nil
}

func (s *GormStore) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).Order("date desc, invoice_number").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("ListInvoices: %w", err)
	}
	return invoices, nil
}

func (s *GormStore) SubscribeInvoices(ctx context.Context, fn func([]models.Invoice)) (services.CancelFunc, error) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	invoices, err := s.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("SubscribeInvoices: %w", err)
	}
	cancel := s.invoiceHub.subscribe(ctx, fn)
	fn(invoices)
	return cancel, nil
}

func (s *GormStore) SaveDeed(ctx context.Context, deed *models.Deed) error {
	const op = "SaveDeed"

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if err := s.db.WithContext(ctx).Save(deed).Error; err != nil {
		return fmt.Errorf("%s: deed %s: %w", op, deed.ID, err)
	}
	s.publishDeeds(ctx)
	return nil
}

func (s *GormStore) ListDeeds(ctx context.Context) ([]models.Deed, error) {
	var deeds []models.Deed
	if err := s.db.WithContext(ctx).Order("deed_date, id").Find(&deeds).Error; err != nil {
		return nil, fmt.Errorf("ListDeeds: %w", err)
	}
	return deeds, nil
}

func (s *GormStore) SubscribeDeeds(ctx context.Context, fn func([]models.Deed)) (services.CancelFunc, error) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	deeds, err := s.ListDeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("SubscribeDeeds: %w", err)
	}
	cancel := s.deedHub.subscribe(ctx, fn)
	fn(deeds)
	return cancel, nil
}

// Close closes the underlying database handle.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// publishInvoices reloads the collection for subscribers. A failed reload
// is logged; the save itself already succeeded.
func (s *GormStore) publishInvoices(ctx context.Context) {
	if s.invoiceHub.len() == 0 {
		return
	}
	invoices, err := s.ListInvoices(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to reload invoices for subscribers")
		return
	}
	s.invoiceHub.publish(invoices)
}

func (s *GormStore) publishDeeds(ctx context.Context) {
	if s.deedHub.len() == 0 {
		return
	}
	deeds, err := s.ListDeeds(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to reload deeds for subscribers")
		return
	}
	s.deedHub.publish(deeds)
}
