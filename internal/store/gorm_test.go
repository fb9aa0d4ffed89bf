package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"notary/pkg/models"
	"notary/pkg/services"
)

type GormStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *GormStore
}

func TestGormStore(t *testing.T) {
	suite.Run(t, new(GormStoreSuite))
}

func (s *GormStoreSuite) SetupTest() {
	s.ctx = context.Background()
	name := strings.ReplaceAll(s.T().Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	s.Require().NoError(err)
	s.store = NewGormStore(db)
	s.Require().NoError(s.store.Migrate())
}

func (s *GormStoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *GormStoreSuite) invoice(id, date string) *models.Invoice {
	return &models.Invoice{
		ID:            id,
		InvoiceNumber: "INV-" + id,
		Date:          date,
		DueDate:       date,
		Client:        models.ClientSnapshot{ID: "c-1", Name: "Acme"},
		Items: []models.InvoiceItem{
			{Description: "Deed drafting", Amount: 100000, IsTaxed: true},
			{Description: "Stamp duty", Amount: 10000},
		},
		TotalAmount: 110000,
		Status:      models.StatusUnpaid,
	}
}

func (s *GormStoreSuite) TestSaveAndGetInvoiceRoundTrip() {
	inv := s.invoice("a", "2025-01-10")
	inv.PaymentHistory = []models.PaymentRecord{{ID: "p1", Date: "2025-01-11", Amount: 500, Note: "cash"}}
	inv.PaymentAmount = 500
	inv.PaymentDate = "2025-01-11"
	s.Require().NoError(s.store.SaveInvoice(s.ctx, inv))

	got, err := s.store.GetInvoice(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("INV-a", got.InvoiceNumber)
	s.Equal("Acme", got.Client.Name)
	s.Equal(inv.Items, got.Items)
	s.Equal(inv.PaymentHistory, got.PaymentHistory)
	s.Equal(int64(500), got.PaymentAmount)
	s.Equal(models.StatusUnpaid, got.Status)
}

func (s *GormStoreSuite) TestSaveReplacesWholeRecord() {
	inv := s.invoice("a", "2025-01-10")
	s.Require().NoError(s.store.SaveInvoice(s.ctx, inv))

	inv.Status = models.StatusPaid
	inv.PaymentHistory = []models.PaymentRecord{{ID: "p1", Date: "2025-02-01", Amount: 112564}}
	inv.PaymentAmount = 112564
	s.Require().NoError(s.store.SaveInvoice(s.ctx, inv))

	got, err := s.store.GetInvoice(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(models.StatusPaid, got.Status)
	s.Len(got.PaymentHistory, 1)

	all, err := s.store.ListInvoices(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *GormStoreSuite) TestGetInvoiceNotFound() {
	_, err := s.store.GetInvoice(s.ctx, "missing")
	s.Require().Error(err)
	s.True(errors.Is(err, services.ErrNotFound))
}

func (s *GormStoreSuite) TestListInvoicesNewestFirst() {
	s.Require().NoError(s.store.SaveInvoice(s.ctx, s.invoice("old", "2024-12-01")))
	s.Require().NoError(s.store.SaveInvoice(s.ctx, s.invoice("new", "2025-03-01")))

	all, err := s.store.ListInvoices(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("new", all[0].ID)
	s.Equal("old", all[1].ID)
}

func (s *GormStoreSuite) TestSubscribeInvoicesReceivesSaves() {
	var snapshots [][]models.Invoice
	cancel, err := s.store.SubscribeInvoices(s.ctx, func(invoices []models.Invoice) {
		snapshots = append(snapshots, invoices)
	})
	s.Require().NoError(err)

	s.Require().Len(snapshots, 1)
	s.Empty(snapshots[0])

	s.Require().NoError(s.store.SaveInvoice(s.ctx, s.invoice("a", "2025-01-10")))
	s.Require().Len(snapshots, 2)
	s.Len(snapshots[1], 1)

	cancel()
	s.Require().NoError(s.store.SaveInvoice(s.ctx, s.invoice("b", "2025-01-11")))
	s.Len(snapshots, 2)
}

func (s *GormStoreSuite) TestDeedsOrderedByDate() {
	deeds := []models.Deed{
		{ID: "d2", OrderNumber: "002", DeedNumber: "02", OrderSeq: 2, DeedSeq: 2, DeedDate: "2025-01-20", Appearers: []string{"A", "B"}},
		{ID: "d1", OrderNumber: "001", DeedNumber: "01", OrderSeq: 1, DeedSeq: 1, DeedDate: "2025-01-05"},
	}
	for i := range deeds {
		s.Require().NoError(s.store.SaveDeed(s.ctx, &deeds[i]))
	}

	got, err := s.store.ListDeeds(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("d1", got[0].ID)
	s.Equal("d2", got[1].ID)
	s.Equal([]string{"A", "B"}, got[1].Appearers)
	s.Equal(2, got[1].DeedSeq)
}

func (s *GormStoreSuite) TestSubscribeDeedsCancelledByContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	calls := 0
	_, err := s.store.SubscribeDeeds(ctx, func([]models.Deed) { calls++ })
	s.Require().NoError(err)
	s.Equal(1, calls)

	cancel()
	s.Eventually(func() bool { return s.store.deedHub.len() == 0 }, timeout, tick)

	s.Require().NoError(s.store.SaveDeed(s.ctx, &models.Deed{ID: "d1", DeedDate: "2025-01-05"}))
	s.Equal(1, calls)
}
