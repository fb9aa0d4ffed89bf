package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notary/internal/store"
	"notary/pkg/models"
)

func seededService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	inv := newInvoice(models.InvoiceItem{Description: "Deed drafting", Amount: 100000, IsTaxed: true})
	require.NoError(t, mem.SaveInvoice(context.Background(), &inv))
	return NewService(mem), mem
}

func TestServiceAddPaymentPersists(t *testing.T) {
	ctx := context.Background()
	svc, mem := seededService(t)

	got, err := svc.AddPayment(ctx, "inv-1", PaymentInput{Date: "2025-01-15", Amount: 102564})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())

	stored, err := mem.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, int64(102564), stored.PaymentAmount)
	assert.Equal(t, "2025-01-15", stored.PaymentDate)
}

func TestServiceRejectsInvalidInputWithoutSaving(t *testing.T) {
	ctx := context.Background()
	svc, mem := seededService(t)

	_, err := svc.AddPayment(ctx, "inv-1", PaymentInput{Date: "2025-01-15", Amount: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	stored, err := mem.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, stored.PaymentHistory)
}

func TestServicePersistenceFailureKeepsLocalView(t *testing.T) {
	ctx := context.Background()
	svc, mem := seededService(t)
	mem.FailSaves = errors.New("backend unavailable")

	got, err := svc.AddPayment(ctx, "inv-1", PaymentInput{Date: "2025-01-15", Amount: 5000})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "AddPayment", perr.Op)
	assert.Equal(t, "inv-1", perr.InvoiceID)
	assert.Len(t, got.PaymentHistory, 1)

	local, ok := svc.View().Get("inv-1")
	require.True(t, ok)
	assert.Equal(t, int64(5000), local.PaymentAmount)

	stored, err := mem.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, stored.PaymentHistory)
}

func TestServiceUnknownInvoice(t *testing.T) {
	svc := NewService(store.NewMemory())

	_, err := svc.AddPayment(context.Background(), "missing", PaymentInput{Date: "2025-01-15", Amount: 1})
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	_, err = svc.Balance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestServiceEditAndDeleteThroughStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)

	inv, err := svc.AddPayment(ctx, "inv-1", PaymentInput{Date: "2025-01-12", Amount: 1000})
	require.NoError(t, err)
	id := inv.PaymentHistory[0].ID

	inv, err = svc.EditPayment(ctx, "inv-1", id, PaymentInput{Date: "2025-01-13", Amount: 102564, Note: "wire"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, inv.Status)
	assert.Equal(t, "wire", inv.PaymentHistory[0].Note)

	inv, err = svc.DeletePayment(ctx, "inv-1", id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, inv.Status)
	assert.Empty(t, inv.PaymentHistory)
	assert.Equal(t, "", inv.PaymentDate)

	_, err = svc.DeletePayment(ctx, "inv-1", id)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestServiceStartFollowsStore(t *testing.T) {
	ctx := context.Background()
	svc, mem := seededService(t)

	cancel, err := svc.Start(ctx)
	require.NoError(t, err)
	defer cancel()
	assert.Equal(t, 1, svc.View().Len())

	other := newInvoice(models.InvoiceItem{Description: "Copies", Amount: 5000})
	other.ID = "inv-2"
	require.NoError(t, mem.SaveInvoice(ctx, &other))
	assert.Equal(t, 2, svc.View().Len())
}

func TestServiceSaveInvoiceAssignsIDAndTotals(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	got, err := svc.SaveInvoice(ctx, models.Invoice{
		InvoiceNumber: "2025-001",
		Date:          "2025-01-10",
		Items: []models.InvoiceItem{
			{Description: "Fee", Amount: 100000, IsTaxed: true},
			{Description: "Duty", Amount: 10000},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, int64(110000), got.TotalAmount)
	assert.Equal(t, models.StatusUnpaid, got.Status)
	assert.NotNil(t, got.PaymentHistory)

	_, err = mem.GetInvoice(ctx, got.ID)
	require.NoError(t, err)
}

func TestServiceSaveInvoiceRejectsInvalidHistory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	_, err := svc.SaveInvoice(ctx, models.Invoice{
		ID:    "inv-9",
		Date:  "2025-01-10",
		Items: []models.InvoiceItem{{Description: "Fee", Amount: 100000, IsTaxed: true}},
		PaymentHistory: []models.PaymentRecord{
			{ID: models.LegacyPaymentID, Date: "2025-01-11", Amount: 600},
			{ID: models.LegacyPaymentID, Date: "2025-01-11", Amount: 600},
			{ID: "x", Date: "2025-01-12", Amount: -300},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateLegacyPayment)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = mem.GetInvoice(ctx, "inv-9")
	assert.Error(t, err)
	_, ok := svc.View().Get("inv-9")
	assert.False(t, ok)
}

func TestServiceSaveInvoiceAssignsPaymentIDs(t *testing.T) {
	history := []models.PaymentRecord{{Date: "2025-01-11", Amount: 600}, {Date: "2025-01-12", Amount: 400}}
	svc := NewService(store.NewMemory())

	got, err := svc.SaveInvoice(context.Background(), models.Invoice{
		ID:             "inv-9",
		Items:          []models.InvoiceItem{{Description: "Fee", Amount: 1000}},
		PaymentHistory: history,
	})
	require.NoError(t, err)
	require.Len(t, got.PaymentHistory, 2)
	assert.NotEmpty(t, got.PaymentHistory[0].ID)
	assert.NotEqual(t, got.PaymentHistory[0].ID, got.PaymentHistory[1].ID)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.Empty(t, history[0].ID, "caller's slice was modified")
}

func TestServiceConcurrentPaymentsOnOneInvoice(t *testing.T) {
	ctx := context.Background()
	svc, mem := seededService(t)

	cancel, err := svc.Start(ctx)
	require.NoError(t, err)
	defer cancel()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddPayment(ctx, "inv-1", PaymentInput{Date: "2025-01-15", Amount: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	local, ok := svc.View().Get("inv-1")
	require.True(t, ok)
	assert.Len(t, local.PaymentHistory, n)

	stored, err := mem.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Len(t, stored.PaymentHistory, n)
	assert.Equal(t, int64(n*100), stored.PaymentAmount)
}

func ExampleService_AddPayment() {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	inv, _ := svc.SaveInvoice(ctx, models.Invoice{
		ID:            "inv-42",
		InvoiceNumber: "2025-042",
		Date:          "2025-03-01",
		Items:         []models.InvoiceItem{{Description: "Sale deed", Amount: 975, IsTaxed: true}},
		PaymentAmount: 400,
		PaymentDate:   "2025-02-20",
	})
	fmt.Println(inv.TotalAmount, inv.Status)

	inv, _ = svc.AddPayment(ctx, "inv-42", PaymentInput{Date: "2025-03-05", Amount: 600})
	for _, p := range inv.PaymentHistory {
		fmt.Println(p.ID == models.LegacyPaymentID, p.Date, p.Amount)
	}

	b, _ := svc.Balance(ctx, "inv-42")
	fmt.Println(b.TotalPaid, b.Remaining, b.Status)
	// Output:
	// 975 UNPAID
	// true 2025-02-20 400
	// false 2025-03-05 600
	// 1000 0 PAID
}
