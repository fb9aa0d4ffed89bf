package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"notary/internal/logger"
	"notary/pkg/models"
	"notary/pkg/services"
)

// FirestoreStore keeps invoices and deeds as documents in two Firestore
// collections keyed by record ID. Subscriptions use realtime snapshot
// listeners, so writes by other processes reach subscribers too.
type FirestoreStore struct {
	client   *firestore.Client
	invoices string
	deeds    string
	log      zerolog.Logger
}

// FirestoreOptions names the project and collections to use.
type FirestoreOptions struct {
	ProjectID          string
	InvoicesCollection string
	DeedsCollection    string
}

// NewFirestoreStore connects to Firestore. Credentials are read from
// GOOGLE_APPLICATION_CREDENTIALS (file) or GOOGLE_CREDENTIALS (JSON); with
// neither set the client falls back to application default credentials.
func NewFirestoreStore(ctx context.Context, opts FirestoreOptions) (*FirestoreStore, error) {
	const op = "NewFirestoreStore"

	var clientOpts []option.ClientOption
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(path))
	} else if creds := os.Getenv("GOOGLE_CREDENTIALS"); creds != "" {
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(creds)))
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create firestore client: %w", op, err)
	}

	return &FirestoreStore{
		client:   client,
		invoices: opts.InvoicesCollection,
		deeds:    opts.DeedsCollection,
		log:      logger.WithComponent("store-firestore"),
	}, nil
}

func (s *FirestoreStore) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	if _, err := s.client.Collection(s.invoices).Doc(invoice.ID).Set(ctx, invoice); err != nil {
		return fmt.Errorf("SaveInvoice: invoice %s: %w", invoice.ID, err)
	}
	return nil
}

func (s *FirestoreStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "GetInvoice"

	snap, err := s.client.Collection(s.invoices).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: invoice %s: %w", op, id, services.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: invoice %s: %w", op, id, err)
	}
	var inv models.Invoice
	if err := snap.DataTo(&inv); err != nil {
		return nil, fmt.Errorf("%s: decode invoice %s: %w", op, id, err)
	}
	inv.ID = snap.Ref.ID
	return &inv, nil
}

func (s *FirestoreStore) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	docs, err := s.client.Collection(s.invoices).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("ListInvoices: %w", err)
	}
	return decodeInvoices(docs)
}

func (s *FirestoreStore) SubscribeInvoices(ctx context.Context, fn func([]models.Invoice)) (services.CancelFunc, error) {
	return listen(ctx, s.log, s.client.Collection(s.invoices), decodeInvoices, fn)
}

func (s *FirestoreStore) SaveDeed(ctx context.Context, deed *models.Deed) error {
	if _, err := s.client.Collection(s.deeds).Doc(deed.ID).Set(ctx, deed); err != nil {
		return fmt.Errorf("SaveDeed: deed %s: %w", deed.ID, err)
	}
	return nil
}

func (s *FirestoreStore) ListDeeds(ctx context.Context) ([]models.Deed, error) {
	docs, err := s.client.Collection(s.deeds).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("ListDeeds: %w", err)
	}
	return decodeDeeds(docs)
}

func (s *FirestoreStore) SubscribeDeeds(ctx context.Context, fn func([]models.Deed)) (services.CancelFunc, error) {
	return listen(ctx, s.log, s.client.Collection(s.deeds), decodeDeeds, fn)
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// listen delivers the first snapshot before returning, then keeps
// forwarding snapshots from a goroutine until cancelled.
func listen[T any](
	ctx context.Context,
	log zerolog.Logger,
	coll *firestore.CollectionRef,
	decode func([]*firestore.DocumentSnapshot) ([]T, error),
	fn func([]T),
) (services.CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := coll.Snapshots(ctx)

	deliver := func() error {
		qs, err := it.Next()
		if err != nil {
			return err
		}
		docs, err := qs.Documents.GetAll()
		if err != nil {
			return err
		}
		items, err := decode(docs)
		if err != nil {
			return err
		}
		fn(items)
		return nil
	}

	if err := deliver(); err != nil {
		it.Stop()
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", coll.ID, err)
	}

	go func() {
		defer it.Stop()
		for {
			err := deliver()
			if err == nil {
				continue
			}
			if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("collection", coll.ID).Msg("Snapshot listener stopped")
			return
		}
	}()

	return services.CancelFunc(cancel), nil
}

func decodeInvoices(docs []*firestore.DocumentSnapshot) ([]models.Invoice, error) {
	out := make([]models.Invoice, 0, len(docs))
	for _, doc := range docs {
		var inv models.Invoice
		if err := doc.DataTo(&inv); err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", doc.Ref.ID, err)
		}
		inv.ID = doc.Ref.ID
		out = append(out, inv)
	}
	return out, nil
}

func decodeDeeds(docs []*firestore.DocumentSnapshot) ([]models.Deed, error) {
	out := make([]models.Deed, 0, len(docs))
	for _, doc := range docs {
		var d models.Deed
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode deed %s: %w", doc.Ref.ID, err)
		}
		d.ID = doc.Ref.ID
		out = append(out, d)
	}
	sortDeeds(out)
	return out, nil
}
