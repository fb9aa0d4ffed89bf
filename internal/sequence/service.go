package sequence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"notary/internal/logger"
	"notary/pkg/models"
	"notary/pkg/services"
)

// Snapshot holds the latest deed collection delivered by the store.
type Snapshot struct {
	mu     sync.RWMutex
	deeds  map[string]models.Deed
	loaded bool
}

// NewSnapshot returns an empty snapshot that reports no delivered collection.
func NewSnapshot() *Snapshot {
	return &Snapshot{deeds: make(map[string]models.Deed)}
}

// Replace swaps in a full collection delivered by the store.
func (s *Snapshot) Replace(deeds []models.Deed) {
	next := make(map[string]models.Deed, len(deeds))
	for _, d := range deeds {
		next[d.ID] = d
	}
	s.mu.Lock()
	s.deeds = next
	s.loaded = true
	s.mu.Unlock()
}

// Put records a deed saved by this process ahead of the next delivery.
func (s *Snapshot) Put(d models.Deed) {
	s.mu.Lock()
	s.deeds[d.ID] = d
	s.mu.Unlock()
}

// Deeds returns the held deeds by date and whether a collection was ever
// delivered.
func (s *Snapshot) Deeds() ([]models.Deed, bool) {
	s.mu.RLock()
	out := make([]models.Deed, 0, len(s.deeds))
	for _, d := range s.deeds {
		out = append(out, d)
	}
	loaded := s.loaded
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DeedDate != out[j].DeedDate {
			return out[i].DeedDate < out[j].DeedDate
		}
		return out[i].ID < out[j].ID
	})
	return out, loaded
}

// Service allocates numbers against the current deed collection and saves
// deeds.
type Service struct {
	store    services.DeedStore
	snapshot *Snapshot
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a deed service backed by store. Call Start to follow
// the stored collection; until then Deeds reads the store directly.
func NewService(store services.DeedStore) *Service {
	return &Service{
		store:    store,
		snapshot: NewSnapshot(),
		log:      logger.WithComponent("sequence"),
		now:      time.Now,
	}
}

// Start keeps the snapshot in sync with the store.
func (s *Service) Start(ctx context.Context) (services.CancelFunc, error) {
	cancel, err := s.store.SubscribeDeeds(ctx, func(deeds []models.Deed) {
		s.snapshot.Replace(deeds)
		s.log.Debug().Int("deeds", len(deeds)).Msg("Deed snapshot refreshed")
	})
	if err != nil {
		return nil, fmt.Errorf("Start: failed to subscribe to deeds: %w", err)
	}
	return cancel, nil
}

// Deeds returns the snapshot once the subscription delivered one, and the
// stored collection otherwise.
func (s *Service) Deeds(ctx context.Context) ([]models.Deed, error) {
	if deeds, ok := s.snapshot.Deeds(); ok {
		return deeds, nil
	}
	deeds, err := s.store.ListDeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("Deeds: failed to list deeds: %w", err)
	}
	return deeds, nil
}

// Deed returns the recorded deed with the given id.
func (s *Service) Deed(ctx context.Context, id string) (models.Deed, bool, error) {
	deeds, err := s.Deeds(ctx)
	if err != nil {
		return models.Deed{}, false, err
	}
	d, ok := find(deeds, id)
	return d, ok, nil
}

// NextNumbers previews the numbers a new deed dated date would receive.
func (s *Service) NextNumbers(ctx context.Context, date string) (Numbers, error) {
	target, err := parseDate(date)
	if err != nil {
		return Numbers{}, err
	}
	deeds, err := s.Deeds(ctx)
	if err != nil {
		return Numbers{}, err
	}
	return Next(deeds, target), nil
}

// CreateDeed saves a deed. A deed without an id, or with an id not yet in
// the collection, is new and gets freshly allocated numbers. A known deed
// keeps the numbers it was created with.
func (s *Service) CreateDeed(ctx context.Context, deed models.Deed) (models.Deed, error) {
	const op = "CreateDeed"

	target, err := parseDate(deed.DeedDate)
	if err != nil {
		return deed, err
	}
	deeds, err := s.Deeds(ctx)
	if err != nil {
		return deed, err
	}

	now := s.now()
	existing, known := find(deeds, deed.ID)
	if known {
		deed.OrderNumber = existing.OrderNumber
		deed.DeedNumber = existing.DeedNumber
		deed.OrderSeq = existing.OrderSeq
		deed.DeedSeq = existing.DeedSeq
		deed.CreatedAt = existing.CreatedAt
	} else {
		if deed.ID == "" {
			deed.ID = uuid.NewString()
		}
		n := Next(deeds, target)
		deed.OrderNumber, deed.DeedNumber = n.OrderNumber, n.DeedNumber
		deed.OrderSeq, deed.DeedSeq = n.OrderSeq, n.DeedSeq
		deed.CreatedAt = now
	}
	deed.UpdatedAt = now
	s.snapshot.Put(deed)

	s.log.Info().
		Str("op", op).
		Str("deed_id", deed.ID).
		Str("order_number", deed.OrderNumber).
		Str("deed_number", deed.DeedNumber).
		Str("deed_date", deed.DeedDate).
		Bool("new", !known).
		Msg("Deed saved")

	if err := s.store.SaveDeed(ctx, &deed); err != nil {
		s.log.Error().Err(err).Str("op", op).Str("deed_id", deed.ID).Msg("Failed to persist deed")
		return deed, &PersistenceError{Op: op, DeedID: deed.ID, Err: err}
	}
	return deed, nil
}

func find(deeds []models.Deed, id string) (models.Deed, bool) {
	if id == "" {
		return models.Deed{}, false
	}
	for _, d := range deeds {
		if d.ID == id {
			return d, true
		}
	}
	return models.Deed{}, false
}

func parseDate(date string) (time.Time, error) {
	d := models.Deed{DeedDate: strings.TrimSpace(date)}
	t, ok := d.ParsedDate()
	if !ok {
		return time.Time{}, &ValidationError{
			Field:   "deedDate",
			Value:   date,
			Message: "expected YYYY-MM-DD",
			Err:     ErrInvalidDate,
		}
	}
	return t, nil
}
