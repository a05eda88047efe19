// service/cargo.service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/app"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
	pkgkafka "github.com/Tanmoy095/LogiSynapse/cargo-service/pkg/kafka"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/store"
)

// publishTimeout bounds one fire-and-forget event publish.
const publishTimeout = 10 * time.Second

// CargoService handles business logic for cargo items, using a CargoStore for data access.
type CargoService struct {
	store    store.CargoStore
	producer pkgkafka.Publisher
	log      *zap.Logger
	now      func() time.Time

	inflight sync.WaitGroup
}

// NewCargoService creates a new service with the given store. producer may be nil.
func NewCargoService(store store.CargoStore, producer pkgkafka.Publisher, log *zap.Logger) *CargoService {
	if producer == nil {
		producer = pkgkafka.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CargoService{store: store, producer: producer, log: log, now: time.Now}
}

// WithClock replaces the clock used to stamp createdAt and updatedAt.
func (s *CargoService) WithClock(now func() time.Time) *CargoService {
	s.now = now
	return s
}

// List returns the normalized snapshot, sorted by consignee and filtered by query.
func (s *CargoService) List(ctx context.Context, query string, field cargo.Field) ([]models.CargoRecord, error) {
	raws, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cargo items: %w", err)
	}
	return cargo.Filter(cargo.Prepare(raws), query, field), nil
}

func (s *CargoService) Get(ctx context.Context, id string) (models.CargoRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.CargoRecord{}, ErrMissingID
	}
	raws, err := s.store.List(ctx)
	if err != nil {
		return models.CargoRecord{}, fmt.Errorf("failed to get cargo item: %w", err)
	}
	for _, raw := range raws {
		if r := cargo.Normalize(raw); r.ID == id {
			return r, nil
		}
	}
	return models.CargoRecord{}, ErrCargoNotFound
}

// Create validates and stores a new cargo item on behalf of userID.
func (s *CargoService) Create(ctx context.Context, userID string, record models.CargoRecord) (models.CargoRecord, error) {
	if userID == "" {
		return models.CargoRecord{}, app.ErrNotReady
	}
	if err := cargo.Validate(record); err != nil {
		return models.CargoRecord{}, err
	}

	record.ID = ""
	record.UserID = userID
	record.CreatedAt = s.now()
	record.UpdatedAt = time.Time{}

	id, err := s.store.Create(ctx, record)
	if err != nil {
		return models.CargoRecord{}, err
	}
	record.ID = id
	s.log.Info("cargo created", zap.String("id", id), zap.String("user", userID))

	s.publish(models.EventCargoCreated, id, &record)
	return record, nil
}

// Update validates the record and overwrites id with it. The creator and creation
// time stay as stored.
func (s *CargoService) Update(ctx context.Context, id string, record models.CargoRecord) (models.CargoRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.CargoRecord{}, ErrMissingID
	}
	if err := cargo.Validate(record); err != nil {
		return models.CargoRecord{}, err
	}

	record.ID = id
	record.UserID = ""
	record.CreatedAt = time.Time{}
	record.UpdatedAt = s.now()

	if err := s.store.Update(ctx, id, record); err != nil {
		return models.CargoRecord{}, mapStoreError(err)
	}
	s.log.Info("cargo updated", zap.String("id", id))

	updated, err := s.Get(ctx, id)
	if err != nil {
		// the write went through; report what we wrote
		s.log.Warn("cannot re-read updated cargo", zap.String("id", id), zap.Error(err))
		updated = record
	}
	s.publish(models.EventCargoUpdated, id, &updated)
	return updated, nil
}

func (s *CargoService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	s.log.Info("cargo deleted", zap.String("id", id))
	s.publish(models.EventCargoDeleted, id, nil)
	return nil
}

// Subscribe forwards raw snapshots; callers feed them to the reducer or the normalizer.
func (s *CargoService) Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (func(), error) {
	unsubscribe, err := s.store.Subscribe(ctx, onUpdate, func(err error) {
		s.log.Warn("cargo subscription error", zap.Error(err))
		if onError != nil {
			onError(err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to cargo items: %w", err)
	}
	return unsubscribe, nil
}

func (s *CargoService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Wait blocks until every event publish started so far has finished.
func (s *CargoService) Wait() {
	s.inflight.Wait()
}

// publish sends the change event in the background, keyed by cargo id so one item's
// events stay in order on a partition.
func (s *CargoService) publish(eventType, id string, record *models.CargoRecord) {
	if record != nil {
		r := *record
		r.HouseAirWaybills = append([]string(nil), r.HouseAirWaybills...)
		record = &r
	}
	event := models.CargoEvent{Event: eventType, ID: id, Payload: record, At: s.now()}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.producer.Publish(ctx, id, event); err != nil {
			s.log.Warn("failed to publish cargo event", zap.String("event", eventType), zap.String("id", id), zap.Error(err))
		}
	}()
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrCargoNotFound
	}
	return err
}
