package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

type MemoryStore struct {
	items map[string]models.RawRecord
	order []string //insertion order, List returns records in it
	mu    sync.RWMutex
	hub   *hub
}

func NewMemoryStore(log *zap.Logger) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]models.RawRecord),
		hub:   newHub(log),
	}
}

// Seed stores raw records as they are, legacy shapes included. Records without an id get one.
func (s *MemoryStore) Seed(records ...models.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range records {
		raw = cloneRecord(raw)
		id, _ := raw["id"].(string)
		if id == "" {
			id = uuid.NewString()
			raw["id"] = id
		}
		if _, ok := s.items[id]; !ok {
			s.order = append(s.order, id)
		}
		s.items[id] = raw
	}
	s.hub.broadcast(s.snapshotLocked())
}

func (s *MemoryStore) List(ctx context.Context) ([]models.RawRecord, error) {
	// Check if the context is canceled or timed out
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

func (s *MemoryStore) Create(ctx context.Context, record models.CargoRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	record.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[record.ID] = record.Raw()
	s.order = append(s.order, record.ID)
	s.hub.broadcast(s.snapshotLocked())
	return record.ID, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, record models.CargoRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	s.items[id] = mergeUpdate(current, id, record)
	s.hub.broadcast(s.snapshotLocked())
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.hub.broadcast(s.snapshotLocked())
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub.subscribe(ctx, s.snapshotLocked(), onUpdate, onError), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	s.hub.close()
	return nil
}

func (s *MemoryStore) snapshotLocked() []models.RawRecord {
	out := make([]models.RawRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneRecord(s.items[id]))
	}
	return out
}
