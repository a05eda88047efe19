package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// hub fans snapshots out to subscribers of stores that have no native push feed.
// Each subscriber owns a goroutine and a one-slot mailbox: a slow subscriber skips
// intermediate snapshots but always ends up with the latest one.
type hub struct {
	log  *zap.Logger
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	onUpdate func([]models.RawRecord)
	onError  func(error)

	mu      sync.Mutex
	pending []models.RawRecord
	dirty   bool
	err     error

	wake chan struct{}
	done chan struct{}
}

func newHub(log *zap.Logger) *hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &hub{log: log, subs: make(map[int]*subscriber)}
}

// subscribe registers a subscriber and queues initial for it. Callers must hold whatever lock
// orders their broadcasts so initial is not overtaken by an older snapshot.
func (h *hub) subscribe(ctx context.Context, initial []models.RawRecord, onUpdate func([]models.RawRecord), onError func(error)) func() {
	if onError == nil {
		onError = func(error) {}
	}
	sub := &subscriber{
		onUpdate: onUpdate,
		onError:  onError,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	sub.push(initial)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	go sub.run()

	remove := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.subs[id] == sub {
			delete(h.subs, id)
			close(sub.done)
		}
	}
	stop := context.AfterFunc(ctx, remove)
	h.log.Debug("subscriber added", zap.Int("subscriber", id))
	return func() {
		stop()
		remove()
	}
}

func (h *hub) broadcast(snapshot []models.RawRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		sub.push(snapshot)
	}
}

func (h *hub) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		sub.fail(err)
	}
}

// close ends every subscription.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.done)
	}
}

func (s *subscriber) push(snapshot []models.RawRecord) {
	s.mu.Lock()
	s.pending = cloneSnapshot(snapshot)
	s.dirty = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		snapshot, dirty, err := s.pending, s.dirty, s.err
		s.pending, s.dirty, s.err = nil, false, nil
		s.mu.Unlock()

		// a subscription ended while we waited must stay silent
		select {
		case <-s.done:
			return
		default:
		}
		if err != nil {
			s.onError(err)
		}
		if dirty {
			s.onUpdate(snapshot)
		}
	}
}
