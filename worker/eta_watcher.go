package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

/*
The EtaWatcher raises one alert per cargo item when its ETA day arrives and the item
is still not Completed.

It keeps the latest snapshot from the subscription and re-evaluates it
  - whenever a new snapshot arrives
  - every interval, because the date changes without any write happening

An item is alerted again only if its ETA changes.
*/

// SnapshotSource is the subscription side of the cargo service.
type SnapshotSource interface {
	Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (func(), error)
}

type EtaWatcher struct {
	source   SnapshotSource
	notifier Notifier
	log      *zap.Logger

	//setting
	interval    time.Duration
	location    *time.Location
	now         func() time.Time
	workerCount int //how many alerts are delivered in parallel

	evalMu   sync.Mutex //one evaluation at a time, so nothing is alerted twice
	mu       sync.Mutex
	records  []models.CargoRecord
	notified map[string]string //id -> eta that was alerted
	changed  chan struct{}
}

func NewEtaWatcher(source SnapshotSource, notifier Notifier, interval time.Duration, loc *time.Location, log *zap.Logger) *EtaWatcher {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EtaWatcher{
		source:      source,
		notifier:    notifier,
		log:         log,
		interval:    interval,
		location:    loc,
		now:         time.Now,
		workerCount: 4,
		notified:    make(map[string]string),
		changed:     make(chan struct{}, 1),
	}
}

// Start runs the watcher loop. blocking call.
func (w *EtaWatcher) Start(ctx context.Context) error {
	unsubscribe, err := w.source.Subscribe(ctx, w.onSnapshot, func(err error) {
		w.log.Warn("eta watcher lost its snapshot feed", zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("eta watcher: %w", err)
	}
	defer unsubscribe()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Info("eta watcher started", zap.Duration("interval", w.interval), zap.String("timezone", w.location.String()))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("eta watcher stopping")
			return nil
		case <-w.changed:
			w.Evaluate(ctx)
		case <-ticker.C:
			w.Evaluate(ctx)
		}
	}
}

func (w *EtaWatcher) onSnapshot(raws []models.RawRecord) {
	records := cargo.Prepare(raws)
	w.mu.Lock()
	w.records = records
	w.mu.Unlock()
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// Evaluate alerts every urgent record not alerted yet and returns how many alerts went out.
func (w *EtaWatcher) Evaluate(ctx context.Context) int {
	w.evalMu.Lock()
	defer w.evalMu.Unlock()
	now := w.now().In(w.location)

	w.mu.Lock()
	var due []models.CargoRecord
	present := make(map[string]bool, len(w.records))
	for _, r := range w.records {
		present[r.ID] = true
		if cargo.IsETAUrgent(r, now) && w.notified[r.ID] != r.ETA {
			due = append(due, r)
		}
	}
	for id := range w.notified {
		if !present[id] {
			delete(w.notified, id)
		}
	}
	w.mu.Unlock()

	if len(due) == 0 {
		return 0
	}
	w.log.Debug("eta alerts due", zap.Int("count", len(due)))

	jobs := make(chan models.CargoRecord, len(due))
	var (
		wg   sync.WaitGroup
		sent int
		smu  sync.Mutex
	)
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for r := range jobs {
				if err := w.notifier.Notify(ctx, alertFor(r, now)); err != nil {
					w.log.Error("eta alert failed", zap.Int("worker", id), zap.String("cargo", r.ID), zap.Error(err))
					continue
				}
				w.mu.Lock()
				w.notified[r.ID] = r.ETA
				w.mu.Unlock()
				smu.Lock()
				sent++
				smu.Unlock()
			}
		}(i)
	}
	for _, r := range due {
		jobs <- r
	}
	close(jobs)
	wg.Wait()
	return sent
}

// Due lists the urgent records of a snapshot at now, for one-shot checks.
func Due(raws []models.RawRecord, now time.Time) []models.CargoRecord {
	var due []models.CargoRecord
	for _, r := range cargo.Prepare(raws) {
		if cargo.IsETAUrgent(r, now) {
			due = append(due, r)
		}
	}
	return due
}

func alertFor(r models.CargoRecord, now time.Time) EtaAlert {
	return EtaAlert{
		ID:               r.ID,
		Consignee:        r.Consignee,
		MasterAirWaybill: r.MasterAirWaybill,
		HouseAirWaybills: append([]string(nil), r.HouseAirWaybills...),
		ETA:              r.ETA,
		CurrentStatus:    r.CurrentStatus,
		RaisedAt:         now,
	}
}
