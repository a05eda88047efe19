package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/app"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/store"
)

// --- MOCKS ---
// fakePublisher records published events
type fakePublisher struct {
	mu     sync.Mutex
	events []models.CargoEvent
	keys   []string
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.events = append(f.events, value.(models.CargoEvent))
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []models.CargoEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CargoEvent(nil), f.events...)
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*CargoService, *store.MemoryStore, *fakePublisher) {
	t.Helper()
	st := store.NewMemoryStore(nil)
	t.Cleanup(func() { st.Close() })
	pub := &fakePublisher{}
	svc := NewCargoService(st, pub, nil).WithClock(func() time.Time { return fixedNow })
	return svc, st, pub
}

func validCargo(consignee string) models.CargoRecord {
	return models.CargoRecord{
		Consignee:        consignee,
		ConsolNumber:     "C-1",
		ShipmentNumber:   "S-1",
		MasterAirWaybill: "M-1",
		HouseAirWaybills: []string{"H1"},
		KLLNumber:        "K-1",
		PreAlertDate:     "2024-06-01",
		ETA:              "2024-06-10T08:00",
		CurrentStatus:    "In Transit",
	}
}

func TestCreate(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", validCargo("Acme"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.UserID)
	assert.True(t, created.CreatedAt.Equal(fixedNow))

	svc.Wait()
	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventCargoCreated, events[0].Event)
	assert.Equal(t, created.ID, events[0].ID)
	assert.Equal(t, "Acme", events[0].Payload.Consignee)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Consignee)
}

func TestCreateRejects(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", validCargo("Acme"))
	assert.ErrorIs(t, err, app.ErrNotReady)

	invalid := validCargo("Acme")
	invalid.HouseAirWaybills = []string{"  "}
	_, err = svc.Create(ctx, "user-1", invalid)
	var verr *cargo.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(cargo.FieldHouseAirWaybills))

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "nothing may be written when validation fails")
	svc.Wait()
	assert.Empty(t, pub.published())
}

func TestUpdateKeepsCreator(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", validCargo("Acme"))
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	svc.WithClock(func() time.Time { return later })

	change := validCargo("Acme Ltd")
	change.CurrentStatus = models.StatusCompleted
	updated, err := svc.Update(ctx, created.ID, change)
	require.NoError(t, err)

	assert.Equal(t, "Acme Ltd", updated.Consignee)
	assert.Equal(t, "user-1", updated.UserID)
	assert.True(t, updated.CreatedAt.Equal(fixedNow))
	assert.True(t, updated.UpdatedAt.Equal(later))

	svc.Wait()
	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventCargoUpdated, events[1].Event)
}

func TestUpdateAndDeleteErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "", validCargo("Acme"))
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = svc.Update(ctx, "missing", validCargo("Acme"))
	assert.ErrorIs(t, err, ErrCargoNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, " "), ErrMissingID)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrCargoNotFound)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCargoNotFound)
}

func TestDeletePublishes(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", validCargo("Acme"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	svc.Wait()
	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventCargoDeleted, events[1].Event)
	assert.Nil(t, events[1].Payload)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("broker down")

	_, err := svc.Create(context.Background(), "user-1", validCargo("Acme"))
	require.NoError(t, err)
	svc.Wait()
}

func TestListFiltersAndSorts(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	st.Seed(
		models.RawRecord{"id": "z", "consignee": "zeta", "consolNumber": "X"},
		models.RawRecord{"id": "a", "name": "Alpha", "status": "H-OLD", "consolNumber": "Y"},
	)

	all, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	hits, err := svc.List(ctx, "h-old", cargo.FieldHouseAirWaybills)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestSubscribeForwardsSnapshots(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int, 8)
	unsubscribe, err := svc.Subscribe(ctx, func(s []models.RawRecord) { got <- len(s) }, nil)
	require.NoError(t, err)
	defer unsubscribe()

	assert.Equal(t, 0, <-got)
	_, err = svc.Create(ctx, "user-1", validCargo("Acme"))
	require.NoError(t, err)
	assert.Equal(t, 1, <-got)
}
