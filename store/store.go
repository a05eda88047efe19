// store/store.go
package store

import (
	"context"
	"errors"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// ErrNotFound is returned when an update or delete targets an id the store does not hold.
var ErrNotFound = errors.New("cargo item not found")

// legacy keys are dropped whenever a record is rewritten in the canonical shape
var legacyKeys = []string{"status", "name", "weight", "destination", "hawbs"}

// CargoStore defines the interface for the storage layer.
// Reads hand out raw records; the normalizer decides what they mean.
type CargoStore interface {
	// List returns the current snapshot, in no particular order.
	List(ctx context.Context) ([]models.RawRecord, error)

	// Create stores the record and returns the id the store assigned. record.ID is ignored.
	Create(ctx context.Context, record models.CargoRecord) (string, error)

	// Update overwrites the canonical fields of id and strips legacy keys.
	// Zero timestamps and an empty user id keep what is stored.
	Update(ctx context.Context, id string, record models.CargoRecord) error

	// Delete removes id.
	Delete(ctx context.Context, id string) error

	// Subscribe delivers the full snapshot once, then again after every change, until ctx is
	// done or the returned unsubscribe func is called. Callbacks run on a store goroutine,
	// one at a time per subscription.
	Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (unsubscribe func(), err error)

	Ping(ctx context.Context) error
	Close() error
}

// mergeUpdate applies record onto a copy of current the way Update documents it.
func mergeUpdate(current models.RawRecord, id string, record models.CargoRecord) models.RawRecord {
	merged := cloneRecord(current)
	for _, k := range legacyKeys {
		delete(merged, k)
	}
	record.ID = ""
	for k, v := range record.Raw() {
		merged[k] = v
	}
	merged["id"] = id
	return merged
}

func cloneRecord(raw models.RawRecord) models.RawRecord {
	out := make(models.RawRecord, len(raw))
	for k, v := range raw {
		switch seq := v.(type) {
		case []string:
			v = append([]string(nil), seq...)
		case []any:
			v = append([]any(nil), seq...)
		}
		out[k] = v
	}
	return out
}

func cloneSnapshot(records []models.RawRecord) []models.RawRecord {
	out := make([]models.RawRecord, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}
