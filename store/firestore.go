package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// CollectionPath is where the cargo documents of an app live.
func CollectionPath(appID string) string {
	return fmt.Sprintf("artifacts/%s/public/data/cargoItems", appID)
}

// FirestoreStore keeps cargo items in a Firestore collection. Documents keep whatever
// shape they were written in; the legacy keys of old documents survive until an update.
type FirestoreStore struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
	log    *zap.Logger

	closing context.Context
	close   context.CancelFunc
	wg      sync.WaitGroup
}

// NewFirestoreStore connects to projectID. An empty credentialsFile uses application default credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile, appID string, log *zap.Logger) (*FirestoreStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return newFirestoreStore(client, appID, log), nil
}

func newFirestoreStore(client *firestore.Client, appID string, log *zap.Logger) *FirestoreStore {
	closing, cancel := context.WithCancel(context.Background())
	return &FirestoreStore{
		client:  client,
		coll:    client.Collection(CollectionPath(appID)),
		log:     log,
		closing: closing,
		close:   cancel,
	}
}

func (s *FirestoreStore) List(ctx context.Context) ([]models.RawRecord, error) {
	docs, err := s.coll.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list cargo items: %w", err)
	}
	return documentsToRecords(docs), nil
}

func (s *FirestoreStore) Create(ctx context.Context, record models.CargoRecord) (string, error) {
	record.ID = ""
	ref, _, err := s.coll.Add(ctx, map[string]any(record.Raw()))
	if err != nil {
		return "", fmt.Errorf("failed to add cargo item: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Update(ctx context.Context, id string, record models.CargoRecord) error {
	record.ID = ""
	var updates []firestore.Update
	for k, v := range record.Raw() {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	for _, k := range legacyKeys {
		updates = append(updates, firestore.Update{Path: k, Value: firestore.Delete})
	}
	if _, err := s.coll.Doc(id).Update(ctx, updates); err != nil {
		return mapFirestoreError(err, "failed to update cargo item "+id)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapFirestoreError(err, "failed to delete cargo item "+id)
	}
	return nil
}

// Subscribe follows the collection with a real-time snapshot listener.
func (s *FirestoreStore) Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (func(), error) {
	if err := s.closing.Err(); err != nil {
		return nil, errors.New("firestore store is closed")
	}
	if onError == nil {
		onError = func(error) {}
	}

	subCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.closing, cancel)
	it := s.coll.Snapshots(subCtx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if subCtx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				s.log.Warn("cargo snapshot listener failed", zap.Error(err))
				onError(err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				onError(err)
				continue
			}
			onUpdate(documentsToRecords(docs))
		}
	}()
	return cancel, nil
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	it := s.coll.Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	s.close()
	s.wg.Wait()
	return s.client.Close()
}

func documentsToRecords(docs []*firestore.DocumentSnapshot) []models.RawRecord {
	records := make([]models.RawRecord, 0, len(docs))
	for _, doc := range docs {
		raw := models.RawRecord(doc.Data())
		raw["id"] = doc.Ref.ID
		records = append(records, raw)
	}
	return records
}

func mapFirestoreError(err error, msg string) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
