package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	skafka "github.com/segmentio/kafka-go"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// fakeWriter is a test writer that records messages written.
type fakeWriter struct {
	msgs []skafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func sampleEvent() models.CargoEvent {
	return models.CargoEvent{
		Event: models.EventCargoCreated,
		ID:    "c1",
		Payload: &models.CargoRecord{
			ID:               "c1",
			Consignee:        "Acme",
			HouseAirWaybills: []string{"H1"},
			ETA:              "2024-06-10T08:00",
		},
		At: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublish(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		t.Run(codec.ContentType(), func(t *testing.T) {
			fw := &fakeWriter{}
			p := NewKafkaProducerWithWriter(fw, codec, nil)
			if err := p.Publish(context.Background(), "c1", sampleEvent()); err != nil {
				t.Fatalf("publish failed: %v", err)
			}
			if len(fw.msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(fw.msgs))
			}
			msg := fw.msgs[0]
			if string(msg.Key) != "c1" {
				t.Errorf("expected key c1, got %q", msg.Key)
			}

			var got models.CargoEvent
			if err := Decode(msg, &got); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if diff := cmp.Diff(sampleEvent(), got); diff != "" {
				t.Errorf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPublishWriteError(t *testing.T) {
	p := NewKafkaProducerWithWriter(&fakeWriter{err: errors.New("broker down")}, nil, nil)
	if err := p.Publish(context.Background(), "k", map[string]string{"a": "b"}); err == nil {
		t.Fatal("expected write error")
	}
}

func TestCodecByName(t *testing.T) {
	if _, err := CodecByName("avro"); err == nil {
		t.Error("expected unknown codec error")
	}
	c, err := CodecByName("msgpack")
	if err != nil || c.ContentType() != "application/msgpack" {
		t.Errorf("unexpected codec %v %v", c, err)
	}
}

// fakeReader serves queued messages, then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []skafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (skafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return skafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...skafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	r := &fakeReader{queue: []skafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	c := NewConsumerWithReader(r, nil)
	c.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var handled []int64
	go func() {
		defer close(done)
		c.Start(ctx, func(_ context.Context, m skafka.Message) error {
			handled = append(handled, m.Offset)
			if m.Offset == 2 {
				return errors.New("boom")
			}
			if m.Offset == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	if diff := cmp.Diff([]int64{1, 2, 3}, handled); diff != "" {
		t.Errorf("handled (-want +got):\n%s", diff)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if diff := cmp.Diff([]int64{1}, r.committed); diff != "" {
		t.Errorf("committed (-want +got):\n%s", diff)
	}
}
