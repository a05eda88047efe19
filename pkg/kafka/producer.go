package kafka

import (
	"context"

	skafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer defines the subset of segmentio kafka.Writer we need. This makes the producer testable.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// KafkaProducer is a thin wrapper around a kafka writer implementing Publisher.
type KafkaProducer struct {
	writer Writer
	codec  Codec
	log    *zap.Logger
}

// NewKafkaProducer creates a real KafkaProducer that writes to the provided broker/topic.
func NewKafkaProducer(brokerURL, topic string, codec Codec, log *zap.Logger) *KafkaProducer {
	w := &skafka.Writer{
		Addr:     skafka.TCP(brokerURL),
		Topic:    topic,
		Balancer: &skafka.Hash{}, //same key, same partition: events of one cargo item stay ordered
	}
	return NewKafkaProducerWithWriter(w, codec, log)
}

// NewKafkaProducerWithWriter allows injecting a test writer.
func NewKafkaProducerWithWriter(w Writer, codec Codec, log *zap.Logger) *KafkaProducer {
	if codec == nil {
		codec = JSONCodec{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaProducer{writer: w, codec: codec, log: log}
}

// Publish encodes the value with the producer codec and writes a kafka message with the given key.
func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	b, err := p.codec.Marshal(value)
	if err != nil {
		p.log.Error("failed to encode kafka value", zap.String("key", key), zap.Error(err))
		return err
	}
	msg := skafka.Message{
		Key:     []byte(key),
		Value:   b,
		Headers: []skafka.Header{{Key: ContentTypeHeader, Value: []byte(p.codec.ContentType())}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write error", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
