package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is the subset of kafka.Reader the consumer loop drives.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a topic and hands each message to a Handler.
type Consumer struct {
	reader Reader
	log    *zap.Logger

	// handlerTimeout bounds a single Handler call
	handlerTimeout time.Duration
	retryDelay     time.Duration
}

// Handler processes one message. Returning an error leaves the offset uncommitted,
// so the message is delivered again.
type Handler func(ctx context.Context, msg kafka.Message) error

// NewConsumer joins groupID on topic. Copies sharing a groupID split the partitions between them.
func NewConsumer(brokers []string, topic string, groupID string, log *zap.Logger) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	}), log)
}

// NewConsumerWithReader allows injecting a test reader.
func NewConsumerWithReader(r Reader, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{reader: r, log: log, handlerTimeout: 10 * time.Second, retryDelay: time.Second}
}

// Start runs until ctx is done.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	c.log.Info("kafka consumer started")

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("error fetching message", zap.Error(err))
			c.sleep(ctx)
			continue
		}

		processCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
		err = handler(processCtx, m)
		cancel()

		if err != nil {
			// not committed: kafka hands the message out again
			c.log.Error("processing failed", zap.Int64("offset", m.Offset), zap.Error(err))
			c.sleep(ctx)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error("failed to commit offset", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) sleep(ctx context.Context) {
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Close disconnects from the server.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Decode reads msg into v with the codec named by its content-type header.
func Decode(msg kafka.Message, v any) error {
	var contentType string
	for _, h := range msg.Headers {
		if h.Key == ContentTypeHeader {
			contentType = string(h.Value)
		}
	}
	return CodecForContentType(contentType).Unmarshal(msg.Value, v)
}
