package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConfirmed is returned when the broker nacks a published message.
var ErrNotConfirmed = errors.New("rabbitmq: broker did not confirm the message")

// RabbitmqClient wraps one connection and one channel in confirm mode.
// Publish is safe for concurrent use.
type RabbitmqClient struct {
	conn *amqp.Connection
	chn  *amqp.Channel
	mu   sync.Mutex
}

func NewClient(url string) (*RabbitmqClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	// every publish waits for the broker ack
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return &RabbitmqClient{conn: conn, chn: ch}, nil
}

func (r *RabbitmqClient) Close() error {
	if r.chn != nil {
		_ = r.chn.Close()
	}
	return r.conn.Close()
}

// CreateQueue declares a durable queue. Declaring an existing queue with the same
// arguments is a no-op.
func (r *RabbitmqClient) CreateQueue(queueName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.chn.QueueDeclare(
		queueName, //name
		true,      //durable
		false,     //delete when unused
		false,     //exclusive
		false,     //no-wait
		nil,       //arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return nil
}

// Publish sends a persistent JSON message to queueName and waits until the broker
// confirms it or ctx is done.
func (r *RabbitmqClient) Publish(ctx context.Context, queueName string, body []byte) error {
	r.mu.Lock()
	if r.chn.IsClosed() {
		r.mu.Unlock()
		return amqp.ErrClosed
	}
	confirm, err := r.chn.PublishWithDeferredConfirmWithContext(ctx,
		"",        //default exchange
		queueName, //routing key (queue name)
		false,     //mandatory
		false,     //immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

// Consume starts listening on a queue with a small prefetch window.
// Deliveries must be acked by the caller.
func (r *RabbitmqClient) Consume(queueName string) (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.chn.Qos(16, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	return r.chn.Consume(
		queueName, //queue
		"",        //consumer
		false,     //auto-ack
		false,     //exclusive
		false,     //no-local
		false,     //no-wait
		nil,       //args
	)
}
