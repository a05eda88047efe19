package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// EtaAlert says a cargo item reached its ETA day without being completed.
type EtaAlert struct {
	ID               string    `json:"id"`
	Consignee        string    `json:"consignee"`
	MasterAirWaybill string    `json:"masterAirWaybill"`
	HouseAirWaybills []string  `json:"houseAirWaybills"`
	ETA              string    `json:"eta"`
	CurrentStatus    string    `json:"currentStatus"`
	RaisedAt         time.Time `json:"raisedAt"`
}

// Notifier delivers alerts somewhere a person will see them.
type Notifier interface {
	Notify(ctx context.Context, alert EtaAlert) error
}

// QueuePublisher is the part of the rabbitmq client the queue notifier needs.
type QueuePublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// QueueNotifier publishes alerts as JSON messages on a RabbitMQ queue.
type QueueNotifier struct {
	pub   QueuePublisher
	queue string
}

func NewQueueNotifier(pub QueuePublisher, queue string) *QueueNotifier {
	return &QueueNotifier{pub: pub, queue: queue}
}

func (n *QueueNotifier) Notify(ctx context.Context, alert EtaAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode eta alert: %w", err)
	}
	if err := n.pub.Publish(ctx, n.queue, body); err != nil {
		return fmt.Errorf("failed to publish eta alert %s: %w", alert.ID, err)
	}
	return nil
}

// LogNotifier only logs. Used when no queue is configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, alert EtaAlert) error {
	n.Log.Warn("cargo eta reached",
		zap.String("id", alert.ID),
		zap.String("consignee", alert.Consignee),
		zap.String("eta", alert.ETA),
		zap.String("status", alert.CurrentStatus),
	)
	return nil
}
