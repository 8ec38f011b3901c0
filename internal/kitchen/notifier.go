package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notifier publishes order-paid events for the kitchen display consumers.
// Dispatch is fire-and-forget from the orchestrator's point of view: a
// broker outage is an operational incident, never a payment failure.
type Notifier struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

type orderPaidEvent struct {
	OrderNumber string    `json:"orderNumber"`
	PaidAt      time.Time `json:"paidAt"`
}

func New(brokers []string, topic string, logger *zap.Logger) *Notifier {
	return &Notifier{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

func (n *Notifier) OrderPaid(ctx context.Context, orderKey string) error {
	value, err := json.Marshal(orderPaidEvent{
		OrderNumber: orderKey,
		PaidAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal order paid event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(orderKey),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write order paid event: %w", err)
	}
	n.logger.Debug("order paid event published", zap.String("order_key", orderKey))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// Noop replaces the Kafka notifier for broker-less deployments; paid
// orders are only visible in the logs.
type Noop struct {
	Logger *zap.Logger
}

func (n Noop) OrderPaid(_ context.Context, orderKey string) error {
	n.Logger.Info("kitchen notification skipped, no broker configured",
		zap.String("order_key", orderKey),
	)
	return nil
}
