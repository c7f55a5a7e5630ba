package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sangkips/investify-pos/internal/domain/event"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events as JSON keyed by business id, so one
// business's events stay ordered on a partition
type KafkaNotifier struct {
	sales messageWriter
	stock messageWriter
}

func NewKafkaNotifier(brokers []string, salesTopic, stockTopic string) *KafkaNotifier {
	return &KafkaNotifier{
		sales: newWriter(brokers, salesTopic),
		stock: newWriter(brokers, stockTopic),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

func (n *KafkaNotifier) SaleCommitted(ctx context.Context, e event.SaleCommitted) error {
	return publishJSON(ctx, n.sales, e.BusinessID.String(), e)
}

func (n *KafkaNotifier) LowStock(ctx context.Context, e event.LowStock) error {
	return publishJSON(ctx, n.stock, e.BusinessID.String(), e)
}

func (n *KafkaNotifier) Close() error {
	return errors.Join(n.sales.Close(), n.stock.Close())
}

func publishJSON(ctx context.Context, w messageWriter, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}
