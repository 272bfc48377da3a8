package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/messaging"

	kafkaGo "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// OrderPublisher は注文イベントを1トピックへ送る。キーは注文番号
type OrderPublisher struct {
	writer messageWriter
}

func NewOrderPublisher(brokers []string, topic string) *OrderPublisher {
	return &OrderPublisher{
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
			RequiredAcks:           kafkaGo.RequireOne,
		},
	}
}

func (p *OrderPublisher) PublishOrderEvent(ctx context.Context, ev messaging.OrderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(ev.OrderNumber),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	})
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
