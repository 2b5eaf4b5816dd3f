package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// Producer handles publishing analytics events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishSeriesCached publishes an event after new bars were written for a symbol
func (p *Producer) PublishSeriesCached(ctx context.Context, symbol string, barsCached int) error {
	event := models.AnalyticsEvent{
		EventType:  models.EventPriceSeriesCached,
		Symbol:     symbol,
		BarsCached: barsCached,
		Timestamp:  time.Now(),
	}
	return p.publish(ctx, symbol, event)
}

// PublishSharpeRefreshed publishes an event after a Sharpe ratio recomputation
func (p *Producer) PublishSharpeRefreshed(ctx context.Context, entry models.SharpeCacheEntry) error {
	event := models.AnalyticsEvent{
		EventType: models.EventSharpeRefreshed,
		Symbol:    entry.Symbol,
		Sharpe:    &entry,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, entry.Symbol, event)
}

// PublishAlertTriggered publishes an event when a price alert condition is met
func (p *Producer) PublishAlertTriggered(ctx context.Context, alert models.PriceAlert, currentPrice int64) error {
	event := models.AnalyticsEvent{
		EventType:    models.EventAlertTriggered,
		Symbol:       alert.Symbol,
		Alert:        &alert,
		CurrentPrice: currentPrice,
		Timestamp:    time.Now(),
	}
	return p.publish(ctx, alert.Symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.AnalyticsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
