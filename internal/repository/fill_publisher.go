package repository

import (
	"context"
	"fmt"

	"BarPulse/internal/domain/models"
	pkgkafka "BarPulse/pkg/kafka"
)

// KafkaFillPublisher streams executed fills to a Kafka topic, keyed by
// identifier so fills for one instrument stay in one partition.
type KafkaFillPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaFillPublisher binds a producer to the fills topic.
func NewKafkaFillPublisher(producer *pkgkafka.Producer, topic string) *KafkaFillPublisher {
	return &KafkaFillPublisher{producer: producer, topic: topic}
}

// Record implements repository.FillRecorder.
func (p *KafkaFillPublisher) Record(ctx context.Context, fill *models.Fill) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(fill.Identifier), fill); err != nil {
		return fmt.Errorf("publish fill: %w", err)
	}
	return nil
}

// Close implements repository.FillRecorder.
func (p *KafkaFillPublisher) Close() error {
	return p.producer.Close()
}
